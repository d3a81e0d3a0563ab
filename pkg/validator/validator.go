package validator

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator adapts go-playground/validator to echo.Validator
type Validator struct {
	validate *validator.Validate
}

// New creates a validator reporting fields by their json names
func New() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	return &Validator{validate: v}
}

// Validate implements echo.Validator
func (v *Validator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}

// Fields returns the offending field names of a validation error, or nil
func Fields(err error) []string {
	ve, ok := err.(validator.ValidationErrors)
	if !ok {
		return nil
	}
	fields := make([]string, 0, len(ve))
	for _, fe := range ve {
		fields = append(fields, fe.Field())
	}
	return fields
}

// IsRequiredFailure reports whether every failure is a missing required value
func IsRequiredFailure(err error) bool {
	ve, ok := err.(validator.ValidationErrors)
	if !ok || len(ve) == 0 {
		return false
	}
	for _, fe := range ve {
		if fe.Tag() != "required" {
			return false
		}
	}
	return true
}
