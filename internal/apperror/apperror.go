// Package apperror defines the structured errors returned to API clients.
package apperror

import (
	"errors"
	"fmt"
	"net/http"

	"gorm.io/gorm"

	"pos-service/pkg/tenancy"
	"pos-service/pkg/validator"
)

// Error codes
const (
	CodeTenantRequired        = "TENANT_REQUIRED"
	CodeTenantInvalid         = "TENANT_INVALID"
	CodeMissingRequiredFields = "MISSING_REQUIRED_FIELDS"
	CodeInvalidRequest        = "INVALID_REQUEST"
	CodeNotFound              = "NOT_FOUND"
	CodeExists                = "CODE_EXISTS"
	CodeInvalidCredentials    = "INVALID_CREDENTIALS"
	CodeUnauthorized          = "UNAUTHORIZED"
	CodeForbidden             = "FORBIDDEN"
	CodeAlreadyClosed         = "ALREADY_CLOSED"
	CodeInvalidAmount         = "INVALID_AMOUNT"
	CodeInvalidTransition     = "INVALID_TRANSITION"
	CodeServerError           = "SERVER_ERROR"
)

// Error is an error with an API code and HTTP status
type Error struct {
	Code    string
	Status  int
	Message string
	Fields  []string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return e.Code + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error by code, so errors.Is(err, ErrNotFound) works for any message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// Sentinels for errors.Is
var (
	ErrTenantRequired     = &Error{Code: CodeTenantRequired, Status: http.StatusBadRequest, Message: "Tenant is required"}
	ErrTenantInvalid      = &Error{Code: CodeTenantInvalid, Status: http.StatusNotFound, Message: "Tenant not found"}
	ErrMissingFields      = &Error{Code: CodeMissingRequiredFields, Status: http.StatusBadRequest, Message: "Missing required fields"}
	ErrInvalidRequest     = &Error{Code: CodeInvalidRequest, Status: http.StatusBadRequest, Message: "Invalid request"}
	ErrNotFound           = &Error{Code: CodeNotFound, Status: http.StatusNotFound, Message: "Record not found"}
	ErrCodeExists         = &Error{Code: CodeExists, Status: http.StatusConflict, Message: "Code already exists"}
	ErrInvalidCredentials = &Error{Code: CodeInvalidCredentials, Status: http.StatusUnauthorized, Message: "Invalid email or password"}
	ErrUnauthorized       = &Error{Code: CodeUnauthorized, Status: http.StatusUnauthorized, Message: "Unauthorized"}
	ErrForbidden          = &Error{Code: CodeForbidden, Status: http.StatusForbidden, Message: "Forbidden"}
	ErrAlreadyClosed      = &Error{Code: CodeAlreadyClosed, Status: http.StatusConflict, Message: "Record is already closed"}
	ErrInvalidAmount      = &Error{Code: CodeInvalidAmount, Status: http.StatusBadRequest, Message: "Invalid amount"}
	ErrInvalidTransition  = &Error{Code: CodeInvalidTransition, Status: http.StatusConflict, Message: "Invalid state transition"}
)

func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// NotFound returns a NOT_FOUND error naming the missing resource
func NotFound(resource string) *Error {
	return &Error{Code: CodeNotFound, Status: http.StatusNotFound, Message: resource + " not found"}
}

// CodeTaken returns a CODE_EXISTS error for code
func CodeTaken(code string) *Error {
	return &Error{Code: CodeExists, Status: http.StatusConflict, Message: fmt.Sprintf("Code %q already exists", code)}
}

// MissingFields returns a MISSING_REQUIRED_FIELDS error listing fields
func MissingFields(fields ...string) *Error {
	return &Error{
		Code:    CodeMissingRequiredFields,
		Status:  http.StatusBadRequest,
		Message: "Missing required fields",
		Fields:  fields,
	}
}

// InvalidRequest returns an INVALID_REQUEST error
func InvalidRequest(message string, fields ...string) *Error {
	return &Error{Code: CodeInvalidRequest, Status: http.StatusBadRequest, Message: message, Fields: fields}
}

// InvalidAmount returns an INVALID_AMOUNT error with message
func InvalidAmount(message string) *Error {
	return &Error{Code: CodeInvalidAmount, Status: http.StatusBadRequest, Message: message}
}

// AlreadyClosed returns an ALREADY_CLOSED error naming the closed record
func AlreadyClosed(number string) *Error {
	return &Error{Code: CodeAlreadyClosed, Status: http.StatusConflict, Message: number + " is already closed"}
}

// InvalidTransition returns an INVALID_TRANSITION error with message
func InvalidTransition(message string) *Error {
	return &Error{Code: CodeInvalidTransition, Status: http.StatusConflict, Message: message}
}

// Forbidden returns a FORBIDDEN error with message
func Forbidden(message string) *Error {
	return &Error{Code: CodeForbidden, Status: http.StatusForbidden, Message: message}
}

// Internal wraps an unclassified error
func Internal(err error) *Error {
	return &Error{Code: CodeServerError, Status: http.StatusInternalServerError, Message: "Internal server error", Err: err}
}

// From classifies err. Errors that are not recognised become SERVER_ERROR
// and keep the original error for logging.
func From(err error) *Error {
	var appErr *Error
	switch {
	case err == nil:
		return nil
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, gorm.ErrRecordNotFound):
		return &Error{Code: CodeNotFound, Status: http.StatusNotFound, Message: "Record not found", Err: err}
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return &Error{Code: CodeExists, Status: http.StatusConflict, Message: "Code already exists", Err: err}
	case errors.Is(err, tenancy.ErrSchemaRequired):
		return &Error{Code: CodeTenantRequired, Status: http.StatusBadRequest, Message: "Tenant is required", Err: err}
	case errors.Is(err, tenancy.ErrInvalidSchema):
		return &Error{Code: CodeTenantInvalid, Status: http.StatusNotFound, Message: "Tenant not found", Err: err}
	case validator.Fields(err) != nil:
		fields := validator.Fields(err)
		if validator.IsRequiredFailure(err) {
			return MissingFields(fields...)
		}
		return InvalidRequest("Invalid field values", fields...)
	default:
		return Internal(err)
	}
}
