package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"pos-service/pkg/tenancy"
	"pos-service/pkg/validator"
)

func TestFromClassifiesErrors(t *testing.T) {
	type req struct {
		Code string `json:"code" validate:"required"`
	}
	validationErr := validator.New().Validate(&req{})

	tests := []struct {
		name   string
		err    error
		code   string
		status int
	}{
		{"app error passes through", CodeTaken("JKT01"), CodeExists, http.StatusConflict},
		{"wrapped app error", fmt.Errorf("create: %w", ErrAlreadyClosed), CodeAlreadyClosed, http.StatusConflict},
		{"record not found", fmt.Errorf("load: %w", gorm.ErrRecordNotFound), CodeNotFound, http.StatusNotFound},
		{"duplicate key", gorm.ErrDuplicatedKey, CodeExists, http.StatusConflict},
		{"schema missing", tenancy.ErrSchemaRequired, CodeTenantRequired, http.StatusBadRequest},
		{"validation", validationErr, CodeMissingRequiredFields, http.StatusBadRequest},
		{"unknown", errors.New("connection reset"), CodeServerError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := From(tt.err)
			assert.Equal(t, tt.code, e.Code)
			assert.Equal(t, tt.status, e.Status)
		})
	}
	assert.Nil(t, From(nil))
}

func TestIsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("pay: %w", AlreadyClosed("AR-20240101-0001"))
	assert.True(t, errors.Is(err, ErrAlreadyClosed))
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.True(t, errors.Is(NotFound("Region"), ErrNotFound))
}

func TestMissingFieldsKeepsFieldList(t *testing.T) {
	e := MissingFields("code", "name")
	assert.Equal(t, []string{"code", "name"}, e.Fields)
	assert.Equal(t, CodeMissingRequiredFields, From(e).Code)
}
