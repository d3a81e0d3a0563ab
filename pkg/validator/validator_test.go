package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type createRequest struct {
	Code  string `json:"code" validate:"required"`
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"omitempty,email"`
}

func TestValidateReportsJSONNames(t *testing.T) {
	v := New()

	err := v.Validate(&createRequest{Name: "Jakarta"})
	assert.Error(t, err)
	assert.Equal(t, []string{"code"}, Fields(err))
	assert.True(t, IsRequiredFailure(err))

	err = v.Validate(&createRequest{Code: "JKT01", Name: "Jakarta", Email: "nope"})
	assert.Equal(t, []string{"email"}, Fields(err))
	assert.False(t, IsRequiredFailure(err))

	assert.NoError(t, v.Validate(&createRequest{Code: "JKT01", Name: "Jakarta"}))
}
