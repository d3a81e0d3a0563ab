package jwtutil

import (
	"testing"
	"time"

	"pos-service/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidate(t *testing.T) {
	j := NewJWTUtil(&config.JWTConfig{SigningKey: "k1", ExpirationHours: 1})

	token, issued, err := j.GenerateToken("owner@example.com", 7, &TenantBinding{ID: 3, Schema: "tenant_a", Name: "A", Role: "owner"}, "dev-1")
	require.NoError(t, err)
	require.NotEmpty(t, issued.ID)

	claims, err := j.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, "tenant_a", claims.TenantSchema)
	assert.Equal(t, "owner", claims.Role)
	assert.Equal(t, "dev-1", claims.DeviceID)
	require.NotNil(t, claims.TenantID)
	assert.Equal(t, uint(3), *claims.TenantID)
	assert.Equal(t, issued.ID, claims.ID)
}

func TestValidateRejectsForeignKey(t *testing.T) {
	a := NewJWTUtil(&config.JWTConfig{SigningKey: "k1", ExpirationHours: 1})
	b := NewJWTUtil(&config.JWTConfig{SigningKey: "k2", ExpirationHours: 1})

	token, _, err := a.GenerateToken("u@example.com", 1, nil, "")
	require.NoError(t, err)

	_, err = b.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateRejectsExpired(t *testing.T) {
	j := NewJWTUtil(&config.JWTConfig{SigningKey: "k1", ExpirationHours: 1})
	j.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, _, err := j.GenerateToken("u@example.com", 1, nil, "")
	require.NoError(t, err)

	_, err = j.ValidateToken(token)
	assert.Error(t, err)
}
