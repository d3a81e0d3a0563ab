package jwtutil

import (
	"errors"
	"fmt"
	"time"

	"pos-service/pkg/config"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

// UserClaims represents the JWT claims for user authentication
type UserClaims struct {
	Email        string `json:"email"`
	UserID       uint   `json:"user_id"`
	TenantID     *uint  `json:"tenant_id,omitempty"`
	TenantSchema string `json:"tenant_schema,omitempty"` // Schema the session is bound to
	TenantName   string `json:"tenant_name,omitempty"`
	Role         string `json:"role,omitempty"`      // User's role in the current tenant
	DeviceID     string `json:"device_id,omitempty"` // Device the session was issued to, if any
	jwt.RegisteredClaims
}

// TenantBinding describes the tenant a token is issued for
type TenantBinding struct {
	ID     uint
	Schema string
	Name   string
	Role   string
}

// JWTUtil is a utility for JWT token operations
type JWTUtil struct {
	config *config.JWTConfig
	now    func() time.Time
}

// NewJWTUtil creates a new JWT utility with the given configuration
func NewJWTUtil(cfg *config.JWTConfig) *JWTUtil {
	return &JWTUtil{
		config: cfg,
		now:    time.Now,
	}
}

// GenerateToken creates a JWT token with user and (optional) tenant information.
// It returns the signed token together with its claims so callers can read the
// token id and expiry without parsing it again.
func (j *JWTUtil) GenerateToken(email string, userID uint, tenant *TenantBinding, deviceID string) (string, *UserClaims, error) {
	if j.config == nil {
		return "", nil, errors.New("JWT configuration not provided")
	}

	now := j.now()
	claims := &UserClaims{
		Email:    email,
		UserID:   userID,
		DeviceID: deviceID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   fmt.Sprintf("%d", userID),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(j.config.ExpirationHours) * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	if tenant != nil {
		id := tenant.ID
		claims.TenantID = &id
		claims.TenantSchema = tenant.Schema
		claims.TenantName = tenant.Name
		claims.Role = tenant.Role
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(j.config.SigningKey))
	if err != nil {
		return "", nil, err
	}
	return signed, claims, nil
}

// ValidateToken validates and parses the JWT token
func (j *JWTUtil) ValidateToken(tokenString string) (*UserClaims, error) {
	if j.config == nil {
		return nil, errors.New("JWT configuration not provided")
	}

	token, err := jwt.ParseWithClaims(
		tokenString,
		&UserClaims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(j.config.SigningKey), nil
		},
	)
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*UserClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid token")
}
