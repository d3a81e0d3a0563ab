package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"pos-service/internal/apperror"
	"pos-service/internal/model"
	"pos-service/internal/policy"
	"pos-service/internal/repository"
	"pos-service/pkg/cache"
	"pos-service/pkg/jwtutil"
	"pos-service/prometheus"
)

// LoginInput is the body of POST /auth/login
type LoginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
	Tenant   string `json:"tenant"`
	DeviceID string `json:"device_id"`
}

// Session is an issued token with the identity it carries
type Session struct {
	Token     string              `json:"token"`
	ExpiresAt time.Time           `json:"expires_at"`
	User      *model.User         `json:"user"`
	Tenant    *model.Membership   `json:"tenant,omitempty"`
	Claims    *jwtutil.UserClaims `json:"-"`
}

// AuthService issues, checks and revokes session tokens
type AuthService struct {
	users  repository.UserRepository
	jwt    *jwtutil.JWTUtil
	cache  cache.Store
	logger *zap.Logger
	now    func() time.Time
}

func NewAuthService(users repository.UserRepository, jwt *jwtutil.JWTUtil, store cache.Store, logger *zap.Logger) *AuthService {
	return &AuthService{
		users:  users,
		jwt:    jwt,
		cache:  store,
		logger: logger,
		now:    time.Now,
	}
}

// Login checks the credentials and issues a token bound to the requested
// tenant, or to the user's default tenant when none is named.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*Session, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))

	defer prometheus.TrackDBOperation("auth.login")()
	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		prometheus.RecordLogin("invalid_credentials")
		return nil, apperror.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.Password)); err != nil {
		prometheus.RecordLogin("invalid_credentials")
		return nil, apperror.ErrInvalidCredentials
	}

	membership, err := s.pick(ctx, user.ID, in.Tenant)
	if err != nil {
		prometheus.RecordLogin("forbidden")
		return nil, err
	}

	session, err := s.issue(user, membership, strings.TrimSpace(in.DeviceID))
	if err != nil {
		return nil, err
	}
	prometheus.RecordLogin("success")
	return session, nil
}

// Switch re-issues the caller's token for another tenant and revokes the old one
func (s *AuthService) Switch(ctx context.Context, claims *jwtutil.UserClaims, tenant string) (*Session, error) {
	if strings.TrimSpace(tenant) == "" {
		return nil, apperror.MissingFields("tenant")
	}
	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, notFound(err, "User")
	}
	membership, err := s.pick(ctx, user.ID, tenant)
	if err != nil {
		return nil, err
	}
	session, err := s.issue(user, membership, claims.DeviceID)
	if err != nil {
		return nil, err
	}
	if err := s.Logout(ctx, claims); err != nil {
		s.logger.Warn("Failed to revoke switched token", zap.String("jti", claims.ID), zap.Error(err))
	}
	return session, nil
}

// Authenticate validates a token presented with an optional device id
func (s *AuthService) Authenticate(ctx context.Context, token, deviceID string) (*jwtutil.UserClaims, error) {
	claims, err := s.jwt.ValidateToken(token)
	if err != nil {
		prometheus.RecordAuthError("invalid_token")
		return nil, apperror.ErrUnauthorized
	}
	if claims.DeviceID != "" && deviceID != "" && claims.DeviceID != deviceID {
		prometheus.RecordAuthError("device_mismatch")
		return nil, apperror.ErrUnauthorized
	}
	revoked, err := s.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		prometheus.RecordAuthError("revoked_token")
		return nil, apperror.ErrUnauthorized
	}
	return claims, nil
}

// Logout revokes the token id until the token would have expired anyway
func (s *AuthService) Logout(ctx context.Context, claims *jwtutil.UserClaims) error {
	if claims.ID == "" || claims.ExpiresAt == nil {
		return nil
	}
	ttl := claims.ExpiresAt.Time.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	return s.cache.Set(ctx, revokedKey(claims.ID), "1", ttl)
}

func (s *AuthService) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if jti == "" {
		return false, nil
	}
	_, err := s.cache.Get(ctx, revokedKey(jti))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, cache.ErrMiss):
		return false, nil
	default:
		return false, err
	}
}

func (s *AuthService) Me(ctx context.Context, userID uint) (*model.User, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, notFound(err, "User")
	}
	return u, nil
}

// Tenants lists the active tenants the user belongs to, default first
func (s *AuthService) Tenants(ctx context.Context, userID uint) ([]model.Membership, error) {
	return s.users.Memberships(ctx, userID)
}

// pick finds the membership for key, or the default one when key is empty.
// A user without any membership gets nil and an unbound token.
func (s *AuthService) pick(ctx context.Context, userID uint, key string) (*model.Membership, error) {
	memberships, err := s.users.Memberships(ctx, userID)
	if err != nil {
		return nil, err
	}
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" {
		if len(memberships) == 0 {
			return nil, nil
		}
		return &memberships[0], nil
	}
	for i := range memberships {
		t := memberships[i].Tenant
		if t.Schema == key || t.Subdomain == key {
			return &memberships[i], nil
		}
	}
	return nil, apperror.Forbidden("No access to tenant " + key)
}

func (s *AuthService) issue(user *model.User, m *model.Membership, deviceID string) (*Session, error) {
	var binding *jwtutil.TenantBinding
	if m != nil {
		if !policy.ValidRole(m.Role) {
			prometheus.RecordAuthError("unknown_role")
			return nil, apperror.Forbidden("Unknown role " + m.Role)
		}
		binding = &jwtutil.TenantBinding{
			ID:     m.Tenant.ID,
			Schema: m.Tenant.Schema,
			Name:   m.Tenant.Name,
			Role:   m.Role,
		}
	}
	token, claims, err := s.jwt.GenerateToken(user.Email, user.ID, binding, deviceID)
	if err != nil {
		prometheus.RecordAuthError("token_generation_failed")
		return nil, err
	}
	return &Session{
		Token:     token,
		ExpiresAt: claims.ExpiresAt.Time,
		User:      user,
		Tenant:    m,
		Claims:    claims,
	}, nil
}

func revokedKey(jti string) string {
	return "revoked:" + jti
}
