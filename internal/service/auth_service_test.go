package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"pos-service/internal/apperror"
	"pos-service/internal/model"
	"pos-service/internal/policy"
	"pos-service/pkg/cache"
	"pos-service/pkg/config"
	"pos-service/pkg/jwtutil"
)

type authFixture struct {
	*fixture
	svc   *AuthService
	user  *model.User
	a, b  *model.Tenant
	cache *cache.MemoryStore
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	f := newFixture(t)
	ctx := context.Background()

	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	require.NoError(t, err)
	user := &model.User{Email: "owner@example.com", Password: string(hash), Name: "Owner"}
	require.NoError(t, f.repos.Users.Create(ctx, user))

	a := &model.Tenant{Name: "Tenant A", Schema: "tenant_a", Subdomain: "a", Active: true}
	b := &model.Tenant{Name: "Tenant B", Schema: "tenant_b", Subdomain: "b", Active: true}
	require.NoError(t, f.repos.Tenants.Create(ctx, a))
	require.NoError(t, f.repos.Tenants.Create(ctx, b))
	require.NoError(t, f.repos.Users.Bind(ctx, user.ID, a.ID, policy.RoleOwner, true))
	require.NoError(t, f.repos.Users.Bind(ctx, user.ID, b.ID, policy.RoleUser, false))

	store := cache.NewMemoryStore()
	jwt := jwtutil.NewJWTUtil(&config.JWTConfig{SigningKey: "test-key", ExpirationHours: 1})
	return &authFixture{
		fixture: f,
		svc:     NewAuthService(f.repos.Users, jwt, store, zap.NewNop()),
		user:    user,
		a:       a,
		b:       b,
		cache:   store,
	}
}

func TestLoginDefaultTenant(t *testing.T) {
	f := newAuthFixture(t)

	s, err := f.svc.Login(context.Background(), LoginInput{Email: " Owner@Example.com", Password: "secret"})
	require.NoError(t, err)
	require.NotNil(t, s.Tenant)
	assert.Equal(t, "tenant_a", s.Claims.TenantSchema)
	assert.Equal(t, policy.RoleOwner, s.Claims.Role)
	assert.NotEmpty(t, s.Token)
}

func TestLoginNamedTenant(t *testing.T) {
	f := newAuthFixture(t)

	s, err := f.svc.Login(context.Background(), LoginInput{Email: "owner@example.com", Password: "secret", Tenant: "b", DeviceID: "pos-1"})
	require.NoError(t, err)
	assert.Equal(t, "tenant_b", s.Claims.TenantSchema)
	assert.Equal(t, policy.RoleUser, s.Claims.Role)
	assert.Equal(t, "pos-1", s.Claims.DeviceID)

	_, err = f.svc.Login(context.Background(), LoginInput{Email: "owner@example.com", Password: "secret", Tenant: "c"})
	assert.ErrorIs(t, err, apperror.ErrForbidden)
}

func TestLoginUnknownRole(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	c := &model.Tenant{Name: "Tenant C", Schema: "tenant_c", Subdomain: "c", Active: true}
	require.NoError(t, f.repos.Tenants.Create(ctx, c))
	require.NoError(t, f.repos.Users.Bind(ctx, f.user.ID, c.ID, "root", false))

	_, err := f.svc.Login(ctx, LoginInput{Email: "owner@example.com", Password: "secret", Tenant: "c"})
	assert.ErrorIs(t, err, apperror.ErrForbidden)
}

func TestLoginInvalidCredentials(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.svc.Login(context.Background(), LoginInput{Email: "owner@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, apperror.ErrInvalidCredentials)

	_, err = f.svc.Login(context.Background(), LoginInput{Email: "nobody@example.com", Password: "secret"})
	assert.ErrorIs(t, err, apperror.ErrInvalidCredentials)
}

func TestAuthenticateAndLogout(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	s, err := f.svc.Login(ctx, LoginInput{Email: "owner@example.com", Password: "secret", DeviceID: "pos-1"})
	require.NoError(t, err)

	claims, err := f.svc.Authenticate(ctx, s.Token, "pos-1")
	require.NoError(t, err)
	assert.Equal(t, f.user.ID, claims.UserID)

	_, err = f.svc.Authenticate(ctx, s.Token, "pos-2")
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)

	_, err = f.svc.Authenticate(ctx, "not-a-token", "")
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)

	require.NoError(t, f.svc.Logout(ctx, claims))
	_, err = f.svc.Authenticate(ctx, s.Token, "")
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
}

func TestSwitchTenant(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	s, err := f.svc.Login(ctx, LoginInput{Email: "owner@example.com", Password: "secret"})
	require.NoError(t, err)

	switched, err := f.svc.Switch(ctx, s.Claims, "tenant_b")
	require.NoError(t, err)
	assert.Equal(t, "tenant_b", switched.Claims.TenantSchema)

	_, err = f.svc.Authenticate(ctx, s.Token, "")
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
	_, err = f.svc.Authenticate(ctx, switched.Token, "")
	assert.NoError(t, err)

	tenants, err := f.svc.Tenants(ctx, f.user.ID)
	require.NoError(t, err)
	require.Len(t, tenants, 2)
	assert.True(t, tenants[0].IsDefault)
}
