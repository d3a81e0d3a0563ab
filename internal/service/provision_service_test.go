package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"pos-service/internal/apperror"
	"pos-service/internal/policy"
	"pos-service/pkg/cache"
)

func TestProvision(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	var created []string
	p := NewProvisioner(f.repos, func(_ context.Context, schema string) error {
		created = append(created, schema)
		return nil
	}, zap.NewNop())

	tenant, owner, err := p.Provision(ctx, ProvisionInput{
		Schema:        "Tenant_A",
		Name:          "Tenant A",
		Subdomain:     "a",
		OwnerEmail:    "owner@example.com",
		OwnerPassword: "secret",
	})
	require.NoError(t, err)
	assert.Equal(t, "tenant_a", tenant.Schema)
	assert.Equal(t, []string{"tenant_a"}, created)

	second, sameOwner, err := p.Provision(ctx, ProvisionInput{
		Schema:     "tenant_b",
		OwnerEmail: "owner@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, owner.ID, sameOwner.ID)
	assert.Equal(t, "tenant_b", second.Subdomain)

	memberships, err := f.repos.Users.Memberships(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, memberships, 2)
	assert.Equal(t, "tenant_a", memberships[0].Tenant.Schema)
	assert.True(t, memberships[0].IsDefault)
	assert.Equal(t, policy.RoleOwner, memberships[1].Role)

	// provisioning again is idempotent
	_, _, err = p.Provision(ctx, ProvisionInput{Schema: "tenant_a", OwnerEmail: "owner@example.com"})
	require.NoError(t, err)
	memberships, err = f.repos.Users.Memberships(ctx, owner.ID)
	require.NoError(t, err)
	assert.Len(t, memberships, 2)
	assert.True(t, memberships[0].IsDefault)
}

func TestProvisionRejectsBadInput(t *testing.T) {
	f := newFixture(t)
	failing := errors.New("schema failed")
	p := NewProvisioner(f.repos, func(context.Context, string) error { return failing }, zap.NewNop())

	_, _, err := p.Provision(context.Background(), ProvisionInput{Schema: "public", OwnerEmail: "o@example.com"})
	assert.ErrorIs(t, err, apperror.ErrInvalidRequest)

	_, _, err = p.Provision(context.Background(), ProvisionInput{Schema: "tenant_a", OwnerEmail: "o@example.com"})
	assert.ErrorIs(t, err, failing)
}

func TestProvisionEvictsUnknownTenant(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	dir := NewTenantDirectory(f.repos.Tenants, cache.NewMemoryStore(), time.Minute, time.Hour, zap.NewNop())

	_, err := dir.Lookup(ctx, "newco")
	require.ErrorIs(t, err, apperror.ErrTenantInvalid)

	p := NewProvisioner(f.repos, func(context.Context, string) error { return nil }, zap.NewNop())
	p.UseDirectory(dir)
	_, _, err = p.Provision(ctx, ProvisionInput{Schema: "newco", OwnerEmail: "o@example.com", OwnerPassword: "secret"})
	require.NoError(t, err)

	tenant, err := dir.Lookup(ctx, "newco")
	require.NoError(t, err)
	assert.Equal(t, "newco", tenant.Schema)
}
