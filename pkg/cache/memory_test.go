package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	require.NoError(t, s.Set(ctx, "tenant:acme", "tenant_acme", time.Minute))
	require.NoError(t, s.Set(ctx, "revoked:abc", "1", 0))

	v, err := s.Get(ctx, "tenant:acme")
	require.NoError(t, err)
	assert.Equal(t, "tenant_acme", v)

	now = now.Add(time.Minute)
	_, err = s.Get(ctx, "tenant:acme")
	assert.ErrorIs(t, err, ErrMiss)

	v, err = s.Get(ctx, "revoked:abc")
	require.NoError(t, err)
	assert.Equal(t, "1", v)

	require.NoError(t, s.Delete(ctx, "revoked:abc"))
	_, err = s.Get(ctx, "revoked:abc")
	assert.ErrorIs(t, err, ErrMiss)
}
