package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"pos-service/internal/apperror"
	"pos-service/internal/model"
	"pos-service/internal/repository"
	"pos-service/pkg/cache"
)

const missingTenant = "-"

// TenantDirectory resolves tenant keys through a cache in front of the
// shared tenant table. Unknown keys are cached too, for a shorter TTL.
type TenantDirectory struct {
	repo        repository.TenantRepository
	cache       cache.Store
	ttl         time.Duration
	negativeTTL time.Duration
	logger      *zap.Logger
}

func NewTenantDirectory(repo repository.TenantRepository, store cache.Store, ttl, negativeTTL time.Duration, logger *zap.Logger) *TenantDirectory {
	return &TenantDirectory{
		repo:        repo,
		cache:       store,
		ttl:         ttl,
		negativeTTL: negativeTTL,
		logger:      logger,
	}
}

// Lookup returns the active tenant whose subdomain or schema equals key
func (d *TenantDirectory) Lookup(ctx context.Context, key string) (*model.Tenant, error) {
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" {
		return nil, apperror.ErrTenantRequired
	}
	cacheKey := "tenant:" + key

	if raw, err := d.cache.Get(ctx, cacheKey); err == nil {
		if raw == missingTenant {
			return nil, apperror.ErrTenantInvalid
		}
		var t model.Tenant
		if err := json.Unmarshal([]byte(raw), &t); err == nil {
			return &t, nil
		}
		d.logger.Warn("Discarding unreadable tenant cache entry", zap.String("key", key))
	} else if !errors.Is(err, cache.ErrMiss) {
		d.logger.Warn("Tenant cache unavailable", zap.Error(err))
	}

	t, err := d.repo.FindByKey(ctx, key)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		d.store(ctx, cacheKey, missingTenant, d.negativeTTL)
		return nil, apperror.ErrTenantInvalid
	}
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(t); err == nil {
		d.store(ctx, cacheKey, string(raw), d.ttl)
	}
	return t, nil
}

// Forget drops the cached entries of a tenant after it changes
func (d *TenantDirectory) Forget(ctx context.Context, t *model.Tenant) {
	for _, key := range []string{t.Subdomain, t.Schema} {
		if err := d.cache.Delete(ctx, "tenant:"+strings.ToLower(key)); err != nil {
			d.logger.Warn("Failed to evict tenant cache entry", zap.String("key", key), zap.Error(err))
		}
	}
}

func (d *TenantDirectory) store(ctx context.Context, key, value string, ttl time.Duration) {
	if err := d.cache.Set(ctx, key, value, ttl); err != nil {
		d.logger.Warn("Failed to cache tenant lookup", zap.String("key", key), zap.Error(err))
	}
}
