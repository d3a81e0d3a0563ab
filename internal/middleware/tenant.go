package middleware

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"pos-service/internal/apperror"
	"pos-service/internal/model"
	"pos-service/pkg/logger"
	"pos-service/pkg/notify"
	"pos-service/pkg/tenancy"
	"pos-service/prometheus"
)

const TenantHeader = "X-Tenant-ID"

// TenantLookup resolves a tenant key to an active tenant
type TenantLookup interface {
	Lookup(ctx context.Context, key string) (*model.Tenant, error)
}

// TenantMiddleware resolves the tenant of the request from the X-Tenant-ID
// header or the subdomain under baseDomain and binds its schema to the
// request context. It runs after AuthMiddleware.
func TenantMiddleware(tenants TenantLookup, baseDomain string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromContext(c)

			key := TenantKey(c.Request().Header.Get(TenantHeader), c.Request().Host, baseDomain)
			if key == "" {
				prometheus.RecordTenantResolution("missing")
				log.Warn("Request without tenant")
				return apperror.ErrTenantRequired
			}

			tenant, err := tenants.Lookup(c.Request().Context(), key)
			if err != nil {
				if errors.Is(err, apperror.ErrTenantInvalid) {
					prometheus.RecordTenantResolution("unknown")
					log.Warn("Unknown tenant", zap.String("tenant_key", key))
				} else {
					prometheus.RecordTenantResolution("error")
				}
				return err
			}

			if p := PrincipalFrom(c); p != nil && p.Schema != "" && p.Schema != tenant.Schema {
				prometheus.RecordTenantResolution("mismatch")
				log.Warn("Token is bound to another tenant",
					zap.String("token_tenant", p.Schema),
					zap.String("tenant", tenant.Schema))
				return apperror.Forbidden("Token is not valid for tenant " + key)
			}

			prometheus.RecordTenantResolution("resolved")
			logger.With(c, zap.String("tenant", tenant.Schema))

			req := c.Request()
			ctx := tenancy.WithSchema(req.Context(), tenant.Schema)
			ctx = notify.WithForward(ctx, notify.ForwardFromRequest(req))
			c.SetRequest(req.WithContext(ctx))

			return next(c)
		}
	}
}

// TenantKey picks the tenant key: the header when present, otherwise the
// left-most label of host when host is a subdomain of baseDomain.
func TenantKey(header, host, baseDomain string) string {
	if key := strings.ToLower(strings.TrimSpace(header)); key != "" {
		return key
	}
	if baseDomain == "" {
		return ""
	}
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	suffix := "." + strings.ToLower(baseDomain)
	if !strings.HasSuffix(host, suffix) {
		return ""
	}
	label, _, _ := strings.Cut(strings.TrimSuffix(host, suffix), ".")
	return label
}
