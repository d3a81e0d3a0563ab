package middleware

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"pos-service/internal/apperror"
	"pos-service/internal/policy"
	"pos-service/pkg/logger"
	"pos-service/prometheus"
)

// Authorize lets the request through when the caller's role may perform
// action on resource.
func Authorize(action policy.Action, resource string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p := PrincipalFrom(c)
			if p == nil {
				return apperror.ErrUnauthorized
			}
			if !policy.Allow(p.Role, action, resource) {
				prometheus.RecordAuthError("forbidden")
				logger.FromContext(c).Warn("Permission denied",
					zap.String("role", p.Role),
					zap.String("action", string(action)),
					zap.String("resource", resource))
				return apperror.Forbidden("Role " + p.Role + " may not " + string(action) + " " + resource)
			}
			return next(c)
		}
	}
}
