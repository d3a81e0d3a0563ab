package middleware

import (
	"context"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"pos-service/internal/apperror"
	"pos-service/pkg/jwtutil"
	"pos-service/pkg/logger"
	"pos-service/prometheus"
)

const DeviceIDHeader = "X-Device-ID"

// Authenticator validates session tokens
type Authenticator interface {
	Authenticate(ctx context.Context, token, deviceID string) (*jwtutil.UserClaims, error)
}

// AuthMiddleware validates the session token from the Authorization header
// or, failing that, the session cookie.
func AuthMiddleware(auth Authenticator, cookieName string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromContext(c)

			token, err := tokenFrom(c, cookieName)
			if err != nil {
				log.Warn("Missing or malformed credentials", zap.Error(err))
				return err
			}

			claims, err := auth.Authenticate(c.Request().Context(), token, c.Request().Header.Get(DeviceIDHeader))
			if err != nil {
				log.Warn("Rejected session token", zap.Error(err))
				return err
			}

			setPrincipal(c, &Principal{
				UserID: claims.UserID,
				Email:  claims.Email,
				Role:   claims.Role,
				Schema: claims.TenantSchema,
				Claims: claims,
			})
			logger.With(c, zap.Uint("user_id", claims.UserID))

			return next(c)
		}
	}
}

func tokenFrom(c echo.Context, cookieName string) (string, error) {
	if header := c.Request().Header.Get(echo.HeaderAuthorization); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
			prometheus.RecordAuthError("invalid_auth_format")
			return "", apperror.ErrUnauthorized
		}
		return strings.TrimSpace(parts[1]), nil
	}
	if cookieName != "" {
		if cookie, err := c.Cookie(cookieName); err == nil && cookie.Value != "" {
			return cookie.Value, nil
		}
	}
	prometheus.RecordAuthError("missing_token")
	return "", apperror.ErrUnauthorized
}
