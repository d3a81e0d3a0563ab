package middleware

import (
	"github.com/labstack/echo/v4"

	"pos-service/pkg/jwtutil"
)

const principalKey = "principal"

// Principal is the authenticated caller
type Principal struct {
	UserID uint
	Email  string
	Role   string
	// Schema is the tenant the token was issued for, empty for unbound tokens
	Schema string
	Claims *jwtutil.UserClaims
}

// PrincipalFrom returns the caller stored by AuthMiddleware, or nil
func PrincipalFrom(c echo.Context) *Principal {
	p, _ := c.Get(principalKey).(*Principal)
	return p
}

// ActorID returns the authenticated user id, 0 when the request is anonymous
func ActorID(c echo.Context) uint {
	if p := PrincipalFrom(c); p != nil {
		return p.UserID
	}
	return 0
}

func setPrincipal(c echo.Context, p *Principal) {
	c.Set(principalKey, p)
}
