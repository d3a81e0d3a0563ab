package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"pos-service/internal/apperror"
	"pos-service/internal/middleware"
	"pos-service/internal/service"
	"pos-service/pkg/logger"
)

// SwitchRequest names the tenant to switch to
type SwitchRequest struct {
	Tenant string `json:"tenant" validate:"required"`
}

type AuthHandler struct {
	svc        *service.AuthService
	cookieName string
	secure     bool
}

func NewAuthHandler(svc *service.AuthService, cookieName string, secure bool) *AuthHandler {
	return &AuthHandler{svc: svc, cookieName: cookieName, secure: secure}
}

// Login handles POST /auth/login. The token is returned in the body and set as the session cookie.
func (h *AuthHandler) Login(c echo.Context) error {
	log := logger.FromContext(c)

	var req service.LoginInput
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	if req.DeviceID == "" {
		req.DeviceID = c.Request().Header.Get(middleware.DeviceIDHeader)
	}

	session, err := h.svc.Login(c.Request().Context(), req)
	if err != nil {
		return respondError(c, err)
	}
	h.setCookie(c, session.Token, session.ExpiresAt)

	fields := []zap.Field{zap.Uint("user_id", session.User.ID)}
	if session.Tenant != nil {
		fields = append(fields,
			zap.String("tenant", session.Tenant.Tenant.Schema),
			zap.String("role", session.Tenant.Role))
	}
	log.Info("User logged in", fields...)
	return respondMutation(c, http.StatusOK, "Login successful", session)
}

// Switch handles POST /auth/switch
func (h *AuthHandler) Switch(c echo.Context) error {
	log := logger.FromContext(c)

	p := middleware.PrincipalFrom(c)
	if p == nil {
		return respondError(c, apperror.ErrUnauthorized)
	}
	var req SwitchRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}

	session, err := h.svc.Switch(c.Request().Context(), p.Claims, req.Tenant)
	if err != nil {
		return respondError(c, err)
	}
	h.setCookie(c, session.Token, session.ExpiresAt)

	log.Info("User switched tenant",
		zap.String("from", p.Schema),
		zap.String("to", req.Tenant))
	return respondMutation(c, http.StatusOK, "Tenant switched successfully", session)
}

// Logout handles POST /auth/logout by revoking the presented token
func (h *AuthHandler) Logout(c echo.Context) error {
	log := logger.FromContext(c)

	p := middleware.PrincipalFrom(c)
	if p == nil {
		return respondError(c, apperror.ErrUnauthorized)
	}
	if err := h.svc.Logout(c.Request().Context(), p.Claims); err != nil {
		return respondError(c, err)
	}
	h.setCookie(c, "", time.Unix(0, 0))

	log.Info("User logged out")
	return respondMutation(c, http.StatusOK, "Logout successful", nil)
}

// Me handles GET /auth/me
func (h *AuthHandler) Me(c echo.Context) error {
	p := middleware.PrincipalFrom(c)
	if p == nil {
		return respondError(c, apperror.ErrUnauthorized)
	}
	user, err := h.svc.Me(c.Request().Context(), p.UserID)
	if err != nil {
		return respondError(c, err)
	}
	return respondData(c, echo.Map{
		"user":   user,
		"tenant": p.Schema,
		"role":   p.Role,
	})
}

// Tenants handles GET /auth/tenants
func (h *AuthHandler) Tenants(c echo.Context) error {
	p := middleware.PrincipalFrom(c)
	if p == nil {
		return respondError(c, apperror.ErrUnauthorized)
	}
	memberships, err := h.svc.Tenants(c.Request().Context(), p.UserID)
	if err != nil {
		return respondError(c, err)
	}
	return respondData(c, memberships)
}

func (h *AuthHandler) setCookie(c echo.Context, token string, expires time.Time) {
	if h.cookieName == "" {
		return
	}
	c.SetCookie(&http.Cookie{
		Name:     h.cookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
