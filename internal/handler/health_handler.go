package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"pos-service/pkg/logger"
)

// Check probes one dependency
type Check func(ctx context.Context) error

type HealthHandler struct {
	checks map[string]Check
}

// NewHealthHandler returns a handler reporting on the named checks
func NewHealthHandler(checks map[string]Check) *HealthHandler {
	return &HealthHandler{checks: checks}
}

// HealthCheck handles GET /health
func (h *HealthHandler) HealthCheck(c echo.Context) error {
	log := logger.FromContext(c)

	response := map[string]interface{}{
		"status": "ok",
		"time":   time.Now().Format(time.RFC3339),
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	status := http.StatusOK
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			log.Error("Health check failed", zap.String("check", name), zap.Error(err))
			response[name+"_status"] = "error"
			response["status"] = "error"
			status = http.StatusServiceUnavailable
			continue
		}
		response[name+"_status"] = "ok"
	}

	return c.JSON(status, response)
}
