package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"pos-service/internal/middleware"
	"pos-service/internal/service"
	"pos-service/pkg/logger"
)

// ProgressHandler serves /progress/instances
type ProgressHandler struct {
	svc *service.ProgressService
}

func NewProgressHandler(svc *service.ProgressService) *ProgressHandler {
	return &ProgressHandler{svc: svc}
}

func (h *ProgressHandler) List(c echo.Context) error {
	q, err := listQuery(c, "template_id", "sales_order_id", "customer_id")
	if err != nil {
		return respondError(c, err)
	}
	instances, page, err := h.svc.List(c.Request().Context(), q)
	if err != nil {
		return respondError(c, err)
	}
	return respondList(c, instances, page)
}

// Get returns the instance with its stage history
func (h *ProgressHandler) Get(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	p, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return respondData(c, p)
}

func (h *ProgressHandler) Create(c echo.Context) error {
	log := logger.FromContext(c)

	var req service.CreateProgressInput
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	p, err := h.svc.Create(c.Request().Context(), middleware.ActorID(c), req)
	if err != nil {
		return respondError(c, err)
	}

	log.Info("Progress started",
		zap.Uint("progress_id", p.ID),
		zap.Uint("template_id", p.TemplateID))
	return respondMutation(c, http.StatusCreated, "Progress created successfully", p)
}

func (h *ProgressHandler) Advance(c echo.Context) error {
	log := logger.FromContext(c)

	id, req, err := h.transition(c)
	if err != nil {
		return respondError(c, err)
	}
	p, err := h.svc.Advance(c.Request().Context(), middleware.ActorID(c), id, req)
	if err != nil {
		return respondError(c, err)
	}

	log.Info("Progress advanced",
		zap.Uint("progress_id", id),
		zap.String("stage", p.StageName()),
		zap.String("status", p.Status))
	return respondMutation(c, http.StatusOK, "Progress advanced successfully", p)
}

func (h *ProgressHandler) Cancel(c echo.Context) error {
	log := logger.FromContext(c)

	id, req, err := h.transition(c)
	if err != nil {
		return respondError(c, err)
	}
	p, err := h.svc.Cancel(c.Request().Context(), middleware.ActorID(c), id, req)
	if err != nil {
		return respondError(c, err)
	}

	log.Info("Progress cancelled", zap.Uint("progress_id", id))
	return respondMutation(c, http.StatusOK, "Progress cancelled successfully", p)
}

// transition reads the id and the optional note body
func (h *ProgressHandler) transition(c echo.Context) (uint, service.TransitionInput, error) {
	var req service.TransitionInput
	id, err := parseID(c, "id")
	if err != nil {
		return 0, req, err
	}
	if c.Request().ContentLength != 0 {
		if err := bind(c, &req); err != nil {
			return 0, req, err
		}
	}
	return id, req, nil
}
