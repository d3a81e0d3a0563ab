package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"pos-service/internal/apperror"
	"pos-service/internal/middleware"
	"pos-service/internal/model"
	"pos-service/internal/service"
	"pos-service/pkg/logger"
)

// MasterHandler serves the CRUD endpoints of one master data entity
type MasterHandler[T any, PT model.Entity[T]] struct {
	svc *service.MasterService[T, PT]
}

func NewMasterHandler[T any, PT model.Entity[T]](svc *service.MasterService[T, PT]) *MasterHandler[T, PT] {
	return &MasterHandler[T, PT]{svc: svc}
}

// List handles GET / with search, scope, pagination and the entity's filters
func (h *MasterHandler[T, PT]) List(c echo.Context) error {
	log := logger.FromContext(c)

	q, err := listQuery(c, h.svc.Filters()...)
	if err != nil {
		return respondError(c, err)
	}
	items, page, err := h.svc.List(c.Request().Context(), q)
	if err != nil {
		return respondError(c, err)
	}

	log.Info(h.svc.Resource()+" list retrieved",
		zap.Int("count", len(items)),
		zap.Int64("total", page.Total))
	return respondList(c, items, page)
}

func (h *MasterHandler[T, PT]) Get(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	e, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return respondData(c, e)
}

func (h *MasterHandler[T, PT]) Create(c echo.Context) error {
	log := logger.FromContext(c)

	e := PT(new(T))
	if err := c.Bind(e); err != nil {
		return respondError(c, apperror.InvalidRequest("Invalid request data"))
	}
	created, err := h.svc.Create(c.Request().Context(), middleware.ActorID(c), e)
	if err != nil {
		return respondError(c, err)
	}

	m := created.GetMaster()
	log.Info(h.svc.Resource()+" created",
		zap.Uint("id", m.ID),
		zap.String("code", m.Code))
	return respondMutation(c, http.StatusCreated, h.svc.Resource()+" created successfully", created)
}

// Update handles PUT /:id. Fields absent from the body keep their stored values.
func (h *MasterHandler[T, PT]) Update(c echo.Context) error {
	log := logger.FromContext(c)

	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return respondError(c, apperror.InvalidRequest("Invalid request data"))
	}

	updated, err := h.svc.Update(c.Request().Context(), middleware.ActorID(c), id, func(e PT) error {
		return json.Unmarshal(body, e)
	})
	if err != nil {
		return respondError(c, err)
	}

	log.Info(h.svc.Resource()+" updated", zap.Uint("id", id))
	return respondMutation(c, http.StatusOK, h.svc.Resource()+" updated successfully", updated)
}

// Deactivate handles DELETE /:id; the record is kept and marked inactive
func (h *MasterHandler[T, PT]) Deactivate(c echo.Context) error {
	log := logger.FromContext(c)

	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	e, err := h.svc.Deactivate(c.Request().Context(), middleware.ActorID(c), id)
	if err != nil {
		return respondError(c, err)
	}

	log.Info(h.svc.Resource()+" deactivated", zap.Uint("id", id))
	return respondMutation(c, http.StatusOK, h.svc.Resource()+" deactivated successfully", e)
}

func (h *MasterHandler[T, PT]) Activate(c echo.Context) error {
	log := logger.FromContext(c)

	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	e, err := h.svc.Activate(c.Request().Context(), middleware.ActorID(c), id)
	if err != nil {
		return respondError(c, err)
	}

	log.Info(h.svc.Resource()+" activated", zap.Uint("id", id))
	return respondMutation(c, http.StatusOK, h.svc.Resource()+" activated successfully", e)
}
