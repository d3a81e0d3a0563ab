package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"pos-service/internal/middleware"
	"pos-service/internal/service"
	"pos-service/pkg/logger"
)

// LedgerHandler serves /receivables or /payables
type LedgerHandler struct {
	svc   *service.LedgerService
	label string
}

func NewLedgerHandler(svc *service.LedgerService, label string) *LedgerHandler {
	return &LedgerHandler{svc: svc, label: label}
}

func (h *LedgerHandler) List(c echo.Context) error {
	q, err := listQuery(c, "party_id", "sales_order_id")
	if err != nil {
		return respondError(c, err)
	}
	entries, page, err := h.svc.List(c.Request().Context(), q)
	if err != nil {
		return respondError(c, err)
	}
	return respondList(c, entries, page)
}

// Get returns the entry with its payments
func (h *LedgerHandler) Get(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	l, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return respondData(c, l)
}

func (h *LedgerHandler) Create(c echo.Context) error {
	log := logger.FromContext(c)

	var req service.CreateLedgerInput
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	l, err := h.svc.Create(c.Request().Context(), middleware.ActorID(c), req)
	if err != nil {
		return respondError(c, err)
	}

	log.Info(h.label+" created",
		zap.Uint("id", l.ID),
		zap.String("number", l.Number),
		zap.Uint("party_id", l.PartyID))
	return respondMutation(c, http.StatusCreated, h.label+" created successfully", l)
}

func (h *LedgerHandler) Update(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req service.UpdateLedgerInput
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	l, err := h.svc.Update(c.Request().Context(), middleware.ActorID(c), id, req)
	if err != nil {
		return respondError(c, err)
	}
	return respondMutation(c, http.StatusOK, h.label+" updated successfully", l)
}

// Pay handles POST /:id/payments
func (h *LedgerHandler) Pay(c echo.Context) error {
	log := logger.FromContext(c)

	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req service.PaymentInput
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	l, err := h.svc.Pay(c.Request().Context(), middleware.ActorID(c), id, req)
	if err != nil {
		return respondError(c, err)
	}

	log.Info(h.label+" payment recorded",
		zap.Uint("id", id),
		zap.String("amount", req.Amount.String()),
		zap.String("balance", l.Balance.String()))
	return respondMutation(c, http.StatusOK, "Payment recorded successfully", l)
}

// Settle handles POST /settle
func (h *LedgerHandler) Settle(c echo.Context) error {
	log := logger.FromContext(c)

	var req service.SettleInput
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	result, err := h.svc.Settle(c.Request().Context(), middleware.ActorID(c), req)
	if err != nil {
		return respondError(c, err)
	}

	log.Info(h.label+" settlement applied",
		zap.Int("entries", len(result.Allocations)),
		zap.String("applied", result.Applied.String()),
		zap.String("leftover", result.Leftover.String()))
	return respondMutation(c, http.StatusOK, "Settlement applied successfully", result)
}
