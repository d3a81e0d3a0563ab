package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"pos-service/internal/middleware"
	"pos-service/internal/service"
	"pos-service/pkg/logger"
)

type ExpenseHandler struct {
	svc *service.ExpenseService
}

func NewExpenseHandler(svc *service.ExpenseService) *ExpenseHandler {
	return &ExpenseHandler{svc: svc}
}

// List handles GET /expenses; the summary totals every matching expense, not just the page
func (h *ExpenseHandler) List(c echo.Context) error {
	q, err := listQuery(c, "category")
	if err != nil {
		return respondError(c, err)
	}
	expenses, page, summary, err := h.svc.List(c.Request().Context(), q)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, listResponse{Data: expenses, Pagination: page, Summary: summary})
}

func (h *ExpenseHandler) Get(c echo.Context) error {
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

func (h *ExpenseHandler) Create(c echo.Context) error {
	log := logger.FromContext(c)

	var req service.CreateExpenseInput
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	e, err := h.svc.Create(c.Request().Context(), middleware.ActorID(c), req)
	if err != nil {
		return respondError(c, err)
	}

	log.Info("Expense created",
		zap.Uint("expense_id", e.ID),
		zap.String("number", e.Number),
		zap.String("amount", e.Amount.String()))
	return respondMutation(c, http.StatusCreated, "Expense created successfully", e)
}

func (h *ExpenseHandler) Update(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req service.UpdateExpenseInput
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	e, err := h.svc.Update(c.Request().Context(), middleware.ActorID(c), id, req)
	if err != nil {
		return respondError(c, err)
	}
	return respondMutation(c, http.StatusOK, "Expense updated successfully", e)
}

func (h *ExpenseHandler) Void(c echo.Context) error {
	log := logger.FromContext(c)

	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	e, err := h.svc.Void(c.Request().Context(), middleware.ActorID(c), id)
	if err != nil {
		return respondError(c, err)
	}

	log.Info("Expense voided", zap.Uint("expense_id", id))
	return respondMutation(c, http.StatusOK, "Expense voided successfully", e)
}
