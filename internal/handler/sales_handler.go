package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"pos-service/internal/middleware"
	"pos-service/internal/service"
	"pos-service/pkg/logger"
)

type SalesHandler struct {
	svc *service.SalesService
}

func NewSalesHandler(svc *service.SalesService) *SalesHandler {
	return &SalesHandler{svc: svc}
}

// List handles GET /sales. search matches the order number.
func (h *SalesHandler) List(c echo.Context) error {
	q, err := listQuery(c, "customer_id")
	if err != nil {
		return respondError(c, err)
	}
	orders, page, err := h.svc.List(c.Request().Context(), q)
	if err != nil {
		return respondError(c, err)
	}
	return respondList(c, orders, page)
}

func (h *SalesHandler) Get(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	order, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return respondData(c, order)
}

func (h *SalesHandler) Create(c echo.Context) error {
	log := logger.FromContext(c)

	var req service.CreateSalesInput
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	order, err := h.svc.Create(c.Request().Context(), middleware.ActorID(c), req)
	if err != nil {
		return respondError(c, err)
	}

	log.Info("Sales order created",
		zap.Uint("sales_order_id", order.ID),
		zap.String("number", order.Number),
		zap.Uint("customer_id", order.CustomerID),
		zap.String("total", order.Total.String()),
		zap.String("balance", order.Balance.String()))
	return respondMutation(c, http.StatusCreated, "Sales order created successfully", order)
}

// Pay handles POST /sales/:id/payments
func (h *SalesHandler) Pay(c echo.Context) error {
	log := logger.FromContext(c)

	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req service.PaymentInput
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	order, err := h.svc.Pay(c.Request().Context(), middleware.ActorID(c), id, req)
	if err != nil {
		return respondError(c, err)
	}

	log.Info("Sales payment recorded",
		zap.Uint("sales_order_id", id),
		zap.String("amount", req.Amount.String()),
		zap.String("status", order.Status))
	return respondMutation(c, http.StatusOK, "Payment recorded successfully", order)
}

// Void handles DELETE /sales/:id
func (h *SalesHandler) Void(c echo.Context) error {
	log := logger.FromContext(c)

	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	order, err := h.svc.Void(c.Request().Context(), middleware.ActorID(c), id)
	if err != nil {
		return respondError(c, err)
	}

	log.Info("Sales order voided", zap.Uint("sales_order_id", id))
	return respondMutation(c, http.StatusOK, "Sales order voided successfully", order)
}
