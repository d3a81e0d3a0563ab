package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"pos-service/internal/middleware"
	"pos-service/internal/service"
	"pos-service/pkg/logger"
)

// SpecialPriceRequest sets a product's price for one customer category
type SpecialPriceRequest struct {
	CustomerCategoryID uint            `json:"customer_category_id" validate:"required"`
	Price              decimal.Decimal `json:"price"`
}

type SpecialPriceHandler struct {
	svc *service.SpecialPriceService
}

func NewSpecialPriceHandler(svc *service.SpecialPriceService) *SpecialPriceHandler {
	return &SpecialPriceHandler{svc: svc}
}

func (h *SpecialPriceHandler) List(c echo.Context) error {
	productID, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	prices, err := h.svc.List(c.Request().Context(), productID)
	if err != nil {
		return respondError(c, err)
	}
	return respondData(c, prices)
}

func (h *SpecialPriceHandler) Set(c echo.Context) error {
	log := logger.FromContext(c)

	productID, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req SpecialPriceRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}

	sp, err := h.svc.Set(c.Request().Context(), middleware.ActorID(c), productID, req.CustomerCategoryID, req.Price)
	if err != nil {
		return respondError(c, err)
	}

	log.Info("Special price set",
		zap.Uint("product_id", productID),
		zap.Uint("customer_category_id", req.CustomerCategoryID),
		zap.String("price", req.Price.String()))
	return respondMutation(c, http.StatusOK, "Special price saved successfully", sp)
}

func (h *SpecialPriceHandler) Remove(c echo.Context) error {
	log := logger.FromContext(c)

	productID, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	categoryID, err := parseID(c, "categoryId")
	if err != nil {
		return respondError(c, err)
	}
	if err := h.svc.Remove(c.Request().Context(), productID, categoryID); err != nil {
		return respondError(c, err)
	}

	log.Info("Special price removed",
		zap.Uint("product_id", productID),
		zap.Uint("customer_category_id", categoryID))
	return respondMutation(c, http.StatusOK, "Special price removed successfully", nil)
}
