package handler

import (
	"net/http"

	"bistro/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type PaymentHandler struct {
	payments *usecase.PaymentUsecase
	delivery *usecase.DeliveryUsecase
}

func NewPaymentHandler(payments *usecase.PaymentUsecase, delivery *usecase.DeliveryUsecase) *PaymentHandler {
	return &PaymentHandler{payments: payments, delivery: delivery}
}

type CreateIntentRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type ValidateAddressRequest struct {
	Address string `json:"address"`
}

type CalculateFeeRequest struct {
	Distance float64 `json:"distance"`
}

func (h *PaymentHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/payments")
	g.POST("/create-intent", h.createIntent)
	g.POST("/validate-address", h.validateAddress)
	g.POST("/calculate-fee", h.calculateFee)
}

func (h *PaymentHandler) createIntent(c echo.Context) error {
	var req CreateIntentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.payments.CreateIntent(c.Request().Context(), req.Amount)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *PaymentHandler) validateAddress(c echo.Context) error {
	var req ValidateAddressRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.delivery.ValidateAddress(c.Request().Context(), req.Address)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *PaymentHandler) calculateFee(c echo.Context) error {
	var req CalculateFeeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.delivery.QuoteFee(c.Request().Context(), req.Distance)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
