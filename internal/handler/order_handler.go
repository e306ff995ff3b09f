package handler

import (
	"net/http"
	"strconv"

	"bistro/internal/config"
	"bistro/internal/middleware"
	"bistro/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type OrderHandler struct {
	uc        *usecase.OrderUsecase
	analytics *usecase.AnalyticsUsecase
}

func NewOrderHandler(uc *usecase.OrderUsecase, analytics *usecase.AnalyticsUsecase) *OrderHandler {
	return &OrderHandler{uc: uc, analytics: analytics}
}

type OrderItemRequest struct {
	ID       int64 `json:"id"`
	Quantity int64 `json:"quantity"`
}

type OrderCreateRequest struct {
	Items           []OrderItemRequest `json:"items"`
	CustomerName    string             `json:"customer_name"`
	CustomerPhone   string             `json:"customer_phone"`
	CustomerEmail   string             `json:"customer_email"`
	Notes           string             `json:"notes"`
	OrderType       string             `json:"order_type"`
	DeliveryAddress string             `json:"delivery_address"`
	DeliveryFee     *decimal.Decimal   `json:"delivery_fee"`
	// 旧クライアント互換のために受けるが、金額は常にサーバ計算が優先される
	Subtotal        *decimal.Decimal `json:"subtotal"`
	Total           *decimal.Decimal `json:"total"`
	PaymentIntentID string           `json:"payment_intent_id"`
	PaymentStatus   string           `json:"payment_status"`
}

type OrderStatusUpdateRequest struct {
	Status string `json:"status"`
}

type OrderPatchRequest struct {
	CustomerName  *string `json:"customer_name"`
	CustomerPhone *string `json:"customer_phone"`
	CustomerEmail *string `json:"customer_email"`
	Notes         *string `json:"notes"`
	Status        *string `json:"status"`
}

func (h *OrderHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	// 注文作成と照会は公開（客が自分の注文を確認できる）
	e.POST("/api/orders", h.create)
	e.GET("/api/orders/:id", h.detail)

	staff := e.Group("/api/orders")
	staff.Use(middleware.AuthJWT(cfg))

	staff.GET("", h.list, middleware.RoleGuard("admin"))
	staff.GET("/analytics", h.analyticsSummary, middleware.RoleGuard("admin"))
	staff.GET("/list/active", h.listActive, middleware.RoleGuard("admin", "kitchen"))
	staff.PUT("/:id/status", h.updateStatus, middleware.RoleGuard("admin", "kitchen"))
	staff.PUT("/:id", h.patch, middleware.RoleGuard("admin"))
	staff.DELETE("/:id", h.remove, middleware.RoleGuard("admin"))
}

func (h *OrderHandler) create(c echo.Context) error {
	var req OrderCreateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	items := make([]usecase.OrderLineInput, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, usecase.OrderLineInput{MenuItemID: it.ID, Quantity: it.Quantity})
	}

	out, err := h.uc.PlaceOrder(c.Request().Context(), usecase.PlaceOrderInput{
		Items:           items,
		CustomerName:    req.CustomerName,
		CustomerPhone:   req.CustomerPhone,
		CustomerEmail:   req.CustomerEmail,
		Notes:           req.Notes,
		OrderType:       req.OrderType,
		DeliveryAddress: req.DeliveryAddress,
		DeliveryFee:     req.DeliveryFee,
		PaymentIntentID: req.PaymentIntentID,
		PaymentStatus:   req.PaymentStatus,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, out)
}

func (h *OrderHandler) list(c echo.Context) error {
	out, err := h.uc.ListOrders(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *OrderHandler) listActive(c echo.Context) error {
	out, err := h.uc.ListActiveOrders(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *OrderHandler) detail(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	out, err := h.uc.GetOrder(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *OrderHandler) updateStatus(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	var req OrderStatusUpdateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.UpdateStatus(c.Request().Context(), id, req.Status)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *OrderHandler) patch(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	var req OrderPatchRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.PatchOrder(c.Request().Context(), id, usecase.PatchOrderInput{
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		CustomerEmail: req.CustomerEmail,
		Notes:         req.Notes,
		Status:        req.Status,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *OrderHandler) remove(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	if err := h.uc.DeleteOrder(c.Request().Context(), id); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Message: "Order deleted successfully"})
}

func (h *OrderHandler) analyticsSummary(c echo.Context) error {
	out, err := h.analytics.Summary(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
