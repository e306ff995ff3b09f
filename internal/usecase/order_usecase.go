package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"bistro/internal/domain/model"
	repo "bistro/internal/repository"

	"github.com/shopspring/decimal"
)

type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func NewHTTPError(status int, message string) error {
	return &HTTPError{
		Status:  status,
		Message: message,
	}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}

type OrderUsecase struct {
	tx       repo.TransactionManager
	payments PaymentProvider
}

func NewOrderUsecase(tx repo.TransactionManager, payments PaymentProvider) *OrderUsecase {
	return &OrderUsecase{tx: tx, payments: payments}
}

type OrderLineInput struct {
	MenuItemID int64
	Quantity   int64
}

type PlaceOrderInput struct {
	Items           []OrderLineInput
	CustomerName    string
	CustomerPhone   string
	CustomerEmail   string
	Notes           string
	OrderType       string // 省略時は pickup
	DeliveryAddress string
	DeliveryFee     *decimal.Decimal // 見積もりAPIの往復結果。delivery以外では無視
	PaymentIntentID string
	PaymentStatus   string // クライアント申告。検証が通るまでpaid扱いにしない
}

type PlaceOrderOutput struct {
	ID          int64           `json:"id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Status      string          `json:"status"`
}

type OrderItemOutput struct {
	MenuItemID int64           `json:"menu_item_id"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	Quantity   int64           `json:"quantity"`
}

type OrderOutput struct {
	ID              int64             `json:"id"`
	CustomerName    string            `json:"customer_name"`
	CustomerPhone   string            `json:"customer_phone"`
	CustomerEmail   string            `json:"customer_email,omitempty"`
	OrderType       string            `json:"order_type"`
	DeliveryAddress string            `json:"delivery_address,omitempty"`
	Subtotal        decimal.Decimal   `json:"subtotal"`
	DeliveryFee     decimal.Decimal   `json:"delivery_fee"`
	TotalAmount     decimal.Decimal   `json:"total_amount"`
	PaymentStatus   string            `json:"payment_status"`
	Status          string            `json:"status"`
	Notes           string            `json:"notes,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	Items           []OrderItemOutput `json:"items"`
}

// PlaceOrder はカートを検証して価格を確定し、注文＋明細を1トランザクションで永続化する。
// 小計と合計は常にサーバ側で計算する（クライアントのsubtotal/totalは信用しない）。
func (u *OrderUsecase) PlaceOrder(ctx context.Context, in PlaceOrderInput) (PlaceOrderOutput, error) {
	if strings.TrimSpace(in.CustomerName) == "" {
		return PlaceOrderOutput{}, NewHTTPError(http.StatusBadRequest, "customer_name is required")
	}
	if strings.TrimSpace(in.CustomerPhone) == "" {
		return PlaceOrderOutput{}, NewHTTPError(http.StatusBadRequest, "customer_phone is required")
	}
	if len(in.Items) == 0 {
		return PlaceOrderOutput{}, NewHTTPError(http.StatusBadRequest, "No items in order")
	}

	orderType := model.OrderTypePickup
	if in.OrderType != "" {
		switch model.OrderType(in.OrderType) {
		case model.OrderTypePickup, model.OrderTypeDelivery:
			orderType = model.OrderType(in.OrderType)
		default:
			return PlaceOrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid order_type")
		}
	}

	// 配送先住所は delivery のときだけ持つ
	address := strings.TrimSpace(in.DeliveryAddress)
	deliveryFee := decimal.Zero
	if orderType == model.OrderTypeDelivery {
		if address == "" {
			return PlaceOrderOutput{}, NewHTTPError(http.StatusBadRequest, "delivery_address is required for delivery orders")
		}
		if in.DeliveryFee != nil {
			if in.DeliveryFee.IsNegative() {
				return PlaceOrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid delivery_fee")
			}
			deliveryFee = *in.DeliveryFee
		}
	} else {
		address = ""
	}

	var out PlaceOrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		subtotal := decimal.Zero
		orderItems := make([]model.OrderItem, 0, len(in.Items))

		for _, line := range in.Items {
			m, err := r.MenuItems().FindByID(ctx, line.MenuItemID)
			if errors.Is(err, repo.ErrNotFound) {
				return NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Item %d not found", line.MenuItemID))
			}
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			if !m.IsAvailable {
				return NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Item %s is not available", m.Name))
			}

			// 数量は1未満なら1に寄せる（入力に寛容）
			qty := line.Quantity
			if qty < 1 {
				qty = 1
			}

			subtotal = subtotal.Add(m.Price.Mul(decimal.NewFromInt(qty)))
			orderItems = append(orderItems, model.OrderItem{
				MenuItemID:  m.ID,
				Quantity:    qty,
				PriceAtTime: m.Price,
				ItemName:    m.Name,
			})
		}

		total := subtotal.Add(deliveryFee)

		// 決済はクライアント申告だけでpaidにしない。プロバイダ側で金額まで確認する。
		paymentStatus := model.PaymentStatusPending
		var intentID *string
		if in.PaymentIntentID != "" {
			id := in.PaymentIntentID
			intentID = &id
			if in.PaymentStatus == string(model.PaymentStatusPaid) {
				paid, err := u.payments.VerifyIntent(ctx, id, total)
				if err != nil {
					return NewHTTPError(http.StatusBadGateway, "Failed to verify payment")
				}
				if paid {
					paymentStatus = model.PaymentStatusPaid
				}
			}
		}

		orderID, err := r.Orders().Create(ctx, model.Order{
			CustomerName:    strings.TrimSpace(in.CustomerName),
			CustomerPhone:   strings.TrimSpace(in.CustomerPhone),
			CustomerEmail:   strings.TrimSpace(in.CustomerEmail),
			OrderType:       orderType,
			DeliveryAddress: address,
			Subtotal:        subtotal,
			DeliveryFee:     deliveryFee,
			TotalAmount:     total,
			PaymentStatus:   paymentStatus,
			PaymentIntentID: intentID,
			Status:          model.OrderStatusNew,
			Notes:           in.Notes,
		})
		if errors.Is(err, repo.ErrDuplicate) {
			return NewHTTPError(http.StatusConflict, "payment intent already used by another order")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if err := r.OrderItems().CreateBulk(ctx, orderID, orderItems); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		out = PlaceOrderOutput{
			ID:          orderID,
			TotalAmount: total,
			Status:      string(model.OrderStatusNew),
		}
		return nil
	})

	if err != nil {
		return PlaceOrderOutput{}, err
	}
	return out, nil
}

// ListOrders は管理画面用。新しい順、明細付き。
func (u *OrderUsecase) ListOrders(ctx context.Context) ([]OrderOutput, error) {
	var outs []OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, err := r.Orders().ListAll(ctx)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		outs, err = attachItems(ctx, r, orders)
		return err
	})

	if err != nil {
		return []OrderOutput{}, err
	}
	return outs, nil
}

// ListActiveOrders はキッチン用。NEW → IN_PROGRESS、各グループ内は古い順。
func (u *OrderUsecase) ListActiveOrders(ctx context.Context) ([]OrderOutput, error) {
	var outs []OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, err := r.Orders().ListActive(ctx)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		outs, err = attachItems(ctx, r, orders)
		return err
	})

	if err != nil {
		return []OrderOutput{}, err
	}
	return outs, nil
}

func (u *OrderUsecase) GetOrder(ctx context.Context, orderID int64) (OrderOutput, error) {
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "Order not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		out = toOrderOutput(o, items)
		return nil
	})

	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

// UpdateStatus は状態遷移表に沿った変更だけ許す。
// 行ロックで読み書きを直列化するので、同時更新で負けた側は409になる。
func (u *OrderUsecase) UpdateStatus(ctx context.Context, orderID int64, status string) (OrderOutput, error) {
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	target, ok := model.ParseOrderStatus(status)
	if !ok {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "Invalid status")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByIDForUpdate(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "Order not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if !o.Status.CanTransitionTo(target) {
			return NewHTTPError(http.StatusConflict,
				fmt.Sprintf("cannot change status from %s to %s", o.Status, target))
		}

		if err := r.Orders().UpdateStatus(ctx, orderID, target); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		o.Status = target
		out = toOrderOutput(o, items)
		return nil
	})

	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

type PatchOrderInput struct {
	CustomerName  *string
	CustomerPhone *string
	CustomerEmail *string
	Notes         *string
	Status        *string
}

// PatchOrder は渡されたフィールドだけ更新する。statusもここを通る場合は
// 遷移表の検証を受ける（状態機械を迂回する書き込み経路は作らない）。
func (u *OrderUsecase) PatchOrder(ctx context.Context, orderID int64, in PatchOrderInput) (OrderOutput, error) {
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	fields := map[string]any{}
	if in.CustomerName != nil {
		fields["customer_name"] = *in.CustomerName
	}
	if in.CustomerPhone != nil {
		fields["customer_phone"] = *in.CustomerPhone
	}
	if in.CustomerEmail != nil {
		fields["customer_email"] = *in.CustomerEmail
	}
	if in.Notes != nil {
		fields["notes"] = *in.Notes
	}

	var target model.OrderStatus
	if in.Status != nil {
		t, ok := model.ParseOrderStatus(*in.Status)
		if !ok {
			return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "Invalid status")
		}
		target = t
		fields["status"] = t
	}

	if len(fields) == 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "No fields to update")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByIDForUpdate(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "Order not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if in.Status != nil && !o.Status.CanTransitionTo(target) {
			return NewHTTPError(http.StatusConflict,
				fmt.Sprintf("cannot change status from %s to %s", o.Status, target))
		}

		if err := r.Orders().UpdateFields(ctx, orderID, fields); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		updated, err := r.Orders().FindByID(ctx, orderID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		out = toOrderOutput(updated, items)
		return nil
	})

	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

func (u *OrderUsecase) DeleteOrder(ctx context.Context, orderID int64) error {
	if orderID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if err := r.OrderItems().DeleteByOrderID(ctx, orderID); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		err := r.Orders().Delete(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "Order not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		return nil
	})
}

func attachItems(ctx context.Context, r repo.TxRepos, orders []model.Order) ([]OrderOutput, error) {
	outs := make([]OrderOutput, 0, len(orders))
	for _, o := range orders {
		items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
		if err != nil {
			return nil, NewHTTPError(http.StatusInternalServerError, "db error")
		}
		outs = append(outs, toOrderOutput(o, items))
	}
	return outs, nil
}

func toOrderOutput(o model.Order, items []model.OrderItem) OrderOutput {
	outItems := make([]OrderItemOutput, 0, len(items))
	for _, it := range items {
		outItems = append(outItems, OrderItemOutput{
			MenuItemID: it.MenuItemID,
			Name:       it.ItemName,
			Price:      it.PriceAtTime,
			Quantity:   it.Quantity,
		})
	}

	return OrderOutput{
		ID:              o.ID,
		CustomerName:    o.CustomerName,
		CustomerPhone:   o.CustomerPhone,
		CustomerEmail:   o.CustomerEmail,
		OrderType:       string(o.OrderType),
		DeliveryAddress: o.DeliveryAddress,
		Subtotal:        o.Subtotal,
		DeliveryFee:     o.DeliveryFee,
		TotalAmount:     o.TotalAmount,
		PaymentStatus:   string(o.PaymentStatus),
		Status:          string(o.Status),
		Notes:           o.Notes,
		CreatedAt:       o.CreatedAt,
		Items:           outItems,
	}
}
