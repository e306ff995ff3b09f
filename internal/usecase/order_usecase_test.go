package usecase_test

import (
	"context"
	"net/http"
	"testing"

	"bistro/internal/domain/model"
	repo "bistro/internal/repository"
	"bistro/internal/usecase"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// =====================
// TxManager / TxRepos mocks
// =====================

// TxManagerMock は WithinTx の中で渡す repos を固定して unit テストを回す
type TxManagerMock struct {
	mock.Mock
	Repos repo.TxRepos
}

func (m *TxManagerMock) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	// 呼ばれた事実だけ記録（ctxの具体値は問わない）
	m.Called(ctx)
	return fn(m.Repos)
}

type TxReposMock struct {
	orders     repo.OrderRepository
	orderItems repo.OrderItemRepository
	menuItems  repo.MenuItemRepository
}

func (r *TxReposMock) Orders() repo.OrderRepository         { return r.orders }
func (r *TxReposMock) OrderItems() repo.OrderItemRepository { return r.orderItems }
func (r *TxReposMock) MenuItems() repo.MenuItemRepository   { return r.menuItems }

// =====================
// Repository mocks
// =====================

type OrderRepoMock struct{ mock.Mock }

func (m *OrderRepoMock) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	args := m.Called(ctx, orderID)
	o, _ := args.Get(0).(model.Order)
	return o, args.Error(1)
}

func (m *OrderRepoMock) FindByIDForUpdate(ctx context.Context, orderID int64) (model.Order, error) {
	args := m.Called(ctx, orderID)
	o, _ := args.Get(0).(model.Order)
	return o, args.Error(1)
}

func (m *OrderRepoMock) Create(ctx context.Context, order model.Order) (int64, error) {
	args := m.Called(ctx, order)
	return args.Get(0).(int64), args.Error(1)
}

func (m *OrderRepoMock) ListAll(ctx context.Context) ([]model.Order, error) {
	args := m.Called(ctx)
	orders, _ := args.Get(0).([]model.Order)
	return orders, args.Error(1)
}

func (m *OrderRepoMock) ListActive(ctx context.Context) ([]model.Order, error) {
	args := m.Called(ctx)
	orders, _ := args.Get(0).([]model.Order)
	return orders, args.Error(1)
}

func (m *OrderRepoMock) UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus) error {
	args := m.Called(ctx, orderID, status)
	return args.Error(0)
}

func (m *OrderRepoMock) UpdateFields(ctx context.Context, orderID int64, fields map[string]any) error {
	args := m.Called(ctx, orderID, fields)
	return args.Error(0)
}

func (m *OrderRepoMock) Delete(ctx context.Context, orderID int64) error {
	args := m.Called(ctx, orderID)
	return args.Error(0)
}

type OrderItemRepoMock struct{ mock.Mock }

func (m *OrderItemRepoMock) CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) error {
	args := m.Called(ctx, orderID, items)
	return args.Error(0)
}

func (m *OrderItemRepoMock) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error) {
	args := m.Called(ctx, orderID)
	items, _ := args.Get(0).([]model.OrderItem)
	return items, args.Error(1)
}

func (m *OrderItemRepoMock) DeleteByOrderID(ctx context.Context, orderID int64) error {
	args := m.Called(ctx, orderID)
	return args.Error(0)
}

type MenuItemRepoMock struct{ mock.Mock }

func (m *MenuItemRepoMock) FindByID(ctx context.Context, menuItemID int64) (model.MenuItem, error) {
	args := m.Called(ctx, menuItemID)
	mi, _ := args.Get(0).(model.MenuItem)
	return mi, args.Error(1)
}

func (m *MenuItemRepoMock) ListAvailable(ctx context.Context) ([]model.MenuItem, error) {
	panic("not used in OrderUsecase tests")
}

type PaymentProviderMock struct{ mock.Mock }

func (m *PaymentProviderMock) CreateIntent(ctx context.Context, amount decimal.Decimal) (usecase.PaymentIntent, error) {
	args := m.Called(ctx, amount)
	pi, _ := args.Get(0).(usecase.PaymentIntent)
	return pi, args.Error(1)
}

func (m *PaymentProviderMock) VerifyIntent(ctx context.Context, intentID string, amount decimal.Decimal) (bool, error) {
	args := m.Called(ctx, intentID, amount)
	return args.Bool(0), args.Error(1)
}

// =====================
// helpers
// =====================

type orderFixture struct {
	tx       *TxManagerMock
	orders   *OrderRepoMock
	items    *OrderItemRepoMock
	menu     *MenuItemRepoMock
	payments *PaymentProviderMock
	uc       *usecase.OrderUsecase
}

func newOrderFixture() *orderFixture {
	orders := &OrderRepoMock{}
	items := &OrderItemRepoMock{}
	menu := &MenuItemRepoMock{}
	payments := &PaymentProviderMock{}

	tx := &TxManagerMock{Repos: &TxReposMock{
		orders:     orders,
		orderItems: items,
		menuItems:  menu,
	}}
	tx.On("WithinTx", mock.Anything).Return(nil).Maybe()

	return &orderFixture{
		tx:       tx,
		orders:   orders,
		items:    items,
		menu:     menu,
		payments: payments,
		uc:       usecase.NewOrderUsecase(tx, payments),
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertHTTPError(t *testing.T, err error, status int) *usecase.HTTPError {
	t.Helper()
	he, ok := usecase.AsHTTPError(err)
	if !ok {
		t.Fatalf("expected HTTPError, got %v", err)
	}
	assert.Equal(t, status, he.Status)
	return he
}

func availableItem(id int64, name string, price string) model.MenuItem {
	return model.MenuItem{ID: id, Name: name, Price: dec(price), IsAvailable: true}
}

// =====================
// PlaceOrder
// =====================

func TestPlaceOrder_PickupComputesTotals(t *testing.T) {
	f := newOrderFixture()
	ctx := context.Background()

	f.menu.On("FindByID", mock.Anything, int64(1)).Return(availableItem(1, "Margherita", "4.50"), nil)

	var created model.Order
	f.orders.On("Create", mock.Anything, mock.MatchedBy(func(o model.Order) bool {
		created = o
		return true
	})).Return(int64(42), nil)
	f.items.On("CreateBulk", mock.Anything, int64(42), mock.Anything).Return(nil)

	out, err := f.uc.PlaceOrder(ctx, usecase.PlaceOrderInput{
		Items:         []usecase.OrderLineInput{{MenuItemID: 1, Quantity: 2}},
		CustomerName:  "Ana",
		CustomerPhone: "555-0100",
		OrderType:     "pickup",
	})

	assert.NoError(t, err)
	assert.Equal(t, int64(42), out.ID)
	assert.Equal(t, "NEW", out.Status)
	assert.True(t, dec("9.00").Equal(out.TotalAmount), "total = %s", out.TotalAmount)

	// 小計・合計はスナップショット価格から計算され、statusはNEWで始まる
	assert.True(t, dec("9.00").Equal(created.Subtotal))
	assert.True(t, created.DeliveryFee.IsZero())
	assert.Equal(t, model.OrderStatusNew, created.Status)
	assert.Equal(t, model.PaymentStatusPending, created.PaymentStatus)
	assert.Equal(t, model.OrderTypePickup, created.OrderType)
	assert.Empty(t, created.DeliveryAddress)
}

func TestPlaceOrder_SnapshotsPriceAndName(t *testing.T) {
	f := newOrderFixture()
	ctx := context.Background()

	f.menu.On("FindByID", mock.Anything, int64(3)).Return(availableItem(3, "Tiramisu", "6.25"), nil)
	f.orders.On("Create", mock.Anything, mock.Anything).Return(int64(7), nil)

	var snapshot []model.OrderItem
	f.items.On("CreateBulk", mock.Anything, int64(7), mock.MatchedBy(func(items []model.OrderItem) bool {
		snapshot = items
		return true
	})).Return(nil)

	_, err := f.uc.PlaceOrder(ctx, usecase.PlaceOrderInput{
		Items:         []usecase.OrderLineInput{{MenuItemID: 3, Quantity: 3}},
		CustomerName:  "Ben",
		CustomerPhone: "555-0101",
	})

	assert.NoError(t, err)
	if assert.Len(t, snapshot, 1) {
		assert.Equal(t, int64(3), snapshot[0].MenuItemID)
		assert.Equal(t, int64(3), snapshot[0].Quantity)
		assert.Equal(t, "Tiramisu", snapshot[0].ItemName)
		assert.True(t, dec("6.25").Equal(snapshot[0].PriceAtTime))
	}
}

func TestPlaceOrder_EmptyItems(t *testing.T) {
	f := newOrderFixture()

	_, err := f.uc.PlaceOrder(context.Background(), usecase.PlaceOrderInput{
		CustomerName:  "Ana",
		CustomerPhone: "555-0100",
	})

	assertHTTPError(t, err, http.StatusBadRequest)
	// トランザクションにすら入らない＝何も書かれない
	f.tx.AssertNotCalled(t, "WithinTx", mock.Anything)
}

func TestPlaceOrder_MissingCustomerFields(t *testing.T) {
	f := newOrderFixture()

	_, err := f.uc.PlaceOrder(context.Background(), usecase.PlaceOrderInput{
		Items:         []usecase.OrderLineInput{{MenuItemID: 1, Quantity: 1}},
		CustomerPhone: "555-0100",
	})
	assertHTTPError(t, err, http.StatusBadRequest)

	_, err = f.uc.PlaceOrder(context.Background(), usecase.PlaceOrderInput{
		Items:        []usecase.OrderLineInput{{MenuItemID: 1, Quantity: 1}},
		CustomerName: "Ana",
	})
	assertHTTPError(t, err, http.StatusBadRequest)
}

func TestPlaceOrder_ItemNotFound(t *testing.T) {
	f := newOrderFixture()

	f.menu.On("FindByID", mock.Anything, int64(99)).Return(model.MenuItem{}, repo.ErrNotFound)

	_, err := f.uc.PlaceOrder(context.Background(), usecase.PlaceOrderInput{
		Items:         []usecase.OrderLineInput{{MenuItemID: 99, Quantity: 1}},
		CustomerName:  "Ana",
		CustomerPhone: "555-0100",
	})

	he := assertHTTPError(t, err, http.StatusBadRequest)
	assert.Contains(t, he.Message, "Item 99 not found")
	f.orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestPlaceOrder_ItemUnavailable(t *testing.T) {
	f := newOrderFixture()

	unavailable := availableItem(1, "Margherita", "4.50")
	unavailable.IsAvailable = false
	f.menu.On("FindByID", mock.Anything, int64(1)).Return(unavailable, nil)

	_, err := f.uc.PlaceOrder(context.Background(), usecase.PlaceOrderInput{
		Items:         []usecase.OrderLineInput{{MenuItemID: 1, Quantity: 2}},
		CustomerName:  "Ana",
		CustomerPhone: "555-0100",
	})

	he := assertHTTPError(t, err, http.StatusBadRequest)
	assert.Contains(t, he.Message, "Margherita")
	f.orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	f.items.AssertNotCalled(t, "CreateBulk", mock.Anything, mock.Anything, mock.Anything)
}

func TestPlaceOrder_QuantityCoercedToOne(t *testing.T) {
	f := newOrderFixture()

	f.menu.On("FindByID", mock.Anything, int64(1)).Return(availableItem(1, "Espresso", "2.00"), nil)

	var created model.Order
	f.orders.On("Create", mock.Anything, mock.MatchedBy(func(o model.Order) bool {
		created = o
		return true
	})).Return(int64(1), nil)
	f.items.On("CreateBulk", mock.Anything, int64(1), mock.Anything).Return(nil)

	// 数量0は1として扱う（厳格検証ではなく寛容な寄せ）
	_, err := f.uc.PlaceOrder(context.Background(), usecase.PlaceOrderInput{
		Items:         []usecase.OrderLineInput{{MenuItemID: 1, Quantity: 0}},
		CustomerName:  "Ana",
		CustomerPhone: "555-0100",
	})

	assert.NoError(t, err)
	assert.True(t, dec("2.00").Equal(created.Subtotal))
}

func TestPlaceOrder_DeliveryRequiresAddress(t *testing.T) {
	f := newOrderFixture()

	_, err := f.uc.PlaceOrder(context.Background(), usecase.PlaceOrderInput{
		Items:         []usecase.OrderLineInput{{MenuItemID: 1, Quantity: 1}},
		CustomerName:  "Ana",
		CustomerPhone: "555-0100",
		OrderType:     "delivery",
	})

	assertHTTPError(t, err, http.StatusBadRequest)
	f.tx.AssertNotCalled(t, "WithinTx", mock.Anything)
}

func TestPlaceOrder_DeliveryFeeAddedToTotal(t *testing.T) {
	f := newOrderFixture()

	f.menu.On("FindByID", mock.Anything, int64(1)).Return(availableItem(1, "Margherita", "4.50"), nil)

	var created model.Order
	f.orders.On("Create", mock.Anything, mock.MatchedBy(func(o model.Order) bool {
		created = o
		return true
	})).Return(int64(5), nil)
	f.items.On("CreateBulk", mock.Anything, int64(5), mock.Anything).Return(nil)

	fee := dec("5.50")
	out, err := f.uc.PlaceOrder(context.Background(), usecase.PlaceOrderInput{
		Items:           []usecase.OrderLineInput{{MenuItemID: 1, Quantity: 2}},
		CustomerName:    "Ana",
		CustomerPhone:   "555-0100",
		OrderType:       "delivery",
		DeliveryAddress: "1 Main St",
		DeliveryFee:     &fee,
	})

	assert.NoError(t, err)
	assert.True(t, dec("14.50").Equal(out.TotalAmount), "total = %s", out.TotalAmount)
	assert.True(t, dec("9.00").Equal(created.Subtotal))
	assert.True(t, dec("5.50").Equal(created.DeliveryFee))
	assert.Equal(t, "1 Main St", created.DeliveryAddress)
}

func TestPlaceOrder_PaidClaimVerifiedAgainstProvider(t *testing.T) {
	f := newOrderFixture()

	f.menu.On("FindByID", mock.Anything, int64(1)).Return(availableItem(1, "Margherita", "4.50"), nil)
	f.payments.On("VerifyIntent", mock.Anything, "pi_123", mock.Anything).Return(true, nil)

	var created model.Order
	f.orders.On("Create", mock.Anything, mock.MatchedBy(func(o model.Order) bool {
		created = o
		return true
	})).Return(int64(9), nil)
	f.items.On("CreateBulk", mock.Anything, int64(9), mock.Anything).Return(nil)

	_, err := f.uc.PlaceOrder(context.Background(), usecase.PlaceOrderInput{
		Items:           []usecase.OrderLineInput{{MenuItemID: 1, Quantity: 1}},
		CustomerName:    "Ana",
		CustomerPhone:   "555-0100",
		PaymentIntentID: "pi_123",
		PaymentStatus:   "paid",
	})

	assert.NoError(t, err)
	assert.Equal(t, model.PaymentStatusPaid, created.PaymentStatus)
	if assert.NotNil(t, created.PaymentIntentID) {
		assert.Equal(t, "pi_123", *created.PaymentIntentID)
	}
}

func TestPlaceOrder_UnverifiedPaidClaimStaysPending(t *testing.T) {
	f := newOrderFixture()

	f.menu.On("FindByID", mock.Anything, int64(1)).Return(availableItem(1, "Margherita", "4.50"), nil)
	// プロバイダが決済完了を確認できない→申告は無視してpendingのまま
	f.payments.On("VerifyIntent", mock.Anything, "pi_123", mock.Anything).Return(false, nil)

	var created model.Order
	f.orders.On("Create", mock.Anything, mock.MatchedBy(func(o model.Order) bool {
		created = o
		return true
	})).Return(int64(9), nil)
	f.items.On("CreateBulk", mock.Anything, int64(9), mock.Anything).Return(nil)

	_, err := f.uc.PlaceOrder(context.Background(), usecase.PlaceOrderInput{
		Items:           []usecase.OrderLineInput{{MenuItemID: 1, Quantity: 1}},
		CustomerName:    "Ana",
		CustomerPhone:   "555-0100",
		PaymentIntentID: "pi_123",
		PaymentStatus:   "paid",
	})

	assert.NoError(t, err)
	assert.Equal(t, model.PaymentStatusPending, created.PaymentStatus)
}

func TestPlaceOrder_DuplicatePaymentIntent(t *testing.T) {
	f := newOrderFixture()

	f.menu.On("FindByID", mock.Anything, int64(1)).Return(availableItem(1, "Margherita", "4.50"), nil)
	f.orders.On("Create", mock.Anything, mock.Anything).Return(int64(0), repo.ErrDuplicate)

	_, err := f.uc.PlaceOrder(context.Background(), usecase.PlaceOrderInput{
		Items:           []usecase.OrderLineInput{{MenuItemID: 1, Quantity: 1}},
		CustomerName:    "Ana",
		CustomerPhone:   "555-0100",
		PaymentIntentID: "pi_reused",
	})

	assertHTTPError(t, err, http.StatusConflict)
	f.items.AssertNotCalled(t, "CreateBulk", mock.Anything, mock.Anything, mock.Anything)
}

// =====================
// UpdateStatus
// =====================

func TestUpdateStatus_ForwardChain(t *testing.T) {
	steps := []struct {
		from model.OrderStatus
		to   string
	}{
		{model.OrderStatusNew, "IN_PROGRESS"},
		{model.OrderStatusInProgress, "READY"},
		{model.OrderStatusReady, "COMPLETED"},
	}

	for _, s := range steps {
		f := newOrderFixture()
		f.orders.On("FindByIDForUpdate", mock.Anything, int64(1)).Return(model.Order{ID: 1, Status: s.from}, nil)
		f.orders.On("UpdateStatus", mock.Anything, int64(1), model.OrderStatus(s.to)).Return(nil)
		f.items.On("ListByOrderID", mock.Anything, int64(1)).Return([]model.OrderItem{}, nil)

		out, err := f.uc.UpdateStatus(context.Background(), 1, s.to)

		assert.NoError(t, err, "%s -> %s", s.from, s.to)
		assert.Equal(t, s.to, out.Status)
	}
}

func TestUpdateStatus_InvalidValue(t *testing.T) {
	f := newOrderFixture()

	_, err := f.uc.UpdateStatus(context.Background(), 1, "DELIVERED")

	assertHTTPError(t, err, http.StatusBadRequest)
	f.tx.AssertNotCalled(t, "WithinTx", mock.Anything)
}

func TestUpdateStatus_IllegalTransitionRejected(t *testing.T) {
	f := newOrderFixture()

	// 終端状態からは戻れない
	f.orders.On("FindByIDForUpdate", mock.Anything, int64(1)).Return(model.Order{ID: 1, Status: model.OrderStatusCompleted}, nil)

	_, err := f.uc.UpdateStatus(context.Background(), 1, "IN_PROGRESS")

	assertHTTPError(t, err, http.StatusConflict)
	f.orders.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateStatus_CancelOnlyBeforeReady(t *testing.T) {
	f := newOrderFixture()
	f.orders.On("FindByIDForUpdate", mock.Anything, int64(1)).Return(model.Order{ID: 1, Status: model.OrderStatusReady}, nil)

	_, err := f.uc.UpdateStatus(context.Background(), 1, "CANCELLED")

	assertHTTPError(t, err, http.StatusConflict)
}

func TestUpdateStatus_NotFound(t *testing.T) {
	f := newOrderFixture()
	f.orders.On("FindByIDForUpdate", mock.Anything, int64(404)).Return(model.Order{}, repo.ErrNotFound)

	_, err := f.uc.UpdateStatus(context.Background(), 404, "IN_PROGRESS")

	assertHTTPError(t, err, http.StatusNotFound)
}

// =====================
// PatchOrder
// =====================

func TestPatchOrder_NoFields(t *testing.T) {
	f := newOrderFixture()

	_, err := f.uc.PatchOrder(context.Background(), 1, usecase.PatchOrderInput{})

	assertHTTPError(t, err, http.StatusBadRequest)
	f.tx.AssertNotCalled(t, "WithinTx", mock.Anything)
}

func TestPatchOrder_UpdatesOnlyGivenFields(t *testing.T) {
	f := newOrderFixture()

	f.orders.On("FindByIDForUpdate", mock.Anything, int64(1)).Return(model.Order{ID: 1, Status: model.OrderStatusNew}, nil)

	var fields map[string]any
	f.orders.On("UpdateFields", mock.Anything, int64(1), mock.MatchedBy(func(m map[string]any) bool {
		fields = m
		return true
	})).Return(nil)
	f.orders.On("FindByID", mock.Anything, int64(1)).Return(model.Order{ID: 1, CustomerName: "Ana B", Status: model.OrderStatusNew}, nil)
	f.items.On("ListByOrderID", mock.Anything, int64(1)).Return([]model.OrderItem{}, nil)

	name := "Ana B"
	out, err := f.uc.PatchOrder(context.Background(), 1, usecase.PatchOrderInput{CustomerName: &name})

	assert.NoError(t, err)
	assert.Equal(t, "Ana B", out.CustomerName)
	assert.Equal(t, map[string]any{"customer_name": "Ana B"}, fields)
}

func TestPatchOrder_StatusGoesThroughStateMachine(t *testing.T) {
	f := newOrderFixture()

	f.orders.On("FindByIDForUpdate", mock.Anything, int64(1)).Return(model.Order{ID: 1, Status: model.OrderStatusCompleted}, nil)

	status := "NEW"
	_, err := f.uc.PatchOrder(context.Background(), 1, usecase.PatchOrderInput{Status: &status})

	assertHTTPError(t, err, http.StatusConflict)
	f.orders.AssertNotCalled(t, "UpdateFields", mock.Anything, mock.Anything, mock.Anything)
}

func TestPatchOrder_NotFound(t *testing.T) {
	f := newOrderFixture()
	f.orders.On("FindByIDForUpdate", mock.Anything, int64(404)).Return(model.Order{}, repo.ErrNotFound)

	notes := "ring the bell"
	_, err := f.uc.PatchOrder(context.Background(), 404, usecase.PatchOrderInput{Notes: &notes})

	assertHTTPError(t, err, http.StatusNotFound)
}

// =====================
// listings / delete
// =====================

func TestListActiveOrders_AttachesItems(t *testing.T) {
	f := newOrderFixture()

	f.orders.On("ListActive", mock.Anything).Return([]model.Order{
		{ID: 1, Status: model.OrderStatusNew},
		{ID: 2, Status: model.OrderStatusInProgress},
	}, nil)
	f.items.On("ListByOrderID", mock.Anything, int64(1)).Return([]model.OrderItem{
		{OrderID: 1, MenuItemID: 1, ItemName: "Margherita", Quantity: 2, PriceAtTime: dec("4.50")},
	}, nil)
	f.items.On("ListByOrderID", mock.Anything, int64(2)).Return([]model.OrderItem{}, nil)

	out, err := f.uc.ListActiveOrders(context.Background())

	assert.NoError(t, err)
	if assert.Len(t, out, 2) {
		assert.Equal(t, "NEW", out[0].Status)
		assert.Len(t, out[0].Items, 1)
		assert.Equal(t, "Margherita", out[0].Items[0].Name)
	}
}

func TestDeleteOrder_NotFound(t *testing.T) {
	f := newOrderFixture()

	f.items.On("DeleteByOrderID", mock.Anything, int64(404)).Return(nil)
	f.orders.On("Delete", mock.Anything, int64(404)).Return(repo.ErrNotFound)

	err := f.uc.DeleteOrder(context.Background(), 404)

	assertHTTPError(t, err, http.StatusNotFound)
}

func TestDeleteOrder_RemovesOrderAndItems(t *testing.T) {
	f := newOrderFixture()

	f.items.On("DeleteByOrderID", mock.Anything, int64(1)).Return(nil)
	f.orders.On("Delete", mock.Anything, int64(1)).Return(nil)

	err := f.uc.DeleteOrder(context.Background(), 1)

	assert.NoError(t, err)
	f.items.AssertCalled(t, "DeleteByOrderID", mock.Anything, int64(1))
}
