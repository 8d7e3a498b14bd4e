package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/victorybazaar/victorybazaar-backend/internal/cart"
	"github.com/victorybazaar/victorybazaar-backend/internal/products"
	"github.com/victorybazaar/victorybazaar-backend/pkg/db/dbtest"
	"github.com/victorybazaar/victorybazaar-backend/pkg/db/models"
	"github.com/victorybazaar/victorybazaar-backend/pkg/enums"
	pkgerrors "github.com/victorybazaar/victorybazaar-backend/pkg/errors"
	"github.com/victorybazaar/victorybazaar-backend/pkg/outbox"
	"github.com/victorybazaar/victorybazaar-backend/pkg/pagination"
	"github.com/victorybazaar/victorybazaar-backend/pkg/types"
)

const buyer = "firebase-buyer"

type stubCoupons struct {
	book     *cart.CouponBook
	refuse   error
	checked  []string
	recorded []string
}

func (s *stubCoupons) Redeemable(ctx context.Context, userID, code string) (cart.Coupon, error) {
	s.checked = append(s.checked, code)
	if s.refuse != nil {
		return cart.Coupon{}, s.refuse
	}
	return s.book.Redeemable(ctx, userID, code)
}

func (s *stubCoupons) RecordUsage(_ context.Context, userID, code string) error {
	s.recorded = append(s.recorded, userID+":"+code)
	return nil
}

type stubPayments struct {
	cancelled []uuid.UUID
}

func (s *stubPayments) CancelForOrderWithTx(_ context.Context, _ *gorm.DB, orderID uuid.UUID) error {
	s.cancelled = append(s.cancelled, orderID)
	return nil
}

type stubLoyalty struct {
	awarded map[string]int
}

func (s *stubLoyalty) AwardPointsWithTx(_ context.Context, _ *gorm.DB, userID string, points int) error {
	if s.awarded == nil {
		s.awarded = map[string]int{}
	}
	s.awarded[userID] += points
	return nil
}

type fixture struct {
	svc      Service
	cart     cart.Service
	conn     *gorm.DB
	coupons  *stubCoupons
	payments *stubPayments
	loyalty  *stubLoyalty
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	client, conn := dbtest.Client(t)
	productRepo := products.NewRepository(conn)
	cartSvc, err := cart.NewService(cart.NewRepository(conn), productRepo, client, cart.NewCouponBook(cart.DefaultCoupons(), nil), cart.DefaultPricing())
	require.NoError(t, err)

	f := fixture{cart: cartSvc, conn: conn, coupons: &stubCoupons{book: cart.NewCouponBook(cart.DefaultCoupons(), nil)}, payments: &stubPayments{}, loyalty: &stubLoyalty{}}
	f.svc, err = NewService(Options{
		Repo:      NewRepository(conn),
		Tx:        client,
		Outbox:    outbox.NewService(outbox.NewRepository(conn), nil),
		Inventory: products.NewInventory(productRepo),
		Cart:      cartSvc,
		Coupons:   f.coupons,
		Payments:  f.payments,
		Loyalty:   f.loyalty,
		Pricing:   cart.DefaultPricing(),
	})
	require.NoError(t, err)
	return f
}

func seedProduct(t *testing.T, conn *gorm.DB, price int64, stock int) *models.Product {
	t.Helper()
	p := &models.Product{
		Name:     "Handloom Saree",
		Price:    decimal.NewFromInt(price),
		Category: "fashion",
		Stock:    stock,
		Status:   enums.ProductStatusActive,
		Images:   []types.Image{{URL: "https://cdn.example/saree.jpg"}},
	}
	require.NoError(t, conn.Create(p).Error)
	return p
}

func address() types.ShippingAddress {
	return types.ShippingAddress{
		FullName:     "Asha Rao",
		Phone:        "9876543210",
		AddressLine1: "12 MG Road",
		City:         "Bengaluru",
		State:        "Karnataka",
		ZipCode:      "560001",
	}
}

func stockOf(t *testing.T, conn *gorm.DB, id uuid.UUID) int {
	t.Helper()
	var p models.Product
	require.NoError(t, conn.First(&p, "id = ?", id).Error)
	return p.Stock
}

func countEvents(t *testing.T, conn *gorm.DB, eventType enums.OutboxEventType) int64 {
	t.Helper()
	var n int64
	require.NoError(t, conn.Model(&models.OutboxEvent{}).Where("event_type = ?", eventType).Count(&n).Error)
	return n
}

func TestCreateOrderFromItems(t *testing.T) {
	f := newFixture(t)
	p := seedProduct(t, f.conn, 600, 5)

	order, err := f.svc.CreateOrder(context.Background(), buyer, CreateOrderInput{
		Items:           []ItemInput{{ProductID: p.ID.String(), Quantity: 1}},
		ShippingAddress: address(),
		PaymentMethod:   enums.PaymentMethodUPI,
	})
	require.NoError(t, err)

	assert.Equal(t, "VB000001", order.OrderNumber)
	assert.Equal(t, enums.OrderStatusPending, order.Status)
	assert.Equal(t, enums.OrderPaymentPending, order.PaymentStatus)
	assert.True(t, order.Subtotal.Equal(decimal.NewFromInt(600)))
	assert.True(t, order.ShippingFee.IsZero())
	assert.True(t, order.Tax.Equal(decimal.NewFromInt(108)))
	assert.True(t, order.Total.Equal(decimal.NewFromInt(708)))
	assert.Equal(t, "India", order.ShippingAddress.Country)
	require.Len(t, order.Items, 1)
	assert.Equal(t, "https://cdn.example/saree.jpg", order.Items[0].Image)

	assert.Equal(t, 4, stockOf(t, f.conn, p.ID))
	assert.Equal(t, int64(1), countEvents(t, f.conn, enums.EventOrderCreated))

	second, err := f.svc.CreateOrder(context.Background(), buyer, CreateOrderInput{
		Items:           []ItemInput{{ProductID: p.ID.String(), Quantity: 1}},
		ShippingAddress: address(),
		PaymentMethod:   enums.PaymentMethodCOD,
	})
	require.NoError(t, err)
	assert.Equal(t, "VB000002", second.OrderNumber)
}

func TestCreateOrderInsufficientStockRollsBack(t *testing.T) {
	f := newFixture(t)
	plenty := seedProduct(t, f.conn, 100, 10)
	scarce := seedProduct(t, f.conn, 100, 1)

	_, err := f.svc.CreateOrder(context.Background(), buyer, CreateOrderInput{
		Items: []ItemInput{
			{ProductID: plenty.ID.String(), Quantity: 3},
			{ProductID: scarce.ID.String(), Quantity: 2},
		},
		ShippingAddress: address(),
		PaymentMethod:   enums.PaymentMethodCard,
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock))

	assert.Equal(t, 10, stockOf(t, f.conn, plenty.ID))
	assert.Equal(t, 1, stockOf(t, f.conn, scarce.ID))
	var orders int64
	require.NoError(t, f.conn.Model(&models.Order{}).Count(&orders).Error)
	assert.Zero(t, orders)
	assert.Zero(t, countEvents(t, f.conn, enums.EventOrderCreated))
}

func TestCreateOrderLastUnitSellsOnce(t *testing.T) {
	f := newFixture(t)
	p := seedProduct(t, f.conn, 100, 1)
	input := CreateOrderInput{
		Items:           []ItemInput{{ProductID: p.ID.String(), Quantity: 1}},
		ShippingAddress: address(),
		PaymentMethod:   enums.PaymentMethodCard,
	}

	_, err := f.svc.CreateOrder(context.Background(), buyer, input)
	require.NoError(t, err)
	_, err = f.svc.CreateOrder(context.Background(), "another-buyer", input)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock))
	assert.Equal(t, 0, stockOf(t, f.conn, p.ID))
}

func TestCreateOrderFromCartAppliesCouponAndClears(t *testing.T) {
	f := newFixture(t)
	p := seedProduct(t, f.conn, 200, 5)
	ctx := context.Background()

	_, err := f.cart.AddItem(ctx, buyer, p.ID.String(), 2)
	require.NoError(t, err)
	_, err = f.cart.ApplyCoupon(ctx, buyer, "FIRSTORDER")
	require.NoError(t, err)

	order, err := f.svc.CreateOrder(ctx, buyer, CreateOrderInput{
		ShippingAddress: address(),
		PaymentMethod:   enums.PaymentMethodCard,
		ClearCart:       true,
	})
	require.NoError(t, err)

	// 400 - 50 + 40 + 72
	assert.True(t, order.Total.Equal(decimal.NewFromInt(462)), "total %s", order.Total)
	require.NotNil(t, order.CouponCode)
	assert.Equal(t, "FIRSTORDER", *order.CouponCode)
	assert.Equal(t, []string{buyer + ":FIRSTORDER"}, f.coupons.recorded)

	view, err := f.cart.GetCart(ctx, buyer)
	require.NoError(t, err)
	assert.Empty(t, view.Cart.Items)
	assert.Nil(t, view.Cart.CouponCode)
}

func TestCreateOrderRefusesLapsedCoupon(t *testing.T) {
	f := newFixture(t)
	p := seedProduct(t, f.conn, 200, 5)
	ctx := context.Background()

	_, err := f.cart.AddItem(ctx, buyer, p.ID.String(), 2)
	require.NoError(t, err)
	_, err = f.cart.ApplyCoupon(ctx, buyer, "FIRSTORDER")
	require.NoError(t, err)
	f.coupons.refuse = pkgerrors.New(pkgerrors.CodeInvalidCoupon, "coupon has expired")

	_, err = f.svc.CreateOrder(ctx, buyer, CreateOrderInput{
		ShippingAddress: address(),
		PaymentMethod:   enums.PaymentMethodCard,
		ClearCart:       true,
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidCoupon))
	assert.Equal(t, []string{"FIRSTORDER"}, f.coupons.checked)
	assert.Empty(t, f.coupons.recorded)
	assert.Equal(t, 5, stockOf(t, f.conn, p.ID))

	view, err := f.cart.GetCart(ctx, buyer)
	require.NoError(t, err)
	assert.Len(t, view.Cart.Items, 1)
}

func TestCreateOrderWithItemsIgnoresCartCoupon(t *testing.T) {
	f := newFixture(t)
	inCart := seedProduct(t, f.conn, 200, 5)
	direct := seedProduct(t, f.conn, 300, 5)
	ctx := context.Background()

	_, err := f.cart.AddItem(ctx, buyer, inCart.ID.String(), 1)
	require.NoError(t, err)
	_, err = f.cart.ApplyCoupon(ctx, buyer, "FIRSTORDER")
	require.NoError(t, err)

	order, err := f.svc.CreateOrder(ctx, buyer, CreateOrderInput{
		Items:           []ItemInput{{ProductID: direct.ID.String(), Quantity: 1}},
		ShippingAddress: address(),
		PaymentMethod:   enums.PaymentMethodCard,
		ClearCart:       true,
	})
	require.NoError(t, err)

	// 300 + 40 + 54
	assert.True(t, order.Discount.IsZero())
	assert.True(t, order.Total.Equal(decimal.NewFromInt(394)), "total %s", order.Total)
	assert.Nil(t, order.CouponCode)
	assert.Empty(t, f.coupons.checked)
	assert.Empty(t, f.coupons.recorded)
}

func TestCreateOrderValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateOrder(ctx, buyer, CreateOrderInput{ShippingAddress: address(), PaymentMethod: "barter"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	addr := address()
	addr.City = " "
	_, err = f.svc.CreateOrder(ctx, buyer, CreateOrderInput{ShippingAddress: addr, PaymentMethod: enums.PaymentMethodCard})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = f.svc.CreateOrder(ctx, buyer, CreateOrderInput{ShippingAddress: address(), PaymentMethod: enums.PaymentMethodCard})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = f.svc.CreateOrder(ctx, buyer, CreateOrderInput{ShippingAddress: address(), PaymentMethod: enums.PaymentMethodCard, ClearCart: true})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = f.svc.CreateOrder(ctx, buyer, CreateOrderInput{
		Items:           []ItemInput{{ProductID: uuid.NewString(), Quantity: 1}},
		ShippingAddress: address(),
		PaymentMethod:   enums.PaymentMethodCard,
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func placeOrder(t *testing.T, f fixture, qty int) (*models.Order, *models.Product) {
	t.Helper()
	p := seedProduct(t, f.conn, 250, 10)
	order, err := f.svc.CreateOrder(context.Background(), buyer, CreateOrderInput{
		Items:           []ItemInput{{ProductID: p.ID.String(), Quantity: qty}},
		ShippingAddress: address(),
		PaymentMethod:   enums.PaymentMethodCard,
	})
	require.NoError(t, err)
	return order, p
}

func TestCancelOrderRestoresStock(t *testing.T) {
	f := newFixture(t)
	order, p := placeOrder(t, f, 3)
	require.Equal(t, 7, stockOf(t, f.conn, p.ID))

	cancelled, err := f.svc.CancelOrder(context.Background(), Actor{UserID: buyer, Role: enums.RoleCustomer}, order.OrderNumber, "")
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancellationReason)
	assert.Equal(t, defaultCancelReason, *cancelled.CancellationReason)
	assert.NotNil(t, cancelled.CancelledAt)

	assert.Equal(t, 10, stockOf(t, f.conn, p.ID))
	assert.Equal(t, []uuid.UUID{order.ID}, f.payments.cancelled)
	assert.Equal(t, int64(1), countEvents(t, f.conn, enums.EventOrderCancelled))

	_, err = f.svc.CancelOrder(context.Background(), Actor{UserID: buyer}, order.OrderNumber, "again")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidTransition))
	assert.Equal(t, 10, stockOf(t, f.conn, p.ID))
}

func TestCancelOrderHidesOtherUsersOrders(t *testing.T) {
	f := newFixture(t)
	order, _ := placeOrder(t, f, 1)

	_, err := f.svc.CancelOrder(context.Background(), Actor{UserID: "stranger"}, order.OrderNumber, "")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestCancelShippedOrderRejected(t *testing.T) {
	f := newFixture(t)
	order, p := placeOrder(t, f, 2)
	operator := Actor{UserID: "ops", Role: enums.RoleOperator}
	ctx := context.Background()

	_, err := f.svc.UpdateOrderStatus(ctx, operator, order.OrderNumber, enums.OrderStatusConfirmed)
	require.NoError(t, err)
	_, err = f.svc.UpdateOrderStatus(ctx, operator, order.OrderNumber, enums.OrderStatusShipped)
	require.NoError(t, err)

	_, err = f.svc.CancelOrder(ctx, Actor{UserID: buyer}, order.OrderNumber, "")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidTransition))
	assert.Equal(t, 8, stockOf(t, f.conn, p.ID))
}

func TestCancelDeliveredOrderRejected(t *testing.T) {
	f := newFixture(t)
	order, p := placeOrder(t, f, 2)
	operator := Actor{UserID: "ops", Role: enums.RoleOperator}
	ctx := context.Background()

	for _, status := range []enums.OrderStatus{enums.OrderStatusConfirmed, enums.OrderStatusShipped, enums.OrderStatusDelivered} {
		_, err := f.svc.UpdateOrderStatus(ctx, operator, order.OrderNumber, status)
		require.NoError(t, err)
	}

	_, err := f.svc.CancelOrder(ctx, Actor{UserID: buyer}, order.OrderNumber, "")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidTransition))

	_, err = f.svc.UpdateOrderStatus(ctx, operator, order.OrderNumber, enums.OrderStatusCancelled)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidTransition))

	assert.Equal(t, 8, stockOf(t, f.conn, p.ID))
	assert.Empty(t, f.payments.cancelled)
	assert.Zero(t, countEvents(t, f.conn, enums.EventOrderCancelled))
}

func TestUpdateOrderStatusLifecycle(t *testing.T) {
	f := newFixture(t)
	order, _ := placeOrder(t, f, 2) // total 500 + 40 + 90 = 630
	operator := Actor{UserID: "ops", Role: enums.RoleOperator}
	ctx := context.Background()

	_, err := f.svc.UpdateOrderStatus(ctx, operator, order.OrderNumber, enums.OrderStatusDelivered)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidTransition))

	confirmed, err := f.svc.UpdateOrderStatus(ctx, operator, order.OrderNumber, enums.OrderStatusConfirmed)
	require.NoError(t, err)
	assert.NotNil(t, confirmed.ConfirmedAt)

	shipped, err := f.svc.UpdateOrderStatus(ctx, operator, order.OrderNumber, enums.OrderStatusShipped)
	require.NoError(t, err)
	require.NotNil(t, shipped.TrackingNumber)
	assert.Regexp(t, `^TRK\d+$`, *shipped.TrackingNumber)
	require.NotNil(t, shipped.Carrier)
	assert.Equal(t, "Victory Express", *shipped.Carrier)
	require.NotNil(t, shipped.EstimatedDelivery)
	assert.WithinDuration(t, time.Now().AddDate(0, 0, 3), *shipped.EstimatedDelivery, time.Minute)

	delivered, err := f.svc.UpdateOrderStatus(ctx, operator, order.OrderNumber, enums.OrderStatusDelivered)
	require.NoError(t, err)
	assert.NotNil(t, delivered.DeliveredAt)
	assert.Equal(t, 6, f.loyalty.awarded[buyer])

	_, err = f.svc.UpdateOrderStatus(ctx, operator, order.OrderNumber, enums.OrderStatusCancelled)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidTransition))

	assert.Equal(t, int64(3), countEvents(t, f.conn, enums.EventOrderStatusChanged))

	tracking, err := f.svc.TrackOrder(ctx, Actor{UserID: buyer}, order.OrderNumber)
	require.NoError(t, err)
	statuses := make([]enums.OrderStatus, 0, len(tracking.History))
	for _, event := range tracking.History {
		statuses = append(statuses, event.Status)
	}
	assert.Equal(t, []enums.OrderStatus{
		enums.OrderStatusPending,
		enums.OrderStatusConfirmed,
		enums.OrderStatusShipped,
		enums.OrderStatusDelivered,
	}, statuses)
}

func TestOperatorCancelRestoresStock(t *testing.T) {
	f := newFixture(t)
	order, p := placeOrder(t, f, 4)

	cancelled, err := f.svc.UpdateOrderStatus(context.Background(), Actor{UserID: "ops", Role: enums.RoleOperator}, order.OrderNumber, enums.OrderStatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCancelled, cancelled.Status)
	assert.Equal(t, 10, stockOf(t, f.conn, p.ID))
}

func TestApplyPaymentConfirmsPendingOrder(t *testing.T) {
	f := newFixture(t)
	order, _ := placeOrder(t, f, 1)
	ctx := context.Background()

	err := f.conn.Transaction(func(tx *gorm.DB) error {
		return f.svc.ApplyPaymentWithTx(ctx, tx, order.ID, enums.OrderPaymentCompleted)
	})
	require.NoError(t, err)

	reloaded, err := f.svc.GetOrder(ctx, Actor{UserID: buyer}, order.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusConfirmed, reloaded.Status)
	assert.Equal(t, enums.OrderPaymentCompleted, reloaded.PaymentStatus)
	assert.NotNil(t, reloaded.ConfirmedAt)
}

func TestApplyPaymentFailureKeepsStatus(t *testing.T) {
	f := newFixture(t)
	order, _ := placeOrder(t, f, 1)
	ctx := context.Background()

	err := f.conn.Transaction(func(tx *gorm.DB) error {
		return f.svc.ApplyPaymentWithTx(ctx, tx, order.ID, enums.OrderPaymentFailed)
	})
	require.NoError(t, err)

	reloaded, err := f.svc.GetOrder(ctx, Actor{UserID: buyer}, order.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPending, reloaded.Status)
	assert.Equal(t, enums.OrderPaymentFailed, reloaded.PaymentStatus)
}

func TestUpdatePaymentStatusOverride(t *testing.T) {
	f := newFixture(t)
	order, _ := placeOrder(t, f, 1)

	_, err := f.svc.UpdatePaymentStatus(context.Background(), order.OrderNumber, "lost")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	updated, err := f.svc.UpdatePaymentStatus(context.Background(), order.OrderNumber, enums.OrderPaymentProcessing)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderPaymentProcessing, updated.PaymentStatus)
}

func TestListAndGetOrders(t *testing.T) {
	f := newFixture(t)
	first, _ := placeOrder(t, f, 1)
	placeOrder(t, f, 1)
	ctx := context.Background()

	list, err := f.svc.ListOrders(ctx, buyer, nil, pagination.Params{Page: 1, Limit: 1})
	require.NoError(t, err)
	require.Len(t, list.Orders, 1)
	assert.Equal(t, int64(2), list.Pagination.TotalItems)
	assert.True(t, list.Pagination.HasNext)

	none, err := f.svc.ListOrders(ctx, "someone-else", nil, pagination.Params{})
	require.NoError(t, err)
	assert.Empty(t, none.Orders)

	pending := enums.OrderPaymentPending
	all, err := f.svc.ListAllOrders(ctx, AdminFilters{PaymentStatus: &pending}, pagination.Params{})
	require.NoError(t, err)
	assert.Len(t, all.Orders, 2)

	_, err = f.svc.GetOrder(ctx, Actor{UserID: "someone-else"}, first.OrderNumber)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	got, err := f.svc.GetOrder(ctx, Actor{UserID: "ops", Role: enums.RoleOperator}, first.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)
}

func TestExpireUnpaidCancelsStaleOrders(t *testing.T) {
	f := newFixture(t)
	stale, p := placeOrder(t, f, 2)
	require.NoError(t, f.conn.Model(&models.Order{}).Where("id = ?", stale.ID).
		UpdateColumn("created_at", time.Now().Add(-48*time.Hour)).Error)
	placeOrder(t, f, 1)

	n, err := f.svc.ExpireUnpaid(context.Background(), time.Now().Add(-24*time.Hour), 10)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 10, stockOf(t, f.conn, p.ID))

	reloaded, err := f.svc.GetOrder(context.Background(), Actor{UserID: buyer}, stale.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCancelled, reloaded.Status)
}
