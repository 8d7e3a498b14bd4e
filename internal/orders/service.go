package orders

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/victorybazaar/victorybazaar-backend/internal/cart"
	"github.com/victorybazaar/victorybazaar-backend/internal/sequence"
	"github.com/victorybazaar/victorybazaar-backend/pkg/db"
	"github.com/victorybazaar/victorybazaar-backend/pkg/db/models"
	"github.com/victorybazaar/victorybazaar-backend/pkg/enums"
	pkgerrors "github.com/victorybazaar/victorybazaar-backend/pkg/errors"
	"github.com/victorybazaar/victorybazaar-backend/pkg/logger"
	"github.com/victorybazaar/victorybazaar-backend/pkg/outbox"
	"github.com/victorybazaar/victorybazaar-backend/pkg/outbox/payloads"
	"github.com/victorybazaar/victorybazaar-backend/pkg/pagination"
	"github.com/victorybazaar/victorybazaar-backend/pkg/types"
)

const (
	defaultCancelReason   = "User requested cancellation"
	operatorCancelReason  = "Cancelled by operator"
	expiredCancelReason   = "Payment not received in time"
	defaultCarrier        = "Victory Express"
	defaultDeliveryDays   = 3
	pointsPerRupeeDivisor = 100
)

// Service covers checkout, cancellation, fulfilment and order reads.
type Service interface {
	CreateOrder(ctx context.Context, userID string, input CreateOrderInput) (*models.Order, error)
	CancelOrder(ctx context.Context, actor Actor, orderNumber, reason string) (*models.Order, error)
	UpdateOrderStatus(ctx context.Context, actor Actor, orderNumber string, status enums.OrderStatus) (*models.Order, error)
	UpdatePaymentStatus(ctx context.Context, orderNumber string, status enums.OrderPaymentStatus) (*models.Order, error)
	ListOrders(ctx context.Context, userID string, status *enums.OrderStatus, params pagination.Params) (*OrderList, error)
	ListAllOrders(ctx context.Context, filters AdminFilters, params pagination.Params) (*OrderList, error)
	GetOrder(ctx context.Context, actor Actor, orderNumber string) (*models.Order, error)
	TrackOrder(ctx context.Context, actor Actor, orderNumber string) (*Tracking, error)
	ApplyPaymentWithTx(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, status enums.OrderPaymentStatus) error
	ExpireUnpaid(ctx context.Context, cutoff time.Time, limit int) (int, error)
}

// Options wires the order service. Wishlist, Coupons, Payments and Loyalty
// are optional collaborators.
type Options struct {
	Repo         Repository
	Tx           txRunner
	Outbox       outboxPublisher
	Inventory    Inventory
	Cart         CartSource
	Wishlist     PurchaseRecorder
	Coupons      CouponRedeemer
	Payments     PaymentCanceller
	Loyalty      LoyaltyAwarder
	Pricing      cart.Pricing
	Carrier      string
	DeliveryDays int
	Logger       *logger.Logger
}

type service struct {
	repo         Repository
	tx           txRunner
	outbox       outboxPublisher
	inventory    Inventory
	cart         CartSource
	wishlist     PurchaseRecorder
	coupons      CouponRedeemer
	payments     PaymentCanceller
	loyalty      LoyaltyAwarder
	pricing      cart.Pricing
	carrier      string
	deliveryDays int
	logg         *logger.Logger
	now          func() time.Time
}

// NewService builds the order service with the required dependencies.
func NewService(opts Options) (Service, error) {
	if opts.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if opts.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if opts.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if opts.Inventory == nil {
		return nil, fmt.Errorf("inventory required")
	}
	if opts.Cart == nil {
		return nil, fmt.Errorf("cart source required")
	}
	if strings.TrimSpace(opts.Carrier) == "" {
		opts.Carrier = defaultCarrier
	}
	if opts.DeliveryDays <= 0 {
		opts.DeliveryDays = defaultDeliveryDays
	}
	if opts.Logger == nil {
		opts.Logger = logger.New(logger.Options{ServiceName: "orders", Output: io.Discard})
	}
	return &service{
		repo:         opts.Repo,
		tx:           opts.Tx,
		outbox:       opts.Outbox,
		inventory:    opts.Inventory,
		cart:         opts.Cart,
		wishlist:     opts.Wishlist,
		coupons:      opts.Coupons,
		payments:     opts.Payments,
		loyalty:      opts.Loyalty,
		pricing:      opts.Pricing.OrDefault(),
		carrier:      opts.Carrier,
		deliveryDays: opts.DeliveryDays,
		logg:         opts.Logger,
		now:          time.Now,
	}, nil
}

type orderLine struct {
	productID uuid.UUID
	quantity  int
}

// CreateOrder reserves stock, snapshots the items and persists the order in
// a single transaction. Any failure leaves stock and cart untouched.
func (s *service) CreateOrder(ctx context.Context, userID string, input CreateOrderInput) (*models.Order, error) {
	if !input.PaymentMethod.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid payment method %q", input.PaymentMethod)
	}
	address := input.ShippingAddress.Normalize()
	if err := validateAddress(address); err != nil {
		return nil, err
	}

	var (
		order      *models.Order
		couponCode string
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		lines, discount, code, err := s.resolveLines(ctx, tx, userID, input)
		if err != nil {
			return err
		}
		couponCode = code

		items := make([]models.OrderItem, 0, len(lines))
		productIDs := make([]uuid.UUID, 0, len(lines))
		subtotal := decimal.Zero
		for _, line := range lines {
			product, err := s.inventory.Reserve(ctx, tx, line.productID, line.quantity)
			if err != nil {
				return err
			}
			items = append(items, models.OrderItem{
				ProductID: product.ID,
				Name:      product.Name,
				Image:     product.PrimaryImage(),
				Price:     product.Price,
				Quantity:  line.quantity,
			})
			productIDs = append(productIDs, product.ID)
			subtotal = subtotal.Add(product.Price.Mul(decimal.NewFromInt(int64(line.quantity))))
		}
		totals := s.pricing.Calculate(subtotal, discount)

		number, err := sequence.Next(ctx, tx, sequence.OrderCounter)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "allocate order number")
		}

		order = &models.Order{
			OrderNumber:     number,
			UserID:          userID,
			Items:           items,
			ShippingAddress: address,
			PaymentMethod:   input.PaymentMethod,
			Status:          enums.OrderStatusPending,
			PaymentStatus:   enums.OrderPaymentPending,
			Subtotal:        totals.Subtotal,
			ShippingFee:     totals.Shipping,
			Tax:             totals.Tax,
			Discount:        totals.Discount,
			Total:           totals.Total,
			CouponCode:      optionalString(code),
			Notes:           optionalString(strings.TrimSpace(input.Notes)),
		}
		if err := s.repo.WithTx(tx).Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}

		if input.ClearCart {
			if err := s.cart.ClearCartWithTx(ctx, tx, userID); err != nil {
				return err
			}
		}
		if s.wishlist != nil {
			if err := s.wishlist.RecordPurchasesWithTx(ctx, tx, userID, productIDs); err != nil {
				return err
			}
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: userID, Role: enums.RoleCustomer},
			Data:          createdEvent(order),
		})
	})
	if err != nil {
		return nil, err
	}

	ctx = s.logg.WithOrder(ctx, order.OrderNumber)
	if couponCode != "" && s.coupons != nil {
		if err := s.coupons.RecordUsage(ctx, userID, couponCode); err != nil {
			s.logg.Error(ctx, "record coupon usage", err)
		}
	}
	s.logg.Info(ctx, "order created")
	return order, nil
}

// resolveLines picks the explicit items or the cart lines. Only a cart
// checkout carries the cart's coupon.
func (s *service) resolveLines(ctx context.Context, tx *gorm.DB, userID string, input CreateOrderInput) ([]orderLine, decimal.Decimal, string, error) {
	if len(input.Items) > 0 {
		lines := make([]orderLine, 0, len(input.Items))
		for _, item := range input.Items {
			if item.Quantity < 1 {
				return nil, decimal.Zero, "", pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
			}
			id, err := uuid.Parse(strings.TrimSpace(item.ProductID))
			if err != nil {
				return nil, decimal.Zero, "", pkgerrors.Newf(pkgerrors.CodeNotFound, "product %s not found", item.ProductID)
			}
			lines = append(lines, orderLine{productID: id, quantity: item.Quantity})
		}
		return lines, decimal.Zero, "", nil
	}

	if !input.ClearCart {
		return nil, decimal.Zero, "", pkgerrors.New(pkgerrors.CodeValidation, "order must contain at least one item")
	}
	basket, err := s.cart.LoadWithTx(ctx, tx, userID)
	if err != nil {
		return nil, decimal.Zero, "", err
	}
	if len(basket.Items) == 0 {
		return nil, decimal.Zero, "", pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	lines := make([]orderLine, 0, len(basket.Items))
	for _, item := range basket.Items {
		lines = append(lines, orderLine{productID: item.ProductID, quantity: item.Quantity})
	}
	discount, code, err := s.cartCoupon(ctx, userID, basket)
	if err != nil {
		return nil, decimal.Zero, "", err
	}
	return lines, discount, code, nil
}

// cartCoupon redeems the cart's coupon again, so a code that expired or ran
// out of uses after it was applied is refused at checkout.
func (s *service) cartCoupon(ctx context.Context, userID string, basket *models.Cart) (decimal.Decimal, string, error) {
	if basket.CouponCode == nil || strings.TrimSpace(*basket.CouponCode) == "" {
		return decimal.Zero, "", nil
	}
	if s.coupons == nil {
		return basket.CouponDiscount, *basket.CouponCode, nil
	}
	coupon, err := s.coupons.Redeemable(ctx, userID, *basket.CouponCode)
	if err != nil {
		return decimal.Zero, "", err
	}
	return coupon.Discount, coupon.Code, nil
}

func (s *service) CancelOrder(ctx context.Context, actor Actor, orderNumber, reason string) (*models.Order, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = defaultCancelReason
	}
	var order *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		order, err = s.loadForActor(ctx, s.repo.WithTx(tx), actor, orderNumber)
		if err != nil {
			return err
		}
		return s.cancelTx(ctx, tx, order, reason, actorRef(actor), false)
	})
	if err != nil {
		return nil, err
	}
	s.logg.Info(s.logg.WithOrder(ctx, order.OrderNumber), "order cancelled")
	return order, nil
}

// cancelTx restores stock, voids the payment and moves the order to
// cancelled, guarded on the status it was loaded with.
func (s *service) cancelTx(ctx context.Context, tx *gorm.DB, order *models.Order, reason string, actor *outbox.ActorRef, expired bool) error {
	if !order.Status.Cancellable() {
		return pkgerrors.Newf(pkgerrors.CodeInvalidTransition, "order cannot be cancelled once %s", order.Status)
	}
	for _, item := range order.Items {
		if err := s.inventory.Release(ctx, tx, item.ProductID, item.Quantity); err != nil {
			return err
		}
	}

	now := s.now().UTC()
	ok, err := s.repo.WithTx(tx).Transition(ctx, order.ID, order.Status, map[string]any{
		"order_status":        enums.OrderStatusCancelled,
		"cancelled_at":        now,
		"cancellation_reason": reason,
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel order")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeConflict, "order changed concurrently, retry")
	}
	if s.payments != nil {
		if err := s.payments.CancelForOrderWithTx(ctx, tx, order.ID); err != nil {
			return err
		}
	}

	order.Status = enums.OrderStatusCancelled
	order.CancelledAt = &now
	order.CancellationReason = &reason

	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventOrderCancelled,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Actor:         actor,
		OccurredAt:    now,
		Data: payloads.OrderCancelledEvent{
			OrderID:     order.ID,
			OrderNumber: order.OrderNumber,
			UserID:      order.UserID,
			Reason:      reason,
			Expired:     expired,
			CancelledAt: now,
		},
	})
}

// UpdateOrderStatus is the operator fulfilment path. Only edges of the
// order status graph are accepted.
func (s *service) UpdateOrderStatus(ctx context.Context, actor Actor, orderNumber string, status enums.OrderStatus) (*models.Order, error) {
	if !status.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid order status %q", status)
	}
	var order *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		var err error
		order, err = s.find(ctx, repo, orderNumber)
		if err != nil {
			return err
		}
		if status == enums.OrderStatusCancelled {
			return s.cancelTx(ctx, tx, order, operatorCancelReason, actorRef(actor), false)
		}
		if !order.Status.CanTransitionTo(status) {
			return pkgerrors.Newf(pkgerrors.CodeInvalidTransition, "cannot move order from %s to %s", order.Status, status).
				WithDetails(map[string]any{"from": order.Status, "to": status})
		}

		from := order.Status
		now := s.now().UTC()
		updates := map[string]any{"order_status": status}
		switch status {
		case enums.OrderStatusConfirmed:
			updates["confirmed_at"] = now
			order.ConfirmedAt = &now
		case enums.OrderStatusShipped:
			tracking := fmt.Sprintf("TRK%d", now.UnixMilli())
			carrier := s.carrier
			eta := now.AddDate(0, 0, s.deliveryDays)
			updates["tracking_number"] = tracking
			updates["carrier"] = carrier
			updates["estimated_delivery"] = eta
			updates["shipped_at"] = now
			order.TrackingNumber = &tracking
			order.Carrier = &carrier
			order.EstimatedDelivery = &eta
			order.ShippedAt = &now
		case enums.OrderStatusDelivered:
			updates["delivered_at"] = now
			order.DeliveredAt = &now
		}

		ok, err := repo.Transition(ctx, order.ID, from, updates)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeConflict, "order changed concurrently, retry")
		}
		order.Status = status

		if status == enums.OrderStatusDelivered && s.loyalty != nil {
			points := int(order.Total.Div(decimal.NewFromInt(pointsPerRupeeDivisor)).Floor().IntPart())
			if points > 0 {
				if err := s.loyalty.AwardPointsWithTx(ctx, tx, order.UserID, points); err != nil {
					return err
				}
			}
		}
		return s.emitStatusChanged(ctx, tx, order, from, actorRef(actor), now)
	})
	if err != nil {
		return nil, err
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{"order_number": order.OrderNumber, "status": order.Status}), "order status updated")
	return order, nil
}

// UpdatePaymentStatus lets an operator reconcile the order's payment status.
func (s *service) UpdatePaymentStatus(ctx context.Context, orderNumber string, status enums.OrderPaymentStatus) (*models.Order, error) {
	if !status.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid payment status %q", status)
	}
	order, err := s.find(ctx, s.repo, orderNumber)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdatePaymentStatus(ctx, order.ID, status); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update payment status")
	}
	order.PaymentStatus = status
	return order, nil
}

// ApplyPaymentWithTx mirrors a payment outcome onto the order. A completed
// payment also confirms a pending order.
func (s *service) ApplyPaymentWithTx(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, status enums.OrderPaymentStatus) error {
	repo := s.repo.WithTx(tx)
	order, err := repo.FindByID(ctx, orderID)
	if err != nil {
		if db.IsNotFound(err) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if err := repo.UpdatePaymentStatus(ctx, order.ID, status); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update payment status")
	}
	if status != enums.OrderPaymentCompleted || order.Status != enums.OrderStatusPending {
		return nil
	}

	now := s.now().UTC()
	ok, err := repo.Transition(ctx, order.ID, enums.OrderStatusPending, map[string]any{
		"order_status": enums.OrderStatusConfirmed,
		"confirmed_at": now,
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "confirm order")
	}
	if !ok {
		return nil
	}
	order.Status = enums.OrderStatusConfirmed
	order.ConfirmedAt = &now
	return s.emitStatusChanged(ctx, tx, order, enums.OrderStatusPending, nil, now)
}

func (s *service) ListOrders(ctx context.Context, userID string, status *enums.OrderStatus, params pagination.Params) (*OrderList, error) {
	if status != nil && !status.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid order status %q", *status)
	}
	params = params.Normalize(pagination.DefaultLimit)
	rows, total, err := s.repo.ListByUser(ctx, userID, status, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return &OrderList{Orders: nonNil(rows), Pagination: pagination.NewMeta(params, total)}, nil
}

func (s *service) ListAllOrders(ctx context.Context, filters AdminFilters, params pagination.Params) (*OrderList, error) {
	if filters.Status != nil && !filters.Status.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid order status %q", *filters.Status)
	}
	if filters.PaymentStatus != nil && !filters.PaymentStatus.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid payment status %q", *filters.PaymentStatus)
	}
	params = params.Normalize(pagination.DefaultLimit)
	rows, total, err := s.repo.ListAll(ctx, filters, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return &OrderList{Orders: nonNil(rows), Pagination: pagination.NewMeta(params, total)}, nil
}

func (s *service) GetOrder(ctx context.Context, actor Actor, orderNumber string) (*models.Order, error) {
	return s.loadForActor(ctx, s.repo, actor, orderNumber)
}

func (s *service) TrackOrder(ctx context.Context, actor Actor, orderNumber string) (*Tracking, error) {
	order, err := s.loadForActor(ctx, s.repo, actor, orderNumber)
	if err != nil {
		return nil, err
	}
	return buildTracking(order), nil
}

// ExpireUnpaid cancels pending orders created before cutoff whose payment
// never completed. Each order is cancelled in its own transaction.
func (s *service) ExpireUnpaid(ctx context.Context, cutoff time.Time, limit int) (int, error) {
	if limit <= 0 {
		limit = pagination.MaxLimit
	}
	stale, err := s.repo.FindUnpaidBefore(ctx, cutoff, limit)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find unpaid orders")
	}

	expired := 0
	var errs error
	for _, candidate := range stale {
		err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			order, err := s.repo.WithTx(tx).FindByID(ctx, candidate.ID)
			if err != nil {
				return err
			}
			if order.Status != enums.OrderStatusPending || order.PaymentStatus == enums.OrderPaymentCompleted {
				return nil
			}
			return s.cancelTx(ctx, tx, order, expiredCancelReason, nil, true)
		})
		if err != nil {
			s.logg.Error(s.logg.WithOrder(ctx, candidate.OrderNumber), "expire unpaid order", err)
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", candidate.OrderNumber, err))
			continue
		}
		expired++
	}
	return expired, errs
}

func (s *service) emitStatusChanged(ctx context.Context, tx *gorm.DB, order *models.Order, from enums.OrderStatus, actor *outbox.ActorRef, at time.Time) error {
	event := payloads.OrderStatusChangedEvent{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		UserID:      order.UserID,
		From:        from,
		To:          order.Status,
		ChangedAt:   at,
	}
	if order.TrackingNumber != nil {
		event.TrackingNumber = *order.TrackingNumber
	}
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventOrderStatusChanged,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Actor:         actor,
		OccurredAt:    at,
		Data:          event,
	})
}

func (s *service) find(ctx context.Context, repo Repository, orderNumber string) (*models.Order, error) {
	order, err := repo.FindByNumber(ctx, strings.TrimSpace(orderNumber))
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

// loadForActor hides other users' orders behind NotFound.
func (s *service) loadForActor(ctx context.Context, repo Repository, actor Actor, orderNumber string) (*models.Order, error) {
	order, err := s.find(ctx, repo, orderNumber)
	if err != nil {
		return nil, err
	}
	if !actor.IsOperator() && order.UserID != actor.UserID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}

func buildTracking(order *models.Order) *Tracking {
	history := []TrackingEvent{{
		Status:    enums.OrderStatusPending,
		Timestamp: order.CreatedAt,
		Message:   "Order placed",
	}}
	milestones := []struct {
		at      *time.Time
		status  enums.OrderStatus
		message string
	}{
		{order.ConfirmedAt, enums.OrderStatusConfirmed, "Order confirmed"},
		{order.ShippedAt, enums.OrderStatusShipped, "Order shipped"},
		{order.DeliveredAt, enums.OrderStatusDelivered, "Order delivered"},
		{order.CancelledAt, enums.OrderStatusCancelled, "Order cancelled"},
	}
	for _, m := range milestones {
		if m.at == nil {
			continue
		}
		history = append(history, TrackingEvent{Status: m.status, Timestamp: *m.at, Message: m.message})
	}
	return &Tracking{
		OrderNumber:       order.OrderNumber,
		Status:            order.Status,
		TrackingNumber:    order.TrackingNumber,
		Carrier:           order.Carrier,
		EstimatedDelivery: order.EstimatedDelivery,
		History:           history,
	}
}

func createdEvent(order *models.Order) payloads.OrderCreatedEvent {
	lines := make([]payloads.OrderLine, 0, len(order.Items))
	for _, item := range order.Items {
		lines = append(lines, payloads.OrderLine{ProductID: item.ProductID, Quantity: item.Quantity, Price: item.Price})
	}
	event := payloads.OrderCreatedEvent{
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		UserID:        order.UserID,
		PaymentMethod: order.PaymentMethod,
		Subtotal:      order.Subtotal,
		Discount:      order.Discount,
		Total:         order.Total,
		Items:         lines,
		CreatedAt:     order.CreatedAt,
	}
	if order.CouponCode != nil {
		event.CouponCode = *order.CouponCode
	}
	return event
}

func validateAddress(addr types.ShippingAddress) error {
	var missing []string
	for _, field := range []struct{ name, value string }{
		{"fullName", addr.FullName},
		{"phone", addr.Phone},
		{"addressLine1", addr.AddressLine1},
		{"city", addr.City},
		{"state", addr.State},
		{"zipCode", addr.ZipCode},
	} {
		if field.value == "" {
			missing = append(missing, field.name)
		}
	}
	if len(missing) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "shipping address incomplete").
			WithDetails(map[string]any{"missing": missing})
	}
	return nil
}

func actorRef(actor Actor) *outbox.ActorRef {
	if actor.UserID == "" {
		return nil
	}
	return &outbox.ActorRef{UserID: actor.UserID, Role: actor.Role}
}

func optionalString(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func nonNil(rows []models.Order) []models.Order {
	if rows == nil {
		return []models.Order{}
	}
	return rows
}
