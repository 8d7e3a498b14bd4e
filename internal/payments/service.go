package payments

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/victorybazaar/victorybazaar-backend/internal/gateways"
	"github.com/victorybazaar/victorybazaar-backend/internal/orders"
	"github.com/victorybazaar/victorybazaar-backend/internal/sequence"
	"github.com/victorybazaar/victorybazaar-backend/pkg/db"
	"github.com/victorybazaar/victorybazaar-backend/pkg/db/models"
	"github.com/victorybazaar/victorybazaar-backend/pkg/enums"
	pkgerrors "github.com/victorybazaar/victorybazaar-backend/pkg/errors"
	"github.com/victorybazaar/victorybazaar-backend/pkg/logger"
	"github.com/victorybazaar/victorybazaar-backend/pkg/outbox"
)

const orderIDConstraint = "payments_order_id_key"

// Service runs the payment lifecycle against the configured gateways.
type Service interface {
	CreatePayment(ctx context.Context, userID string, input CreatePaymentInput) (*CreateResult, error)
	VerifyPayment(ctx context.Context, userID string, input VerifyInput) (*models.Payment, error)
	GetPayment(ctx context.Context, actor orders.Actor, paymentNumber string) (*models.Payment, error)
	GetPaymentByOrder(ctx context.Context, actor orders.Actor, orderNumber string) (*models.Payment, error)
	CapturePayment(ctx context.Context, actor orders.Actor, paymentNumber string) (*models.Payment, error)
	RefundPayment(ctx context.Context, actor orders.Actor, paymentNumber string, input RefundInput) (*models.Payment, error)
	ApplyWebhook(ctx context.Context, gateway enums.PaymentGateway, event *gateways.WebhookEvent) (*models.Payment, error)
	CancelForOrderWithTx(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// OrderReader loads the order a payment settles.
type OrderReader interface {
	FindByNumber(ctx context.Context, orderNumber string) (*models.Order, error)
}

// OrderSync mirrors the payment outcome onto its order.
type OrderSync interface {
	ApplyPaymentWithTx(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, status enums.OrderPaymentStatus) error
}

type ServiceParams struct {
	Repo     *Repository
	Orders   OrderReader
	Sync     OrderSync
	Gateways *gateways.Registry
	Tx       txRunner
	Outbox   outboxPublisher
	Logger   *logger.Logger
}

type service struct {
	repo     *Repository
	orders   OrderReader
	sync     OrderSync
	gateways *gateways.Registry
	tx       txRunner
	outbox   outboxPublisher
	logg     *logger.Logger
	now      func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("payments repository required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("order reader required")
	}
	if params.Sync == nil {
		return nil, fmt.Errorf("order sync required")
	}
	if params.Gateways == nil {
		return nil, fmt.Errorf("gateway registry required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if params.Logger == nil {
		params.Logger = logger.New(logger.Options{ServiceName: "payments", Output: io.Discard})
	}
	return &service{
		repo:     params.Repo,
		orders:   params.Orders,
		sync:     params.Sync,
		gateways: params.Gateways,
		tx:       params.Tx,
		outbox:   params.Outbox,
		logg:     params.Logger,
		now:      time.Now,
	}, nil
}

// CreatePayment is idempotent per order: a second call returns the stored
// payment with Created=false. A pending payment whose gateway setup failed
// earlier is initialized again.
func (s *service) CreatePayment(ctx context.Context, userID string, input CreatePaymentInput) (*CreateResult, error) {
	if err := validateMethod(input.PaymentMethod, input.PaymentGateway); err != nil {
		return nil, err
	}
	currency, err := enums.ParseCurrency(string(input.Currency))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid currency")
	}
	adapter, err := s.gateways.Get(input.PaymentGateway)
	if err != nil {
		return nil, err
	}

	order, err := s.ownedOrder(ctx, orders.Actor{UserID: userID, Role: enums.RoleCustomer}, input.OrderNumber)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.FindByOrderID(ctx, order.ID)
	switch {
	case err == nil:
		return s.resume(ctx, adapter, order, existing)
	case !db.IsNotFound(err):
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
	}

	if order.Status == enums.OrderStatusCancelled {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidState, "order is cancelled")
	}

	payment := &models.Payment{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		UserID:      userID,
		Amount:      order.Total,
		Currency:    currency,
		Method:      input.PaymentMethod,
		Gateway:     input.PaymentGateway,
		Status:      enums.PaymentStatusPending,
		Details:     input.PaymentDetails,
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		number, err := sequence.Next(ctx, tx, sequence.PaymentCounter)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "allocate payment number")
		}
		payment.PaymentNumber = number
		return s.repo.WithTx(tx).Create(ctx, payment)
	})
	if err != nil {
		if db.IsUniqueViolation(err, orderIDConstraint) {
			existing, findErr := s.repo.FindByOrderID(ctx, order.ID)
			if findErr != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, findErr, "load payment")
			}
			return &CreateResult{Payment: existing, GatewayData: storedIntent(existing)}, nil
		}
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment")
	}

	intent, err := s.initialize(ctx, adapter, order, payment)
	if err != nil {
		return nil, err
	}
	return &CreateResult{Payment: payment, GatewayData: intent, Created: true}, nil
}

func (s *service) resume(ctx context.Context, adapter gateways.Adapter, order *models.Order, existing *models.Payment) (*CreateResult, error) {
	if existing.Status != enums.PaymentStatusPending || existing.GatewayOrderID != nil || existing.Gateway != adapter.Gateway() {
		return &CreateResult{Payment: existing, GatewayData: storedIntent(existing)}, nil
	}
	intent, err := s.initialize(ctx, adapter, order, existing)
	if err != nil {
		return nil, err
	}
	return &CreateResult{Payment: existing, GatewayData: intent}, nil
}

// initialize calls the gateway outside any transaction and stores the
// references it returns. On failure the payment stays pending.
func (s *service) initialize(ctx context.Context, adapter gateways.Adapter, order *models.Order, payment *models.Payment) (*gateways.Intent, error) {
	ctx = s.logg.WithPayment(ctx, payment.PaymentNumber, string(payment.Gateway))
	intent, err := adapter.Initialize(ctx, order, payment)
	if err != nil {
		s.logg.Error(ctx, "gateway initialization failed", err)
		if pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeGateway, err, "payment gateway initialization failed")
	}

	updates := map[string]any{}
	if intent.GatewayOrderID != "" {
		payment.GatewayOrderID = &intent.GatewayOrderID
		updates["gateway_order_id"] = intent.GatewayOrderID
	}
	if intent.GatewayPaymentID != "" {
		payment.GatewayPaymentID = &intent.GatewayPaymentID
		updates["gateway_payment_id"] = intent.GatewayPaymentID
	}
	if intent.PaymentLink != "" {
		payment.PaymentLink = &intent.PaymentLink
		updates["payment_link"] = intent.PaymentLink
	}
	if len(updates) > 0 {
		if err := s.repo.SaveIntent(ctx, payment.ID, updates); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store gateway references")
		}
	}
	s.logg.Info(ctx, "payment initialized")
	return intent, nil
}

// VerifyPayment settles the payment from the client's callback. A rejected
// callback is recorded as failed and reported as PaymentVerificationFailed.
func (s *service) VerifyPayment(ctx context.Context, userID string, input VerifyInput) (*models.Payment, error) {
	actor := orders.Actor{UserID: userID, Role: enums.RoleCustomer}
	payment, err := s.find(ctx, actor, input.PaymentNumber)
	if err != nil {
		return nil, err
	}
	switch payment.Status {
	case enums.PaymentStatusCompleted:
		return payment, nil
	case enums.PaymentStatusRefunded, enums.PaymentStatusCancelled:
		return nil, pkgerrors.Newf(pkgerrors.CodeInvalidState, "payment is %s", payment.Status)
	}

	callback, err := gateways.DecodeCallback(payment.Gateway, input.GatewayResponse)
	if err != nil {
		return nil, err
	}
	adapter, err := s.gateways.Get(payment.Gateway)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	ok, err := s.repo.MarkProcessing(ctx, payment.ID, []enums.PaymentStatus{
		enums.PaymentStatusPending,
		enums.PaymentStatusProcessing,
		enums.PaymentStatusFailed,
	}, now)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark payment processing")
	}
	if !ok {
		return s.reloadSettled(ctx, payment)
	}
	payment.Status = enums.PaymentStatusProcessing
	payment.Attempts++
	payment.LastAttemptAt = &now

	ctx = s.logg.WithPayment(ctx, payment.PaymentNumber, string(payment.Gateway))
	outcome, err := adapter.Verify(ctx, payment, callback)
	if err != nil {
		s.logg.Error(ctx, "gateway verification call failed", err)
		if pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeGateway, err, "payment verification call failed")
	}

	updated, err := s.apply(ctx, payment, callback, outcome, []enums.PaymentStatus{enums.PaymentStatusProcessing}, &actor)
	if err != nil {
		return nil, err
	}
	if outcome.Status == gateways.OutcomeFailed {
		s.logg.Warn(ctx, "payment verification failed")
		return nil, pkgerrors.New(pkgerrors.CodePaymentVerification, "payment verification failed").
			WithDetails(map[string]any{"paymentId": payment.PaymentNumber, "reason": outcome.Reason})
	}
	return updated, nil
}

// reloadSettled handles a lost race on MarkProcessing.
func (s *service) reloadSettled(ctx context.Context, payment *models.Payment) (*models.Payment, error) {
	current, err := s.repo.FindByID(ctx, payment.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload payment")
	}
	if current.Status == enums.PaymentStatusCompleted {
		return current, nil
	}
	return nil, pkgerrors.Newf(pkgerrors.CodeConflict, "payment changed to %s concurrently", current.Status)
}

func (s *service) GetPayment(ctx context.Context, actor orders.Actor, paymentNumber string) (*models.Payment, error) {
	return s.find(ctx, actor, paymentNumber)
}

func (s *service) GetPaymentByOrder(ctx context.Context, actor orders.Actor, orderNumber string) (*models.Payment, error) {
	order, err := s.ownedOrder(ctx, actor, orderNumber)
	if err != nil {
		return nil, err
	}
	payment, err := s.repo.FindByOrderID(ctx, order.ID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
	}
	return payment, nil
}

// CapturePayment settles an authorized payment.
func (s *service) CapturePayment(ctx context.Context, actor orders.Actor, paymentNumber string) (*models.Payment, error) {
	payment, err := s.find(ctx, actor, paymentNumber)
	if err != nil {
		return nil, err
	}
	if payment.Status != enums.PaymentStatusProcessing {
		return nil, pkgerrors.Newf(pkgerrors.CodeInvalidState, "cannot capture a %s payment", payment.Status)
	}
	adapter, err := s.gateways.Get(payment.Gateway)
	if err != nil {
		return nil, err
	}

	ctx = s.logg.WithPayment(ctx, payment.PaymentNumber, string(payment.Gateway))
	outcome, err := adapter.Capture(ctx, payment)
	if err != nil {
		s.logg.Error(ctx, "gateway capture failed", err)
		if pkgerrors.IsCode(err, pkgerrors.CodeInvalidState) {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeGateway, err, "payment capture failed")
	}
	if outcome.Status == gateways.OutcomeAuthorized {
		return payment, nil
	}

	updated, err := s.apply(ctx, payment, nil, outcome, []enums.PaymentStatus{enums.PaymentStatusProcessing}, &actor)
	if err != nil {
		return nil, err
	}
	if outcome.Status == gateways.OutcomeFailed {
		return nil, pkgerrors.New(pkgerrors.CodeGateway, "payment capture declined").
			WithDetails(map[string]any{"reason": outcome.Reason})
	}
	return updated, nil
}

// RefundPayment returns money on a completed payment. Amount defaults to the
// full payment amount.
func (s *service) RefundPayment(ctx context.Context, actor orders.Actor, paymentNumber string, input RefundInput) (*models.Payment, error) {
	payment, err := s.find(ctx, actor, paymentNumber)
	if err != nil {
		return nil, err
	}
	if payment.Status != enums.PaymentStatusCompleted {
		return nil, pkgerrors.Newf(pkgerrors.CodeInvalidState, "cannot refund a %s payment", payment.Status)
	}

	amount := payment.Amount
	if input.Amount != nil {
		amount = *input.Amount
	}
	if !amount.IsPositive() || amount.GreaterThan(payment.Amount) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "refund amount must be positive and at most the payment amount").
			WithDetails(map[string]any{"amount": amount.String(), "max": payment.Amount.String()})
	}
	adapter, err := s.gateways.Get(payment.Gateway)
	if err != nil {
		return nil, err
	}

	ctx = s.logg.WithPayment(ctx, payment.PaymentNumber, string(payment.Gateway))
	result, err := adapter.Refund(ctx, payment, amount, input.Reason)
	if err != nil {
		s.logg.Error(ctx, "gateway refund failed", err)
		return nil, pkgerrors.Wrap(pkgerrors.CodeGateway, err, "payment refund failed")
	}

	now := s.now().UTC()
	refundID := result.RefundID
	if refundID == "" {
		refundID = fmt.Sprintf("REF%d", now.UnixMilli())
	}
	reason := strings.TrimSpace(input.Reason)

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		ok, err := s.repo.WithTx(tx).Transition(ctx, payment.ID, []enums.PaymentStatus{enums.PaymentStatusCompleted}, map[string]any{
			"status":        enums.PaymentStatusRefunded,
			"refund_id":     refundID,
			"refund_amount": amount,
			"refund_reason": reason,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "refund payment")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeConflict, "payment changed concurrently")
		}
		payment.Status = enums.PaymentStatusRefunded
		payment.RefundID = &refundID
		payment.RefundAmount = &amount
		payment.RefundReason = &reason

		if err := s.sync.ApplyPaymentWithTx(ctx, tx, payment.OrderID, enums.OrderPaymentRefunded); err != nil {
			return err
		}
		return s.emit(ctx, tx, payment, enums.EventPaymentRefunded, reason, &actor, now)
	})
	if err != nil {
		return nil, err
	}
	s.logg.Info(ctx, "payment refunded")
	return payment, nil
}

// CancelForOrderWithTx voids the unsettled payment of a cancelled order.
// Settled payments are left for an explicit refund.
func (s *service) CancelForOrderWithTx(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) error {
	return cancelForOrder(ctx, s.repo.WithTx(tx), orderID)
}

// Canceller exposes CancelForOrderWithTx without the rest of the service so
// the order service can be built first.
type Canceller struct {
	repo *Repository
}

func NewCanceller(repo *Repository) *Canceller {
	return &Canceller{repo: repo}
}

func (c *Canceller) CancelForOrderWithTx(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) error {
	return cancelForOrder(ctx, c.repo.WithTx(tx), orderID)
}

func cancelForOrder(ctx context.Context, repo *Repository, orderID uuid.UUID) error {
	payment, err := repo.FindByOrderID(ctx, orderID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
	}
	if payment.Status.Settled() || payment.Status == enums.PaymentStatusCancelled {
		return nil
	}
	_, err = repo.Transition(ctx, payment.ID, []enums.PaymentStatus{
		enums.PaymentStatusPending,
		enums.PaymentStatusProcessing,
		enums.PaymentStatusFailed,
	}, map[string]any{"status": enums.PaymentStatusCancelled})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel payment")
	}
	return nil
}

func (s *service) find(ctx context.Context, actor orders.Actor, paymentNumber string) (*models.Payment, error) {
	paymentNumber = strings.TrimSpace(paymentNumber)
	if paymentNumber == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "paymentId is required")
	}
	payment, err := s.repo.FindByNumber(ctx, paymentNumber)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
	}
	if !actor.IsOperator() && payment.UserID != actor.UserID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
	}
	return payment, nil
}

func (s *service) ownedOrder(ctx context.Context, actor orders.Actor, orderNumber string) (*models.Order, error) {
	orderNumber = strings.TrimSpace(orderNumber)
	if orderNumber == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "orderId is required")
	}
	order, err := s.orders.FindByNumber(ctx, orderNumber)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if !actor.IsOperator() && order.UserID != actor.UserID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}

// validateMethod pairs cash on delivery with the cash gateway and nothing else.
func validateMethod(method enums.PaymentMethod, gateway enums.PaymentGateway) error {
	if !method.IsValid() {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "invalid payment method %q", method)
	}
	if !gateway.IsValid() {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "invalid payment gateway %q", gateway)
	}
	if (method == enums.PaymentMethodCOD) != (gateway == enums.GatewayCash) {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "payment method %s cannot use gateway %s", method, gateway)
	}
	return nil
}

func storedIntent(p *models.Payment) *gateways.Intent {
	intent := &gateways.Intent{}
	if p.GatewayOrderID != nil {
		intent.GatewayOrderID = *p.GatewayOrderID
	}
	if p.GatewayPaymentID != nil {
		intent.GatewayPaymentID = *p.GatewayPaymentID
	}
	if p.PaymentLink != nil {
		intent.PaymentLink = *p.PaymentLink
	}
	return intent
}
