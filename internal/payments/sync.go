package payments

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/victorybazaar/victorybazaar-backend/internal/gateways"
	"github.com/victorybazaar/victorybazaar-backend/internal/orders"
	"github.com/victorybazaar/victorybazaar-backend/pkg/db"
	"github.com/victorybazaar/victorybazaar-backend/pkg/db/models"
	"github.com/victorybazaar/victorybazaar-backend/pkg/enums"
	pkgerrors "github.com/victorybazaar/victorybazaar-backend/pkg/errors"
	"github.com/victorybazaar/victorybazaar-backend/pkg/outbox"
	"github.com/victorybazaar/victorybazaar-backend/pkg/outbox/payloads"
)

// apply writes a gateway outcome to the payment and its order in one
// transaction. The payment must still be in one of from. callback is nil for
// webhooks and captures.
func (s *service) apply(ctx context.Context, payment *models.Payment, callback gateways.Callback, outcome *gateways.Outcome, from []enums.PaymentStatus, actor *orders.Actor) (*models.Payment, error) {
	now := s.now().UTC()
	updates := map[string]any{}
	if outcome.GatewayPaymentID != "" {
		updates["gateway_payment_id"] = outcome.GatewayPaymentID
		payment.GatewayPaymentID = &outcome.GatewayPaymentID
	}
	if outcome.GatewayOrderID != "" && payment.GatewayOrderID == nil {
		updates["gateway_order_id"] = outcome.GatewayOrderID
		payment.GatewayOrderID = &outcome.GatewayOrderID
	}
	if outcome.Signature != "" {
		updates["gateway_signature"] = outcome.Signature
		payment.GatewaySignature = &outcome.Signature
	}
	if callback != nil || len(outcome.Raw) > 0 {
		record, err := gateways.NewRecord(payment.Gateway, callback, outcome.Raw)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode gateway record")
		}
		updates["webhook_data"] = string(record)
		payment.WebhookData = record
	}

	var (
		status      enums.PaymentStatus
		orderStatus enums.OrderPaymentStatus
		eventType   enums.OutboxEventType
	)
	switch outcome.Status {
	case gateways.OutcomeSucceeded:
		status, orderStatus, eventType = enums.PaymentStatusCompleted, enums.OrderPaymentCompleted, enums.EventPaymentCompleted
	case gateways.OutcomeFailed:
		status, orderStatus, eventType = enums.PaymentStatusFailed, enums.OrderPaymentFailed, enums.EventPaymentFailed
		if reason := strings.TrimSpace(outcome.Reason); reason != "" {
			updates["notes"] = reason
			payment.Notes = &reason
		}
	case gateways.OutcomeAuthorized:
		status, orderStatus = enums.PaymentStatusProcessing, enums.OrderPaymentProcessing
	default:
		return nil, pkgerrors.Newf(pkgerrors.CodeInternal, "unknown gateway outcome %q", outcome.Status)
	}
	updates["status"] = status

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		ok, err := s.repo.WithTx(tx).Transition(ctx, payment.ID, from, updates)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update payment")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeConflict, "payment changed concurrently")
		}
		payment.Status = status

		if err := s.sync.ApplyPaymentWithTx(ctx, tx, payment.OrderID, orderStatus); err != nil {
			return err
		}
		if eventType == "" {
			return nil
		}
		return s.emit(ctx, tx, payment, eventType, outcome.Reason, actor, now)
	})
	if err != nil {
		return nil, err
	}
	s.logg.Info(s.logg.WithField(ctx, "status", string(status)), "payment synchronized")
	return payment, nil
}

// ApplyWebhook applies a verified provider notification. Events that carry
// no outcome, or that repeat a state already reached, are no-ops.
func (s *service) ApplyWebhook(ctx context.Context, gateway enums.PaymentGateway, event *gateways.WebhookEvent) (*models.Payment, error) {
	if event == nil || event.Outcome == nil {
		return nil, nil
	}
	payment, err := s.findByEvent(ctx, gateway, event)
	if err != nil {
		return nil, err
	}
	ctx = s.logg.WithPayment(ctx, payment.PaymentNumber, string(gateway))

	var from []enums.PaymentStatus
	switch event.Outcome.Status {
	case gateways.OutcomeSucceeded:
		from = []enums.PaymentStatus{enums.PaymentStatusPending, enums.PaymentStatusProcessing, enums.PaymentStatusFailed}
	case gateways.OutcomeFailed, gateways.OutcomeAuthorized:
		from = []enums.PaymentStatus{enums.PaymentStatusPending, enums.PaymentStatusProcessing}
	}
	if !containsStatus(from, payment.Status) {
		s.logg.Info(s.logg.WithField(ctx, "event_id", event.EventID), "webhook ignored for payment state "+string(payment.Status))
		return payment, nil
	}
	return s.apply(ctx, payment, nil, event.Outcome, from, nil)
}

func (s *service) findByEvent(ctx context.Context, gateway enums.PaymentGateway, event *gateways.WebhookEvent) (*models.Payment, error) {
	for _, ref := range []string{event.GatewayOrderID, event.GatewayPaymentID} {
		if ref == "" {
			continue
		}
		payment, err := s.repo.FindByGatewayRef(ctx, gateway, ref)
		if err == nil {
			return payment, nil
		}
		if !db.IsNotFound(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
		}
	}
	if gateway == enums.GatewayPhonePe && event.GatewayOrderID != "" {
		payment, err := s.repo.FindByNumber(ctx, event.GatewayOrderID)
		if err == nil {
			return payment, nil
		}
		if !db.IsNotFound(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found for webhook").
		WithDetails(map[string]any{"eventId": event.EventID})
}

func (s *service) emit(ctx context.Context, tx *gorm.DB, payment *models.Payment, eventType enums.OutboxEventType, reason string, actor *orders.Actor, at time.Time) error {
	var ref *outbox.ActorRef
	if actor != nil {
		ref = &outbox.ActorRef{UserID: actor.UserID, Role: actor.Role}
	}
	event := payloads.PaymentStatusEvent{
		PaymentID:     payment.ID,
		PaymentNumber: payment.PaymentNumber,
		OrderID:       payment.OrderID,
		OrderNumber:   payment.OrderNumber,
		UserID:        payment.UserID,
		Gateway:       payment.Gateway,
		Method:        payment.Method,
		Status:        payment.Status,
		Amount:        payment.Amount,
		Currency:      payment.Currency,
		RefundAmount:  payment.RefundAmount,
		Reason:        reason,
		Attempts:      payment.Attempts,
		OccurredAt:    at,
	}
	if payment.GatewayPaymentID != nil {
		event.GatewayPaymentID = *payment.GatewayPaymentID
	}
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: enums.AggregatePayment,
		AggregateID:   payment.ID,
		Actor:         ref,
		OccurredAt:    at,
		Data:          event,
	})
}

func containsStatus(set []enums.PaymentStatus, status enums.PaymentStatus) bool {
	for _, candidate := range set {
		if candidate == status {
			return true
		}
	}
	return false
}
