package router

import (
	"context"
	"fmt"

	"github.com/victorybazaar/victorybazaar-backend/internal/analytics/types"
	"github.com/victorybazaar/victorybazaar-backend/internal/analytics/writer"
	"github.com/victorybazaar/victorybazaar-backend/pkg/logger"
	"github.com/victorybazaar/victorybazaar-backend/pkg/outbox/payloads"
)

// paymentStatusHandler serves payment.completed, payment.failed and payment.refunded.
type paymentStatusHandler struct {
	writer Writer
	logg   *logger.Logger
}

func newPaymentStatusHandler(w Writer, logg *logger.Logger) Handler {
	return &paymentStatusHandler{writer: w, logg: logg}
}

func (h *paymentStatusHandler) Handle(ctx context.Context, envelope types.Envelope, payload any) error {
	event, ok := payload.(*payloads.PaymentStatusEvent)
	if !ok {
		return fmt.Errorf("%w: %s got %T", ErrInvalidPayload, envelope.EventType, payload)
	}

	raw, err := writer.EncodeJSON(envelope.Payload)
	if err != nil {
		return err
	}
	occurredAt := envelope.OccurredAt.UTC()
	if !event.OccurredAt.IsZero() {
		occurredAt = event.OccurredAt.UTC()
	}

	row := types.PaymentEventRow{
		EventID:          envelope.EventID,
		EventType:        string(envelope.EventType),
		OccurredAt:       occurredAt,
		PaymentID:        event.PaymentID.String(),
		PaymentNumber:    event.PaymentNumber,
		OrderID:          event.OrderID.String(),
		OrderNumber:      event.OrderNumber,
		UserID:           event.UserID,
		Gateway:          string(event.Gateway),
		Method:           string(event.Method),
		Status:           string(event.Status),
		Currency:         string(event.Currency),
		Amount:           event.Amount,
		RefundAmount:     event.RefundAmount,
		GatewayPaymentID: event.GatewayPaymentID,
		Reason:           event.Reason,
		Attempts:         event.Attempts,
		Payload:          raw,
	}

	logCtx := h.logg.WithPayment(ctx, event.PaymentNumber, string(event.Gateway))
	if err := h.writer.InsertPaymentEvent(logCtx, row); err != nil {
		return err
	}
	h.logg.Info(h.logg.WithField(logCtx, "status", row.Status), "payment row written")
	return nil
}
