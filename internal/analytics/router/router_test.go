package router

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/victorybazaar/victorybazaar-backend/internal/analytics/types"
	"github.com/victorybazaar/victorybazaar-backend/pkg/enums"
	"github.com/victorybazaar/victorybazaar-backend/pkg/logger"
	"github.com/victorybazaar/victorybazaar-backend/pkg/outbox"
	"github.com/victorybazaar/victorybazaar-backend/pkg/outbox/payloads"
)

type fakeWriter struct {
	orders   []types.OrderEventRow
	payments []types.PaymentEventRow
	err      error
}

func (f *fakeWriter) InsertOrderEvent(_ context.Context, row types.OrderEventRow) error {
	if f.err != nil {
		return f.err
	}
	f.orders = append(f.orders, row)
	return nil
}

func (f *fakeWriter) InsertPaymentEvent(_ context.Context, row types.PaymentEventRow) error {
	if f.err != nil {
		return f.err
	}
	f.payments = append(f.payments, row)
	return nil
}

type recordingHandler struct {
	payload any
}

func (h *recordingHandler) Handle(_ context.Context, _ types.Envelope, payload any) error {
	h.payload = payload
	return nil
}

func newTestRouter(t *testing.T, w Writer, overrides map[enums.OutboxEventType]Handler) *Router {
	t.Helper()
	r, err := NewRouter(w, logger.New(logger.Options{ServiceName: "router-test", Output: io.Discard}), overrides)
	require.NoError(t, err)
	return r
}

func envelopeFor(t *testing.T, eventType enums.OutboxEventType, data any) types.Envelope {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	return types.Envelope{
		EventID:    uuid.NewString(),
		EventType:  eventType,
		Version:    1,
		OccurredAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		Actor:      &outbox.ActorRef{UserID: "uid-ops", Role: enums.RoleOperator},
		Payload:    raw,
	}
}

func TestNewRouterValidation(t *testing.T) {
	_, err := NewRouter(nil, logger.New(logger.Options{ServiceName: "x", Output: io.Discard}), nil)
	assert.Error(t, err)
	_, err = NewRouter(&fakeWriter{}, nil, nil)
	assert.Error(t, err)
}

func TestOrderCreatedRow(t *testing.T) {
	w := &fakeWriter{}
	r := newTestRouter(t, w, nil)
	orderID := uuid.New()
	env := envelopeFor(t, enums.EventOrderCreated, payloads.OrderCreatedEvent{
		OrderID:       orderID,
		OrderNumber:   "VB000007",
		UserID:        "uid-1",
		PaymentMethod: enums.PaymentMethodUPI,
		Subtotal:      decimal.NewFromInt(600),
		Discount:      decimal.NewFromInt(60),
		Total:         decimal.NewFromInt(637),
		CouponCode:    "SAVE10",
		Items: []payloads.OrderLine{
			{ProductID: uuid.New(), Quantity: 2, Price: decimal.NewFromInt(200)},
			{ProductID: uuid.New(), Quantity: 1, Price: decimal.NewFromInt(200)},
		},
	})

	require.NoError(t, r.Handle(context.Background(), env))
	require.Len(t, w.orders, 1)
	row := w.orders[0]
	assert.Equal(t, env.EventID, row.EventID)
	assert.Equal(t, "order.created", row.EventType)
	assert.Equal(t, orderID.String(), row.OrderID)
	assert.Equal(t, "pending", row.Status)
	assert.Equal(t, "uid-ops", row.ActorID)
	assert.Equal(t, 3, row.ItemCount)
	assert.Equal(t, "SAVE10", row.CouponCode)
	require.NotNil(t, row.Total)
	assert.True(t, row.Total.Equal(decimal.NewFromInt(637)))
	assert.True(t, row.Items.Valid)
	assert.True(t, row.Payload.Valid)
}

func TestOrderCancelledAndStatusRows(t *testing.T) {
	w := &fakeWriter{}
	r := newTestRouter(t, w, nil)

	require.NoError(t, r.Handle(context.Background(), envelopeFor(t, enums.EventOrderCancelled, payloads.OrderCancelledEvent{
		OrderID: uuid.New(), OrderNumber: "VB000008", Reason: "unpaid", Expired: true,
	})))
	require.NoError(t, r.Handle(context.Background(), envelopeFor(t, enums.EventOrderStatusChanged, payloads.OrderStatusChangedEvent{
		OrderID: uuid.New(), OrderNumber: "VB000009",
		From: enums.OrderStatusProcessing, To: enums.OrderStatusShipped, TrackingNumber: "VBT123",
	})))

	require.Len(t, w.orders, 2)
	assert.Equal(t, "cancelled", w.orders[0].Status)
	assert.True(t, w.orders[0].Expired)
	assert.Equal(t, "unpaid", w.orders[0].Reason)
	assert.Equal(t, "processing", w.orders[1].PreviousStatus)
	assert.Equal(t, "shipped", w.orders[1].Status)
	assert.Equal(t, "VBT123", w.orders[1].TrackingNumber)
}

func TestPaymentEventsShareHandler(t *testing.T) {
	w := &fakeWriter{}
	r := newTestRouter(t, w, nil)
	refund := decimal.NewFromInt(250)

	for _, eventType := range []enums.OutboxEventType{enums.EventPaymentCompleted, enums.EventPaymentRefunded} {
		require.NoError(t, r.Handle(context.Background(), envelopeFor(t, eventType, payloads.PaymentStatusEvent{
			PaymentID:     uuid.New(),
			PaymentNumber: "PAY000004",
			OrderID:       uuid.New(),
			Gateway:       enums.GatewayRazorpay,
			Status:        enums.PaymentStatusRefunded,
			Amount:        decimal.NewFromInt(500),
			Currency:      enums.CurrencyINR,
			RefundAmount:  &refund,
			Attempts:      1,
		})))
	}

	require.Len(t, w.payments, 2)
	assert.Equal(t, "payment.completed", w.payments[0].EventType)
	assert.Equal(t, "payment.refunded", w.payments[1].EventType)
	assert.Equal(t, "razorpay", w.payments[1].Gateway)
	require.NotNil(t, w.payments[1].RefundAmount)
	assert.True(t, w.payments[1].RefundAmount.Equal(refund))
	assert.Equal(t, time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC), w.payments[0].OccurredAt)
}

func TestRouterRejectsUnknownAndMalformed(t *testing.T) {
	r := newTestRouter(t, &fakeWriter{}, nil)

	err := r.Handle(context.Background(), types.Envelope{EventType: "order.teleported", Payload: json.RawMessage(`{}`)})
	assert.ErrorIs(t, err, ErrUnsupportedEventType)

	err = r.Handle(context.Background(), types.Envelope{EventType: enums.EventOrderCreated, Payload: json.RawMessage(`null`)})
	assert.ErrorIs(t, err, ErrInvalidPayload)

	err = r.Handle(context.Background(), types.Envelope{EventType: enums.EventOrderCreated, Payload: json.RawMessage(`{"orderId":42}`)})
	assert.ErrorIs(t, err, ErrInvalidPayload)

	err = r.Handle(context.Background(), types.Envelope{EventType: enums.EventOrderCreated, Version: 9, Payload: json.RawMessage(`{}`)})
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

func TestRouterWriterErrorPropagates(t *testing.T) {
	boom := errors.New("bigquery down")
	r := newTestRouter(t, &fakeWriter{err: boom}, nil)

	err := r.Handle(context.Background(), envelopeFor(t, enums.EventOrderCancelled, payloads.OrderCancelledEvent{OrderID: uuid.New()}))
	assert.ErrorIs(t, err, boom)
}

func TestRouterOverride(t *testing.T) {
	custom := &recordingHandler{}
	r := newTestRouter(t, &fakeWriter{}, map[enums.OutboxEventType]Handler{
		enums.EventPaymentFailed: custom,
		"unknown.event":          &recordingHandler{},
	})

	require.NoError(t, r.Handle(context.Background(), envelopeFor(t, enums.EventPaymentFailed, payloads.PaymentStatusEvent{PaymentNumber: "PAY000010"})))
	event, ok := custom.payload.(*payloads.PaymentStatusEvent)
	require.True(t, ok)
	assert.Equal(t, "PAY000010", event.PaymentNumber)
	_, registered := r.handlers["unknown.event"]
	assert.False(t, registered)
}
