package router

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/victorybazaar/victorybazaar-backend/internal/analytics/types"
	"github.com/victorybazaar/victorybazaar-backend/pkg/enums"
	"github.com/victorybazaar/victorybazaar-backend/pkg/logger"
	"github.com/victorybazaar/victorybazaar-backend/pkg/outbox/registry"
)

var (
	ErrUnsupportedEventType = errors.New("unsupported analytics event type")
	ErrInvalidPayload       = errors.New("invalid analytics payload")
)

// Writer delivers BigQuery rows produced by analytics handlers.
type Writer interface {
	InsertOrderEvent(ctx context.Context, row types.OrderEventRow) error
	InsertPaymentEvent(ctx context.Context, row types.PaymentEventRow) error
}

// Handler receives an envelope plus a decoded event payload.
type Handler interface {
	Handle(ctx context.Context, envelope types.Envelope, payload any) error
}

// Router decodes envelopes with the shared outbox decoders and dispatches
// them to the handler registered for the event type.
type Router struct {
	decoders *registry.DecoderRegistry
	handlers map[enums.OutboxEventType]Handler
	logg     *logger.Logger
}

// NewRouter wires the default handlers and allows overrides for specific events.
func NewRouter(writer Writer, logg *logger.Logger, overrides map[enums.OutboxEventType]Handler) (*Router, error) {
	if writer == nil {
		return nil, errors.New("writer is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}

	payment := newPaymentStatusHandler(writer, logg)
	handlers := map[enums.OutboxEventType]Handler{
		enums.EventOrderCreated:       newOrderCreatedHandler(writer, logg),
		enums.EventOrderCancelled:     newOrderCancelledHandler(writer, logg),
		enums.EventOrderStatusChanged: newOrderStatusChangedHandler(writer, logg),
		enums.EventPaymentCompleted:   payment,
		enums.EventPaymentFailed:      payment,
		enums.EventPaymentRefunded:    payment,
	}
	for event, custom := range overrides {
		if _, ok := handlers[event]; !ok || custom == nil {
			continue
		}
		handlers[event] = custom
	}

	return &Router{
		decoders: registry.NewDomainDecoderRegistry(),
		handlers: handlers,
		logg:     logg,
	}, nil
}

// Handle dispatches the incoming envelope to the configured handler.
func (r *Router) Handle(ctx context.Context, envelope types.Envelope) error {
	handler, ok := r.handlers[envelope.EventType]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnsupportedEventType, envelope.EventType)
	}
	trimmed := bytes.TrimSpace(envelope.Payload)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return fmt.Errorf("%w: empty payload for %s", ErrInvalidPayload, envelope.EventType)
	}

	version := envelope.Version
	if version == 0 {
		version = 1
	}
	payload, err := r.decoders.Decode(envelope.EventType, version, envelope.Payload)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidPayload, envelope.EventType, err)
	}
	return handler.Handle(ctx, envelope, payload)
}
