package router

import (
	"context"
	"fmt"

	"github.com/victorybazaar/victorybazaar-backend/internal/analytics/types"
	"github.com/victorybazaar/victorybazaar-backend/internal/analytics/writer"
	"github.com/victorybazaar/victorybazaar-backend/pkg/enums"
	"github.com/victorybazaar/victorybazaar-backend/pkg/logger"
	"github.com/victorybazaar/victorybazaar-backend/pkg/outbox/payloads"
)

type orderCreatedHandler struct {
	writer Writer
	logg   *logger.Logger
}

func newOrderCreatedHandler(w Writer, logg *logger.Logger) Handler {
	return &orderCreatedHandler{writer: w, logg: logg}
}

func (h *orderCreatedHandler) Handle(ctx context.Context, envelope types.Envelope, payload any) error {
	event, ok := payload.(*payloads.OrderCreatedEvent)
	if !ok {
		return fmt.Errorf("%w: order.created got %T", ErrInvalidPayload, payload)
	}

	items, err := writer.EncodeJSON(event.Items)
	if err != nil {
		return err
	}
	quantity := 0
	for _, line := range event.Items {
		quantity += line.Quantity
	}

	row := baseOrderRow(envelope)
	row.OrderID = event.OrderID.String()
	row.OrderNumber = event.OrderNumber
	row.UserID = event.UserID
	row.Status = string(enums.OrderStatusPending)
	row.PaymentMethod = string(event.PaymentMethod)
	row.CouponCode = event.CouponCode
	row.ItemCount = quantity
	row.Subtotal = &event.Subtotal
	row.Discount = &event.Discount
	row.Total = &event.Total
	row.Items = items
	if event.CreatedAt.After(row.OccurredAt) {
		row.OccurredAt = event.CreatedAt.UTC()
	}

	logCtx := h.logg.WithOrder(ctx, event.OrderNumber)
	if err := h.writer.InsertOrderEvent(logCtx, row); err != nil {
		return err
	}
	h.logg.Info(logCtx, "order created row written")
	return nil
}

type orderCancelledHandler struct {
	writer Writer
	logg   *logger.Logger
}

func newOrderCancelledHandler(w Writer, logg *logger.Logger) Handler {
	return &orderCancelledHandler{writer: w, logg: logg}
}

func (h *orderCancelledHandler) Handle(ctx context.Context, envelope types.Envelope, payload any) error {
	event, ok := payload.(*payloads.OrderCancelledEvent)
	if !ok {
		return fmt.Errorf("%w: order.cancelled got %T", ErrInvalidPayload, payload)
	}

	row := baseOrderRow(envelope)
	row.OrderID = event.OrderID.String()
	row.OrderNumber = event.OrderNumber
	row.UserID = event.UserID
	row.Status = string(enums.OrderStatusCancelled)
	row.Reason = event.Reason
	row.Expired = event.Expired

	logCtx := h.logg.WithOrder(ctx, event.OrderNumber)
	if err := h.writer.InsertOrderEvent(logCtx, row); err != nil {
		return err
	}
	h.logg.Info(h.logg.WithField(logCtx, "expired", event.Expired), "order cancelled row written")
	return nil
}

type orderStatusChangedHandler struct {
	writer Writer
	logg   *logger.Logger
}

func newOrderStatusChangedHandler(w Writer, logg *logger.Logger) Handler {
	return &orderStatusChangedHandler{writer: w, logg: logg}
}

func (h *orderStatusChangedHandler) Handle(ctx context.Context, envelope types.Envelope, payload any) error {
	event, ok := payload.(*payloads.OrderStatusChangedEvent)
	if !ok {
		return fmt.Errorf("%w: order.status_changed got %T", ErrInvalidPayload, payload)
	}

	row := baseOrderRow(envelope)
	row.OrderID = event.OrderID.String()
	row.OrderNumber = event.OrderNumber
	row.UserID = event.UserID
	row.Status = string(event.To)
	row.PreviousStatus = string(event.From)
	row.TrackingNumber = event.TrackingNumber

	logCtx := h.logg.WithOrder(ctx, event.OrderNumber)
	return h.writer.InsertOrderEvent(logCtx, row)
}

func baseOrderRow(envelope types.Envelope) types.OrderEventRow {
	payload, _ := writer.EncodeJSON(envelope.Payload)
	return types.OrderEventRow{
		EventID:    envelope.EventID,
		EventType:  string(envelope.EventType),
		OccurredAt: envelope.OccurredAt.UTC(),
		ActorID:    envelope.ActorID(),
		Payload:    payload,
	}
}
