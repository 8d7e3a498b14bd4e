package square

import (
	"context"

	sq "github.com/square/square-go-sdk"
)

// CreatePayment fills in the client's location when params carry none.
func (c *Client) CreatePayment(ctx context.Context, params PaymentCreateParams) (*sq.Payment, error) {
	if params.LocationID == "" {
		params.LocationID = c.locationID
	}
	req := params.toSquareRequest(idempotencyKey("payment.create", params.IdempotencyKey))
	return call(ctx, c, "create_payment", map[string]any{
		"location_id":  params.LocationID,
		"reference_id": params.ReferenceID,
		"amount_minor": params.AmountMinor,
		"autocomplete": params.Autocomplete,
	}, func() (*sq.Payment, error) {
		resp, err := c.sdk.Payments.Create(ctx, req)
		if err != nil {
			return nil, err
		}
		return resp.GetPayment(), nil
	}, describePayment)
}

func (c *Client) GetPayment(ctx context.Context, paymentID string) (*sq.Payment, error) {
	return call(ctx, c, "get_payment", map[string]any{"payment_id": paymentID}, func() (*sq.Payment, error) {
		resp, err := c.sdk.Payments.Get(ctx, &sq.GetPaymentsRequest{PaymentID: paymentID})
		if err != nil {
			return nil, err
		}
		return resp.GetPayment(), nil
	}, describePayment)
}

// CompletePayment captures a payment created with autocomplete disabled.
func (c *Client) CompletePayment(ctx context.Context, paymentID string) (*sq.Payment, error) {
	return call(ctx, c, "complete_payment", map[string]any{"payment_id": paymentID}, func() (*sq.Payment, error) {
		resp, err := c.sdk.Payments.Complete(ctx, &sq.CompletePaymentRequest{PaymentID: paymentID})
		if err != nil {
			return nil, err
		}
		return resp.GetPayment(), nil
	}, describePayment)
}

func (c *Client) RefundPayment(ctx context.Context, params RefundParams) (*sq.PaymentRefund, error) {
	req := params.toSquareRequest(idempotencyKey("refund.create", params.IdempotencyKey))
	return call(ctx, c, "refund_payment", map[string]any{
		"payment_id":   params.PaymentID,
		"amount_minor": params.AmountMinor,
	}, func() (*sq.PaymentRefund, error) {
		resp, err := c.sdk.Refunds.RefundPayment(ctx, req)
		if err != nil {
			return nil, err
		}
		return resp.GetRefund(), nil
	}, func(r *sq.PaymentRefund) map[string]any {
		return map[string]any{"refund_id": r.GetID(), "status": r.GetStatus()}
	})
}

// call logs the request and outcome of one SDK operation and maps its error.
func call[T any](ctx context.Context, c *Client, op string, fields map[string]any, fn func() (T, error), describe func(T) map[string]any) (T, error) {
	ctx = c.logContext(ctx, op, fields)
	c.info(ctx, "square.request")

	out, err := fn()
	if err != nil {
		mapped := mapSquareError(err, op)
		if c != nil && c.logger != nil {
			c.logger.Error(ctx, "square.failed", mapped)
		}
		var zero T
		return zero, mapped
	}
	if c != nil && c.logger != nil {
		c.info(c.logger.WithFields(ctx, describe(out)), "square.response")
	}
	return out, nil
}

func describePayment(p *sq.Payment) map[string]any {
	return map[string]any{"payment_id": deref(p.GetID()), "status": deref(p.GetStatus())}
}

func (c *Client) logContext(ctx context.Context, op string, fields map[string]any) context.Context {
	if c == nil || c.logger == nil {
		return ctx
	}
	safe := map[string]any{"operation": op}
	for k, v := range fields {
		safe[k] = redact(k, v)
	}
	return c.logger.WithFields(ctx, safe)
}

func (c *Client) info(ctx context.Context, msg string) {
	if c != nil && c.logger != nil {
		c.logger.Info(ctx, msg)
	}
}

func deref(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}
