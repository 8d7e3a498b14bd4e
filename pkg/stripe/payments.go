package stripe

import (
	"context"
	"errors"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/paymentintent"
	"github.com/stripe/stripe-go/v84/refund"
	"github.com/stripe/stripe-go/v84/webhook"
)

// ErrModeMismatch rejects webhook events sent from the other account mode.
var ErrModeMismatch = errors.New("stripe event livemode does not match client mode")

// PaymentIntentClient is the subset of Stripe used by the card gateway.
type PaymentIntentClient interface {
	Create(ctx context.Context, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
	Get(ctx context.Context, id string) (*stripe.PaymentIntent, error)
	Capture(ctx context.Context, id string) (*stripe.PaymentIntent, error)
	Refund(ctx context.Context, params *stripe.RefundParams) (*stripe.Refund, error)
	ConstructEvent(payload []byte, sigHeader string) (stripe.Event, error)
}

type paymentIntents struct {
	mode          Mode
	signingSecret string
}

// PaymentIntents returns nil for a nil client so callers can skip registration.
func (c *Client) PaymentIntents() PaymentIntentClient {
	if c == nil {
		return nil
	}
	return &paymentIntents{mode: c.mode, signingSecret: c.signingSecret}
}

func (p *paymentIntents) Create(ctx context.Context, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	if params == nil {
		return nil, errors.New("stripe payment intent params required")
	}
	params.Context = ctx
	return paymentintent.New(params)
}

func (p *paymentIntents) Get(ctx context.Context, id string) (*stripe.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	return paymentintent.Get(id, params)
}

func (p *paymentIntents) Capture(ctx context.Context, id string) (*stripe.PaymentIntent, error) {
	params := &stripe.PaymentIntentCaptureParams{}
	params.Context = ctx
	return paymentintent.Capture(id, params)
}

func (p *paymentIntents) Refund(ctx context.Context, params *stripe.RefundParams) (*stripe.Refund, error) {
	if params == nil {
		return nil, errors.New("stripe refund params required")
	}
	params.Context = ctx
	return refund.New(params)
}

// ConstructEvent verifies the Stripe-Signature header and the event's account mode.
func (p *paymentIntents) ConstructEvent(payload []byte, sigHeader string) (stripe.Event, error) {
	event, err := webhook.ConstructEvent(payload, sigHeader, p.signingSecret)
	if err != nil {
		return event, err
	}
	if event.Livemode != (p.mode == ModeLive) {
		return event, ErrModeMismatch
	}
	return event, nil
}
