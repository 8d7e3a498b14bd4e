package gateways

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v84"

	"github.com/victorybazaar/victorybazaar-backend/pkg/db/models"
	"github.com/victorybazaar/victorybazaar-backend/pkg/enums"
	pkgerrors "github.com/victorybazaar/victorybazaar-backend/pkg/errors"
	stripeclient "github.com/victorybazaar/victorybazaar-backend/pkg/stripe"
)

// Stripe drives card payments through PaymentIntents.
type Stripe struct {
	intents stripeclient.PaymentIntentClient
}

func NewStripe(intents stripeclient.PaymentIntentClient) *Stripe {
	return &Stripe{intents: intents}
}

func (s *Stripe) Gateway() enums.PaymentGateway { return enums.GatewayStripe }

func (s *Stripe) Initialize(ctx context.Context, order *models.Order, payment *models.Payment) (*Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(MinorUnits(payment.Amount)),
		Currency: stripe.String(strings.ToLower(string(payment.Currency))),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.AddMetadata("orderId", order.OrderNumber)
	params.AddMetadata("paymentId", payment.PaymentNumber)
	params.SetIdempotencyKey("vb-" + payment.PaymentNumber)

	pi, err := s.intents.Create(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeGateway, err, "create stripe payment intent")
	}
	return &Intent{GatewayOrderID: pi.ID, ClientSecret: pi.ClientSecret}, nil
}

func (s *Stripe) Verify(ctx context.Context, payment *models.Payment, callback Callback) (*Outcome, error) {
	cb, ok := callback.(StripeCallback)
	if !ok {
		return nil, mismatchedCallback(s.Gateway(), callback)
	}
	id := cb.PaymentIntentID
	if id == "" {
		id = deref(payment.GatewayOrderID)
	}
	if id == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "paymentIntentId is required")
	}
	pi, err := s.intents.Get(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeGateway, err, "fetch stripe payment intent")
	}
	return stripeOutcome(pi), nil
}

func (s *Stripe) Capture(ctx context.Context, payment *models.Payment) (*Outcome, error) {
	id := deref(payment.GatewayOrderID)
	if id == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidState, "payment has no stripe intent")
	}
	pi, err := s.intents.Capture(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeGateway, err, "capture stripe payment intent")
	}
	return stripeOutcome(pi), nil
}

func (s *Stripe) Refund(ctx context.Context, payment *models.Payment, amount decimal.Decimal, reason string) (*RefundResult, error) {
	id := deref(payment.GatewayOrderID)
	if id == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidState, "payment has no stripe intent")
	}
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(id),
		Amount:        stripe.Int64(MinorUnits(amount)),
		Reason:        stripe.String(string(stripe.RefundReasonRequestedByCustomer)),
	}
	if reason != "" {
		params.AddMetadata("reason", reason)
	}
	refund, err := s.intents.Refund(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeGateway, err, "refund stripe payment")
	}
	return &RefundResult{RefundID: refund.ID, Status: string(refund.Status)}, nil
}

// ParseWebhook verifies the Stripe-Signature header and maps intent events.
func (s *Stripe) ParseWebhook(payload []byte, headers http.Header) (*WebhookEvent, error) {
	event, err := s.intents.ConstructEvent(payload, headers.Get("Stripe-Signature"))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid stripe webhook signature")
	}

	out := &WebhookEvent{EventID: event.ID, Type: string(event.Type)}
	switch string(event.Type) {
	case "payment_intent.succeeded", "payment_intent.payment_failed", "payment_intent.amount_capturable_updated":
	default:
		return out, nil
	}
	if event.Data == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stripe event has no data")
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode stripe payment intent")
	}
	outcome := stripeOutcome(&pi)
	outcome.Raw = event.Data.Raw
	out.GatewayOrderID = pi.ID
	out.GatewayPaymentID = outcome.GatewayPaymentID
	out.Outcome = outcome
	return out, nil
}

func stripeOutcome(pi *stripe.PaymentIntent) *Outcome {
	outcome := &Outcome{GatewayOrderID: pi.ID, GatewayPaymentID: pi.ID}
	if pi.LatestCharge != nil && pi.LatestCharge.ID != "" {
		outcome.GatewayPaymentID = pi.LatestCharge.ID
	}
	switch pi.Status {
	case stripe.PaymentIntentStatusSucceeded:
		outcome.Status = OutcomeSucceeded
	case stripe.PaymentIntentStatusRequiresCapture:
		outcome.Status = OutcomeAuthorized
	default:
		outcome.Status = OutcomeFailed
		outcome.Reason = "stripe status " + string(pi.Status)
		if pi.LastPaymentError != nil && pi.LastPaymentError.Msg != "" {
			outcome.Reason = pi.LastPaymentError.Msg
		}
	}
	return outcome
}
