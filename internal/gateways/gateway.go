// Package gateways adapts the external payment providers to one capability
// set: initialize, verify, capture and refund.
package gateways

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/victorybazaar/victorybazaar-backend/pkg/db/models"
	"github.com/victorybazaar/victorybazaar-backend/pkg/enums"
)

// OutcomeStatus is what a provider reported for a payment.
type OutcomeStatus string

const (
	OutcomeSucceeded  OutcomeStatus = "succeeded"
	OutcomeFailed     OutcomeStatus = "failed"
	OutcomeAuthorized OutcomeStatus = "authorized"
)

// Intent is returned by Initialize and handed to the client to complete payment.
type Intent struct {
	GatewayOrderID   string         `json:"gatewayOrderId,omitempty"`
	GatewayPaymentID string         `json:"gatewayPaymentId,omitempty"`
	PaymentLink      string         `json:"paymentLink,omitempty"`
	ClientSecret     string         `json:"clientSecret,omitempty"`
	Data             map[string]any `json:"data,omitempty"`
}

// Outcome is the provider's verdict on a verify or capture call.
type Outcome struct {
	Status           OutcomeStatus
	GatewayPaymentID string
	GatewayOrderID   string
	Signature        string
	Reason           string
	Raw              json.RawMessage
}

// Succeeded is shorthand for Status == OutcomeSucceeded.
func (o *Outcome) Succeeded() bool {
	return o != nil && o.Status == OutcomeSucceeded
}

type RefundResult struct {
	RefundID string
	Status   string
}

// Adapter is implemented once per provider.
type Adapter interface {
	Gateway() enums.PaymentGateway
	Initialize(ctx context.Context, order *models.Order, payment *models.Payment) (*Intent, error)
	Verify(ctx context.Context, payment *models.Payment, callback Callback) (*Outcome, error)
	Capture(ctx context.Context, payment *models.Payment) (*Outcome, error)
	Refund(ctx context.Context, payment *models.Payment, amount decimal.Decimal, reason string) (*RefundResult, error)
}

// WebhookEvent is a verified provider notification. A nil Outcome means the
// event is acknowledged but carries nothing to apply.
type WebhookEvent struct {
	EventID          string
	Type             string
	GatewayOrderID   string
	GatewayPaymentID string
	Outcome          *Outcome
}

// WebhookParser is implemented by adapters whose provider pushes notifications.
type WebhookParser interface {
	ParseWebhook(payload []byte, headers http.Header) (*WebhookEvent, error)
}

// MinorUnits converts rupees to paise (or dollars to cents).
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
