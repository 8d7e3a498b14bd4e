package gateways

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/shopspring/decimal"
	sq "github.com/square/square-go-sdk"

	"github.com/victorybazaar/victorybazaar-backend/pkg/db/models"
	"github.com/victorybazaar/victorybazaar-backend/pkg/enums"
	pkgerrors "github.com/victorybazaar/victorybazaar-backend/pkg/errors"
	squareclient "github.com/victorybazaar/victorybazaar-backend/pkg/square"
)

// SquarePayments is the slice of the Square client the adapter needs.
type SquarePayments interface {
	CreatePayment(ctx context.Context, params squareclient.PaymentCreateParams) (*sq.Payment, error)
	GetPayment(ctx context.Context, paymentID string) (*sq.Payment, error)
	CompletePayment(ctx context.Context, paymentID string) (*sq.Payment, error)
	RefundPayment(ctx context.Context, params squareclient.RefundParams) (*sq.PaymentRefund, error)
	VerifyWebhookSignature(notificationURL string, body []byte, signature string) bool
	LocationID() string
}

// Square creates delayed-capture payments from a client-side card nonce.
type Square struct {
	client     SquarePayments
	webhookURL string
}

func NewSquare(client SquarePayments, webhookURL string) *Square {
	return &Square{client: client, webhookURL: webhookURL}
}

func (s *Square) Gateway() enums.PaymentGateway { return enums.GatewaySquare }

func (s *Square) Initialize(ctx context.Context, order *models.Order, payment *models.Payment) (*Intent, error) {
	if payment.Details.SourceID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "square payments require paymentDetails.sourceId")
	}
	created, err := s.client.CreatePayment(ctx, squareclient.PaymentCreateParams{
		AmountMinor:    MinorUnits(payment.Amount),
		Currency:       string(payment.Currency),
		LocationID:     s.client.LocationID(),
		SourceID:       payment.Details.SourceID,
		IdempotencyKey: "create-" + payment.PaymentNumber,
		Note:           "Victory Bazaar order " + order.OrderNumber,
		ReferenceID:    order.OrderNumber,
	})
	if err != nil {
		return nil, err
	}
	id := deref(created.ID)
	return &Intent{GatewayOrderID: id, GatewayPaymentID: id, Data: map[string]any{"status": deref(created.Status)}}, nil
}

func (s *Square) Verify(ctx context.Context, payment *models.Payment, callback Callback) (*Outcome, error) {
	cb, ok := callback.(SquareCallback)
	if !ok {
		return nil, mismatchedCallback(s.Gateway(), callback)
	}
	id := cb.PaymentID
	if id == "" {
		id = deref(payment.GatewayPaymentID)
	}
	if id == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "paymentId is required")
	}
	fetched, err := s.client.GetPayment(ctx, id)
	if err != nil {
		return nil, err
	}
	return squareOutcome(fetched), nil
}

func (s *Square) Capture(ctx context.Context, payment *models.Payment) (*Outcome, error) {
	id := deref(payment.GatewayPaymentID)
	if id == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidState, "payment has no square payment id")
	}
	completed, err := s.client.CompletePayment(ctx, id)
	if err != nil {
		return nil, err
	}
	return squareOutcome(completed), nil
}

func (s *Square) Refund(ctx context.Context, payment *models.Payment, amount decimal.Decimal, reason string) (*RefundResult, error) {
	id := deref(payment.GatewayPaymentID)
	if id == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidState, "payment has no square payment id")
	}
	refund, err := s.client.RefundPayment(ctx, squareclient.RefundParams{
		PaymentID:      id,
		AmountMinor:    MinorUnits(amount),
		Currency:       string(payment.Currency),
		Reason:         reason,
		IdempotencyKey: "refund-" + payment.PaymentNumber,
	})
	if err != nil {
		return nil, err
	}
	return &RefundResult{RefundID: refund.ID, Status: deref(refund.Status)}, nil
}

// ParseWebhook checks x-square-hmacsha256-signature and maps payment events.
func (s *Square) ParseWebhook(payload []byte, headers http.Header) (*WebhookEvent, error) {
	if !s.client.VerifyWebhookSignature(s.webhookURL, payload, headers.Get("X-Square-Hmacsha256-Signature")) {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid square webhook signature")
	}
	var body struct {
		EventID string `json:"event_id"`
		Type    string `json:"type"`
		Data    struct {
			Object struct {
				Payment *sq.Payment `json:"payment"`
			} `json:"object"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid square webhook payload")
	}

	event := &WebhookEvent{EventID: body.EventID, Type: body.Type}
	payment := body.Data.Object.Payment
	if payment == nil || (body.Type != "payment.created" && body.Type != "payment.updated") {
		return event, nil
	}
	event.GatewayPaymentID = deref(payment.ID)
	event.GatewayOrderID = deref(payment.ID)
	switch deref(payment.Status) {
	case "COMPLETED", "APPROVED", "FAILED", "CANCELED":
		outcome := squareOutcome(payment)
		outcome.Raw = payload
		event.Outcome = outcome
	}
	return event, nil
}

func squareOutcome(p *sq.Payment) *Outcome {
	id := deref(p.ID)
	outcome := &Outcome{GatewayPaymentID: id, GatewayOrderID: id}
	switch status := deref(p.Status); status {
	case "COMPLETED":
		outcome.Status = OutcomeSucceeded
	case "APPROVED":
		outcome.Status = OutcomeAuthorized
	default:
		outcome.Status = OutcomeFailed
		outcome.Reason = "square status " + status
	}
	return outcome
}
