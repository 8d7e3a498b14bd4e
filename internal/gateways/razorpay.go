package gateways

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/victorybazaar/victorybazaar-backend/pkg/config"
	"github.com/victorybazaar/victorybazaar-backend/pkg/db/models"
	"github.com/victorybazaar/victorybazaar-backend/pkg/enums"
	pkgerrors "github.com/victorybazaar/victorybazaar-backend/pkg/errors"
)

// Razorpay talks to the Razorpay orders and payments REST API.
type Razorpay struct {
	cfg  config.RazorpayConfig
	http *http.Client
}

func NewRazorpay(cfg config.RazorpayConfig, client *http.Client) *Razorpay {
	if client == nil {
		client = NewHTTPClient()
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Razorpay{cfg: cfg, http: client}
}

func (r *Razorpay) Gateway() enums.PaymentGateway { return enums.GatewayRazorpay }

type razorpayOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
}

type razorpayPayment struct {
	ID               string `json:"id"`
	OrderID          string `json:"order_id"`
	Status           string `json:"status"`
	ErrorDescription string `json:"error_description"`
}

func (r *Razorpay) call(ctx context.Context, method, path string, body any, out any) error {
	reader, err := jsonBody(body)
	if err != nil {
		return err
	}
	_, err = do(ctx, r.http, "razorpay", restCall{
		method: method,
		url:    r.cfg.BaseURL + path,
		body:   reader,
		user:   r.cfg.KeyID,
		pass:   r.cfg.KeySecret,
	}, out)
	return err
}

func (r *Razorpay) Initialize(ctx context.Context, order *models.Order, payment *models.Payment) (*Intent, error) {
	amount := MinorUnits(payment.Amount)
	var created razorpayOrder
	err := r.call(ctx, http.MethodPost, "/v1/orders", map[string]any{
		"amount":   amount,
		"currency": string(payment.Currency),
		"receipt":  "receipt_" + order.OrderNumber,
		"notes": map[string]string{
			"orderId":   order.OrderNumber,
			"paymentId": payment.PaymentNumber,
		},
	}, &created)
	if err != nil {
		return nil, err
	}
	return &Intent{
		GatewayOrderID: created.ID,
		Data: map[string]any{
			"keyId":    r.cfg.KeyID,
			"orderId":  created.ID,
			"amount":   amount,
			"currency": string(payment.Currency),
		},
	}, nil
}

// Verify checks the checkout signature, HMAC-SHA256 of "orderId|paymentId".
func (r *Razorpay) Verify(_ context.Context, payment *models.Payment, callback Callback) (*Outcome, error) {
	cb, ok := callback.(RazorpayCallback)
	if !ok {
		return nil, mismatchedCallback(r.Gateway(), callback)
	}
	outcome := &Outcome{
		GatewayPaymentID: cb.PaymentID,
		GatewayOrderID:   cb.OrderID,
		Signature:        cb.Signature,
	}
	if stored := deref(payment.GatewayOrderID); stored != "" && stored != cb.OrderID {
		outcome.Status = OutcomeFailed
		outcome.Reason = "order id mismatch"
		return outcome, nil
	}
	expected := hmacHex(r.cfg.KeySecret, cb.OrderID+"|"+cb.PaymentID)
	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(cb.Signature))) {
		outcome.Status = OutcomeFailed
		outcome.Reason = "signature mismatch"
		return outcome, nil
	}
	outcome.Status = OutcomeSucceeded
	return outcome, nil
}

func (r *Razorpay) Capture(ctx context.Context, payment *models.Payment) (*Outcome, error) {
	id := deref(payment.GatewayPaymentID)
	if id == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidState, "payment has no razorpay payment id")
	}
	var captured razorpayPayment
	err := r.call(ctx, http.MethodPost, "/v1/payments/"+id+"/capture", map[string]any{
		"amount":   MinorUnits(payment.Amount),
		"currency": string(payment.Currency),
	}, &captured)
	if err != nil {
		return nil, err
	}
	return razorpayOutcome(captured), nil
}

func (r *Razorpay) Refund(ctx context.Context, payment *models.Payment, amount decimal.Decimal, reason string) (*RefundResult, error) {
	id := deref(payment.GatewayPaymentID)
	if id == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidState, "payment has no razorpay payment id")
	}
	var refund struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	err := r.call(ctx, http.MethodPost, "/v1/payments/"+id+"/refund", map[string]any{
		"amount": MinorUnits(amount),
		"notes":  map[string]string{"reason": reason},
	}, &refund)
	if err != nil {
		return nil, err
	}
	return &RefundResult{RefundID: refund.ID, Status: refund.Status}, nil
}

// ParseWebhook verifies X-Razorpay-Signature over the raw body.
func (r *Razorpay) ParseWebhook(payload []byte, headers http.Header) (*WebhookEvent, error) {
	signature := headers.Get("X-Razorpay-Signature")
	if r.cfg.WebhookSecret == "" || signature == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing razorpay webhook signature")
	}
	if !hmac.Equal([]byte(hmacHex(r.cfg.WebhookSecret, string(payload))), []byte(strings.ToLower(signature))) {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid razorpay webhook signature")
	}

	var body struct {
		Event   string `json:"event"`
		Payload struct {
			Payment struct {
				Entity razorpayPayment `json:"entity"`
			} `json:"payment"`
		} `json:"payload"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid razorpay webhook payload")
	}
	entity := body.Payload.Payment.Entity
	eventID := headers.Get("X-Razorpay-Event-Id")
	if eventID == "" {
		eventID = body.Event + ":" + entity.ID
	}

	event := &WebhookEvent{
		EventID:          eventID,
		Type:             body.Event,
		GatewayOrderID:   entity.OrderID,
		GatewayPaymentID: entity.ID,
	}
	switch body.Event {
	case "payment.captured", "order.paid", "payment.failed", "payment.authorized":
		outcome := razorpayOutcome(entity)
		outcome.Raw = payload
		event.Outcome = outcome
	}
	return event, nil
}

func razorpayOutcome(p razorpayPayment) *Outcome {
	outcome := &Outcome{GatewayPaymentID: p.ID, GatewayOrderID: p.OrderID}
	switch p.Status {
	case "captured":
		outcome.Status = OutcomeSucceeded
	case "authorized":
		outcome.Status = OutcomeAuthorized
	default:
		outcome.Status = OutcomeFailed
		outcome.Reason = p.ErrorDescription
		if outcome.Reason == "" {
			outcome.Reason = "razorpay status " + p.Status
		}
	}
	return outcome
}

func hmacHex(secret, message string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(message))
	return hex.EncodeToString(mac.Sum(nil))
}
