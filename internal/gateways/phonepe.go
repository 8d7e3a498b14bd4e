package gateways

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/victorybazaar/victorybazaar-backend/pkg/config"
	"github.com/victorybazaar/victorybazaar-backend/pkg/db/models"
	"github.com/victorybazaar/victorybazaar-backend/pkg/enums"
	pkgerrors "github.com/victorybazaar/victorybazaar-backend/pkg/errors"
)

const (
	phonePePayPath    = "/pg/v1/pay"
	phonePeRefundPath = "/pg/v1/refund"
	phonePeSuccess    = "PAYMENT_SUCCESS"
)

// PhonePe implements the PG checkout flow. Requests are base64 JSON signed
// with X-VERIFY: sha256(payload + path + salt) + "###" + salt index.
type PhonePe struct {
	cfg  config.PhonePeConfig
	http *http.Client
	now  func() time.Time
}

func NewPhonePe(cfg config.PhonePeConfig, client *http.Client) *PhonePe {
	if client == nil {
		client = NewHTTPClient()
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &PhonePe{cfg: cfg, http: client, now: time.Now}
}

func (p *PhonePe) Gateway() enums.PaymentGateway { return enums.GatewayPhonePe }

type phonePeResponse struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Data    struct {
		MerchantTransactionID string `json:"merchantTransactionId"`
		TransactionID         string `json:"transactionId"`
		State                 string `json:"state"`
		InstrumentResponse    struct {
			RedirectInfo struct {
				URL string `json:"url"`
			} `json:"redirectInfo"`
		} `json:"instrumentResponse"`
	} `json:"data"`
}

// Checksum signs a message the way PhonePe expects.
func (p *PhonePe) Checksum(message string) string {
	sum := sha256.Sum256([]byte(message + p.cfg.SaltKey))
	return hex.EncodeToString(sum[:]) + "###" + p.cfg.SaltIndex
}

func (p *PhonePe) validChecksum(message, provided string) bool {
	expected := p.Checksum(message)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(strings.TrimSpace(provided))) == 1
}

func (p *PhonePe) post(ctx context.Context, path string, payload map[string]any, out *phonePeResponse) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode phonepe payload")
	}
	encoded := base64.StdEncoding.EncodeToString(raw)
	body, err := jsonBody(map[string]string{"request": encoded})
	if err != nil {
		return err
	}
	_, err = do(ctx, p.http, "phonepe", restCall{
		method:  http.MethodPost,
		url:     p.cfg.BaseURL + path,
		headers: map[string]string{"X-VERIFY": p.Checksum(encoded + path)},
		body:    body,
	}, out)
	return err
}

func (p *PhonePe) Initialize(ctx context.Context, order *models.Order, payment *models.Payment) (*Intent, error) {
	var resp phonePeResponse
	err := p.post(ctx, phonePePayPath, map[string]any{
		"merchantId":            p.cfg.MerchantID,
		"merchantTransactionId": payment.PaymentNumber,
		"merchantUserId":        payment.UserID,
		"amount":                MinorUnits(payment.Amount),
		"redirectUrl":           p.cfg.RedirectURL,
		"redirectMode":          "POST",
		"callbackUrl":           p.cfg.CallbackURL,
		"paymentInstrument":     map[string]string{"type": "PAY_PAGE"},
	}, &resp)
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, pkgerrors.Newf(pkgerrors.CodeGateway, "phonepe rejected payment: %s", resp.Code)
	}
	return &Intent{
		GatewayOrderID: payment.PaymentNumber,
		PaymentLink:    resp.Data.InstrumentResponse.RedirectInfo.URL,
		Data:           map[string]any{"orderId": order.OrderNumber},
	}, nil
}

// Verify checks the redirect checksum when one was posted, then asks
// PhonePe for the authoritative status.
func (p *PhonePe) Verify(ctx context.Context, payment *models.Payment, callback Callback) (*Outcome, error) {
	cb, ok := callback.(PhonePeCallback)
	if !ok {
		return nil, mismatchedCallback(p.Gateway(), callback)
	}
	txnID := cb.TransactionID
	if txnID == "" {
		txnID = deref(payment.GatewayOrderID)
	}
	if txnID == "" {
		txnID = payment.PaymentNumber
	}
	if cb.Response != "" && !p.validChecksum(cb.Response, cb.Checksum) {
		return &Outcome{Status: OutcomeFailed, GatewayOrderID: txnID, Reason: "checksum mismatch"}, nil
	}

	path := fmt.Sprintf("/pg/v1/status/%s/%s", p.cfg.MerchantID, txnID)
	var resp phonePeResponse
	raw, err := do(ctx, p.http, "phonepe", restCall{
		method: http.MethodGet,
		url:    p.cfg.BaseURL + path,
		headers: map[string]string{
			"X-VERIFY":      p.Checksum(path),
			"X-MERCHANT-ID": p.cfg.MerchantID,
		},
	}, &resp)
	if err != nil {
		return nil, err
	}
	outcome := phonePeOutcome(resp)
	outcome.GatewayOrderID = txnID
	outcome.Signature = cb.Checksum
	outcome.Raw = raw
	return outcome, nil
}

// Capture is not offered; PhonePe payments settle on verification.
func (p *PhonePe) Capture(context.Context, *models.Payment) (*Outcome, error) {
	return nil, pkgerrors.New(pkgerrors.CodeInvalidState, "phonepe payments cannot be captured separately")
}

func (p *PhonePe) Refund(ctx context.Context, payment *models.Payment, amount decimal.Decimal, _ string) (*RefundResult, error) {
	original := deref(payment.GatewayOrderID)
	if original == "" {
		original = payment.PaymentNumber
	}
	refundTxn := fmt.Sprintf("R%s%d", payment.PaymentNumber, p.now().UnixMilli())
	var resp phonePeResponse
	err := p.post(ctx, phonePeRefundPath, map[string]any{
		"merchantId":            p.cfg.MerchantID,
		"merchantUserId":        payment.UserID,
		"originalTransactionId": original,
		"merchantTransactionId": refundTxn,
		"amount":                MinorUnits(amount),
		"callbackUrl":           p.cfg.CallbackURL,
	}, &resp)
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, pkgerrors.Newf(pkgerrors.CodeGateway, "phonepe refund rejected: %s", resp.Code)
	}
	id := resp.Data.TransactionID
	if id == "" {
		id = refundTxn
	}
	return &RefundResult{RefundID: id, Status: resp.Code}, nil
}

// ParseWebhook handles the server-to-server callback: {"response": base64}
// signed with X-VERIFY over the encoded response.
func (p *PhonePe) ParseWebhook(payload []byte, headers http.Header) (*WebhookEvent, error) {
	var envelope struct {
		Response string `json:"response"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil || envelope.Response == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid phonepe callback payload")
	}
	if !p.validChecksum(envelope.Response, headers.Get("X-VERIFY")) {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid phonepe callback checksum")
	}
	decoded, err := base64.StdEncoding.DecodeString(envelope.Response)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode phonepe callback")
	}
	var resp phonePeResponse
	if err := json.Unmarshal(decoded, &resp); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode phonepe callback")
	}

	event := &WebhookEvent{
		EventID:          resp.Data.MerchantTransactionID + ":" + resp.Code,
		Type:             resp.Code,
		GatewayOrderID:   resp.Data.MerchantTransactionID,
		GatewayPaymentID: resp.Data.TransactionID,
	}
	switch resp.Code {
	case phonePeSuccess, "PAYMENT_ERROR", "PAYMENT_DECLINED":
		outcome := phonePeOutcome(resp)
		outcome.GatewayOrderID = resp.Data.MerchantTransactionID
		outcome.Raw = decoded
		event.Outcome = outcome
	}
	return event, nil
}

func phonePeOutcome(resp phonePeResponse) *Outcome {
	outcome := &Outcome{GatewayPaymentID: resp.Data.TransactionID}
	if resp.Code == phonePeSuccess {
		outcome.Status = OutcomeSucceeded
		return outcome
	}
	outcome.Status = OutcomeFailed
	outcome.Reason = resp.Code
	if resp.Message != "" {
		outcome.Reason = resp.Code + ": " + resp.Message
	}
	return outcome
}
