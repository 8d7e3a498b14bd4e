package gateways

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/victorybazaar/victorybazaar-backend/pkg/config"
	"github.com/victorybazaar/victorybazaar-backend/pkg/db/models"
	"github.com/victorybazaar/victorybazaar-backend/pkg/enums"
	pkgerrors "github.com/victorybazaar/victorybazaar-backend/pkg/errors"
)

// PayPal uses the v2 checkout orders API. Amounts are charged in USD,
// converted from INR at the configured rate.
type PayPal struct {
	cfg     config.PayPalConfig
	baseURL string
	rate    decimal.Decimal
	http    *http.Client
}

// NewPayPal builds the adapter. baseURL overrides the mode-derived host when non-empty.
func NewPayPal(cfg config.PayPalConfig, baseURL string, client *http.Client) (*PayPal, error) {
	rate, err := decimal.NewFromString(strings.TrimSpace(cfg.INRPerUSD))
	if err != nil || !rate.IsPositive() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid paypal INR/USD rate %q", cfg.INRPerUSD)
	}
	if baseURL == "" {
		baseURL = cfg.BaseURL()
	}
	if client == nil {
		client = NewHTTPClient()
	}
	return &PayPal{cfg: cfg, baseURL: strings.TrimRight(baseURL, "/"), rate: rate, http: client}, nil
}

func (p *PayPal) Gateway() enums.PaymentGateway { return enums.GatewayPayPal }

type paypalLink struct {
	Href string `json:"href"`
	Rel  string `json:"rel"`
}

type paypalCapture struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type paypalOrder struct {
	ID            string       `json:"id"`
	Status        string       `json:"status"`
	Links         []paypalLink `json:"links"`
	PurchaseUnits []struct {
		Payments struct {
			Captures []paypalCapture `json:"captures"`
		} `json:"payments"`
	} `json:"purchase_units"`
}

func (p *PayPal) token(ctx context.Context) (string, error) {
	form := url.Values{"grant_type": {"client_credentials"}}
	var resp struct {
		AccessToken string `json:"access_token"`
	}
	_, err := do(ctx, p.http, "paypal", restCall{
		method:  http.MethodPost,
		url:     p.baseURL + "/v1/oauth2/token",
		headers: map[string]string{"Content-Type": "application/x-www-form-urlencoded"},
		body:    strings.NewReader(form.Encode()),
		user:    p.cfg.ClientID,
		pass:    p.cfg.ClientSecret,
	}, &resp)
	if err != nil {
		return "", err
	}
	if resp.AccessToken == "" {
		return "", pkgerrors.New(pkgerrors.CodeGateway, "paypal returned no access token")
	}
	return resp.AccessToken, nil
}

func (p *PayPal) call(ctx context.Context, path string, body any, out any) error {
	token, err := p.token(ctx)
	if err != nil {
		return err
	}
	reader, err := jsonBody(body)
	if err != nil {
		return err
	}
	_, err = do(ctx, p.http, "paypal", restCall{
		method:  http.MethodPost,
		url:     p.baseURL + path,
		headers: map[string]string{"Authorization": "Bearer " + token, "Content-Type": "application/json"},
		body:    reader,
	}, out)
	return err
}

// USD converts an order amount to the dollar figure sent to PayPal.
func (p *PayPal) USD(amount decimal.Decimal, currency enums.Currency) decimal.Decimal {
	if currency == enums.CurrencyUSD {
		return amount.Round(2)
	}
	return amount.Div(p.rate).Round(2)
}

func (p *PayPal) Initialize(ctx context.Context, order *models.Order, payment *models.Payment) (*Intent, error) {
	usd := p.USD(payment.Amount, payment.Currency)
	var created paypalOrder
	err := p.call(ctx, "/v2/checkout/orders", map[string]any{
		"intent": "CAPTURE",
		"purchase_units": []map[string]any{{
			"reference_id": payment.PaymentNumber,
			"custom_id":    order.OrderNumber,
			"amount": map[string]string{
				"currency_code": "USD",
				"value":         usd.StringFixed(2),
			},
		}},
		"application_context": map[string]string{
			"return_url": p.cfg.ReturnURL,
			"cancel_url": p.cfg.CancelURL,
		},
	}, &created)
	if err != nil {
		return nil, err
	}

	intent := &Intent{GatewayOrderID: created.ID, Data: map[string]any{"usdAmount": usd.StringFixed(2)}}
	for _, link := range created.Links {
		if link.Rel == "approve" || link.Rel == "payer-action" {
			intent.PaymentLink = link.Href
			break
		}
	}
	return intent, nil
}

// Verify captures the approved order; PayPal has no separate confirmation step.
func (p *PayPal) Verify(ctx context.Context, payment *models.Payment, callback Callback) (*Outcome, error) {
	cb, ok := callback.(PayPalCallback)
	if !ok {
		return nil, mismatchedCallback(p.Gateway(), callback)
	}
	orderID := cb.OrderID
	if orderID == "" {
		orderID = deref(payment.GatewayOrderID)
	}
	if orderID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "orderId is required")
	}
	return p.captureOrder(ctx, orderID)
}

func (p *PayPal) Capture(ctx context.Context, payment *models.Payment) (*Outcome, error) {
	orderID := deref(payment.GatewayOrderID)
	if orderID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidState, "payment has no paypal order")
	}
	return p.captureOrder(ctx, orderID)
}

func (p *PayPal) captureOrder(ctx context.Context, orderID string) (*Outcome, error) {
	var captured paypalOrder
	if err := p.call(ctx, "/v2/checkout/orders/"+orderID+"/capture", nil, &captured); err != nil {
		return nil, err
	}
	outcome := &Outcome{GatewayOrderID: orderID}
	for _, unit := range captured.PurchaseUnits {
		for _, capture := range unit.Payments.Captures {
			outcome.GatewayPaymentID = capture.ID
		}
	}
	if captured.Status == "COMPLETED" {
		outcome.Status = OutcomeSucceeded
		return outcome, nil
	}
	outcome.Status = OutcomeFailed
	outcome.Reason = "paypal status " + captured.Status
	return outcome, nil
}

func (p *PayPal) Refund(ctx context.Context, payment *models.Payment, amount decimal.Decimal, reason string) (*RefundResult, error) {
	captureID := deref(payment.GatewayPaymentID)
	if captureID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidState, "payment has no paypal capture")
	}
	var refund struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	err := p.call(ctx, "/v2/payments/captures/"+captureID+"/refund", map[string]any{
		"amount": map[string]string{
			"currency_code": "USD",
			"value":         p.USD(amount, payment.Currency).StringFixed(2),
		},
		"note_to_payer": reason,
	}, &refund)
	if err != nil {
		return nil, err
	}
	return &RefundResult{RefundID: refund.ID, Status: refund.Status}, nil
}
