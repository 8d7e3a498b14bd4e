package gateways

import (
	"encoding/json"

	"github.com/go-playground/validator/v10"

	"github.com/victorybazaar/victorybazaar-backend/pkg/enums"
	pkgerrors "github.com/victorybazaar/victorybazaar-backend/pkg/errors"
)

// Callback is the client confirmation posted after checkout. Each gateway
// has exactly one variant, chosen by the payment's stored gateway.
type Callback interface {
	Gateway() enums.PaymentGateway
}

type RazorpayCallback struct {
	PaymentID string `json:"razorpay_payment_id" validate:"required"`
	OrderID   string `json:"razorpay_order_id" validate:"required"`
	Signature string `json:"razorpay_signature" validate:"required"`
}

func (RazorpayCallback) Gateway() enums.PaymentGateway { return enums.GatewayRazorpay }

// StripeCallback falls back to the stored intent id when PaymentIntentID is empty.
type StripeCallback struct {
	PaymentIntentID string `json:"paymentIntentId"`
}

func (StripeCallback) Gateway() enums.PaymentGateway { return enums.GatewayStripe }

type PayPalCallback struct {
	OrderID string `json:"orderId"`
	PayerID string `json:"payerId"`
}

func (PayPalCallback) Gateway() enums.PaymentGateway { return enums.GatewayPayPal }

// PhonePeCallback carries the redirect form. Response and Checksum are
// verified when present.
type PhonePeCallback struct {
	TransactionID string `json:"transactionId"`
	Response      string `json:"response"`
	Checksum      string `json:"checksum" validate:"required_with=Response"`
}

func (PhonePeCallback) Gateway() enums.PaymentGateway { return enums.GatewayPhonePe }

type SquareCallback struct {
	PaymentID string `json:"paymentId"`
}

func (SquareCallback) Gateway() enums.PaymentGateway { return enums.GatewaySquare }

type CashCallback struct{}

func (CashCallback) Gateway() enums.PaymentGateway { return enums.GatewayCash }

var callbackValidator = validator.New()

// DecodeCallback parses raw into the variant for gateway.
func DecodeCallback(gateway enums.PaymentGateway, raw json.RawMessage) (Callback, error) {
	var cb Callback
	switch gateway {
	case enums.GatewayRazorpay:
		cb = &RazorpayCallback{}
	case enums.GatewayStripe:
		cb = &StripeCallback{}
	case enums.GatewayPayPal:
		cb = &PayPalCallback{}
	case enums.GatewayPhonePe:
		cb = &PhonePeCallback{}
	case enums.GatewaySquare:
		cb = &SquareCallback{}
	case enums.GatewayCash:
		return CashCallback{}, nil
	default:
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "gateway %q has no callback format", gateway)
	}

	if len(raw) > 0 && string(raw) != "null" {
		if err := json.Unmarshal(raw, cb); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment callback")
		}
	}
	if err := callbackValidator.Struct(cb); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment callback").
			WithDetails(map[string]any{"gateway": gateway})
	}
	return valueOf(cb), nil
}

// valueOf returns the value form of a decoded variant so adapters can
// switch on plain types.
func valueOf(cb Callback) Callback {
	switch v := cb.(type) {
	case *RazorpayCallback:
		return *v
	case *StripeCallback:
		return *v
	case *PayPalCallback:
		return *v
	case *PhonePeCallback:
		return *v
	case *SquareCallback:
		return *v
	}
	return cb
}

func mismatchedCallback(want enums.PaymentGateway, got Callback) error {
	gotName := "none"
	if got != nil {
		gotName = string(got.Gateway())
	}
	return pkgerrors.Newf(pkgerrors.CodeValidation, "callback for %s sent to %s payment", gotName, want)
}
