package enums

import "fmt"

// PaymentGateway identifies the provider processing a payment.
type PaymentGateway string

const (
	GatewayRazorpay  PaymentGateway = "razorpay"
	GatewayStripe    PaymentGateway = "stripe"
	GatewayPayPal    PaymentGateway = "paypal"
	GatewayPhonePe   PaymentGateway = "phonepe"
	GatewayGooglePay PaymentGateway = "googlepay"
	GatewayPaytm     PaymentGateway = "paytm"
	GatewaySquare    PaymentGateway = "square"
	GatewayCash      PaymentGateway = "cash"
)

var validPaymentGateways = []PaymentGateway{
	GatewayRazorpay,
	GatewayStripe,
	GatewayPayPal,
	GatewayPhonePe,
	GatewayGooglePay,
	GatewayPaytm,
	GatewaySquare,
	GatewayCash,
}

// String implements fmt.Stringer.
func (g PaymentGateway) String() string {
	return string(g)
}

// IsValid reports whether the value is a known PaymentGateway.
func (g PaymentGateway) IsValid() bool {
	for _, candidate := range validPaymentGateways {
		if candidate == g {
			return true
		}
	}
	return false
}

// ParsePaymentGateway converts raw input into a PaymentGateway.
func ParsePaymentGateway(value string) (PaymentGateway, error) {
	for _, candidate := range validPaymentGateways {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment gateway %q", value)
}
