package payments

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/victorybazaar/victorybazaar-backend/internal/gateways"
	"github.com/victorybazaar/victorybazaar-backend/pkg/db/models"
	"github.com/victorybazaar/victorybazaar-backend/pkg/enums"
	"github.com/victorybazaar/victorybazaar-backend/pkg/types"
)

type CreatePaymentInput struct {
	OrderNumber    string               `json:"orderId" validate:"required"`
	PaymentMethod  enums.PaymentMethod  `json:"paymentMethod" validate:"required"`
	PaymentGateway enums.PaymentGateway `json:"paymentGateway" validate:"required"`
	Currency       enums.Currency       `json:"currency"`
	PaymentDetails types.PaymentDetails `json:"paymentDetails"`
}

// CreateResult reports whether this call inserted the payment.
type CreateResult struct {
	Payment     *models.Payment  `json:"payment"`
	GatewayData *gateways.Intent `json:"gatewayData,omitempty"`
	Created     bool             `json:"created"`
}

// VerifyInput carries the gateway's client-side confirmation. Its shape is
// decided by the payment's gateway.
type VerifyInput struct {
	PaymentNumber   string          `json:"paymentId" validate:"required"`
	GatewayResponse json.RawMessage `json:"gatewayResponse"`
}

type RefundInput struct {
	Amount *decimal.Decimal `json:"amount"`
	Reason string           `json:"reason" validate:"max=500"`
}
