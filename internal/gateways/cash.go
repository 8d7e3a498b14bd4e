package gateways

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/victorybazaar/victorybazaar-backend/pkg/db/models"
	"github.com/victorybazaar/victorybazaar-backend/pkg/enums"
)

// Cash covers cash on delivery. Nothing leaves the process.
type Cash struct {
	now func() time.Time
}

func NewCash() *Cash { return &Cash{now: time.Now} }

func (c *Cash) Gateway() enums.PaymentGateway { return enums.GatewayCash }

func (c *Cash) Initialize(_ context.Context, _ *models.Order, payment *models.Payment) (*Intent, error) {
	return &Intent{GatewayOrderID: "COD-" + payment.PaymentNumber, Data: map[string]any{"cod": true}}, nil
}

func (c *Cash) Verify(_ context.Context, payment *models.Payment, callback Callback) (*Outcome, error) {
	if _, ok := callback.(CashCallback); !ok {
		return nil, mismatchedCallback(c.Gateway(), callback)
	}
	return &Outcome{
		Status:           OutcomeSucceeded,
		GatewayOrderID:   "COD-" + payment.PaymentNumber,
		GatewayPaymentID: "COD-" + payment.PaymentNumber,
	}, nil
}

func (c *Cash) Capture(_ context.Context, payment *models.Payment) (*Outcome, error) {
	return &Outcome{Status: OutcomeSucceeded, GatewayPaymentID: deref(payment.GatewayPaymentID)}, nil
}

func (c *Cash) Refund(context.Context, *models.Payment, decimal.Decimal, string) (*RefundResult, error) {
	return &RefundResult{RefundID: fmt.Sprintf("REF%d", c.now().UnixMilli()), Status: "processed"}, nil
}
