package square

import (
	"strings"

	sq "github.com/square/square-go-sdk"

	"github.com/victorybazaar/victorybazaar-backend/pkg/enums"
)

// PaymentCreateParams describes a card payment. Autocomplete false authorizes
// only; CompletePayment captures later.
type PaymentCreateParams struct {
	AmountMinor    int64
	Currency       string
	LocationID     string
	SourceID       string
	IdempotencyKey string
	Note           string
	ReferenceID    string
	Autocomplete   bool
}

func (p PaymentCreateParams) toSquareRequest(key string) *sq.CreatePaymentRequest {
	return &sq.CreatePaymentRequest{
		IdempotencyKey: key,
		SourceID:       p.SourceID,
		LocationID:     optional(p.LocationID),
		ReferenceID:    optional(p.ReferenceID),
		Note:           optional(p.Note),
		Autocomplete:   &p.Autocomplete,
		AmountMoney:    money(p.AmountMinor, p.Currency),
	}
}

// RefundParams refunds part or all of a completed payment.
type RefundParams struct {
	PaymentID      string
	AmountMinor    int64
	Currency       string
	Reason         string
	IdempotencyKey string
}

func (p RefundParams) toSquareRequest(key string) *sq.RefundPaymentRequest {
	return &sq.RefundPaymentRequest{
		IdempotencyKey: key,
		PaymentID:      optional(p.PaymentID),
		Reason:         optional(p.Reason),
		AmountMoney:    money(p.AmountMinor, p.Currency),
	}
}

// optional trims value and returns nil when nothing is left.
func optional(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}

// money omits zero amounts and defaults the currency to INR.
func money(amountMinor int64, currency string) *sq.Money {
	if amountMinor == 0 {
		return nil
	}
	code := sq.Currency(enums.CurrencyINR)
	if c := strings.ToUpper(strings.TrimSpace(currency)); c != "" {
		code = sq.Currency(c)
	}
	return &sq.Money{Amount: &amountMinor, Currency: &code}
}
