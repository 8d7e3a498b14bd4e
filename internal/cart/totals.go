package cart

import (
	"github.com/shopspring/decimal"

	"github.com/victorybazaar/victorybazaar-backend/pkg/config"
	"github.com/victorybazaar/victorybazaar-backend/pkg/db/models"
)

// Pricing holds the shipping and tax rules shared by carts and orders.
type Pricing struct {
	FreeShippingThreshold decimal.Decimal
	ShippingFee           decimal.Decimal
	TaxRate               decimal.Decimal
}

// DefaultPricing ships free above 500, otherwise charges 40, and taxes at 18%.
func DefaultPricing() Pricing {
	return Pricing{
		FreeShippingThreshold: decimal.NewFromInt(500),
		ShippingFee:           decimal.NewFromInt(40),
		TaxRate:               decimal.RequireFromString("0.18"),
	}
}

// OrDefault returns p, or DefaultPricing when p is the zero value.
func (p Pricing) OrDefault() Pricing {
	if p.TaxRate.IsZero() && p.ShippingFee.IsZero() && p.FreeShippingThreshold.IsZero() {
		return DefaultPricing()
	}
	return p
}

// PricingFromConfig parses the commerce settings.
func PricingFromConfig(cfg config.CommerceConfig) (Pricing, error) {
	threshold, fee, rate, err := cfg.Pricing()
	if err != nil {
		return Pricing{}, err
	}
	return Pricing{FreeShippingThreshold: threshold, ShippingFee: fee, TaxRate: rate}, nil
}

// Totals is the derived money summary of a cart or order.
type Totals struct {
	Subtotal  decimal.Decimal `json:"subtotal"`
	Discount  decimal.Decimal `json:"discount"`
	Shipping  decimal.Decimal `json:"shipping"`
	Tax       decimal.Decimal `json:"tax"`
	Total     decimal.Decimal `json:"total"`
	ItemCount int             `json:"itemCount"`
}

// Calculate applies shipping, tax and a discount clamped to the subtotal.
// Tax is rounded to whole rupees, half away from zero.
func (p Pricing) Calculate(subtotal, discount decimal.Decimal) Totals {
	if discount.IsNegative() {
		discount = decimal.Zero
	}
	if discount.GreaterThan(subtotal) {
		discount = subtotal
	}
	shipping := p.ShippingFee
	if subtotal.GreaterThan(p.FreeShippingThreshold) {
		shipping = decimal.Zero
	}
	tax := subtotal.Mul(p.TaxRate).Round(0)
	return Totals{
		Subtotal: subtotal,
		Discount: discount,
		Shipping: shipping,
		Tax:      tax,
		Total:    subtotal.Sub(discount).Add(shipping).Add(tax),
	}
}

// CalculateTotals sums the cart lines and prices them.
func (p Pricing) CalculateTotals(items []models.CartItem, discount decimal.Decimal) Totals {
	subtotal := decimal.Zero
	count := 0
	for _, item := range items {
		subtotal = subtotal.Add(item.LineTotal())
		count += item.Quantity
	}
	totals := p.Calculate(subtotal, discount)
	totals.ItemCount = count
	return totals
}
