package products

import (
	"github.com/shopspring/decimal"

	pkgerrors "github.com/victorybazaar/victorybazaar-backend/pkg/errors"
)

func validatePrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}
	if !price.Equal(price.Round(2)) {
		return pkgerrors.New(pkgerrors.CodeValidation, "price supports at most two decimal places")
	}
	return nil
}
