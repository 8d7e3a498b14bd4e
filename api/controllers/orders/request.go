package orders

import (
	ordersvc "github.com/victorybazaar/victorybazaar-backend/internal/orders"
	"github.com/victorybazaar/victorybazaar-backend/pkg/enums"
	pkgerrors "github.com/victorybazaar/victorybazaar-backend/pkg/errors"
	"github.com/victorybazaar/victorybazaar-backend/pkg/types"
)

type createOrderRequest struct {
	Items           []ordersvc.ItemInput  `json:"items" validate:"omitempty,dive"`
	ShippingAddress types.ShippingAddress `json:"shippingAddress" validate:"required"`
	PaymentMethod   string                `json:"paymentMethod" validate:"required"`
	ClearCart       *bool                 `json:"clearCart"`
	Notes           string                `json:"notes" validate:"max=500"`
}

// toInput orders the cart when no explicit items are sent.
func (r createOrderRequest) toInput() (ordersvc.CreateOrderInput, error) {
	method, err := enums.ParsePaymentMethod(r.PaymentMethod)
	if err != nil {
		return ordersvc.CreateOrderInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method")
	}
	clearCart := len(r.Items) == 0
	if r.ClearCart != nil {
		clearCart = *r.ClearCart
	}
	if len(r.Items) == 0 && !clearCart {
		return ordersvc.CreateOrderInput{}, pkgerrors.New(pkgerrors.CodeValidation, "items are required when the cart is not used")
	}
	return ordersvc.CreateOrderInput{
		Items:           r.Items,
		ShippingAddress: r.ShippingAddress,
		PaymentMethod:   method,
		ClearCart:       clearCart,
		Notes:           r.Notes,
	}, nil
}

type cancelOrderRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

type statusRequest struct {
	Status string `json:"status" validate:"required"`
}
