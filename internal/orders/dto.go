package orders

import (
	"time"

	"github.com/victorybazaar/victorybazaar-backend/pkg/db/models"
	"github.com/victorybazaar/victorybazaar-backend/pkg/enums"
	"github.com/victorybazaar/victorybazaar-backend/pkg/pagination"
	"github.com/victorybazaar/victorybazaar-backend/pkg/types"
)

// Actor identifies the caller of an order operation.
type Actor struct {
	UserID string
	Role   enums.Role
}

// IsOperator reports whether the actor may act on any order.
func (a Actor) IsOperator() bool {
	return a.Role == enums.RoleOperator
}

// ItemInput is one requested line at checkout.
type ItemInput struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,min=1"`
}

// CreateOrderInput carries the checkout request. When Items is empty and
// ClearCart is set, the cart's lines are ordered.
type CreateOrderInput struct {
	Items           []ItemInput
	ShippingAddress types.ShippingAddress
	PaymentMethod   enums.PaymentMethod
	ClearCart       bool
	Notes           string
}

// AdminFilters narrow the operator order listing.
type AdminFilters struct {
	Status        *enums.OrderStatus
	PaymentStatus *enums.OrderPaymentStatus
}

type OrderList struct {
	Orders     []models.Order  `json:"orders"`
	Pagination pagination.Meta `json:"pagination"`
}

// TrackingEvent is one milestone in an order's history.
type TrackingEvent struct {
	Status    enums.OrderStatus `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Message   string            `json:"message"`
}

// Tracking is the read-only shipment view of an order.
type Tracking struct {
	OrderNumber       string            `json:"orderId"`
	Status            enums.OrderStatus `json:"status"`
	TrackingNumber    *string           `json:"trackingNumber,omitempty"`
	Carrier           *string           `json:"carrier,omitempty"`
	EstimatedDelivery *time.Time        `json:"estimatedDelivery,omitempty"`
	History           []TrackingEvent   `json:"trackingHistory"`
}
