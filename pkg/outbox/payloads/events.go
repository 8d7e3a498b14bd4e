package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/victorybazaar/victorybazaar-backend/pkg/enums"
)

// OrderLine is the compact item shape carried on order events.
type OrderLine struct {
	ProductID uuid.UUID       `json:"productId"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// OrderCreatedEvent is emitted when checkout persists a new order.
type OrderCreatedEvent struct {
	OrderID       uuid.UUID           `json:"orderId"`
	OrderNumber   string              `json:"orderNumber"`
	UserID        string              `json:"userId"`
	PaymentMethod enums.PaymentMethod `json:"paymentMethod"`
	Subtotal      decimal.Decimal     `json:"subtotal"`
	Discount      decimal.Decimal     `json:"discount"`
	Total         decimal.Decimal     `json:"total"`
	CouponCode    string              `json:"couponCode,omitempty"`
	Items         []OrderLine         `json:"items"`
	CreatedAt     time.Time           `json:"createdAt"`
}

// OrderCancelledEvent is emitted after stock was restored for a cancelled order.
type OrderCancelledEvent struct {
	OrderID     uuid.UUID `json:"orderId"`
	OrderNumber string    `json:"orderNumber"`
	UserID      string    `json:"userId"`
	Reason      string    `json:"reason"`
	Expired     bool      `json:"expired,omitempty"`
	CancelledAt time.Time `json:"cancelledAt"`
}

// OrderStatusChangedEvent records an operator-driven or payment-driven status move.
type OrderStatusChangedEvent struct {
	OrderID        uuid.UUID         `json:"orderId"`
	OrderNumber    string            `json:"orderNumber"`
	UserID         string            `json:"userId"`
	From           enums.OrderStatus `json:"from"`
	To             enums.OrderStatus `json:"to"`
	TrackingNumber string            `json:"trackingNumber,omitempty"`
	ChangedAt      time.Time         `json:"changedAt"`
}

// PaymentStatusEvent is shared by payment.completed, payment.failed and payment.refunded.
type PaymentStatusEvent struct {
	PaymentID        uuid.UUID            `json:"paymentId"`
	PaymentNumber    string               `json:"paymentNumber"`
	OrderID          uuid.UUID            `json:"orderId"`
	OrderNumber      string               `json:"orderNumber"`
	UserID           string               `json:"userId"`
	Gateway          enums.PaymentGateway `json:"gateway"`
	Method           enums.PaymentMethod  `json:"method"`
	Status           enums.PaymentStatus  `json:"status"`
	Amount           decimal.Decimal      `json:"amount"`
	Currency         enums.Currency       `json:"currency"`
	GatewayPaymentID string               `json:"gatewayPaymentId,omitempty"`
	RefundAmount     *decimal.Decimal     `json:"refundAmount,omitempty"`
	Reason           string               `json:"reason,omitempty"`
	Attempts         int                  `json:"attempts"`
	OccurredAt       time.Time            `json:"occurredAt"`
}
