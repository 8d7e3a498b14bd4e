package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/victorybazaar/victorybazaar-backend/pkg/enums"
	"github.com/victorybazaar/victorybazaar-backend/pkg/types"
)

// Order is immutable once placed apart from its status, tracking and
// timestamps. Money fields are fixed at creation.
type Order struct {
	ID                 uuid.UUID                `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	OrderNumber        string                   `gorm:"column:order_number;not null;uniqueIndex:orders_order_number_key" json:"orderId"`
	UserID             string                   `gorm:"column:user_id;not null;index:orders_user_id_idx" json:"userId"`
	Items              []OrderItem              `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	ShippingAddress    types.ShippingAddress    `gorm:"column:shipping_address;type:jsonb;serializer:json;not null" json:"shippingAddress"`
	PaymentMethod      enums.PaymentMethod      `gorm:"column:payment_method;type:varchar(20);not null" json:"paymentMethod"`
	Status             enums.OrderStatus        `gorm:"column:order_status;type:varchar(20);not null;default:'pending';index:orders_status_idx" json:"orderStatus"`
	PaymentStatus      enums.OrderPaymentStatus `gorm:"column:payment_status;type:varchar(20);not null;default:'pending'" json:"paymentStatus"`
	Subtotal           decimal.Decimal          `gorm:"column:subtotal;type:numeric(12,2);not null" json:"subtotal"`
	ShippingFee        decimal.Decimal          `gorm:"column:shipping_fee;type:numeric(12,2);not null" json:"shippingFee"`
	Tax                decimal.Decimal          `gorm:"column:tax;type:numeric(12,2);not null" json:"tax"`
	Discount           decimal.Decimal          `gorm:"column:discount;type:numeric(12,2);not null;default:0" json:"discount"`
	Total              decimal.Decimal          `gorm:"column:total;type:numeric(12,2);not null" json:"total"`
	CouponCode         *string                  `gorm:"column:coupon_code" json:"couponCode,omitempty"`
	Notes              *string                  `gorm:"column:notes" json:"notes,omitempty"`
	TrackingNumber     *string                  `gorm:"column:tracking_number" json:"trackingNumber,omitempty"`
	Carrier            *string                  `gorm:"column:carrier" json:"carrier,omitempty"`
	EstimatedDelivery  *time.Time               `gorm:"column:estimated_delivery" json:"estimatedDelivery,omitempty"`
	ConfirmedAt        *time.Time               `gorm:"column:confirmed_at" json:"confirmedAt,omitempty"`
	ShippedAt          *time.Time               `gorm:"column:shipped_at" json:"shippedAt,omitempty"`
	DeliveredAt        *time.Time               `gorm:"column:delivered_at" json:"deliveredAt,omitempty"`
	CancelledAt        *time.Time               `gorm:"column:cancelled_at" json:"cancelledAt,omitempty"`
	CancellationReason *string                  `gorm:"column:cancellation_reason" json:"cancellationReason,omitempty"`
	CreatedAt          time.Time                `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt          time.Time                `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	assignID(&o.ID)
	return nil
}

// OrderItem copies product attributes by value at order time.
type OrderItem struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	OrderID   uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index:order_items_order_id_idx" json:"-"`
	ProductID uuid.UUID       `gorm:"column:product_id;type:uuid;not null" json:"productId"`
	Name      string          `gorm:"column:name;not null" json:"name"`
	Image     string          `gorm:"column:image;not null;default:''" json:"image,omitempty"`
	Price     decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null" json:"price"`
	Quantity  int             `gorm:"column:quantity;not null" json:"quantity"`
}

func (i *OrderItem) BeforeCreate(*gorm.DB) error {
	assignID(&i.ID)
	return nil
}
