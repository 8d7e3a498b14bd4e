package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/victorybazaar/victorybazaar-backend/pkg/enums"
	"github.com/victorybazaar/victorybazaar-backend/pkg/types"
)

// Payment is the single monetary transaction attached to an order.
type Payment struct {
	ID               uuid.UUID            `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	PaymentNumber    string               `gorm:"column:payment_number;not null;uniqueIndex:payments_payment_number_key" json:"paymentId"`
	OrderID          uuid.UUID            `gorm:"column:order_id;type:uuid;not null;uniqueIndex:payments_order_id_key" json:"-"`
	OrderNumber      string               `gorm:"column:order_number;not null" json:"orderId"`
	UserID           string               `gorm:"column:user_id;not null;index:payments_user_id_idx" json:"userId"`
	Amount           decimal.Decimal      `gorm:"column:amount;type:numeric(12,2);not null" json:"amount"`
	Currency         enums.Currency       `gorm:"column:currency;type:varchar(3);not null;default:'INR'" json:"currency"`
	Method           enums.PaymentMethod  `gorm:"column:payment_method;type:varchar(20);not null" json:"paymentMethod"`
	Gateway          enums.PaymentGateway `gorm:"column:payment_gateway;type:varchar(20);not null" json:"paymentGateway"`
	Status           enums.PaymentStatus  `gorm:"column:status;type:varchar(20);not null;default:'pending'" json:"status"`
	GatewayPaymentID *string              `gorm:"column:gateway_payment_id;index:payments_gateway_payment_id_idx" json:"gatewayPaymentId,omitempty"`
	GatewayOrderID   *string              `gorm:"column:gateway_order_id;index:payments_gateway_order_id_idx" json:"gatewayOrderId,omitempty"`
	GatewaySignature *string              `gorm:"column:gateway_signature" json:"-"`
	PaymentLink      *string              `gorm:"column:payment_link" json:"paymentLink,omitempty"`
	RefundID         *string              `gorm:"column:refund_id" json:"refundId,omitempty"`
	RefundAmount     *decimal.Decimal     `gorm:"column:refund_amount;type:numeric(12,2)" json:"refundAmount,omitempty"`
	RefundReason     *string              `gorm:"column:refund_reason" json:"refundReason,omitempty"`
	Details          types.PaymentDetails `gorm:"column:payment_details;type:jsonb;serializer:json" json:"paymentDetails"`
	WebhookData      json.RawMessage      `gorm:"column:webhook_data;type:jsonb" json:"-"`
	Attempts         int                  `gorm:"column:attempts;not null;default:0" json:"attempts"`
	LastAttemptAt    *time.Time           `gorm:"column:last_attempt_at" json:"lastAttemptAt,omitempty"`
	Notes            *string              `gorm:"column:notes" json:"notes,omitempty"`
	CreatedAt        time.Time            `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt        time.Time            `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (p *Payment) BeforeCreate(*gorm.DB) error {
	assignID(&p.ID)
	return nil
}
