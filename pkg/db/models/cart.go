package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Cart is the per-user basket. Version guards concurrent mutation.
type Cart struct {
	ID             uuid.UUID       `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	UserID         string          `gorm:"column:user_id;not null;uniqueIndex:carts_user_id_key" json:"userId"`
	CouponCode     *string         `gorm:"column:coupon_code" json:"couponCode,omitempty"`
	CouponDiscount decimal.Decimal `gorm:"column:coupon_discount;type:numeric(12,2);not null;default:0" json:"couponDiscount"`
	Version        int             `gorm:"column:version;not null;default:0" json:"-"`
	Items          []CartItem      `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt      time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"lastUpdated"`
}

func (c *Cart) BeforeCreate(*gorm.DB) error {
	assignID(&c.ID)
	return nil
}

// FindItem returns the line for productID, if present.
func (c *Cart) FindItem(productID uuid.UUID) (*CartItem, bool) {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return &c.Items[i], true
		}
	}
	return nil, false
}

// CartItem is a product snapshot taken when the line was first added.
type CartItem struct {
	ID         uuid.UUID       `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	CartID     uuid.UUID       `gorm:"column:cart_id;type:uuid;not null;uniqueIndex:cart_items_cart_product_key" json:"-"`
	ProductID  uuid.UUID       `gorm:"column:product_id;type:uuid;not null;uniqueIndex:cart_items_cart_product_key" json:"productId"`
	Name       string          `gorm:"column:name;not null" json:"name"`
	Image      string          `gorm:"column:image;not null;default:''" json:"image,omitempty"`
	UnitPrice  decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null" json:"price"`
	Quantity   int             `gorm:"column:quantity;not null" json:"quantity"`
	StockAtAdd int             `gorm:"column:stock_at_add;not null;default:0" json:"stock"`
	AddedAt    time.Time       `gorm:"column:added_at;autoCreateTime" json:"addedAt"`
}

func (i *CartItem) BeforeCreate(*gorm.DB) error {
	assignID(&i.ID)
	return nil
}

// LineTotal is unit price times quantity.
func (i CartItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
