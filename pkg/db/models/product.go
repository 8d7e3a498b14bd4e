package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/victorybazaar/victorybazaar-backend/pkg/enums"
	"github.com/victorybazaar/victorybazaar-backend/pkg/types"
)

// Product is a sellable catalog entry. Stock only moves through order
// placement, cancellation and the operator stock patch.
type Product struct {
	ID              uuid.UUID           `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Name            string              `gorm:"column:name;not null" json:"name"`
	Description     string              `gorm:"column:description;not null;default:''" json:"description"`
	Price           decimal.Decimal     `gorm:"column:price;type:numeric(12,2);not null" json:"price"`
	OriginalPrice   *decimal.Decimal    `gorm:"column:original_price;type:numeric(12,2)" json:"originalPrice,omitempty"`
	DiscountPercent int                 `gorm:"column:discount_percent;not null;default:0" json:"discount"`
	Category        string              `gorm:"column:category;not null;index:products_category_idx" json:"category"`
	Brand           string              `gorm:"column:brand;not null;default:''" json:"brand"`
	Images          []types.Image       `gorm:"column:images;type:jsonb;serializer:json" json:"images"`
	Stock           int                 `gorm:"column:stock;not null;default:0;check:products_stock_nonnegative,stock >= 0" json:"stock"`
	Status          enums.ProductStatus `gorm:"column:status;type:varchar(20);not null;default:'active'" json:"status"`
	Featured        bool                `gorm:"column:featured;not null;default:false" json:"featured"`
	Trending        bool                `gorm:"column:trending;not null;default:false" json:"trending"`
	Ratings         types.Ratings       `gorm:"embedded;embeddedPrefix:rating_" json:"ratings"`
	Tags            []string            `gorm:"column:tags;type:jsonb;serializer:json" json:"tags"`
	Specifications  map[string]string   `gorm:"column:specifications;type:jsonb;serializer:json" json:"specifications,omitempty"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt       time.Time           `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	assignID(&p.ID)
	return nil
}

// PrimaryImage returns the first image url or an empty string.
func (p Product) PrimaryImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0].URL
}

// Purchasable reports whether the product is still on sale. Out-of-stock
// products are on sale; the stock check decides whether units remain.
func (p Product) Purchasable() bool {
	return p.Status == enums.ProductStatusActive || p.Status == enums.ProductStatusOutOfStock
}
