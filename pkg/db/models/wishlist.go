package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/victorybazaar/victorybazaar-backend/pkg/enums"
)

// Wishlist is the per-user saved list plus its running counters.
type Wishlist struct {
	ID              uuid.UUID      `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	UserID          string         `gorm:"column:user_id;not null;uniqueIndex:wishlists_user_id_key" json:"userId"`
	IsPublic        bool           `gorm:"column:is_public;not null;default:false" json:"isPublic"`
	Version         int            `gorm:"column:version;not null;default:0" json:"-"`
	TotalItemsAdded int            `gorm:"column:total_items_added;not null;default:0" json:"totalItemsAdded"`
	ItemsPurchased  int            `gorm:"column:items_purchased;not null;default:0" json:"itemsPurchased"`
	LastPurchasedAt *time.Time     `gorm:"column:last_purchased_at" json:"lastPurchased,omitempty"`
	Items           []WishlistItem `gorm:"foreignKey:WishlistID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt       time.Time      `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt       time.Time      `gorm:"column:updated_at;autoUpdateTime" json:"lastUpdated"`
}

func (w *Wishlist) BeforeCreate(*gorm.DB) error {
	assignID(&w.ID)
	return nil
}

type WishlistItem struct {
	ID         uuid.UUID              `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	WishlistID uuid.UUID              `gorm:"column:wishlist_id;type:uuid;not null;uniqueIndex:wishlist_items_wishlist_product_key" json:"-"`
	ProductID  uuid.UUID              `gorm:"column:product_id;type:uuid;not null;uniqueIndex:wishlist_items_wishlist_product_key" json:"productId"`
	Product    *Product               `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Notes      string                 `gorm:"column:notes;type:varchar(200);not null;default:''" json:"notes,omitempty"`
	Priority   enums.WishlistPriority `gorm:"column:priority;type:varchar(10);not null;default:'medium'" json:"priority"`
	AddedAt    time.Time              `gorm:"column:added_at;not null" json:"addedAt"`
}

func (i *WishlistItem) BeforeCreate(*gorm.DB) error {
	assignID(&i.ID)
	return nil
}
