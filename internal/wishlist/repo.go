package wishlist

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/victorybazaar/victorybazaar-backend/pkg/db"
	"github.com/victorybazaar/victorybazaar-backend/pkg/db/models"
	"github.com/victorybazaar/victorybazaar-backend/pkg/enums"
)

// Repository persists wishlists and their items.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to tx.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// FindByUser loads the wishlist with items (newest first) and their products.
func (r *Repository) FindByUser(ctx context.Context, userID string) (*models.Wishlist, error) {
	var list models.Wishlist
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("added_at DESC").Order("id ASC") }).
		Preload("Items.Product").
		Where("user_id = ?", userID).
		Take(&list).Error
	if err != nil {
		return nil, err
	}
	return &list, nil
}

// GetOrCreate returns the user's wishlist, inserting an empty private one if missing.
func (r *Repository) GetOrCreate(ctx context.Context, userID string) (*models.Wishlist, error) {
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
		Create(&models.Wishlist{UserID: userID}).Error; err != nil {
		return nil, err
	}
	return r.FindByUser(ctx, userID)
}

func (r *Repository) InsertItem(ctx context.Context, item *models.WishlistItem) error {
	return r.db.WithContext(ctx).Omit("Product").Create(item).Error
}

// RefreshItem rewrites the mutable fields of an existing line.
func (r *Repository) RefreshItem(ctx context.Context, itemID uuid.UUID, notes string, priority enums.WishlistPriority, addedAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.WishlistItem{}).
		Where("id = ?", itemID).
		Updates(map[string]any{"notes": notes, "priority": priority, "added_at": addedAt}).Error
}

func (r *Repository) SetPriority(ctx context.Context, itemID uuid.UUID, priority enums.WishlistPriority) error {
	return r.db.WithContext(ctx).
		Model(&models.WishlistItem{}).
		Where("id = ?", itemID).
		Update("priority", priority).Error
}

func (r *Repository) DeleteItem(ctx context.Context, wishlistID, productID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("wishlist_id = ? AND product_id = ?", wishlistID, productID).
		Delete(&models.WishlistItem{}).Error
}

func (r *Repository) DeleteItems(ctx context.Context, wishlistID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("wishlist_id = ?", wishlistID).
		Delete(&models.WishlistItem{}).Error
}

func (r *Repository) IncrementAdded(ctx context.Context, wishlistID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Wishlist{}).
		Where("id = ?", wishlistID).
		UpdateColumn("total_items_added", gorm.Expr("total_items_added + 1")).Error
}

func (r *Repository) SetPublic(ctx context.Context, wishlistID uuid.UUID, public bool) error {
	return r.db.WithContext(ctx).
		Model(&models.Wishlist{}).
		Where("id = ?", wishlistID).
		Update("is_public", public).Error
}

// BumpVersion advances the version only if it still equals expected.
func (r *Repository) BumpVersion(ctx context.Context, wishlistID uuid.UUID, expected int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Wishlist{}).
		Where("id = ? AND version = ?", wishlistID, expected).
		Update("version", gorm.Expr("version + 1"))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// RecordPurchases counts how many of productIDs the user had saved and adds
// that to itemsPurchased. It returns the number credited.
func (r *Repository) RecordPurchases(ctx context.Context, userID string, productIDs []uuid.UUID, at time.Time) (int, error) {
	if len(productIDs) == 0 {
		return 0, nil
	}
	var list models.Wishlist
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Take(&list).Error
	if db.IsNotFound(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	var matched int64
	if err := r.db.WithContext(ctx).
		Model(&models.WishlistItem{}).
		Where("wishlist_id = ? AND product_id IN ?", list.ID, productIDs).
		Count(&matched).Error; err != nil {
		return 0, err
	}
	if matched == 0 {
		return 0, nil
	}
	err = r.db.WithContext(ctx).
		Model(&models.Wishlist{}).
		Where("id = ?", list.ID).
		UpdateColumns(map[string]any{
			"items_purchased":   gorm.Expr("items_purchased + ?", matched),
			"last_purchased_at": at,
		}).Error
	return int(matched), err
}
