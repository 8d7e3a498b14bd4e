package address

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/victorybazaar/victorybazaar-backend/pkg/db/models"
)

// Repository persists saved addresses.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// ListByUser returns the default first, then the rest oldest first.
func (r *Repository) ListByUser(ctx context.Context, userID string) ([]models.Address, error) {
	var out []models.Address
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("is_default DESC").
		Order("created_at ASC").
		Order("id ASC").
		Find(&out).Error
	return out, err
}

func (r *Repository) FindOwned(ctx context.Context, userID string, id uuid.UUID) (*models.Address, error) {
	var addr models.Address
	if err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Take(&addr).Error; err != nil {
		return nil, err
	}
	return &addr, nil
}

func (r *Repository) FindDefault(ctx context.Context, userID string) (*models.Address, error) {
	var addr models.Address
	if err := r.db.WithContext(ctx).Where("user_id = ? AND is_default = ?", userID, true).Take(&addr).Error; err != nil {
		return nil, err
	}
	return &addr, nil
}

// Oldest returns the first saved address of the user.
func (r *Repository) Oldest(ctx context.Context, userID string) (*models.Address, error) {
	var addr models.Address
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Order("id ASC").
		Take(&addr).Error
	if err != nil {
		return nil, err
	}
	return &addr, nil
}

func (r *Repository) Count(ctx context.Context, userID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Address{}).Where("user_id = ?", userID).Count(&n).Error
	return n, err
}

func (r *Repository) Create(ctx context.Context, addr *models.Address) error {
	return r.db.WithContext(ctx).Create(addr).Error
}

func (r *Repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).Model(&models.Address{}).Where("id = ?", id).Updates(updates).Error
}

// ClearDefault unsets the default flag on every address of the user.
func (r *Repository) ClearDefault(ctx context.Context, userID string) error {
	return r.db.WithContext(ctx).
		Model(&models.Address{}).
		Where("user_id = ? AND is_default = ?", userID, true).
		UpdateColumn("is_default", false).Error
}

func (r *Repository) MarkDefault(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Address{}).
		Where("id = ?", id).
		UpdateColumn("is_default", true).Error
}

func (r *Repository) Delete(ctx context.Context, userID string, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&models.Address{})
	return res.RowsAffected == 1, res.Error
}
