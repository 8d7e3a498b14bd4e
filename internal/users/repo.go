package users

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/victorybazaar/victorybazaar-backend/pkg/db/models"
	"github.com/victorybazaar/victorybazaar-backend/pkg/enums"
	"github.com/victorybazaar/victorybazaar-backend/pkg/pagination"
	"github.com/victorybazaar/victorybazaar-backend/pkg/types"
)

// Repository exposes user-related persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a users repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Create inserts a new user.
func (r *Repository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// FindByFirebaseUID retrieves the user mirroring the provider identity.
func (r *Repository) FindByFirebaseUID(ctx context.Context, uid string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("firebase_uid = ?", uid).Take(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByID loads a user by their UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Take(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Update writes the given columns for the user.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// UpdatePreferences writes the preferences document through its serializer.
func (r *Repository) UpdatePreferences(ctx context.Context, id uuid.UUID, prefs types.Preferences) error {
	return r.db.WithContext(ctx).
		Model(&models.User{ID: id}).
		Select("preferences").
		Updates(&models.User{Preferences: prefs}).Error
}

// AddPoints increments the balance and re-derives the tier. It reports
// whether a user matched.
func (r *Repository) AddPoints(ctx context.Context, uid string, points int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("firebase_uid = ?", uid).
		UpdateColumn("loyalty_points", gorm.Expr("loyalty_points + ?", points))
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	var balance int
	if err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("firebase_uid = ?", uid).
		Pluck("loyalty_points", &balance).Error; err != nil {
		return false, err
	}
	return true, r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("firebase_uid = ?", uid).
		UpdateColumn("loyalty_tier", enums.TierForPoints(balance)).Error
}

// List pages users newest first, matching search against names and email.
func (r *Repository) List(ctx context.Context, filter ListFilter, params pagination.Params) ([]models.User, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.User{})
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(full_name) LIKE ? OR LOWER(display_name) LIKE ? OR LOWER(email) LIKE ?", like, like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var users []models.User
	err := query.
		Order("created_at DESC").
		Order("id ASC").
		Offset(params.Offset()).
		Limit(params.Limit).
		Find(&users).Error
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}
