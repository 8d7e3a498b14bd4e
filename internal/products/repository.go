package products

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/victorybazaar/victorybazaar-backend/pkg/db/models"
	"github.com/victorybazaar/victorybazaar-backend/pkg/enums"
	"github.com/victorybazaar/victorybazaar-backend/pkg/pagination"
)

// Repository wires together all product persistence helpers.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// FindByID loads the product.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindByIDs loads every product in ids; missing ids are simply absent.
func (r *Repository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []models.Product
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Create inserts a new product row.
func (r *Repository) Create(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

// Save writes every column of an existing product.
func (r *Repository) Save(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Save(product).Error
}

// Delete removes a product by ID and reports whether a row existed.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Product{})
	return res.RowsAffected > 0, res.Error
}

// List returns one page of products matching filters.
func (r *Repository) List(ctx context.Context, filters ListFilters, sort enums.ProductSort, params pagination.Params) ([]models.Product, int64, error) {
	query := applyFilters(r.db.WithContext(ctx).Model(&models.Product{}), filters)
	return r.page(query, sort, params)
}

// Search matches q case-insensitively against name, description, brand and tags.
func (r *Repository) Search(ctx context.Context, q, category string, params pagination.Params) ([]models.Product, int64, error) {
	pattern := "%" + strings.ToLower(strings.TrimSpace(q)) + "%"
	query := r.db.WithContext(ctx).Model(&models.Product{}).
		Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ? OR LOWER(brand) LIKE ? OR LOWER(CAST(tags AS TEXT)) LIKE ?",
			pattern, pattern, pattern, pattern)
	if category != "" {
		query = query.Where("category = ?", category)
	}
	return r.page(query, enums.ProductSortPopular, params)
}

// Flagged returns up to limit products with the featured or trending flag set.
func (r *Repository) Flagged(ctx context.Context, column string, sort enums.ProductSort, limit int) ([]models.Product, error) {
	var rows []models.Product
	err := applySort(r.db.WithContext(ctx).Where(column+" = ?", true), sort).
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// ActiveInCategories returns active products in categories, best rated then newest.
func (r *Repository) ActiveInCategories(ctx context.Context, categories []string, exclude []uuid.UUID, limit int) ([]models.Product, error) {
	if len(categories) == 0 || limit <= 0 {
		return nil, nil
	}
	query := r.db.WithContext(ctx).
		Where("category IN ? AND status = ?", categories, enums.ProductStatusActive)
	if len(exclude) > 0 {
		query = query.Where("id NOT IN ?", exclude)
	}
	var rows []models.Product
	err := query.Order("rating_average DESC").Order("created_at DESC").Limit(limit).Find(&rows).Error
	return rows, err
}

// ActiveTrending returns active trending products not in exclude.
func (r *Repository) ActiveTrending(ctx context.Context, exclude []uuid.UUID, limit int) ([]models.Product, error) {
	if limit <= 0 {
		return nil, nil
	}
	query := r.db.WithContext(ctx).
		Where("trending = ? AND status = ?", true, enums.ProductStatusActive)
	if len(exclude) > 0 {
		query = query.Where("id NOT IN ?", exclude)
	}
	var rows []models.Product
	err := query.Order("rating_average DESC").Limit(limit).Find(&rows).Error
	return rows, err
}

// DecrementStock removes qty units only when enough remain. It reports false
// when the guard rejected the update.
func (r *Repository) DecrementStock(ctx context.Context, id uuid.UUID, qty int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND stock >= ?", id, qty).
		UpdateColumns(map[string]any{
			"stock":  gorm.Expr("stock - ?", qty),
			"status": gorm.Expr("CASE WHEN status = ? AND stock - ? <= 0 THEN ? ELSE status END", enums.ProductStatusActive, qty, enums.ProductStatusOutOfStock),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// IncrementStock returns qty units to the product. An out-of-stock product
// goes back on sale once stock is positive again.
func (r *Repository) IncrementStock(ctx context.Context, id uuid.UUID, qty int) error {
	return r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", id).
		UpdateColumns(map[string]any{
			"stock":  gorm.Expr("stock + ?", qty),
			"status": gorm.Expr("CASE WHEN status = ? AND stock + ? > 0 THEN ? ELSE status END", enums.ProductStatusOutOfStock, qty, enums.ProductStatusActive),
		}).Error
}

// SetStock overwrites stock. status replaces the current one only while the
// product is on sale; inactive and discontinued products keep theirs.
func (r *Repository) SetStock(ctx context.Context, id uuid.UUID, stock int, status enums.ProductStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"stock":  stock,
			"status": gorm.Expr("CASE WHEN status IN (?, ?) THEN ? ELSE status END", enums.ProductStatusActive, enums.ProductStatusOutOfStock, status),
		})
	return res.RowsAffected > 0, res.Error
}

// SetStatus overwrites the lifecycle status.
func (r *Repository) SetStatus(ctx context.Context, id uuid.UUID, status enums.ProductStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", id).
		Update("status", status)
	return res.RowsAffected > 0, res.Error
}

func (r *Repository) page(query *gorm.DB, sort enums.ProductSort, params pagination.Params) ([]models.Product, int64, error) {
	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []models.Product
	if err := applySort(query, sort).
		Offset(params.Offset()).
		Limit(params.Limit).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func applyFilters(query *gorm.DB, filters ListFilters) *gorm.DB {
	if filters.Category != "" {
		query = query.Where("category = ?", filters.Category)
	}
	if brand := strings.TrimSpace(filters.Brand); brand != "" {
		query = query.Where("LOWER(brand) LIKE ?", "%"+strings.ToLower(brand)+"%")
	}
	if filters.MinPrice != nil {
		query = query.Where("price >= ?", *filters.MinPrice)
	}
	if filters.MaxPrice != nil {
		query = query.Where("price <= ?", *filters.MaxPrice)
	}
	if filters.Featured != nil {
		query = query.Where("featured = ?", *filters.Featured)
	}
	if filters.Trending != nil {
		query = query.Where("trending = ?", *filters.Trending)
	}
	return query
}

func applySort(query *gorm.DB, sort enums.ProductSort) *gorm.DB {
	switch sort {
	case enums.ProductSortPriceLow:
		query = query.Order("price ASC")
	case enums.ProductSortPriceHigh:
		query = query.Order("price DESC")
	case enums.ProductSortPopular:
		query = query.Order("rating_average DESC").Order("rating_count DESC")
	case enums.ProductSortName:
		query = query.Order("name ASC")
	default:
		query = query.Order("created_at DESC")
	}
	return query.Order("id ASC")
}
