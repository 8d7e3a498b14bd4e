package products

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/victorybazaar/victorybazaar-backend/pkg/db"
	"github.com/victorybazaar/victorybazaar-backend/pkg/db/models"
	"github.com/victorybazaar/victorybazaar-backend/pkg/enums"
	pkgerrors "github.com/victorybazaar/victorybazaar-backend/pkg/errors"
	"github.com/victorybazaar/victorybazaar-backend/pkg/logger"
	"github.com/victorybazaar/victorybazaar-backend/pkg/pagination"
)

const shortListLimit = 10

// Service exposes catalog reads and operator product management.
type Service interface {
	ListProducts(ctx context.Context, filters ListFilters, sort enums.ProductSort, params pagination.Params) (*ProductList, error)
	Search(ctx context.Context, q, category string, params pagination.Params) (*ProductList, error)
	GetProduct(ctx context.Context, id string) (*models.Product, error)
	Featured(ctx context.Context) ([]models.Product, error)
	Trending(ctx context.Context) ([]models.Product, error)
	ByCategory(ctx context.Context, category string, sort enums.ProductSort, params pagination.Params) (*ProductList, error)
	CreateProduct(ctx context.Context, input CreateProductInput) (*models.Product, error)
	UpdateProduct(ctx context.Context, id string, input UpdateProductInput) (*models.Product, error)
	DeleteProduct(ctx context.Context, id string) error
	UpdateStock(ctx context.Context, id string, stock int) (*models.Product, error)
	UpdateStatus(ctx context.Context, id string, status enums.ProductStatus) (*models.Product, error)
}

type service struct {
	repo  *Repository
	cache *listCache
	logg  *logger.Logger
}

// NewService constructs the catalog service. cache may be nil to disable caching.
func NewService(repo *Repository, cache CacheStore, cacheTTL time.Duration, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	return &service{
		repo:  repo,
		cache: newListCache(cache, cacheTTL),
		logg:  logg,
	}, nil
}

func (s *service) ListProducts(ctx context.Context, filters ListFilters, sort enums.ProductSort, params pagination.Params) (*ProductList, error) {
	if filters.MinPrice != nil && filters.MaxPrice != nil && filters.MinPrice.GreaterThan(*filters.MaxPrice) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "minPrice cannot exceed maxPrice")
	}
	params = params.Normalize(pagination.DefaultLimit)
	rows, total, err := s.repo.List(ctx, filters, sort, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	return &ProductList{Products: nonNil(rows), Pagination: pagination.NewMeta(params, total)}, nil
}

func (s *service) Search(ctx context.Context, q, category string, params pagination.Params) (*ProductList, error) {
	if strings.TrimSpace(q) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "search query is required")
	}
	params = params.Normalize(pagination.DefaultLimit)
	rows, total, err := s.repo.Search(ctx, q, category, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "search products")
	}
	return &ProductList{Products: nonNil(rows), Pagination: pagination.NewMeta(params, total)}, nil
}

func (s *service) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	productID, err := ParseID(id)
	if err != nil {
		return nil, err
	}
	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		return nil, mapFindError(err)
	}
	return product, nil
}

func (s *service) Featured(ctx context.Context) ([]models.Product, error) {
	return s.cachedList(ctx, featuredCacheName, "featured", enums.ProductSortNewest)
}

func (s *service) Trending(ctx context.Context) ([]models.Product, error) {
	return s.cachedList(ctx, trendingCacheName, "trending", enums.ProductSortPopular)
}

func (s *service) cachedList(ctx context.Context, name, column string, sort enums.ProductSort) ([]models.Product, error) {
	if rows, ok := s.cache.get(ctx, name); ok {
		return rows, nil
	}
	rows, err := s.repo.Flagged(ctx, column, sort, shortListLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load "+name+" products")
	}
	rows = nonNil(rows)
	if err := s.cache.set(ctx, name, rows); err != nil && s.logg != nil {
		s.logg.Warn(s.logg.WithField(ctx, "cache", name), "catalog cache write failed: "+err.Error())
	}
	return rows, nil
}

func (s *service) ByCategory(ctx context.Context, category string, sort enums.ProductSort, params pagination.Params) (*ProductList, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category is required")
	}
	return s.ListProducts(ctx, ListFilters{Category: category}, sort, params)
}

func (s *service) CreateProduct(ctx context.Context, input CreateProductInput) (*models.Product, error) {
	if err := validatePrice(input.Price); err != nil {
		return nil, err
	}
	if input.Stock < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
	}
	status := input.Status
	if status == "" {
		status = statusForStock(input.Stock)
	}
	if !status.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid status %q", status)
	}

	product := &models.Product{
		Name:            strings.TrimSpace(input.Name),
		Description:     input.Description,
		Price:           input.Price,
		OriginalPrice:   input.OriginalPrice,
		DiscountPercent: input.DiscountPercent,
		Category:        strings.TrimSpace(input.Category),
		Brand:           strings.TrimSpace(input.Brand),
		Images:          input.Images,
		Stock:           input.Stock,
		Status:          status,
		Featured:        input.Featured,
		Trending:        input.Trending,
		Tags:            input.Tags,
		Specifications:  input.Specifications,
	}
	if err := s.repo.Create(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert product")
	}
	s.invalidate(ctx)
	return product, nil
}

func (s *service) UpdateProduct(ctx context.Context, id string, input UpdateProductInput) (*models.Product, error) {
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		product.Name = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		product.Description = *input.Description
	}
	if input.Price != nil {
		if err := validatePrice(*input.Price); err != nil {
			return nil, err
		}
		product.Price = *input.Price
	}
	if input.OriginalPrice != nil {
		product.OriginalPrice = input.OriginalPrice
	}
	if input.DiscountPercent != nil {
		product.DiscountPercent = *input.DiscountPercent
	}
	if input.Category != nil {
		product.Category = strings.TrimSpace(*input.Category)
	}
	if input.Brand != nil {
		product.Brand = strings.TrimSpace(*input.Brand)
	}
	if input.Images != nil {
		product.Images = *input.Images
	}
	if input.Featured != nil {
		product.Featured = *input.Featured
	}
	if input.Trending != nil {
		product.Trending = *input.Trending
	}
	if input.Tags != nil {
		product.Tags = *input.Tags
	}
	if input.Specifications != nil {
		product.Specifications = *input.Specifications
	}

	if err := s.repo.Save(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
	}
	s.invalidate(ctx)
	return product, nil
}

func (s *service) DeleteProduct(ctx context.Context, id string) error {
	productID, err := ParseID(id)
	if err != nil {
		return err
	}
	found, err := s.repo.Delete(ctx, productID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete product")
	}
	if !found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	s.invalidate(ctx)
	return nil
}

func (s *service) UpdateStock(ctx context.Context, id string, stock int) (*models.Product, error) {
	if stock < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
	}
	productID, err := ParseID(id)
	if err != nil {
		return nil, err
	}
	found, err := s.repo.SetStock(ctx, productID, stock, statusForStock(stock))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update stock")
	}
	if !found {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	s.invalidate(ctx)
	return s.GetProduct(ctx, id)
}

func (s *service) UpdateStatus(ctx context.Context, id string, status enums.ProductStatus) (*models.Product, error) {
	if !status.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid status %q", status)
	}
	productID, err := ParseID(id)
	if err != nil {
		return nil, err
	}
	found, err := s.repo.SetStatus(ctx, productID, status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update status")
	}
	if !found {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	s.invalidate(ctx)
	return s.GetProduct(ctx, id)
}

func (s *service) invalidate(ctx context.Context) {
	if err := s.cache.invalidate(ctx); err != nil && s.logg != nil {
		s.logg.Warn(ctx, "catalog cache invalidation failed: "+err.Error())
	}
}

// ParseID converts a path id; malformed ids are reported as not found.
func ParseID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return id, nil
}

func mapFindError(err error) error {
	if db.IsNotFound(err) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
}

func statusForStock(stock int) enums.ProductStatus {
	if stock > 0 {
		return enums.ProductStatusActive
	}
	return enums.ProductStatusOutOfStock
}

func nonNil(rows []models.Product) []models.Product {
	if rows == nil {
		return []models.Product{}
	}
	return rows
}
