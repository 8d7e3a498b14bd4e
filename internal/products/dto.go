package products

import (
	"github.com/shopspring/decimal"

	"github.com/victorybazaar/victorybazaar-backend/pkg/db/models"
	"github.com/victorybazaar/victorybazaar-backend/pkg/enums"
	"github.com/victorybazaar/victorybazaar-backend/pkg/pagination"
	"github.com/victorybazaar/victorybazaar-backend/pkg/types"
)

// ListFilters narrows the public catalog listing. Zero values disable a filter.
type ListFilters struct {
	Category string
	Brand    string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Featured *bool
	Trending *bool
}

// ProductList is a page of products.
type ProductList struct {
	Products   []models.Product `json:"products"`
	Pagination pagination.Meta  `json:"pagination"`
}

// CreateProductInput holds the validated payload to create a product.
type CreateProductInput struct {
	Name            string
	Description     string
	Price           decimal.Decimal
	OriginalPrice   *decimal.Decimal
	DiscountPercent int
	Category        string
	Brand           string
	Images          []types.Image
	Stock           int
	Status          enums.ProductStatus
	Featured        bool
	Trending        bool
	Tags            []string
	Specifications  map[string]string
}

// UpdateProductInput carries optional mutations; nil fields are left untouched.
type UpdateProductInput struct {
	Name            *string
	Description     *string
	Price           *decimal.Decimal
	OriginalPrice   *decimal.Decimal
	DiscountPercent *int
	Category        *string
	Brand           *string
	Images          *[]types.Image
	Featured        *bool
	Trending        *bool
	Tags            *[]string
	Specifications  *map[string]string
}
