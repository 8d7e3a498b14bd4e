package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/victorybazaar/victorybazaar-backend/api/responses"
	"github.com/victorybazaar/victorybazaar-backend/api/validators"
	productsvc "github.com/victorybazaar/victorybazaar-backend/internal/products"
	"github.com/victorybazaar/victorybazaar-backend/pkg/enums"
	pkgerrors "github.com/victorybazaar/victorybazaar-backend/pkg/errors"
	"github.com/victorybazaar/victorybazaar-backend/pkg/logger"
	"github.com/victorybazaar/victorybazaar-backend/pkg/types"
)

const productPageSize = 12

// ProductList serves the filtered, sorted catalog page.
func ProductList(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("product"))
			return
		}

		filters, err := parseProductFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sort := enums.ParseProductSort(r.URL.Query().Get("sort"))
		list, err := svc.ListProducts(r.Context(), filters, sort, PageParams(r, productPageSize))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func ProductSearch(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("product"))
			return
		}

		q := validators.QueryString(r, "q", 100)
		if q == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "search query is required"))
			return
		}

		list, err := svc.Search(r.Context(), q, validators.QueryString(r, "category", 100), PageParams(r, productPageSize))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func ProductFeatured(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("product"))
			return
		}
		products, err := svc.Featured(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, products)
	}
}

func ProductTrending(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("product"))
			return
		}
		products, err := svc.Trending(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, products)
	}
}

func ProductsByCategory(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("product"))
			return
		}
		category, err := PathParam(r, "category")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sort := enums.ParseProductSort(r.URL.Query().Get("sort"))
		list, err := svc.ByCategory(r.Context(), category, sort, PageParams(r, productPageSize))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func ProductDetail(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("product"))
			return
		}
		id, err := PathParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.GetProduct(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

// ProductCreate is operator only.
func ProductCreate(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("product"))
			return
		}

		var payload createProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toCreateInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.CreateProduct(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

func ProductUpdate(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("product"))
			return
		}
		id, err := PathParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.UpdateProduct(r.Context(), id, payload.toUpdateInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

func ProductDelete(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("product"))
			return
		}
		id, err := PathParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.DeleteProduct(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, http.StatusOK, "product deleted", nil)
	}
}

type stockRequest struct {
	Stock *int `json:"stock" validate:"required,gte=0"`
}

func ProductUpdateStock(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("product"))
			return
		}
		id, err := PathParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload stockRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.UpdateStock(r.Context(), id, *payload.Stock)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

type productStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

func ProductUpdateStatus(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("product"))
			return
		}
		id, err := PathParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload productStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := enums.ParseProductStatus(payload.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}

		product, err := svc.UpdateStatus(r.Context(), id, status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

func parseProductFilters(r *http.Request) (productsvc.ListFilters, error) {
	filters := productsvc.ListFilters{
		Category: validators.QueryString(r, "category", 100),
		Brand:    validators.QueryString(r, "brand", 100),
	}
	minPrice, err := validators.ParseQueryFloat(r, "minPrice")
	if err != nil {
		return filters, err
	}
	maxPrice, err := validators.ParseQueryFloat(r, "maxPrice")
	if err != nil {
		return filters, err
	}
	if minPrice != nil {
		v := decimal.NewFromFloat(*minPrice)
		filters.MinPrice = &v
	}
	if maxPrice != nil {
		v := decimal.NewFromFloat(*maxPrice)
		filters.MaxPrice = &v
	}
	if filters.MinPrice != nil && filters.MaxPrice != nil && filters.MinPrice.GreaterThan(*filters.MaxPrice) {
		return filters, pkgerrors.New(pkgerrors.CodeValidation, "minPrice cannot exceed maxPrice")
	}
	if filters.Featured, err = validators.ParseQueryBool(r, "featured"); err != nil {
		return filters, err
	}
	if filters.Trending, err = validators.ParseQueryBool(r, "trending"); err != nil {
		return filters, err
	}
	return filters, nil
}

type createProductRequest struct {
	Name            string            `json:"name" validate:"required,max=200"`
	Description     string            `json:"description" validate:"required,max=2000"`
	Price           decimal.Decimal   `json:"price"`
	OriginalPrice   *decimal.Decimal  `json:"originalPrice"`
	DiscountPercent int               `json:"discount" validate:"gte=0,max=100"`
	Category        string            `json:"category" validate:"required,max=100"`
	Brand           string            `json:"brand" validate:"max=100"`
	Images          []types.Image     `json:"images" validate:"dive"`
	Stock           int               `json:"stock" validate:"gte=0"`
	Status          string            `json:"status"`
	Featured        bool              `json:"featured"`
	Trending        bool              `json:"trending"`
	Tags            []string          `json:"tags"`
	Specifications  map[string]string `json:"specifications"`
}

func (p createProductRequest) toCreateInput() (productsvc.CreateProductInput, error) {
	input := productsvc.CreateProductInput{
		Name:            p.Name,
		Description:     p.Description,
		Price:           p.Price,
		OriginalPrice:   p.OriginalPrice,
		DiscountPercent: p.DiscountPercent,
		Category:        p.Category,
		Brand:           p.Brand,
		Images:          p.Images,
		Stock:           p.Stock,
		Featured:        p.Featured,
		Trending:        p.Trending,
		Tags:            p.Tags,
		Specifications:  p.Specifications,
	}
	if p.Status != "" {
		status, err := enums.ParseProductStatus(p.Status)
		if err != nil {
			return input, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status")
		}
		input.Status = status
	}
	return input, nil
}

type updateProductRequest struct {
	Name            *string            `json:"name" validate:"omitempty,max=200"`
	Description     *string            `json:"description" validate:"omitempty,max=2000"`
	Price           *decimal.Decimal   `json:"price"`
	OriginalPrice   *decimal.Decimal   `json:"originalPrice"`
	DiscountPercent *int               `json:"discount" validate:"omitempty,gte=0,max=100"`
	Category        *string            `json:"category" validate:"omitempty,max=100"`
	Brand           *string            `json:"brand" validate:"omitempty,max=100"`
	Images          *[]types.Image     `json:"images"`
	Featured        *bool              `json:"featured"`
	Trending        *bool              `json:"trending"`
	Tags            *[]string          `json:"tags"`
	Specifications  *map[string]string `json:"specifications"`
}

func (p updateProductRequest) toUpdateInput() productsvc.UpdateProductInput {
	return productsvc.UpdateProductInput{
		Name:            p.Name,
		Description:     p.Description,
		Price:           p.Price,
		OriginalPrice:   p.OriginalPrice,
		DiscountPercent: p.DiscountPercent,
		Category:        p.Category,
		Brand:           p.Brand,
		Images:          p.Images,
		Featured:        p.Featured,
		Trending:        p.Trending,
		Tags:            p.Tags,
		Specifications:  p.Specifications,
	}
}
