package products

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/victorybazaar/victorybazaar-backend/pkg/db/dbtest"
	"github.com/victorybazaar/victorybazaar-backend/pkg/db/models"
	"github.com/victorybazaar/victorybazaar-backend/pkg/enums"
	pkgerrors "github.com/victorybazaar/victorybazaar-backend/pkg/errors"
	"github.com/victorybazaar/victorybazaar-backend/pkg/pagination"
	"github.com/victorybazaar/victorybazaar-backend/pkg/redis"
	"github.com/victorybazaar/victorybazaar-backend/pkg/redis/redistest"
	"github.com/victorybazaar/victorybazaar-backend/pkg/types"
)

func seedProduct(t *testing.T, conn *gorm.DB, mutate func(p *models.Product)) *models.Product {
	t.Helper()
	p := &models.Product{
		Name:     "Cotton Kurta",
		Price:    decimal.NewFromInt(600),
		Category: "fashion",
		Brand:    "Victory",
		Stock:    5,
		Status:   enums.ProductStatusActive,
		Images:   []types.Image{{URL: "https://cdn.example/kurta.jpg"}},
		Tags:     []string{"ethnic"},
	}
	if mutate != nil {
		mutate(p)
	}
	require.NoError(t, conn.Create(p).Error)
	return p
}

func newTestService(t *testing.T) (Service, *gorm.DB, *redistest.Memory) {
	t.Helper()
	conn := dbtest.Open(t)
	mem := redistest.NewMemory()
	svc, err := NewService(NewRepository(conn), redis.NewWithStore(mem), time.Minute, nil)
	require.NoError(t, err)
	return svc, conn, mem
}

func TestListProductsFiltersAndSorts(t *testing.T) {
	svc, conn, _ := newTestService(t)
	seedProduct(t, conn, func(p *models.Product) { p.Name = "A"; p.Price = decimal.NewFromInt(100) })
	seedProduct(t, conn, func(p *models.Product) { p.Name = "B"; p.Price = decimal.NewFromInt(300); p.Brand = "Zenith" })
	seedProduct(t, conn, func(p *models.Product) { p.Name = "C"; p.Price = decimal.NewFromInt(900); p.Category = "home" })

	min := decimal.NewFromInt(150)
	list, err := svc.ListProducts(context.Background(), ListFilters{Category: "fashion", MinPrice: &min}, enums.ProductSortPriceLow, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, list.Products, 1)
	assert.Equal(t, "B", list.Products[0].Name)
	assert.Equal(t, int64(1), list.Pagination.TotalItems)
	assert.Equal(t, pagination.DefaultLimit, list.Pagination.Limit)

	list, err = svc.ListProducts(context.Background(), ListFilters{Brand: "zen"}, enums.ProductSortNewest, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, list.Products, 1)

	list, err = svc.ListProducts(context.Background(), ListFilters{}, enums.ProductSortPriceHigh, pagination.Params{Page: 1, Limit: 500})
	require.NoError(t, err)
	require.Len(t, list.Products, 3)
	assert.Equal(t, "C", list.Products[0].Name)
	assert.Equal(t, pagination.MaxLimit, list.Pagination.Limit)
}

func TestSearchRequiresQuery(t *testing.T) {
	svc, conn, _ := newTestService(t)
	seedProduct(t, conn, func(p *models.Product) { p.Name = "Silk Saree"; p.Tags = []string{"wedding"} })
	seedProduct(t, conn, nil)

	_, err := svc.Search(context.Background(), "  ", "", pagination.Params{})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	list, err := svc.Search(context.Background(), "WEDDING", "", pagination.Params{})
	require.NoError(t, err)
	require.Len(t, list.Products, 1)
	assert.Equal(t, "Silk Saree", list.Products[0].Name)
}

func TestGetProductMalformedIDIsNotFound(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.GetProduct(context.Background(), "not-a-uuid")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestFeaturedIsCachedAndInvalidated(t *testing.T) {
	svc, conn, mem := newTestService(t)
	seedProduct(t, conn, func(p *models.Product) { p.Featured = true })

	rows, err := svc.Featured(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, mem.Has("vb:cache:products:featured"))
	assert.Equal(t, time.Minute, mem.TTL("vb:cache:products:featured"))

	// A row inserted behind the service's back stays invisible until invalidation.
	seedProduct(t, conn, func(p *models.Product) { p.Featured = true; p.Name = "Late" })
	rows, err = svc.Featured(context.Background())
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	_, err = svc.CreateProduct(context.Background(), CreateProductInput{Name: "New", Price: decimal.NewFromInt(10), Category: "fashion", Stock: 1})
	require.NoError(t, err)
	assert.False(t, mem.Has("vb:cache:products:featured"))

	rows, err = svc.Featured(context.Background())
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestUpdateStockDerivesStatus(t *testing.T) {
	svc, conn, _ := newTestService(t)
	p := seedProduct(t, conn, nil)

	updated, err := svc.UpdateStock(context.Background(), p.ID.String(), 0)
	require.NoError(t, err)
	assert.Equal(t, enums.ProductStatusOutOfStock, updated.Status)

	updated, err = svc.UpdateStock(context.Background(), p.ID.String(), 7)
	require.NoError(t, err)
	assert.Equal(t, enums.ProductStatusActive, updated.Status)
	assert.Equal(t, 7, updated.Stock)

	_, err = svc.UpdateStock(context.Background(), p.ID.String(), -1)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	retired := seedProduct(t, conn, func(p *models.Product) { p.Status = enums.ProductStatusDiscontinued })
	updated, err = svc.UpdateStock(context.Background(), retired.ID.String(), 4)
	require.NoError(t, err)
	assert.Equal(t, enums.ProductStatusDiscontinued, updated.Status)
}

func TestDeleteUnknownProduct(t *testing.T) {
	svc, _, _ := newTestService(t)
	err := svc.DeleteProduct(context.Background(), "3f1e5d1c-8a3b-4b8e-9f6a-0c2d3e4f5a6b")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestDecrementStockGuard(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	p := seedProduct(t, conn, func(p *models.Product) { p.Stock = 2 })

	ok, err := repo.DecrementStock(context.Background(), p.ID, 3)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.DecrementStock(context.Background(), p.ID, 2)
	require.NoError(t, err)
	assert.True(t, ok)

	reloaded, err := repo.FindByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, reloaded.Stock)
}
