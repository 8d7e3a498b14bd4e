package products

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/victorybazaar/victorybazaar-backend/pkg/db/dbtest"
	"github.com/victorybazaar/victorybazaar-backend/pkg/db/models"
	"github.com/victorybazaar/victorybazaar-backend/pkg/enums"
	pkgerrors "github.com/victorybazaar/victorybazaar-backend/pkg/errors"
)

func TestInventoryReserveAndRelease(t *testing.T) {
	conn := dbtest.Open(t)
	p := seedProduct(t, conn, func(p *models.Product) { p.Stock = 2 })
	inv := NewInventory(NewRepository(conn))
	ctx := context.Background()

	reserved, err := inv.Reserve(ctx, conn, p.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 0, reserved.Stock)

	_, err = inv.Reserve(ctx, conn, p.ID, 1)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock))

	var drained models.Product
	require.NoError(t, conn.First(&drained, "id = ?", p.ID).Error)
	assert.Equal(t, enums.ProductStatusOutOfStock, drained.Status)

	require.NoError(t, inv.Release(ctx, conn, p.ID, 2))
	var reloaded models.Product
	require.NoError(t, conn.First(&reloaded, "id = ?", p.ID).Error)
	assert.Equal(t, 2, reloaded.Stock)
	assert.Equal(t, enums.ProductStatusActive, reloaded.Status)
}

func TestInventoryReserveOutOfStockIsInsufficient(t *testing.T) {
	conn := dbtest.Open(t)
	p := seedProduct(t, conn, func(p *models.Product) {
		p.Stock = 0
		p.Status = enums.ProductStatusOutOfStock
	})
	inv := NewInventory(NewRepository(conn))

	_, err := inv.Reserve(context.Background(), conn, p.ID, 1)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock))
}

func TestInventoryReleaseKeepsDiscontinuedOffSale(t *testing.T) {
	conn := dbtest.Open(t)
	p := seedProduct(t, conn, func(p *models.Product) {
		p.Stock = 0
		p.Status = enums.ProductStatusDiscontinued
	})
	inv := NewInventory(NewRepository(conn))

	require.NoError(t, inv.Release(context.Background(), conn, p.ID, 1))
	var reloaded models.Product
	require.NoError(t, conn.First(&reloaded, "id = ?", p.ID).Error)
	assert.Equal(t, 1, reloaded.Stock)
	assert.Equal(t, enums.ProductStatusDiscontinued, reloaded.Status)
}

func TestInventoryReserveRejectsMissingAndInactive(t *testing.T) {
	conn := dbtest.Open(t)
	inv := NewInventory(NewRepository(conn))
	ctx := context.Background()

	_, err := inv.Reserve(ctx, conn, uuid.New(), 1)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	p := seedProduct(t, conn, func(p *models.Product) { p.Status = enums.ProductStatusInactive })
	_, err = inv.Reserve(ctx, conn, p.ID, 1)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestInventoryReserveRollsBackWithTransaction(t *testing.T) {
	conn := dbtest.Open(t)
	p := seedProduct(t, conn, func(p *models.Product) { p.Stock = 3 })
	inv := NewInventory(NewRepository(conn))

	err := conn.Transaction(func(tx *gorm.DB) error {
		if _, err := inv.Reserve(context.Background(), tx, p.ID, 3); err != nil {
			return err
		}
		return pkgerrors.New(pkgerrors.CodeInternal, "abort")
	})
	require.Error(t, err)

	var reloaded models.Product
	require.NoError(t, conn.First(&reloaded, "id = ?", p.ID).Error)
	assert.Equal(t, 3, reloaded.Stock)
}
