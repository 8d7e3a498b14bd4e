package products

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/victorybazaar/victorybazaar-backend/pkg/db"
	"github.com/victorybazaar/victorybazaar-backend/pkg/db/models"
	pkgerrors "github.com/victorybazaar/victorybazaar-backend/pkg/errors"
)

// Inventory moves stock on behalf of order placement and cancellation. All
// calls run on the caller's transaction.
type Inventory struct {
	repo *Repository
}

func NewInventory(repo *Repository) *Inventory {
	return &Inventory{repo: repo}
}

// Reserve loads the product and takes qty units with a single guarded
// update, so two orders can never both take the last unit.
func (i *Inventory) Reserve(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) (*models.Product, error) {
	if qty < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	repo := i.repo.WithTx(tx)
	product, err := repo.FindByID(ctx, productID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.Newf(pkgerrors.CodeNotFound, "product %s not found", productID)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if !product.Purchasable() {
		return nil, pkgerrors.Newf(pkgerrors.CodeNotFound, "product %s is not available", product.Name)
	}
	ok, err := repo.DecrementStock(ctx, productID, qty)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reserve stock")
	}
	if !ok {
		return nil, pkgerrors.Newf(pkgerrors.CodeInsufficientStock, "insufficient stock for %s", product.Name).
			WithDetails(map[string]any{"productId": productID, "requested": qty, "available": product.Stock})
	}
	product.Stock -= qty
	return product, nil
}

// Release returns qty units. Missing products are ignored.
func (i *Inventory) Release(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error {
	if qty < 1 {
		return nil
	}
	if err := i.repo.WithTx(tx).IncrementStock(ctx, productID, qty); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "release stock")
	}
	return nil
}
