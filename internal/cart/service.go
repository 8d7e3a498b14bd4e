package cart

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/victorybazaar/victorybazaar-backend/internal/products"
	"github.com/victorybazaar/victorybazaar-backend/pkg/db"
	"github.com/victorybazaar/victorybazaar-backend/pkg/db/models"
	pkgerrors "github.com/victorybazaar/victorybazaar-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes cart operations for the authenticated user.
type Service interface {
	GetCart(ctx context.Context, userID string) (*CartView, error)
	AddItem(ctx context.Context, userID, productID string, quantity int) (*CartView, error)
	AddItemWithTx(ctx context.Context, tx *gorm.DB, userID string, productID uuid.UUID, quantity int) error
	UpdateItem(ctx context.Context, userID, productID string, quantity int) (*CartView, error)
	RemoveItem(ctx context.Context, userID, productID string) (*CartView, error)
	ClearCart(ctx context.Context, userID string) (*CartView, error)
	ClearCartWithTx(ctx context.Context, tx *gorm.DB, userID string) error
	LoadWithTx(ctx context.Context, tx *gorm.DB, userID string) (*models.Cart, error)
	Totals(ctx context.Context, userID string) (Totals, error)
	ApplyCoupon(ctx context.Context, userID, code string) (*CartView, error)
	RemoveCoupon(ctx context.Context, userID string) (*CartView, error)
}

// CartView is the cart plus its derived totals.
type CartView struct {
	Cart   *models.Cart `json:"cart"`
	Totals Totals       `json:"totals"`
}

type service struct {
	repo     *Repository
	products *products.Repository
	tx       txRunner
	coupons  *CouponBook
	pricing  Pricing
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo *Repository, productRepo *products.Repository, tx txRunner, coupons *CouponBook, pricing Pricing) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if productRepo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if coupons == nil {
		return nil, fmt.Errorf("coupon book required")
	}
	return &service{
		repo:     repo,
		products: productRepo,
		tx:       tx,
		coupons:  coupons,
		pricing:  pricing.OrDefault(),
	}, nil
}

func (s *service) GetCart(ctx context.Context, userID string) (*CartView, error) {
	var view *CartView
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		cart, err := s.repo.WithTx(tx).GetOrCreate(ctx, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
		}
		view = s.view(cart)
		return nil
	})
	return view, err
}

func (s *service) AddItem(ctx context.Context, userID, productID string, quantity int) (*CartView, error) {
	id, err := products.ParseID(productID)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, userID, func(tx *gorm.DB, repo *Repository, cart *models.Cart) error {
		return s.addItem(ctx, tx, repo, cart, id, quantity)
	})
}

// AddItemWithTx adds to the cart inside a transaction owned by the caller.
func (s *service) AddItemWithTx(ctx context.Context, tx *gorm.DB, userID string, productID uuid.UUID, quantity int) error {
	return s.mutateTx(ctx, tx, userID, func(tx *gorm.DB, repo *Repository, cart *models.Cart) error {
		return s.addItem(ctx, tx, repo, cart, productID, quantity)
	})
}

func (s *service) addItem(ctx context.Context, tx *gorm.DB, repo *Repository, cart *models.Cart, productID uuid.UUID, quantity int) error {
	if quantity < 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	product, err := s.products.WithTx(tx).FindByID(ctx, productID)
	if err != nil {
		if db.IsNotFound(err) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if !product.Purchasable() {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not available")
	}

	existing, found := cart.FindItem(productID)
	wanted := quantity
	if found {
		wanted += existing.Quantity
	}
	if wanted > product.Stock {
		return pkgerrors.Newf(pkgerrors.CodeInsufficientStock, "only %d units of %s available", product.Stock, product.Name).
			WithDetails(map[string]any{"productId": productID, "available": product.Stock, "requested": wanted})
	}

	if found {
		if err := repo.UpdateItemQuantity(ctx, existing.ID, wanted); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart item")
		}
		existing.Quantity = wanted
		return nil
	}

	item := models.CartItem{
		CartID:     cart.ID,
		ProductID:  product.ID,
		Name:       product.Name,
		Image:      product.PrimaryImage(),
		UnitPrice:  product.Price,
		Quantity:   quantity,
		StockAtAdd: product.Stock,
	}
	if err := repo.InsertItem(ctx, &item); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert cart item")
	}
	cart.Items = append(cart.Items, item)
	return nil
}

func (s *service) UpdateItem(ctx context.Context, userID, productID string, quantity int) (*CartView, error) {
	if quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	id, err := products.ParseID(productID)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, userID, func(tx *gorm.DB, repo *Repository, cart *models.Cart) error {
		item, found := cart.FindItem(id)
		if !found {
			return pkgerrors.New(pkgerrors.CodeNotFound, "item not in cart")
		}
		product, err := s.products.WithTx(tx).FindByID(ctx, id)
		if err != nil {
			if db.IsNotFound(err) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
		}
		if quantity > product.Stock {
			return pkgerrors.Newf(pkgerrors.CodeInsufficientStock, "only %d units of %s available", product.Stock, product.Name)
		}
		if err := repo.UpdateItemQuantity(ctx, item.ID, quantity); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart item")
		}
		item.Quantity = quantity
		return nil
	})
}

func (s *service) RemoveItem(ctx context.Context, userID, productID string) (*CartView, error) {
	id, err := uuid.Parse(strings.TrimSpace(productID))
	if err != nil {
		// Unknown ids cannot be in the cart; removal is idempotent.
		return s.GetCart(ctx, userID)
	}
	return s.mutate(ctx, userID, func(_ *gorm.DB, repo *Repository, cart *models.Cart) error {
		if err := repo.DeleteItem(ctx, cart.ID, id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart item")
		}
		return nil
	})
}

func (s *service) ClearCart(ctx context.Context, userID string) (*CartView, error) {
	var view *CartView
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.ClearCartWithTx(ctx, tx, userID); err != nil {
			return err
		}
		cart, err := s.repo.WithTx(tx).FindByUser(ctx, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload cart")
		}
		view = s.view(cart)
		return nil
	})
	return view, err
}

// ClearCartWithTx empties the lines and drops the coupon; the cart row stays.
func (s *service) ClearCartWithTx(ctx context.Context, tx *gorm.DB, userID string) error {
	return s.mutateTx(ctx, tx, userID, func(_ *gorm.DB, repo *Repository, cart *models.Cart) error {
		if err := repo.DeleteItems(ctx, cart.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart items")
		}
		if err := repo.SetCoupon(ctx, cart.ID, nil, decimal.Zero); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear coupon")
		}
		return nil
	})
}

// LoadWithTx returns the cart, creating it if needed, on the caller's transaction.
func (s *service) LoadWithTx(ctx context.Context, tx *gorm.DB, userID string) (*models.Cart, error) {
	cart, err := s.repo.WithTx(tx).GetOrCreate(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return cart, nil
}

func (s *service) Totals(ctx context.Context, userID string) (Totals, error) {
	cart, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		if db.IsNotFound(err) {
			return Totals{}, nil
		}
		return Totals{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return s.pricing.CalculateTotals(cart.Items, cart.CouponDiscount), nil
}

func (s *service) ApplyCoupon(ctx context.Context, userID, code string) (*CartView, error) {
	coupon, err := s.coupons.Redeemable(ctx, userID, code)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, userID, func(_ *gorm.DB, repo *Repository, cart *models.Cart) error {
		if err := repo.SetCoupon(ctx, cart.ID, &coupon.Code, coupon.Discount); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "apply coupon")
		}
		return nil
	})
}

func (s *service) RemoveCoupon(ctx context.Context, userID string) (*CartView, error) {
	return s.mutate(ctx, userID, func(_ *gorm.DB, repo *Repository, cart *models.Cart) error {
		if err := repo.SetCoupon(ctx, cart.ID, nil, decimal.Zero); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove coupon")
		}
		return nil
	})
}

type mutation func(tx *gorm.DB, repo *Repository, cart *models.Cart) error

// mutate runs fn in its own transaction and returns the refreshed cart.
func (s *service) mutate(ctx context.Context, userID string, fn mutation) (*CartView, error) {
	var view *CartView
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.mutateTx(ctx, tx, userID, fn); err != nil {
			return err
		}
		cart, err := s.repo.WithTx(tx).FindByUser(ctx, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload cart")
		}
		view = s.view(cart)
		return nil
	})
	return view, err
}

// mutateTx applies fn then bumps the version; a lost race rolls the caller back.
func (s *service) mutateTx(ctx context.Context, tx *gorm.DB, userID string, fn mutation) error {
	repo := s.repo.WithTx(tx)
	cart, err := repo.GetOrCreate(ctx, userID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if err := fn(tx, repo, cart); err != nil {
		return err
	}
	ok, err := repo.BumpVersion(ctx, cart.ID, cart.Version)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "bump cart version")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeConflict, "cart was modified concurrently, retry")
	}
	return nil
}

func (s *service) view(cart *models.Cart) *CartView {
	if cart.Items == nil {
		cart.Items = []models.CartItem{}
	}
	return &CartView{Cart: cart, Totals: s.pricing.CalculateTotals(cart.Items, cart.CouponDiscount)}
}
