package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/victorybazaar/victorybazaar-backend/internal/cart"
	"github.com/victorybazaar/victorybazaar-backend/pkg/db/models"
	"github.com/victorybazaar/victorybazaar-backend/pkg/enums"
	"github.com/victorybazaar/victorybazaar-backend/pkg/outbox"
	"github.com/victorybazaar/victorybazaar-backend/pkg/pagination"
)

// Repository defines persistence operations for orders and their items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	FindByNumber(ctx context.Context, orderNumber string) (*models.Order, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListByUser(ctx context.Context, userID string, status *enums.OrderStatus, params pagination.Params) ([]models.Order, int64, error)
	ListAll(ctx context.Context, filters AdminFilters, params pagination.Params) ([]models.Order, int64, error)
	Transition(ctx context.Context, id uuid.UUID, from enums.OrderStatus, updates map[string]any) (bool, error)
	UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status enums.OrderPaymentStatus) error
	FindUnpaidBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Inventory takes and returns product stock on the caller's transaction.
type Inventory interface {
	Reserve(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) (*models.Product, error)
	Release(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error
}

// CartSource supplies and clears the checkout cart.
type CartSource interface {
	LoadWithTx(ctx context.Context, tx *gorm.DB, userID string) (*models.Cart, error)
	ClearCartWithTx(ctx context.Context, tx *gorm.DB, userID string) error
}

// PurchaseRecorder credits wishlist statistics for purchased products.
type PurchaseRecorder interface {
	RecordPurchasesWithTx(ctx context.Context, tx *gorm.DB, userID string, productIDs []uuid.UUID) error
}

// CouponRedeemer re-checks a cart coupon at checkout and counts the
// redemption once the order committed. *cart.CouponBook satisfies it.
type CouponRedeemer interface {
	Redeemable(ctx context.Context, userID, code string) (cart.Coupon, error)
	RecordUsage(ctx context.Context, userID, code string) error
}

// PaymentCanceller voids any unsettled payment attached to a cancelled order.
type PaymentCanceller interface {
	CancelForOrderWithTx(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) error
}

// LoyaltyAwarder credits loyalty points when an order is delivered.
type LoyaltyAwarder interface {
	AwardPointsWithTx(ctx context.Context, tx *gorm.DB, userID string, points int) error
}
