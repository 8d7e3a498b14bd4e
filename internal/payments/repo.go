package payments

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/victorybazaar/victorybazaar-backend/pkg/db/models"
	"github.com/victorybazaar/victorybazaar-backend/pkg/enums"
)

// Repository persists payments. Status changes go through Transition so
// concurrent writers cannot skip a state.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

func (r *Repository) Create(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

func (r *Repository) FindByNumber(ctx context.Context, paymentNumber string) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.WithContext(ctx).Where("payment_number = ?", paymentNumber).Take(&payment).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&payment).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *Repository) FindByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.WithContext(ctx).Where("order_id = ?", orderID).Take(&payment).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

// FindByGatewayRef matches a provider reference against either stored gateway id.
func (r *Repository) FindByGatewayRef(ctx context.Context, gateway enums.PaymentGateway, ref string) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.WithContext(ctx).
		Where("payment_gateway = ?", gateway).
		Where("gateway_order_id = ? OR gateway_payment_id = ?", ref, ref).
		Order("created_at DESC").
		Take(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// SaveIntent stores the references returned by gateway initialization.
func (r *Repository) SaveIntent(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// Transition applies updates only while the payment is in one of from.
func (r *Repository) Transition(ctx context.Context, id uuid.UUID, from []enums.PaymentStatus, updates map[string]any) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// MarkProcessing moves the payment to processing and counts the attempt.
func (r *Repository) MarkProcessing(ctx context.Context, id uuid.UUID, from []enums.PaymentStatus, at time.Time) (bool, error) {
	return r.Transition(ctx, id, from, map[string]any{
		"status":          enums.PaymentStatusProcessing,
		"attempts":        gorm.Expr("attempts + 1"),
		"last_attempt_at": at,
	})
}
