// Package sequence allocates the human-readable order and payment numbers.
package sequence

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/victorybazaar/victorybazaar-backend/pkg/db/models"
)

const (
	OrderCounter   = "order"
	PaymentCounter = "payment"
)

var prefixes = map[string]string{
	OrderCounter:   "VB",
	PaymentCounter: "PAY",
}

// Next increments the named counter inside tx and returns the formatted
// identifier, e.g. VB000042. The row lock serialises concurrent callers.
func Next(ctx context.Context, tx *gorm.DB, name string) (string, error) {
	prefix, ok := prefixes[name]
	if !ok {
		return "", fmt.Errorf("unknown counter %q", name)
	}

	res := tx.WithContext(ctx).
		Model(&models.Counter{}).
		Where("name = ?", name).
		UpdateColumn("value", gorm.Expr("value + 1"))
	if res.Error != nil {
		return "", fmt.Errorf("increment %s counter: %w", name, res.Error)
	}
	if res.RowsAffected == 0 {
		if err := tx.WithContext(ctx).
			Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.Counter{Name: name, Value: 1}).Error; err != nil {
			return "", fmt.Errorf("seed %s counter: %w", name, err)
		}
	}

	var counter models.Counter
	if err := tx.WithContext(ctx).Where("name = ?", name).Take(&counter).Error; err != nil {
		return "", fmt.Errorf("read %s counter: %w", name, err)
	}
	return Format(prefix, counter.Value), nil
}

// Format renders a counter value with its prefix, zero padded to six digits.
func Format(prefix string, value int64) string {
	return fmt.Sprintf("%s%06d", prefix, value)
}
