package cart

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	pkgerrors "github.com/victorybazaar/victorybazaar-backend/pkg/errors"
)

// Coupon is a flat discount redeemable against a cart.
type Coupon struct {
	Code           string
	Discount       decimal.Decimal
	ExpiresAt      *time.Time
	MaxUsesPerUser int
}

// Expired reports whether the coupon can no longer be applied at now.
func (c Coupon) Expired(now time.Time) bool {
	return c.ExpiresAt != nil && !now.Before(*c.ExpiresAt)
}

// UsageStore counts redemptions per user. *redis.Client satisfies it.
type UsageStore interface {
	GetInt(ctx context.Context, key string) (int64, error)
	Incr(ctx context.Context, key string) (int64, error)
	CouponUsageKey(code, userID string) string
}

// CouponBook resolves coupon codes and enforces per-user limits.
type CouponBook struct {
	coupons map[string]Coupon
	usage   UsageStore
	now     func() time.Time
}

type couponFile struct {
	Coupons []struct {
		Code           string     `yaml:"code"`
		Discount       string     `yaml:"discount"`
		ExpiresAt      *time.Time `yaml:"expiresAt"`
		MaxUsesPerUser int        `yaml:"maxUsesPerUser"`
	} `yaml:"coupons"`
}

// DefaultCoupons is the built-in table used when no coupon file is configured.
func DefaultCoupons() []Coupon {
	return []Coupon{
		{Code: "WELCOME10", Discount: decimal.NewFromInt(10)},
		{Code: "FIRSTORDER", Discount: decimal.NewFromInt(50)},
		{Code: "VICTORY20", Discount: decimal.NewFromInt(20)},
	}
}

// NewCouponBook indexes coupons by upper-cased code. usage may be nil, which
// disables per-user limits.
func NewCouponBook(coupons []Coupon, usage UsageStore) *CouponBook {
	book := &CouponBook{
		coupons: make(map[string]Coupon, len(coupons)),
		usage:   usage,
		now:     time.Now,
	}
	for _, c := range coupons {
		c.Code = normalizeCode(c.Code)
		book.coupons[c.Code] = c
	}
	return book
}

// LoadCouponBook reads a YAML coupon file; an empty path yields the defaults.
func LoadCouponBook(path string, usage UsageStore) (*CouponBook, error) {
	if strings.TrimSpace(path) == "" {
		return NewCouponBook(DefaultCoupons(), usage), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read coupon file: %w", err)
	}
	coupons, err := ParseCoupons(raw)
	if err != nil {
		return nil, err
	}
	return NewCouponBook(coupons, usage), nil
}

// ParseCoupons decodes the YAML coupon document.
func ParseCoupons(raw []byte) ([]Coupon, error) {
	var doc couponFile
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse coupon file: %w", err)
	}
	out := make([]Coupon, 0, len(doc.Coupons))
	for _, entry := range doc.Coupons {
		code := normalizeCode(entry.Code)
		if code == "" {
			return nil, fmt.Errorf("coupon without code")
		}
		discount, err := decimal.NewFromString(strings.TrimSpace(entry.Discount))
		if err != nil {
			return nil, fmt.Errorf("coupon %s: invalid discount: %w", code, err)
		}
		if !discount.IsPositive() {
			return nil, fmt.Errorf("coupon %s: discount must be positive", code)
		}
		if entry.MaxUsesPerUser < 0 {
			return nil, fmt.Errorf("coupon %s: maxUsesPerUser cannot be negative", code)
		}
		out = append(out, Coupon{
			Code:           code,
			Discount:       discount,
			ExpiresAt:      entry.ExpiresAt,
			MaxUsesPerUser: entry.MaxUsesPerUser,
		})
	}
	return out, nil
}

// Redeemable returns the coupon when userID may still apply it.
func (b *CouponBook) Redeemable(ctx context.Context, userID, code string) (Coupon, error) {
	coupon, ok := b.coupons[normalizeCode(code)]
	if !ok {
		return Coupon{}, pkgerrors.New(pkgerrors.CodeInvalidCoupon, "invalid coupon code")
	}
	if coupon.Expired(b.now()) {
		return Coupon{}, pkgerrors.New(pkgerrors.CodeInvalidCoupon, "coupon has expired")
	}
	if coupon.MaxUsesPerUser > 0 && b.usage != nil {
		used, err := b.usage.GetInt(ctx, b.usage.CouponUsageKey(coupon.Code, userID))
		if err != nil {
			return Coupon{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read coupon usage")
		}
		if used >= int64(coupon.MaxUsesPerUser) {
			return Coupon{}, pkgerrors.New(pkgerrors.CodeInvalidCoupon, "coupon usage limit reached")
		}
	}
	return coupon, nil
}

// RecordUsage counts one redemption once an order consumed the coupon.
func (b *CouponBook) RecordUsage(ctx context.Context, userID, code string) error {
	if b.usage == nil || strings.TrimSpace(code) == "" {
		return nil
	}
	_, err := b.usage.Incr(ctx, b.usage.CouponUsageKey(normalizeCode(code), userID))
	return err
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
