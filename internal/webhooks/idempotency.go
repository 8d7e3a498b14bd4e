package webhooks

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// DedupeStore is the Redis surface the guard needs.
type DedupeStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	WebhookKey(gateway, eventID string) string
}

// IdempotencyGuard marks webhook deliveries as seen with SETNX.
type IdempotencyGuard struct {
	store DedupeStore
	ttl   time.Duration
}

func NewIdempotencyGuard(store DedupeStore, ttl time.Duration) (*IdempotencyGuard, error) {
	if store == nil {
		return nil, errors.New("idempotency store is required")
	}
	if ttl < 0 {
		return nil, errors.New("ttl must be non-negative")
	}
	return &IdempotencyGuard{store: store, ttl: ttl}, nil
}

// CheckAndMark reports whether the event was already processed, marking it otherwise.
func (g *IdempotencyGuard) CheckAndMark(ctx context.Context, gateway, eventID string) (bool, error) {
	if eventID == "" {
		return false, errors.New("event id is required")
	}
	set, err := g.store.SetNX(ctx, g.store.WebhookKey(gateway, eventID), "1", g.ttl)
	if err != nil {
		return false, fmt.Errorf("set idempotency key: %w", err)
	}
	return !set, nil
}

// Delete releases the mark so the provider's retry is processed.
func (g *IdempotencyGuard) Delete(ctx context.Context, gateway, eventID string) error {
	if eventID == "" {
		return errors.New("event id is required")
	}
	return g.store.Del(ctx, g.store.WebhookKey(gateway, eventID))
}
