// Package idempotency keeps at-most-once bookkeeping for outbox consumers.
package idempotency

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/victorybazaar/victorybazaar-backend/pkg/redis"
)

// DefaultTTL covers the Pub/Sub redelivery horizon with room to spare.
const DefaultTTL = 7 * 24 * time.Hour

// Ledger claims event ids for one consumer. A claim is a SETNX on
// vb:idempotency:evt:<consumer>:<event_id> that expires after the TTL.
type Ledger struct {
	store    redis.IdempotencyStore
	consumer string
	ttl      time.Duration
}

func NewLedger(store redis.IdempotencyStore, consumer string, ttl time.Duration) (*Ledger, error) {
	switch {
	case store == nil:
		return nil, errors.New("idempotency store is required")
	case consumer == "":
		return nil, errors.New("consumer name is required")
	case ttl < 0:
		return nil, errors.New("ttl must be non-negative")
	case ttl == 0:
		ttl = DefaultTTL
	}
	return &Ledger{store: store, consumer: consumer, ttl: ttl}, nil
}

// Claim reports whether this call took ownership of eventID. False means
// an earlier delivery already claimed it.
func (l *Ledger) Claim(ctx context.Context, eventID uuid.UUID) (bool, error) {
	key, err := l.key(eventID)
	if err != nil {
		return false, err
	}
	return l.store.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), l.ttl)
}

// Release drops a claim so a redelivery can try again.
func (l *Ledger) Release(ctx context.Context, eventID uuid.UUID) error {
	key, err := l.key(eventID)
	if err != nil {
		return err
	}
	return l.store.Del(ctx, key)
}

func (l *Ledger) Consumer() string { return l.consumer }

func (l *Ledger) key(eventID uuid.UUID) (string, error) {
	if eventID == uuid.Nil {
		return "", errors.New("event id is required")
	}
	return l.store.IdempotencyKey("evt:"+l.consumer, eventID.String()), nil
}
