package products

import (
	"context"
	"encoding/json"
	"time"

	"github.com/victorybazaar/victorybazaar-backend/pkg/db/models"
)

const (
	featuredCacheName = "featured"
	trendingCacheName = "trending"
)

// CacheStore is satisfied by *redis.Client.
type CacheStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	CacheKey(parts ...string) string
}

// listCache is a read-through cache for the short featured and trending lists.
type listCache struct {
	store CacheStore
	ttl   time.Duration
}

func newListCache(store CacheStore, ttl time.Duration) *listCache {
	if store == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &listCache{store: store, ttl: ttl}
}

func (c *listCache) key(name string) string {
	return c.store.CacheKey("products", name)
}

// get returns the cached list; ok is false on a miss or an unreadable entry.
func (c *listCache) get(ctx context.Context, name string) ([]models.Product, bool) {
	if c == nil {
		return nil, false
	}
	raw, err := c.store.Get(ctx, c.key(name))
	if err != nil {
		return nil, false
	}
	var rows []models.Product
	if err := json.Unmarshal([]byte(raw), &rows); err != nil {
		return nil, false
	}
	return rows, true
}

func (c *listCache) set(ctx context.Context, name string, rows []models.Product) error {
	if c == nil {
		return nil
	}
	payload, err := json.Marshal(rows)
	if err != nil {
		return err
	}
	return c.store.Set(ctx, c.key(name), string(payload), c.ttl)
}

func (c *listCache) invalidate(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.store.Del(ctx, c.key(featuredCacheName), c.key(trendingCacheName))
}
