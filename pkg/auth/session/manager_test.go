package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	redislib "github.com/redis/go-redis/v9"
)

type mockStore struct {
	mu   sync.Mutex
	data map[string]string
	ttls map[string]time.Duration
	err  error
}

func newMockStore() *mockStore {
	return &mockStore{data: make(map[string]string), ttls: make(map[string]time.Duration)}
}

func (m *mockStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = fmt.Sprint(value)
	m.ttls[key] = ttl
	return nil
}

func (m *mockStore) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	val, ok := m.data[key]
	if !ok {
		return "", redislib.Nil
	}
	return val, nil
}

func (m *mockStore) RevokedTokenKey(tokenID string) string {
	return fmt.Sprintf("revoked:%s", tokenID)
}

func TestRevokeAndCheck(t *testing.T) {
	store := newMockStore()
	manager := &Manager{store: store, keyer: store}
	ctx := context.Background()

	revoked, err := manager.IsRevoked(ctx, "jti-1")
	if err != nil || revoked {
		t.Fatalf("fresh token should not be revoked: %v %v", revoked, err)
	}

	if err := manager.Revoke(ctx, "jti-1", 20*time.Minute); err != nil {
		t.Fatalf("revoke failed: %v", err)
	}
	revoked, err = manager.IsRevoked(ctx, "jti-1")
	if err != nil || !revoked {
		t.Fatalf("expected revoked token: %v %v", revoked, err)
	}
	if store.ttls["revoked:jti-1"] != 20*time.Minute {
		t.Fatalf("unexpected ttl %v", store.ttls["revoked:jti-1"])
	}
}

func TestRevokeAppliesMinimumTTL(t *testing.T) {
	store := newMockStore()
	manager := &Manager{store: store, keyer: store}
	if err := manager.Revoke(context.Background(), "jti-2", time.Second); err != nil {
		t.Fatalf("revoke failed: %v", err)
	}
	if store.ttls["revoked:jti-2"] != minRevocationTTL {
		t.Fatalf("expected minimum ttl, got %v", store.ttls["revoked:jti-2"])
	}
	if err := manager.Revoke(context.Background(), " ", time.Minute); err == nil {
		t.Fatal("expected blank token id to fail")
	}
}

func TestIsRevokedPropagatesStoreErrors(t *testing.T) {
	store := newMockStore()
	store.err = errors.New("redis down")
	manager := &Manager{store: store, keyer: store}
	if _, err := manager.IsRevoked(context.Background(), "jti"); err == nil {
		t.Fatal("expected store error")
	}
}
