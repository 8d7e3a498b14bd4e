package idempotency

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgredis "github.com/victorybazaar/victorybazaar-backend/pkg/redis"
	"github.com/victorybazaar/victorybazaar-backend/pkg/redis/redistest"
)

func newLedger(t *testing.T, ttl time.Duration) (*Ledger, *redistest.Memory, *pkgredis.Client) {
	t.Helper()
	mem := redistest.NewMemory()
	client := pkgredis.NewWithStore(mem)
	ledger, err := NewLedger(client, "analytics", ttl)
	require.NoError(t, err)
	return ledger, mem, client
}

func TestClaimOnlyOnce(t *testing.T) {
	ledger, mem, client := newLedger(t, time.Hour)
	ctx := context.Background()
	id := uuid.New()

	first, err := ledger.Claim(ctx, id)
	require.NoError(t, err)
	assert.True(t, first)

	again, err := ledger.Claim(ctx, id)
	require.NoError(t, err)
	assert.False(t, again)

	key := client.IdempotencyKey("evt:analytics", id.String())
	assert.True(t, mem.Has(key))
	assert.Equal(t, time.Hour, mem.TTL(key))
}

func TestReleaseAllowsRetry(t *testing.T) {
	ledger, _, _ := newLedger(t, time.Hour)
	ctx := context.Background()
	id := uuid.New()

	_, err := ledger.Claim(ctx, id)
	require.NoError(t, err)
	require.NoError(t, ledger.Release(ctx, id))

	claimed, err := ledger.Claim(ctx, id)
	require.NoError(t, err)
	assert.True(t, claimed)
}

func TestConsumersDoNotShareClaims(t *testing.T) {
	mem := redistest.NewMemory()
	client := pkgredis.NewWithStore(mem)
	a, err := NewLedger(client, "analytics", time.Hour)
	require.NoError(t, err)
	b, err := NewLedger(client, "notifications", time.Hour)
	require.NoError(t, err)

	id := uuid.New()
	ok, err := a.Claim(context.Background(), id)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = b.Claim(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestNewLedgerValidation(t *testing.T) {
	client := pkgredis.NewWithStore(redistest.NewMemory())

	_, err := NewLedger(nil, "analytics", time.Hour)
	assert.Error(t, err)
	_, err = NewLedger(client, "", time.Hour)
	assert.Error(t, err)
	_, err = NewLedger(client, "analytics", -time.Second)
	assert.Error(t, err)

	ledger, err := NewLedger(client, "analytics", 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultTTL, ledger.ttl)
	assert.Equal(t, "analytics", ledger.Consumer())
}

func TestNilEventIDRejected(t *testing.T) {
	ledger, _, _ := newLedger(t, time.Hour)
	_, err := ledger.Claim(context.Background(), uuid.Nil)
	assert.Error(t, err)
	assert.Error(t, ledger.Release(context.Background(), uuid.Nil))
}
