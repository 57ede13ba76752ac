package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisLedgerTest(t *testing.T) (*RedisRefreshLedger, *miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisRefreshLedger(rdb, "rt", nil), mr, rdb
}

func TestRedisRefreshLedgerContract(t *testing.T) {
	runLedgerContract(t, func(t *testing.T) RefreshLedger {
		ledger, _, _ := newRedisLedgerTest(t)
		return ledger
	})
}

func TestRedisRefreshLedgerStoresDigestWithTTL(t *testing.T) {
	ctx := context.Background()
	ledger, mr, rdb := newRedisLedgerTest(t)

	require.NoError(t, ledger.Insert(ctx, ledgerEntry("raw-token", "u1")))

	key := "rt:tok:" + HashToken("raw-token")
	assert.True(t, mr.Exists(key))
	assert.False(t, mr.Exists("rt:tok:raw-token"))
	ttl := mr.TTL(key)
	assert.Greater(t, ttl, 59*time.Minute+LedgerExpiryGrace)
	assert.LessOrEqual(t, ttl, time.Hour+LedgerExpiryGrace)

	members, err := rdb.SMembers(ctx, "rt:owner:u1").Result()
	require.NoError(t, err)
	assert.Equal(t, []string{HashToken("raw-token")}, members)

	// Still present at exp so the caller can tell expiry from revocation.
	mr.FastForward(time.Hour + time.Second)
	_, err = ledger.FindByToken(ctx, "raw-token")
	assert.NoError(t, err)

	mr.FastForward(LedgerExpiryGrace)
	_, err = ledger.FindByToken(ctx, "raw-token")
	assert.ErrorIs(t, err, ErrLedgerEntryNotFound)
}

func TestRedisRefreshLedgerDeleteCleansOwnerIndex(t *testing.T) {
	ctx := context.Background()
	ledger, _, rdb := newRedisLedgerTest(t)

	require.NoError(t, ledger.Insert(ctx, ledgerEntry("t1", "u1")))
	require.NoError(t, ledger.Insert(ctx, ledgerEntry("t2", "u1")))

	removed, err := ledger.DeleteByToken(ctx, "t1")
	require.NoError(t, err)
	assert.True(t, removed)

	members, err := rdb.SMembers(ctx, "rt:owner:u1").Result()
	require.NoError(t, err)
	assert.Equal(t, []string{HashToken("t2")}, members)

	require.NoError(t, ledger.DeleteAllFor(ctx, "u1"))
	exists, err := rdb.Exists(ctx, "rt:owner:u1").Result()
	require.NoError(t, err)
	assert.Zero(t, exists)
}

func TestRedisRefreshLedgerDeleteAllForRemovesEveryKey(t *testing.T) {
	ctx := context.Background()
	ledger, mr, _ := newRedisLedgerTest(t)

	tokens := []string{"a", "b", "c"}
	for _, tok := range tokens {
		require.NoError(t, ledger.Insert(ctx, ledgerEntry(tok, "u1")))
	}
	require.NoError(t, ledger.Insert(ctx, ledgerEntry("other", "u2")))

	require.NoError(t, ledger.DeleteAllFor(ctx, "u1"))

	for _, tok := range tokens {
		assert.False(t, mr.Exists("rt:tok:"+HashToken(tok)), tok)
	}
	assert.False(t, mr.Exists("rt:owner:u1"))
	assert.True(t, mr.Exists("rt:tok:"+HashToken("other")))
	assert.True(t, mr.Exists("rt:owner:u2"))
}

func TestRedisRefreshLedgerDeleteAllForWithConcurrentInserts(t *testing.T) {
	ctx := context.Background()
	ledger, mr, _ := newRedisLedgerTest(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_ = ledger.Insert(ctx, ledgerEntry(fmt.Sprintf("tok-%d", i), "u1"))
		}(i)
		go func() {
			defer wg.Done()
			_ = ledger.DeleteAllFor(ctx, "u1")
		}()
	}
	wg.Wait()

	// Every token key left behind must still be reachable through the owner index.
	require.NoError(t, ledger.DeleteAllFor(ctx, "u1"))
	for i := 0; i < 20; i++ {
		assert.False(t, mr.Exists("rt:tok:"+HashToken(fmt.Sprintf("tok-%d", i))))
	}
	assert.False(t, mr.Exists("rt:owner:u1"))
}

func TestRedisRefreshLedgerUnavailable(t *testing.T) {
	ctx := context.Background()
	ledger, mr, _ := newRedisLedgerTest(t)
	mr.Close()

	_, err := ledger.FindByToken(ctx, "tok")
	assert.ErrorIs(t, err, ErrStoreUnavailable)

	err = ledger.Insert(ctx, ledgerEntry("tok", "u1"))
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}
