package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/shop-auth/internal/domain"
	"github.com/spec-kit/shop-auth/internal/repository"
)

func TestPurgeOnceRemovesExpiredEntries(t *testing.T) {
	ledger := repository.NewMemoryRefreshLedger()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()

	require.NoError(t, ledger.Insert(ctx, domain.RefreshLedgerEntry{Token: "old", OwnerID: "u1", ExpiresAt: now.Add(-repository.LedgerExpiryGrace - time.Minute)}))
	require.NoError(t, ledger.Insert(ctx, domain.RefreshLedgerEntry{Token: "just-expired", OwnerID: "u1", ExpiresAt: now}))
	require.NoError(t, ledger.Insert(ctx, domain.RefreshLedgerEntry{Token: "live", OwnerID: "u1", ExpiresAt: now.Add(time.Hour)}))

	w := NewLedgerPurgeWorker(ledger, time.Minute, time.Second, nil)
	w.now = func() time.Time { return now }

	assert.Equal(t, int64(1), w.PurgeOnce(ctx))
	assert.Equal(t, 2, ledger.CountFor("u1"))

	_, err := ledger.FindByToken(ctx, "old")
	assert.ErrorIs(t, err, repository.ErrLedgerEntryNotFound)

	// Entries inside the grace window stay so a late refresh reports expiry.
	_, err = ledger.FindByToken(ctx, "just-expired")
	assert.NoError(t, err)
}

type failingPurger struct{}

func (failingPurger) PurgeExpired(context.Context, time.Time) (int64, error) {
	return 0, errors.New("disk full")
}

func TestPurgeOnceSwallowsErrors(t *testing.T) {
	w := NewLedgerPurgeWorker(failingPurger{}, time.Minute, time.Second, nil)
	assert.Equal(t, int64(0), w.PurgeOnce(context.Background()))
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	w := NewLedgerPurgeWorker(repository.NewMemoryRefreshLedger(), 10*time.Millisecond, time.Second, nil)

	go func() {
		w.Run(ctx)
		close(done)
	}()
	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}
