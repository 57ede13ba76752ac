package repository

import (
	"context"
	"sync"
	"time"

	"github.com/spec-kit/shop-auth/internal/domain"
)

type memoryLedgerRow struct {
	ownerID   string
	createdAt time.Time
	expiresAt time.Time
}

// MemoryRefreshLedger keeps entries in process memory. It is meant for tests and
// single-process development setups.
type MemoryRefreshLedger struct {
	mu      sync.Mutex
	rows    map[string]memoryLedgerRow
	byOwner map[string]map[string]struct{}
}

// NewMemoryRefreshLedger creates an empty ledger.
func NewMemoryRefreshLedger() *MemoryRefreshLedger {
	return &MemoryRefreshLedger{
		rows:    make(map[string]memoryLedgerRow),
		byOwner: make(map[string]map[string]struct{}),
	}
}

func (l *MemoryRefreshLedger) DeleteAllFor(ctx context.Context, ownerID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	for hash := range l.byOwner[ownerID] {
		delete(l.rows, hash)
	}
	delete(l.byOwner, ownerID)
	return nil
}

func (l *MemoryRefreshLedger) Insert(ctx context.Context, entry domain.RefreshLedgerEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	hash := HashToken(entry.Token)

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, exists := l.rows[hash]; exists {
		return ErrDuplicateToken
	}
	l.rows[hash] = memoryLedgerRow{ownerID: entry.OwnerID, createdAt: entry.CreatedAt, expiresAt: entry.ExpiresAt}
	owned, ok := l.byOwner[entry.OwnerID]
	if !ok {
		owned = make(map[string]struct{})
		l.byOwner[entry.OwnerID] = owned
	}
	owned[hash] = struct{}{}
	return nil
}

func (l *MemoryRefreshLedger) FindByToken(ctx context.Context, token string) (*domain.RefreshLedgerEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	row, ok := l.rows[HashToken(token)]
	if !ok {
		return nil, ErrLedgerEntryNotFound
	}
	return &domain.RefreshLedgerEntry{
		Token:     token,
		OwnerID:   row.ownerID,
		CreatedAt: row.createdAt,
		ExpiresAt: row.expiresAt,
	}, nil
}

func (l *MemoryRefreshLedger) DeleteByToken(ctx context.Context, token string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	hash := HashToken(token)

	l.mu.Lock()
	defer l.mu.Unlock()
	row, ok := l.rows[hash]
	if !ok {
		return false, nil
	}
	l.removeLocked(hash, row.ownerID)
	return true, nil
}

// PurgeExpired drops entries whose expiry is at or before cutoff.
func (l *MemoryRefreshLedger) PurgeExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	var purged int64
	for hash, row := range l.rows {
		if !row.expiresAt.IsZero() && !row.expiresAt.After(cutoff) {
			l.removeLocked(hash, row.ownerID)
			purged++
		}
	}
	return purged, nil
}

// CountFor returns the number of entries owned by ownerID.
func (l *MemoryRefreshLedger) CountFor(ownerID string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.byOwner[ownerID])
}

func (l *MemoryRefreshLedger) removeLocked(hash, ownerID string) {
	delete(l.rows, hash)
	if owned, ok := l.byOwner[ownerID]; ok {
		delete(owned, hash)
		if len(owned) == 0 {
			delete(l.byOwner, ownerID)
		}
	}
}
