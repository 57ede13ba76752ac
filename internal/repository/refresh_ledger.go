package repository

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/spec-kit/shop-auth/internal/domain"
)

var (
	// ErrLedgerEntryNotFound is returned when no entry matches the presented token.
	ErrLedgerEntryNotFound = errors.New("refresh ledger entry not found")
	// ErrDuplicateToken is returned when an inserted token already exists.
	ErrDuplicateToken = errors.New("refresh token already recorded")
	// ErrStoreUnavailable wraps transport or driver failures of the backing store.
	ErrStoreUnavailable = errors.New("refresh ledger unavailable")
)

// LedgerExpiryGrace is how long an entry outlives the token's exp claim in
// the store. A token presented at or shortly after exp still finds its entry
// and is reported as expired rather than revoked.
const LedgerExpiryGrace = time.Hour

// RefreshLedger records the refresh tokens that are currently valid.
// Rows are never updated in place: rotation is delete followed by insert.
type RefreshLedger interface {
	// DeleteAllFor removes every entry owned by ownerID.
	DeleteAllFor(ctx context.Context, ownerID string) error
	// Insert records a new entry. It fails with ErrDuplicateToken on collision.
	Insert(ctx context.Context, entry domain.RefreshLedgerEntry) error
	// FindByToken returns ErrLedgerEntryNotFound when the token is absent.
	FindByToken(ctx context.Context, token string) (*domain.RefreshLedgerEntry, error)
	// DeleteByToken removes the entry and reports whether this call removed it.
	// Deleting an absent token is not an error.
	DeleteByToken(ctx context.Context, token string) (bool, error)
}

// ExpiredPurger is implemented by ledgers whose backend does not expire rows on its own.
// PurgeExpired removes entries whose expiry is at or before cutoff; callers
// pass a cutoff already shifted back by LedgerExpiryGrace.
type ExpiredPurger interface {
	PurgeExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

// HashToken returns the hex SHA-256 digest under which a token is stored.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
