package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/spec-kit/shop-auth/internal/domain"
)

// SQLiteRefreshLedger stores digests in a local SQLite file. It suits single-node
// deployments where running Postgres or Redis for sessions is not warranted.
type SQLiteRefreshLedger struct {
	db *sql.DB
}

// NewSQLiteRefreshLedger wraps an open SQLite handle whose schema is migrated.
func NewSQLiteRefreshLedger(db *sql.DB) *SQLiteRefreshLedger {
	return &SQLiteRefreshLedger{db: db}
}

func (r *SQLiteRefreshLedger) DeleteAllFor(ctx context.Context, ownerID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE user_id = ?`, ownerID); err != nil {
		return fmt.Errorf("%w: delete all for owner: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func (r *SQLiteRefreshLedger) Insert(ctx context.Context, entry domain.RefreshLedgerEntry) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO refresh_tokens (token_hash, user_id, created_at, expires_at)
		 VALUES (?, ?, ?, ?)`,
		HashToken(entry.Token),
		entry.OwnerID,
		entry.CreatedAt.Unix(),
		entry.ExpiresAt.Unix(),
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
			return ErrDuplicateToken
		}
		return fmt.Errorf("%w: insert: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func (r *SQLiteRefreshLedger) FindByToken(ctx context.Context, token string) (*domain.RefreshLedgerEntry, error) {
	var ownerID string
	var createdAt, expiresAt int64

	err := r.db.QueryRowContext(ctx,
		`SELECT user_id, created_at, expires_at FROM refresh_tokens WHERE token_hash = ?`,
		HashToken(token),
	).Scan(&ownerID, &createdAt, &expiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrLedgerEntryNotFound
		}
		return nil, fmt.Errorf("%w: find: %v", ErrStoreUnavailable, err)
	}

	return &domain.RefreshLedgerEntry{
		Token:     token,
		OwnerID:   ownerID,
		CreatedAt: time.Unix(createdAt, 0).UTC(),
		ExpiresAt: time.Unix(expiresAt, 0).UTC(),
	}, nil
}

func (r *SQLiteRefreshLedger) DeleteByToken(ctx context.Context, token string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE token_hash = ?`, HashToken(token))
	if err != nil {
		return false, fmt.Errorf("%w: delete: %v", ErrStoreUnavailable, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: delete: %v", ErrStoreUnavailable, err)
	}
	return affected > 0, nil
}

func (r *SQLiteRefreshLedger) PurgeExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE expires_at <= ?`, cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("%w: purge: %v", ErrStoreUnavailable, err)
	}
	return res.RowsAffected()
}
