package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/spec-kit/shop-auth/internal/domain"
)

// PostgresRefreshLedger stores digests of refresh tokens in the refresh_tokens table.
type PostgresRefreshLedger struct {
	db DBTX
}

// NewPostgresRefreshLedger returns a ledger backed by the refresh_tokens table.
func NewPostgresRefreshLedger(db DBTX) *PostgresRefreshLedger {
	return &PostgresRefreshLedger{db: db}
}

func (r *PostgresRefreshLedger) DeleteAllFor(ctx context.Context, ownerID string) error {
	const query = `DELETE FROM refresh_tokens WHERE user_id = $1`

	if _, err := r.db.Exec(ctx, query, ownerID); err != nil {
		return fmt.Errorf("%w: delete all for owner: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func (r *PostgresRefreshLedger) Insert(ctx context.Context, entry domain.RefreshLedgerEntry) error {
	const query = `
        INSERT INTO refresh_tokens (token_hash, user_id, created_at, expires_at)
        VALUES ($1, $2, $3, $4)`

	_, err := r.db.Exec(ctx, query,
		HashToken(entry.Token),
		entry.OwnerID,
		entry.CreatedAt,
		entry.ExpiresAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return ErrDuplicateToken
		}
		return fmt.Errorf("%w: insert: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func (r *PostgresRefreshLedger) FindByToken(ctx context.Context, token string) (*domain.RefreshLedgerEntry, error) {
	const query = `
        SELECT user_id, created_at, expires_at
        FROM refresh_tokens WHERE token_hash = $1`

	entry := domain.RefreshLedgerEntry{Token: token}
	if err := r.db.QueryRow(ctx, query, HashToken(token)).Scan(
		&entry.OwnerID,
		&entry.CreatedAt,
		&entry.ExpiresAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLedgerEntryNotFound
		}
		return nil, fmt.Errorf("%w: find: %v", ErrStoreUnavailable, err)
	}
	return &entry, nil
}

func (r *PostgresRefreshLedger) DeleteByToken(ctx context.Context, token string) (bool, error) {
	const query = `DELETE FROM refresh_tokens WHERE token_hash = $1`

	cmd, err := r.db.Exec(ctx, query, HashToken(token))
	if err != nil {
		return false, fmt.Errorf("%w: delete: %v", ErrStoreUnavailable, err)
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *PostgresRefreshLedger) PurgeExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	const query = `DELETE FROM refresh_tokens WHERE expires_at <= $1`

	cmd, err := r.db.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("%w: purge: %v", ErrStoreUnavailable, err)
	}
	return cmd.RowsAffected(), nil
}
