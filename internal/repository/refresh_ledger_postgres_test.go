package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPostgresLedgerTest(t *testing.T) (*PostgresRefreshLedger, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewPostgresRefreshLedger(mock), mock
}

func TestPostgresLedgerInsertStoresDigest(t *testing.T) {
	ledger, mock := newPostgresLedgerTest(t)
	entry := ledgerEntry("tok123", "u1")

	mock.ExpectExec(`INSERT INTO refresh_tokens`).
		WithArgs(HashToken("tok123"), "u1", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, ledger.Insert(context.Background(), entry))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresLedgerInsertDuplicate(t *testing.T) {
	ledger, mock := newPostgresLedgerTest(t)

	mock.ExpectExec(`INSERT INTO refresh_tokens`).
		WithArgs(HashToken("tok123"), "u1", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: pgUniqueViolation})

	err := ledger.Insert(context.Background(), ledgerEntry("tok123", "u1"))
	assert.ErrorIs(t, err, ErrDuplicateToken)
}

func TestPostgresLedgerInsertStoreError(t *testing.T) {
	ledger, mock := newPostgresLedgerTest(t)

	mock.ExpectExec(`INSERT INTO refresh_tokens`).
		WithArgs(HashToken("tok123"), "u1", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(errors.New("conn reset"))

	err := ledger.Insert(context.Background(), ledgerEntry("tok123", "u1"))
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestPostgresLedgerFind(t *testing.T) {
	ledger, mock := newPostgresLedgerTest(t)
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	expires := created.Add(7 * 24 * time.Hour)

	mock.ExpectQuery(`SELECT user_id, created_at, expires_at`).
		WithArgs(HashToken("tok123")).
		WillReturnRows(pgxmock.NewRows([]string{"user_id", "created_at", "expires_at"}).
			AddRow("u1", created, expires))

	got, err := ledger.FindByToken(context.Background(), "tok123")
	require.NoError(t, err)
	assert.Equal(t, "tok123", got.Token)
	assert.Equal(t, "u1", got.OwnerID)
	assert.Equal(t, expires, got.ExpiresAt)
}

func TestPostgresLedgerFindMissing(t *testing.T) {
	ledger, mock := newPostgresLedgerTest(t)

	mock.ExpectQuery(`SELECT user_id, created_at, expires_at`).
		WithArgs(HashToken("missing")).
		WillReturnError(pgx.ErrNoRows)

	_, err := ledger.FindByToken(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrLedgerEntryNotFound)
}

func TestPostgresLedgerDeleteByToken(t *testing.T) {
	ledger, mock := newPostgresLedgerTest(t)

	mock.ExpectExec(`DELETE FROM refresh_tokens WHERE token_hash`).
		WithArgs(HashToken("tok123")).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec(`DELETE FROM refresh_tokens WHERE token_hash`).
		WithArgs(HashToken("tok123")).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	removed, err := ledger.DeleteByToken(context.Background(), "tok123")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = ledger.DeleteByToken(context.Background(), "tok123")
	require.NoError(t, err)
	assert.False(t, removed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresLedgerDeleteAllFor(t *testing.T) {
	ledger, mock := newPostgresLedgerTest(t)

	mock.ExpectExec(`DELETE FROM refresh_tokens WHERE user_id`).
		WithArgs("u1").
		WillReturnResult(pgxmock.NewResult("DELETE", 3))

	require.NoError(t, ledger.DeleteAllFor(context.Background(), "u1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresLedgerPurgeExpired(t *testing.T) {
	ledger, mock := newPostgresLedgerTest(t)
	now := time.Now()

	mock.ExpectExec(`DELETE FROM refresh_tokens WHERE expires_at`).
		WithArgs(now).
		WillReturnResult(pgxmock.NewResult("DELETE", 4))

	purged, err := ledger.PurgeExpired(context.Background(), now)
	require.NoError(t, err)
	assert.EqualValues(t, 4, purged)
}
