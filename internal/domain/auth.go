package domain

import "time"

// RefreshLedgerEntry is a persisted record of a currently valid refresh token.
// Token holds the raw value as presented by the caller; stores keep only its digest.
type RefreshLedgerEntry struct {
	Token     string
	OwnerID   string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// TokenPair is the result of a login or a rotation.
type TokenPair struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}
