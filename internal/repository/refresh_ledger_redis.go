package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/shop-auth/internal/domain"
)

const (
	minRedisEntryTTL   = time.Second
	maxRedisTxAttempts = 10
)

type redisLedgerValue struct {
	OwnerID   string `json:"owner_id"`
	CreatedAt int64  `json:"created_at"`
	ExpiresAt int64  `json:"expires_at"`
}

// RedisRefreshLedger keeps one key per token digest plus a set per owner
// indexing that owner's digests. Token keys carry the refresh token TTL plus
// LedgerExpiryGrace.
type RedisRefreshLedger struct {
	client redis.UniversalClient
	prefix string
	now    func() time.Time
}

// NewRedisRefreshLedger builds the ledger. An empty prefix defaults to "rt".
func NewRedisRefreshLedger(client redis.UniversalClient, prefix string, now func() time.Time) *RedisRefreshLedger {
	if prefix == "" {
		prefix = "rt"
	}
	if now == nil {
		now = time.Now
	}
	return &RedisRefreshLedger{client: client, prefix: prefix, now: now}
}

func (l *RedisRefreshLedger) tokenKey(hash string) string {
	return l.prefix + ":tok:" + hash
}

func (l *RedisRefreshLedger) ownerKey(ownerID string) string {
	return l.prefix + ":owner:" + ownerID
}

// DeleteAllFor drops the owner's token keys and index in one MULTI/EXEC
// guarded by WATCH on the index, so an Insert racing with it either lands
// before the snapshot and is deleted or forces a retry.
func (l *RedisRefreshLedger) DeleteAllFor(ctx context.Context, ownerID string) error {
	ownerKey := l.ownerKey(ownerID)

	deleteAll := func(tx *redis.Tx) error {
		hashes, err := tx.SMembers(ctx, ownerKey).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}

		keys := make([]string, 0, len(hashes)+1)
		for _, hash := range hashes {
			keys = append(keys, l.tokenKey(hash))
		}
		keys = append(keys, ownerKey)

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, keys...)
			return nil
		})
		return err
	}

	var err error
	for attempt := 0; attempt < maxRedisTxAttempts; attempt++ {
		err = l.client.Watch(ctx, deleteAll, ownerKey)
		if !errors.Is(err, redis.TxFailedErr) {
			break
		}
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func (l *RedisRefreshLedger) Insert(ctx context.Context, entry domain.RefreshLedgerEntry) error {
	hash := HashToken(entry.Token)
	ttl := entry.ExpiresAt.Sub(l.now()) + LedgerExpiryGrace
	if ttl < minRedisEntryTTL {
		ttl = minRedisEntryTTL
	}

	data, err := json.Marshal(redisLedgerValue{
		OwnerID:   entry.OwnerID,
		CreatedAt: entry.CreatedAt.Unix(),
		ExpiresAt: entry.ExpiresAt.Unix(),
	})
	if err != nil {
		return err
	}

	created, err := l.client.SetNX(ctx, l.tokenKey(hash), data, ttl).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if !created {
		return ErrDuplicateToken
	}

	ownerKey := l.ownerKey(entry.OwnerID)
	_, err = l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SAdd(ctx, ownerKey, hash)
		pipe.Expire(ctx, ownerKey, ttl)
		return nil
	})
	if err != nil {
		_ = l.client.Del(ctx, l.tokenKey(hash)).Err()
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func (l *RedisRefreshLedger) FindByToken(ctx context.Context, token string) (*domain.RefreshLedgerEntry, error) {
	value, err := l.get(ctx, HashToken(token))
	if err != nil {
		return nil, err
	}
	return &domain.RefreshLedgerEntry{
		Token:     token,
		OwnerID:   value.OwnerID,
		CreatedAt: time.Unix(value.CreatedAt, 0).UTC(),
		ExpiresAt: time.Unix(value.ExpiresAt, 0).UTC(),
	}, nil
}

func (l *RedisRefreshLedger) DeleteByToken(ctx context.Context, token string) (bool, error) {
	hash := HashToken(token)
	value, err := l.get(ctx, hash)
	if err != nil {
		if errors.Is(err, ErrLedgerEntryNotFound) {
			return false, nil
		}
		return false, err
	}

	var del *redis.IntCmd
	_, err = l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		del = pipe.Del(ctx, l.tokenKey(hash))
		pipe.SRem(ctx, l.ownerKey(value.OwnerID), hash)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return del.Val() > 0, nil
}

func (l *RedisRefreshLedger) get(ctx context.Context, hash string) (*redisLedgerValue, error) {
	data, err := l.client.Get(ctx, l.tokenKey(hash)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrLedgerEntryNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	var value redisLedgerValue
	if err := json.Unmarshal(data, &value); err != nil {
		return nil, fmt.Errorf("decode ledger entry: %w", err)
	}
	return &value, nil
}
