package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/shop-auth/internal/config"
)

// Redis holds the client backing the Redis refresh ledger.
type Redis struct {
	Client redis.UniversalClient
}

// NewRedis connects and pings. Client timeouts sit just above the store timeout
// so that the caller's context deadline, not the socket, ends a slow call.
func NewRedis(ctx context.Context, cfg config.RedisConfig, storeTimeout time.Duration, logger *zap.Logger) (*Redis, error) {
	if cfg.Addr == "" {
		return nil, errors.New("REDIS_ADDR not provided")
	}
	ioTimeout := storeTimeout + 250*time.Millisecond

	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:                 []string{cfg.Addr},
		Password:              cfg.Password,
		DB:                    cfg.DB,
		DialTimeout:           ioTimeout,
		ReadTimeout:           ioTimeout,
		WriteTimeout:          ioTimeout,
		ContextTimeoutEnabled: true,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	logger.Info("connected to redis", zap.String("addr", cfg.Addr), zap.Int("db", cfg.DB))
	return &Redis{Client: client}, nil
}

// Name identifies the dependency in readiness output.
func (r *Redis) Name() string { return "redis" }

// Close closes the client.
func (r *Redis) Close() {
	if r != nil && r.Client != nil {
		_ = r.Client.Close()
	}
}

// Ping verifies Redis connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	if r == nil || r.Client == nil {
		return errors.New("redis client not configured")
	}
	return r.Client.Ping(ctx).Err()
}
