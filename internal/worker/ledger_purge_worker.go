package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/shop-auth/internal/repository"
)

// LedgerPurgeWorker periodically removes expired refresh ledger entries from
// backends that keep them until told otherwise.
type LedgerPurgeWorker struct {
	purger   repository.ExpiredPurger
	interval time.Duration
	timeout  time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

// NewLedgerPurgeWorker builds the worker. A nil purger yields a worker whose Run returns at once.
func NewLedgerPurgeWorker(purger repository.ExpiredPurger, interval, timeout time.Duration, logger *zap.Logger) *LedgerPurgeWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = time.Hour
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &LedgerPurgeWorker{purger: purger, interval: interval, timeout: timeout, logger: logger, now: time.Now}
}

// Run purges on every tick until ctx is cancelled.
func (w *LedgerPurgeWorker) Run(ctx context.Context) {
	if w.purger == nil {
		return
	}
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.PurgeOnce(ctx)
		}
	}
}

// PurgeOnce runs a single purge pass and returns the number of removed entries.
func (w *LedgerPurgeWorker) PurgeOnce(ctx context.Context) int64 {
	c, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	cutoff := w.now().UTC().Add(-repository.LedgerExpiryGrace)
	purged, err := w.purger.PurgeExpired(c, cutoff)
	if err != nil {
		w.logger.Warn("purge expired refresh tokens failed", zap.Error(err))
		return 0
	}
	if purged > 0 {
		w.logger.Info("purged expired refresh tokens", zap.Int64("count", purged))
	}
	return purged
}
