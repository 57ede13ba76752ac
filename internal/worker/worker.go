package worker

import (
	"context"
	"sync"

	"github.com/spec-kit/shop-auth/internal/service"
)

// Set groups the background jobs of the api binary. Nil members are skipped.
type Set struct {
	Notifications *service.NotificationService
	LedgerPurge   *LedgerPurgeWorker
}

// Start registers notification handlers and launches the looping workers.
// The returned func blocks until every loop has observed ctx cancellation.
func Start(ctx context.Context, set Set) (wait func()) {
	if set.Notifications != nil {
		set.Notifications.RegisterHandlers()
	}

	var wg sync.WaitGroup
	if set.LedgerPurge != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			set.LedgerPurge.Run(ctx)
		}()
	}
	return wg.Wait
}
