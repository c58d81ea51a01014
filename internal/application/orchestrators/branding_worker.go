package orchestrators

import (
	"context"
	"log/slog"
	"time"

	"trainerapp/internal/adapters/backend"
)

// DefaultBrandingRetryInterval is how often deferred branding is pushed again.
const DefaultBrandingRetryInterval = time.Minute

// StartPendingBrandingWorker starts a background goroutine that periodically pushes branding
// the backend refused earlier, acting with serviceToken.
// PRE: serviceToken is a backend token allowed to update every app; stopCh is provided to signal shutdown
// POST: Worker runs until stopCh is closed; done is closed when it has returned
func StartPendingBrandingWorker(deps PushPendingBrandingDeps, serviceToken string, interval time.Duration, stopCh <-chan struct{}) (done <-chan struct{}) {
	if interval <= 0 {
		interval = DefaultBrandingRetryInterval
	}
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), interval)
				ctx = backend.WithToken(ctx, serviceToken)
				if _, err := ExecutePushPendingBranding(ctx, deps); err != nil {
					slog.Error("branding_background_push_failed", "error", err.Error())
				}
				cancel()
			case <-stopCh:
				slog.Info("branding_background_worker_stopped")
				return
			}
		}
	}()
	return finished
}
