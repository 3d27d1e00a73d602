package main

import (
	"context"
	"errors"
	"time"

	"couponly/internal/aggregator"
)

// syncPeriodically runs a full Takeads sync every interval until shutdown.
func (app *application) syncPeriodically(interval time.Duration) {
	app.background.Add(1)
	go func() {
		defer app.background.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		app.logger.Infow("periodic sync enabled", "interval", interval.String())

		for {
			select {
			case <-app.quit:
				return
			case <-ticker.C:
				app.runScheduledSync(interval)
			}
		}
	}()
}

func (app *application) runScheduledSync(interval time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), min(interval, syncTimeout))
	defer cancel()

	// stop an in-flight sync when the server shuts down
	go func() {
		select {
		case <-app.quit:
			cancel()
		case <-ctx.Done():
		}
	}()

	results, err := app.syncer.SyncAll(ctx)
	switch {
	case errors.Is(err, aggregator.ErrSyncInProgress):
		app.logger.Infow("scheduled sync skipped, another sync is running")
	case err != nil:
		app.logger.Errorw("scheduled sync failed", "error", err)
	default:
		app.logger.Infow("scheduled sync completed", "runs", len(results), "at", time.Now().Format(time.RFC1123))
	}
}
