package storewatch

import (
	"context"
	"time"

	"go.uber.org/zap"

	"livesharego/internal/metrics"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// Run pings the store every interval until ctx is done, logging failures
// and exporting the result as the store_up gauge.
func Run(ctx context.Context, store Pinger, interval time.Duration) {
	tk := time.NewTicker(interval)
	go func() {
		defer tk.Stop()
		checkOnce(ctx, store)
		for {
			select {
			case <-ctx.Done():
				return
			case <-tk.C:
				checkOnce(ctx, store)
			}
		}
	}()
}

func checkOnce(ctx context.Context, store Pinger) bool {
	if err := store.Ping(ctx); err != nil {
		metrics.StoreUp.Set(0)
		zap.L().Error("storewatch.ping_failed", zap.Error(err))
		return false
	}
	metrics.StoreUp.Set(1)
	return true
}
