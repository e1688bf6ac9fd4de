package services

import (
	"context"
	"time"
)

// runEvery calls fn immediately and then on every tick until ctx is cancelled
func runEvery(ctx context.Context, interval time.Duration, fn func(ctx context.Context)) {
	fn(ctx)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn(ctx)
		}
	}
}
