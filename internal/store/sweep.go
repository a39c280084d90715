package store

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// DefaultSweepInterval is how often Sweep purges expired entries.
const DefaultSweepInterval = time.Hour

// Sweep calls p.Purge every interval until ctx is done. Failures are logged
// and the next tick tries again.
func Sweep(ctx context.Context, p Purger, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := p.Purge(ctx)
			if err != nil {
				if ctx.Err() == nil {
					zap.L().Warn("store: purge failed", zap.Error(err))
				}
				continue
			}
			if n > 0 {
				zap.L().Debug("store: purged expired entries", zap.Int("count", n))
			}
		}
	}
}
