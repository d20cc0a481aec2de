package session

import (
	"context"
	"log/slog"
	"time"
)

// Sweeper is implemented by stores that need expired sessions removed
// explicitly. Redis expires keys by itself.
type Sweeper interface {
	Sweep() int
}

// RunJanitor sweeps s every interval until ctx is cancelled. It is meant to
// run in its own goroutine.
func RunJanitor(ctx context.Context, s Sweeper, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	slog.Info("session janitor started", "interval", interval.String())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("session janitor stopped")
			return
		case <-ticker.C:
			start := time.Now()
			if n := s.Sweep(); n > 0 {
				slog.Info("expired sessions removed",
					"sessions_removed", n,
					"duration_ms", time.Since(start).Milliseconds(),
				)
			}
		}
	}
}
