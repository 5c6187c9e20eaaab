package history

// pruner.go removes finished jobs older than the retention window.
//
// The pruner is long-running and context-aware for graceful shutdown. A
// failed prune is logged and retried on the next tick; it never stops the
// application.

import (
	"context"
	"log/slog"
	"time"
)

// PruneConfig controls the retention pruner. Zero values take defaults.
type PruneConfig struct {
	RetentionDays int           // Days to keep finished jobs (default: 30)
	Interval      time.Duration // How often to run (default: 6h)
}

func (c PruneConfig) withDefaults() PruneConfig {
	if c.RetentionDays <= 0 {
		c.RetentionDays = 30
	}
	if c.Interval <= 0 {
		c.Interval = 6 * time.Hour
	}
	return c
}

// StartPruner prunes immediately, then every Interval until ctx is
// cancelled. Run it in its own goroutine.
func StartPruner(ctx context.Context, store Store, cfg PruneConfig) {
	cfg = cfg.withDefaults()
	slog.Info("history pruner started",
		"retention_days", cfg.RetentionDays,
		"interval", cfg.Interval,
	)

	PruneOnce(ctx, store, cfg, time.Now())

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("history pruner stopped")
			return
		case now := <-ticker.C:
			PruneOnce(ctx, store, cfg, now)
		}
	}
}

// PruneOnce runs a single prune cycle relative to now and returns the number
// of jobs removed.
func PruneOnce(ctx context.Context, store Store, cfg PruneConfig, now time.Time) int64 {
	cfg = cfg.withDefaults()
	start := time.Now()
	cutoff := now.AddDate(0, 0, -cfg.RetentionDays)

	removed, err := store.Prune(ctx, cutoff)
	if err != nil {
		slog.Error("history prune failed", "error", err)
		return 0
	}

	slog.Info("pruned job history",
		"jobs_removed", removed,
		"cutoff", cutoff.Format(time.RFC3339),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return removed
}
