package rescorer

import (
	"context"
	"log/slog"
	"time"

	"atrium/internal/services/health"
)

// Engine is the part of the health service the rescorer drives.
type Engine interface {
	UpdateAll(ctx context.Context) (health.BatchResult, error)
}

// Run invokes the batch score recompute on every tick until ctx is
// cancelled. With runAtStart it also fires once immediately. A failed run is
// logged and the loop keeps going.
func Run(ctx context.Context, engine Engine, interval time.Duration, runAtStart bool, log *slog.Logger) {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	if runAtStart {
		runOnce(ctx, engine, log)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runOnce(ctx, engine, log)
		}
	}
}

func runOnce(ctx context.Context, engine Engine, log *slog.Logger) {
	res, err := engine.UpdateAll(ctx)
	if err != nil {
		log.Error("scheduled score recompute failed", slog.String("error", err.Error()))
		return
	}
	log.Info("scheduled score recompute done",
		slog.Int("total", res.TotalProjects),
		slog.Int("updated", res.UpdatedProjects),
		slog.Int("failed", len(res.Errors)))
}
