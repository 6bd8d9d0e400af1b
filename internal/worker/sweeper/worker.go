// Package sweeper implements the strike decay worker. It periodically
// deletes strikes that have outlived their guild's decay window and reaps
// data of guilds the application left long ago.
package sweeper

import (
	"context"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/kiyoko-project/kiyoko/internal/database"
	"github.com/kiyoko-project/kiyoko/internal/setup/config"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

const (
	defaultInterval    = time.Hour
	defaultConcurrency = 8
)

// Worker periodically sweeps expired strikes across all guilds that have a
// decay config.
type Worker struct {
	db          database.Client
	interval    time.Duration
	concurrency int
	retention   time.Duration
	logger      *zap.Logger
}

// New creates a sweeper worker from configuration.
func New(db database.Client, cfg *config.Sweeper, logger *zap.Logger) *Worker {
	interval := time.Duration(cfg.Interval) * time.Minute
	if interval <= 0 {
		interval = defaultInterval
	}

	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}

	return &Worker{
		db:          db,
		interval:    interval,
		concurrency: concurrency,
		retention:   time.Duration(cfg.GuildRetentionDays) * 24 * time.Hour,
		logger:      logger.Named("sweeper"),
	}
}

// Start runs the sweep loop until the context is canceled. A sweep runs
// immediately on startup and then once per interval.
func (w *Worker) Start(ctx context.Context) {
	w.logger.Info("Sweeper started",
		zap.Duration("interval", w.interval),
		zap.Int("concurrency", w.concurrency))

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		w.Sweep(ctx)

		select {
		case <-ctx.Done():
			w.logger.Info("Sweeper stopped")
			return
		case <-ticker.C:
		}
	}
}

// Sweep runs a single pass: expired strikes first, then departed guilds.
func (w *Worker) Sweep(ctx context.Context) {
	runID := uuid.New().String()
	logger := w.logger.With(zap.String("runID", runID))
	now := time.Now()

	configs, err := w.db.Model().StrikeConfig().ListDecay(ctx)
	if err != nil {
		logger.Error("Failed to list decay configs", zap.Error(err))
		return
	}

	var removed atomic.Int64

	p := pool.New().WithMaxGoroutines(w.concurrency).WithContext(ctx)
	for _, cfg := range configs {
		p.Go(func(ctx context.Context) error {
			days := 0
			if cfg.P1 != nil {
				days, _ = strconv.Atoi(*cfg.P1)
			}
			if days < 1 {
				// Malformed decay rows are skipped, never fatal
				logger.Warn("Skipping malformed decay config",
					zap.Uint64("guildID", uint64(cfg.GuildID)))
				return nil
			}

			cutoff := now.AddDate(0, 0, -days)
			n, err := w.db.Model().Strike().DeleteExpired(ctx, cfg.GuildID, cutoff)
			if err != nil {
				logger.Error("Failed to delete expired strikes",
					zap.Uint64("guildID", uint64(cfg.GuildID)),
					zap.Error(err))
				return nil
			}

			if n > 0 {
				removed.Add(n)
			}
			return nil
		})
	}
	_ = p.Wait()

	if w.retention > 0 {
		if _, err := w.db.Service().Guild().PurgeDeparted(ctx, now.Add(-w.retention)); err != nil {
			logger.Error("Failed to purge departed guilds", zap.Error(err))
		}
	}

	logger.Info("Sweep finished",
		zap.Int("guilds", len(configs)),
		zap.Int64("strikesRemoved", removed.Load()),
		zap.Duration("took", time.Since(now)))
}
