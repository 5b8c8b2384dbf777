package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/benvon/focus-board/internal/metrics"
	"go.uber.org/zap"
)

const (
	// DefaultGCInterval is how often the dead-letter queue is swept
	DefaultGCInterval = time.Hour
	// DefaultDLQRetention is how long a dead-lettered job is kept for inspection
	DefaultDLQRetention = 7 * 24 * time.Hour

	purgeTimeout = 2 * time.Minute
)

// GarbageCollector drops dead-lettered enhancement jobs once they pass the retention period.
// A staged task only lives in memory, so an old dead letter cannot be replayed usefully.
type GarbageCollector struct {
	purger    DLQPurger
	interval  time.Duration
	retention time.Duration
	logger    *zap.Logger
}

// NewGarbageCollector creates a sweeper. Non-positive durations fall back to the defaults.
func NewGarbageCollector(purger DLQPurger, interval, retention time.Duration, log *zap.Logger) *GarbageCollector {
	if interval <= 0 {
		interval = DefaultGCInterval
	}
	if retention <= 0 {
		retention = DefaultDLQRetention
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &GarbageCollector{purger: purger, interval: interval, retention: retention, logger: log}
}

// Start sweeps once immediately, then on every tick until ctx is cancelled
func (gc *GarbageCollector) Start(ctx context.Context) error {
	gc.sweep(ctx)

	ticker := time.NewTicker(gc.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			gc.sweep(ctx)
		}
	}
}

func (gc *GarbageCollector) sweep(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if _, err := gc.collect(ctx); err != nil {
		gc.logger.Warn("dlq_gc_failed", zap.Error(err))
	}
}

// collect purges once and returns the number of jobs removed
func (gc *GarbageCollector) collect(ctx context.Context) (int, error) {
	if gc.purger == nil {
		return 0, nil
	}
	ctx, cancel := context.WithTimeout(ctx, purgeTimeout)
	defer cancel()

	n, err := gc.purger.PurgeOlderThan(ctx, gc.retention)
	if err != nil {
		return 0, fmt.Errorf("dead letter purge: %w", err)
	}
	if n > 0 {
		metrics.DLQPurgedTotal.Add(float64(n))
		gc.logger.Info("dlq_gc_purged", zap.Int("count", n), zap.Duration("retention", gc.retention))
	}
	return n, nil
}
