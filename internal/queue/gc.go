package queue

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// sweepTimeout bounds a single DLQ sweep
const sweepTimeout = 2 * time.Minute

// GarbageCollector drops dead-lettered retrain jobs once they are older than
// the retention period. Exhausted retrain jobs are never replayed, so the DLQ
// only serves as a short-lived record of failures.
type GarbageCollector struct {
	purger    DLQPurger
	interval  time.Duration
	retention time.Duration
	logger    *zap.Logger

	now func() time.Time
}

// NewGarbageCollector creates a collector sweeping every interval
func NewGarbageCollector(purger DLQPurger, interval, retention time.Duration, logger *zap.Logger) *GarbageCollector {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = time.Hour
	}
	return &GarbageCollector{
		purger:    purger,
		interval:  interval,
		retention: retention,
		logger:    logger,
		now:       time.Now,
	}
}

// Start sweeps once right away and then every interval until ctx is cancelled
func (gc *GarbageCollector) Start(ctx context.Context) error {
	if gc.purger == nil {
		<-ctx.Done()
		return ctx.Err()
	}

	gc.sweepAndLog(ctx)

	ticker := time.NewTicker(gc.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			gc.sweepAndLog(ctx)
		}
	}
}

func (gc *GarbageCollector) sweepAndLog(ctx context.Context) {
	started := gc.now()
	n, err := gc.Sweep(ctx)
	if err != nil {
		gc.logger.Error("dlq_gc_failed", zap.Error(err))
		return
	}
	if n > 0 {
		gc.logger.Info("dlq_gc_purged",
			zap.Int("count", n),
			zap.Duration("retention", gc.retention),
			zap.Duration("took", gc.now().Sub(started)),
		)
	}
}

// Sweep removes expired dead letters and reports how many were dropped
func (gc *GarbageCollector) Sweep(ctx context.Context) (int, error) {
	if gc.purger == nil {
		return 0, nil
	}
	ctx, cancel := context.WithTimeout(ctx, sweepTimeout)
	defer cancel()

	n, err := gc.purger.PurgeOlderThan(ctx, gc.retention)
	if err != nil {
		return n, fmt.Errorf("failed to purge dead-letter queue: %w", err)
	}
	return n, nil
}
