package workers

import (
	"context"
	"errors"
	"time"

	"github.com/SebastianMoseres/Praxable/internal/database"
	"github.com/SebastianMoseres/Praxable/internal/fulfillment"
	"github.com/SebastianMoseres/Praxable/internal/models"
	"go.uber.org/zap"
)

// SnapshotSource returns the most recently persisted model snapshot
type SnapshotSource interface {
	Latest(ctx context.Context) (*models.ModelSnapshotRecord, error)
}

// ModelReloader periodically installs snapshots trained by another process
// (typically the worker) into the local predictor.
type ModelReloader struct {
	source    SnapshotSource
	predictor *fulfillment.Predictor
	interval  time.Duration
	log       *zap.Logger
}

// NewModelReloader creates a reloader polling source every interval
func NewModelReloader(source SnapshotSource, predictor *fulfillment.Predictor, interval time.Duration, log *zap.Logger) *ModelReloader {
	if log == nil {
		log = zap.NewNop()
	}
	return &ModelReloader{
		source:    source,
		predictor: predictor,
		interval:  interval,
		log:       log,
	}
}

// Start loads once and then runs the reload loop until ctx is cancelled
func (r *ModelReloader) Start(ctx context.Context) {
	r.Reload(ctx)
	if r.interval <= 0 {
		return
	}
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Reload(ctx)
		}
	}
}

// Reload installs the latest persisted snapshot if it is newer than the
// current model. It reports whether a snapshot was installed.
func (r *ModelReloader) Reload(ctx context.Context) bool {
	rec, err := r.source.Latest(ctx)
	if errors.Is(err, database.ErrNotFound) {
		return false
	}
	if err != nil {
		r.log.Warn("model_snapshot_fetch_failed", zap.Error(err))
		return false
	}

	if cur := r.predictor.Snapshot(); cur != nil && cur.Version == rec.Version {
		return false
	}

	snap, err := fulfillment.UnmarshalSnapshot(rec.Payload)
	if err != nil {
		r.log.Error("model_snapshot_invalid",
			zap.String("version", rec.Version.String()),
			zap.Error(err),
		)
		return false
	}
	return r.predictor.Load(snap)
}
