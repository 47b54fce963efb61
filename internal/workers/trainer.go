package workers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/SebastianMoseres/Praxable/internal/database"
	"github.com/SebastianMoseres/Praxable/internal/fulfillment"
	"github.com/SebastianMoseres/Praxable/internal/models"
	"github.com/SebastianMoseres/Praxable/internal/queue"
	"go.uber.org/zap"
)

const (
	// DefaultSnapshotRetention is how many persisted model snapshots are kept
	DefaultSnapshotRetention = 10

	retryBaseDelay = 30 * time.Second
	retryMaxDelay  = 10 * time.Minute
)

// Trainer refits the fulfillment model from stored feedback and persists the
// resulting snapshot so other processes can load it.
type Trainer struct {
	records   database.TrainingRecordSource
	snapshots database.ModelSnapshotRepositoryInterface
	predictor *fulfillment.Predictor
	jobQueue  queue.JobQueue
	logger    *zap.Logger
	keep      int
	now       func() time.Time

	mu      sync.Mutex
	lastRun time.Time
}

// NewTrainer creates a new trainer. snapshots and jobQueue may be nil, in
// which case models are not persisted and failed jobs are not re-enqueued.
func NewTrainer(
	records database.TrainingRecordSource,
	snapshots database.ModelSnapshotRepositoryInterface,
	predictor *fulfillment.Predictor,
	jobQueue queue.JobQueue,
	logger *zap.Logger,
) *Trainer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Trainer{
		records:   records,
		snapshots: snapshots,
		predictor: predictor,
		jobQueue:  jobQueue,
		logger:    logger,
		keep:      DefaultSnapshotRetention,
		now:       time.Now,
	}
}

// Retrain loads every scored task, refits the model and persists the new
// snapshot. Too little data is reported through TrainResult, not an error.
func (t *Trainer) Retrain(ctx context.Context) (fulfillment.TrainResult, error) {
	started := t.now()

	records, err := t.records.TrainingRecords(ctx)
	if err != nil {
		return fulfillment.TrainResult{}, fmt.Errorf("failed to load training records: %w", err)
	}

	result, err := t.predictor.Train(ctx, records)
	if err != nil {
		return result, fmt.Errorf("failed to train model: %w", err)
	}
	if !result.Trained {
		t.markRun(started)
		return result, nil
	}

	if err := t.persist(ctx); err != nil {
		return result, err
	}
	t.markRun(started)
	return result, nil
}

func (t *Trainer) persist(ctx context.Context) error {
	if t.snapshots == nil {
		return nil
	}
	snap := t.predictor.Snapshot()
	if snap == nil {
		return nil
	}
	payload, err := fulfillment.MarshalSnapshot(snap)
	if err != nil {
		return err
	}
	record := &models.ModelSnapshotRecord{
		Version:     snap.Version,
		TrainedAt:   snap.TrainedAt,
		SampleCount: snap.SampleCount,
		Payload:     payload,
	}
	if err := t.snapshots.Save(ctx, record); err != nil {
		return fmt.Errorf("failed to persist model snapshot: %w", err)
	}

	pruned, err := t.snapshots.Prune(ctx, t.keep)
	if err != nil {
		t.logger.Warn("model_snapshot_prune_failed", zap.Error(err))
	} else if pruned > 0 {
		t.logger.Debug("model_snapshots_pruned", zap.Int64("count", pruned))
	}
	return nil
}

func (t *Trainer) markRun(started time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if started.After(t.lastRun) {
		t.lastRun = started
	}
}

// covered reports whether a retrain that started after job creation has
// already completed, so the job's feedback is part of the current model.
func (t *Trainer) covered(job *queue.Job) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return !t.lastRun.IsZero() && job.CreatedAt.Before(t.lastRun)
}

// ProcessJob processes a job based on its type
func (t *Trainer) ProcessJob(ctx context.Context, msg queue.MessageInterface) error {
	job := msg.GetJob()

	// Delayed delivery can arrive early when the broker lacks the delay plugin
	if !job.ShouldProcessAt(t.now()) {
		t.logger.Debug("job_not_ready",
			zap.String("job_id", job.ID.String()),
			zap.Timep("not_before", job.NotBefore),
		)
		if nackErr := msg.Nack(true); nackErr != nil {
			t.logger.Warn("job_requeue_failed", zap.Error(nackErr))
		}
		return nil
	}

	switch job.Type {
	case queue.JobTypeRetrainModel:
		if t.covered(job) {
			t.logger.Debug("retrain_job_coalesced", zap.String("job_id", job.ID.String()))
			if ackErr := msg.Ack(); ackErr != nil {
				return fmt.Errorf("failed to ack job: %w", ackErr)
			}
			return nil
		}

		result, err := t.Retrain(ctx)
		if err != nil {
			return t.handleJobError(ctx, msg, job, err)
		}
		t.logger.Info("retrain_job_completed",
			zap.String("job_id", job.ID.String()),
			zap.Bool("trained", result.Trained),
			zap.Int("samples", result.Samples),
		)
		if ackErr := msg.Ack(); ackErr != nil {
			return fmt.Errorf("failed to ack job: %w", ackErr)
		}
		return nil

	default:
		if nackErr := msg.Nack(false); nackErr != nil { // Unknown job type, send to DLQ
			t.logger.Warn("job_nack_failed", zap.Error(nackErr))
		}
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
}

// handleJobError re-enqueues a failed job with backoff, or dead-letters it
// once its retry budget is spent.
func (t *Trainer) handleJobError(ctx context.Context, msg queue.MessageInterface, job *queue.Job, err error) error {
	if !job.CanRetry() || t.jobQueue == nil {
		t.logger.Error("job_dead_lettered",
			zap.String("job_id", job.ID.String()),
			zap.Int("retry_count", job.RetryCount),
			zap.Error(err),
		)
		if nackErr := msg.Nack(false); nackErr != nil {
			t.logger.Warn("job_nack_failed", zap.Error(nackErr))
		}
		return fmt.Errorf("job %s failed permanently: %w", job.ID, err)
	}

	notBefore := t.now().Add(retryDelay(job.RetryCount))
	delayed := &queue.Job{
		ID:         job.ID,
		Type:       job.Type,
		TaskID:     job.TaskID,
		NotBefore:  &notBefore,
		NotAfter:   job.NotAfter,
		Metadata:   job.Metadata,
		CreatedAt:  job.CreatedAt,
		RetryCount: job.RetryCount + 1,
		MaxRetries: job.MaxRetries,
	}

	if enqueueErr := t.jobQueue.Enqueue(ctx, delayed); enqueueErr != nil {
		if nackErr := msg.Nack(false); nackErr != nil {
			t.logger.Warn("job_nack_failed", zap.Error(nackErr))
		}
		return fmt.Errorf("failed to re-enqueue job %s: %w", job.ID, enqueueErr)
	}
	if ackErr := msg.Ack(); ackErr != nil {
		t.logger.Warn("job_ack_failed", zap.Error(ackErr))
	}

	t.logger.Warn("job_retry_scheduled",
		zap.String("job_id", job.ID.String()),
		zap.Int("retry_count", delayed.RetryCount),
		zap.Time("not_before", notBefore),
		zap.Error(err),
	)
	return nil
}

func retryDelay(retryCount int) time.Duration {
	d := retryBaseDelay
	for i := 0; i < retryCount; i++ {
		d *= 2
		if d >= retryMaxDelay {
			return retryMaxDelay
		}
	}
	return d
}
