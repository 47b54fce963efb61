package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/SebastianMoseres/Praxable/internal/queue"
	"go.uber.org/zap"
)

// DefaultRetrainTimes are the local wall-clock times of the twice-daily retrain
var DefaultRetrainTimes = []string{"08:00", "20:00"}

// RetrainScheduler enqueues periodic retrain jobs so feedback entered outside
// the API (for example direct database edits) still reaches the model.
type RetrainScheduler struct {
	jobQueue queue.JobQueue
	times    []string
	location *time.Location
	logger   *zap.Logger
	now      func() time.Time
}

// NewRetrainScheduler creates a scheduler for the given "HH:MM" times
func NewRetrainScheduler(jobQueue queue.JobQueue, times []string, location *time.Location, logger *zap.Logger) *RetrainScheduler {
	if len(times) == 0 {
		times = DefaultRetrainTimes
	}
	if location == nil {
		location = time.Local
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RetrainScheduler{
		jobQueue: jobQueue,
		times:    times,
		location: location,
		logger:   logger,
		now:      time.Now,
	}
}

// ScheduleRetrainJobs enqueues one job for the next occurrence of each
// configured time. Jobs expire a day after their scheduled time.
func (s *RetrainScheduler) ScheduleRetrainJobs(ctx context.Context) error {
	now := s.now().In(s.location)
	scheduled := 0
	for _, hhmm := range s.times {
		at, err := nextOccurrence(now, hhmm)
		if err != nil {
			return err
		}
		if err := s.createRetrainJob(ctx, at); err != nil {
			s.logger.Warn("retrain_job_schedule_failed",
				zap.String("at", hhmm),
				zap.Error(err),
			)
			continue
		}
		scheduled++
	}

	s.logger.Info("retrain_jobs_scheduled", zap.Int("count", scheduled))
	return nil
}

// Start schedules immediately and then once a day until ctx is cancelled
func (s *RetrainScheduler) Start(ctx context.Context) error {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()
	for {
		if err := s.ScheduleRetrainJobs(ctx); err != nil {
			s.logger.Error("retrain_scheduler_failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s *RetrainScheduler) createRetrainJob(ctx context.Context, notBefore time.Time) error {
	job := queue.NewJob(queue.JobTypeRetrainModel, nil)
	job.NotBefore = &notBefore

	notAfter := notBefore.Add(24 * time.Hour)
	job.NotAfter = &notAfter

	if err := s.jobQueue.Enqueue(ctx, job); err != nil {
		return fmt.Errorf("failed to enqueue retrain job: %w", err)
	}
	return nil
}

func nextOccurrence(now time.Time, hhmm string) (time.Time, error) {
	clock, err := time.Parse("15:04", hhmm)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid retrain time %q: %w", hhmm, err)
	}
	at := time.Date(now.Year(), now.Month(), now.Day(), clock.Hour(), clock.Minute(), 0, 0, now.Location())
	if !at.After(now) {
		at = at.AddDate(0, 0, 1)
	}
	return at, nil
}
