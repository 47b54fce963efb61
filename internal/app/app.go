// Package app wires the stores, model and engine shared by the server,
// worker and CLI binaries.
package app

import (
	"context"
	"fmt"

	"github.com/SebastianMoseres/Praxable/internal/alignment"
	"github.com/SebastianMoseres/Praxable/internal/availability"
	"github.com/SebastianMoseres/Praxable/internal/calendar"
	"github.com/SebastianMoseres/Praxable/internal/catalog"
	"github.com/SebastianMoseres/Praxable/internal/config"
	"github.com/SebastianMoseres/Praxable/internal/database"
	"github.com/SebastianMoseres/Praxable/internal/fulfillment"
	"github.com/SebastianMoseres/Praxable/internal/queue"
	"github.com/SebastianMoseres/Praxable/internal/workers"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Components are the long-lived collaborators built from configuration
type Components struct {
	Tasks     *database.TaskRepository
	Values    *database.CoreValueRepository
	Snapshots *database.ModelSnapshotRepository
	Predictor *fulfillment.Predictor
	Trainer   *workers.Trainer
	Calendar  calendar.Calendar
	Catalog   *catalog.Catalog
	Engine    *alignment.Service

	logger *zap.Logger
}

// New builds the components. redisClient and jobQueue may be nil; without
// Redis busy intervals are not cached, without a queue failed retrain jobs
// are not retried.
func New(ctx context.Context, cfg *config.Config, db *database.DB, redisClient *redis.Client, jobQueue queue.JobQueue, logger *zap.Logger) (*Components, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	tasks := database.NewTaskRepository(db)
	tasks.SetLogger(logger)
	values := database.NewCoreValueRepository(db)
	snapshots := database.NewModelSnapshotRepository(db)

	predictor := fulfillment.NewPredictor(
		fulfillment.WithTrees(cfg.ModelTrees),
		fulfillment.WithSeed(cfg.ModelSeed),
		fulfillment.WithLogger(logger),
	)
	trainer := workers.NewTrainer(tasks, snapshots, predictor, jobQueue, logger)

	cat, err := catalog.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load activity catalog: %w", err)
	}

	cal := newCalendar(ctx, cfg, redisClient, logger)

	engine, err := alignment.NewService(
		cal,
		availability.NewFinder(logger, cfg.MinGap),
		predictor,
		cat.All(),
		alignment.Config{DayEnd: cfg.DayEnd, Location: cfg.Location},
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create alignment engine: %w", err)
	}

	return &Components{
		Tasks:     tasks,
		Values:    values,
		Snapshots: snapshots,
		Predictor: predictor,
		Trainer:   trainer,
		Calendar:  cal,
		Catalog:   cat,
		Engine:    engine,
		logger:    logger,
	}, nil
}

// WarmStart loads the newest persisted model and trains from the database
// when none exists yet. Too little data leaves the model untrained.
func (c *Components) WarmStart(ctx context.Context) error {
	reloader := workers.NewModelReloader(c.Snapshots, c.Predictor, 0, c.logger)
	if reloader.Reload(ctx) {
		return nil
	}

	result, err := c.Trainer.Retrain(ctx)
	if err != nil {
		return fmt.Errorf("failed to train model at startup: %w", err)
	}
	c.logger.Info("startup_training_completed",
		zap.Bool("trained", result.Trained),
		zap.Int("samples", result.Samples),
	)
	return nil
}

// newCalendar returns the Google adapter, cached in Redis when available.
// A misconfigured calendar degrades to an empty day.
func newCalendar(ctx context.Context, cfg *config.Config, redisClient *redis.Client, logger *zap.Logger) calendar.Calendar {
	if !cfg.CalendarEnabled() {
		logger.Info("calendar_disabled")
		return calendar.Noop{}
	}

	google, err := calendar.NewGoogle(ctx, calendar.GoogleConfig{
		CalendarID: cfg.CalendarID,
		TokenFile:  cfg.CalendarTokenFile,
		Location:   cfg.Location,
	}, logger)
	if err != nil {
		logger.Warn("calendar_unavailable_using_empty_day", zap.Error(err))
		return calendar.Noop{}
	}

	if redisClient == nil {
		return google
	}
	logger.Info("calendar_cache_enabled", zap.Duration("ttl", cfg.CalendarCacheTTL))
	return calendar.NewCachedSource(google, calendar.NewRedisCache(redisClient), cfg.CalendarCacheTTL, cfg.Location, logger)
}
