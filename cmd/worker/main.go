package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/SebastianMoseres/Praxable/internal/app"
	"github.com/SebastianMoseres/Praxable/internal/config"
	"github.com/SebastianMoseres/Praxable/internal/database"
	"github.com/SebastianMoseres/Praxable/internal/logger"
	"github.com/SebastianMoseres/Praxable/internal/queue"
	"github.com/SebastianMoseres/Praxable/internal/workers"
	"go.uber.org/zap"
)

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	debugMode := cfg.WorkerDebugMode || *debugFlag

	zapLogger, err := logger.NewProductionLogger("worker", debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() {
		_ = logger.Sync(zapLogger)
	}()

	zapLogger.Info("starting_worker",
		zap.Bool("debug_mode", debugMode),
		zap.Int("model_trees", cfg.ModelTrees),
		zap.Uint64("model_seed", cfg.ModelSeed),
		zap.String("timezone", cfg.Location.String()),
	)

	if cfg.RabbitMQURL == "" {
		zapLogger.Fatal("rabbitmq_url_required_for_worker")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			zapLogger.Warn("failed_to_close_database_connection", zap.Error(err))
		}
	}()
	if err := db.Migrate(ctx); err != nil {
		zapLogger.Fatal("failed_to_migrate_database", zap.Error(err))
	}
	zapLogger.Info("connected_to_database")

	jobQueue, err := queue.NewRabbitMQQueue(cfg.RabbitMQURL, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_rabbitmq", zap.Error(err))
	}
	defer func() {
		if err := jobQueue.Close(); err != nil {
			zapLogger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
		}
	}()
	zapLogger.Info("connected_to_rabbitmq", zap.Int("prefetch", cfg.RabbitMQPrefetch))

	// The worker never reads the calendar, so no Redis client is needed
	components, err := app.New(ctx, cfg, db, nil, jobQueue, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed_to_initialize_components", zap.Error(err))
	}
	if err := components.WarmStart(ctx); err != nil {
		zapLogger.Warn("model_warm_start_failed", zap.Error(err))
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	msgChan, errChan, err := jobQueue.Consume(ctx, cfg.RabbitMQPrefetch)
	if err != nil {
		zapLogger.Fatal("failed_to_start_consuming_messages", zap.Error(err))
	}

	zapLogger.Info("worker_started_consuming_messages")

	trainer := components.Trainer
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgChan:
				if !ok {
					zapLogger.Info("message_channel_closed")
					return
				}

				if msg.Redelivered() && msg.GetJob() != nil {
					zapLogger.Info("job_redelivered", zap.String("job_id", msg.GetJob().ID.String()))
				}

				if err := trainer.ProcessJob(ctx, msg); err != nil {
					fields := []zap.Field{zap.Error(err)}
					if job := msg.GetJob(); job != nil {
						fields = append(fields,
							zap.String("job_id", job.ID.String()),
							zap.String("job_type", string(job.Type)),
						)
					}
					zapLogger.Error("failed_to_process_job", fields...)
				}
			}
		}
	}()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case err, ok := <-errChan:
				if !ok {
					return
				}
				zapLogger.Error("queue_error", zap.Error(err))
			}
		}
	}()

	scheduler := workers.NewRetrainScheduler(jobQueue, workers.DefaultRetrainTimes, cfg.Location, zapLogger)
	go func() {
		if err := scheduler.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			zapLogger.Error("retrain_scheduler_stopped_with_error", zap.Error(err))
		}
	}()

	dlqGC := queue.NewGarbageCollector(jobQueue, cfg.DLQGCInterval, cfg.DLQRetention, zapLogger)
	go func() {
		if err := dlqGC.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			zapLogger.Error("dlq_garbage_collector_stopped_with_error", zap.Error(err))
		}
	}()

	<-sigChan
	zapLogger.Info("worker_shutting_down")
	cancel()
	zapLogger.Info("worker_stopped")
}
