package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SebastianMoseres/Praxable/internal/app"
	"github.com/SebastianMoseres/Praxable/internal/config"
	"github.com/SebastianMoseres/Praxable/internal/database"
	"github.com/SebastianMoseres/Praxable/internal/handlers"
	"github.com/SebastianMoseres/Praxable/internal/logger"
	"github.com/SebastianMoseres/Praxable/internal/middleware"
	"github.com/SebastianMoseres/Praxable/internal/queue"
	"github.com/SebastianMoseres/Praxable/internal/services/planner"
	"github.com/SebastianMoseres/Praxable/internal/telemetry"
	"github.com/SebastianMoseres/Praxable/internal/workers"
	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	debugMode := cfg.ServerDebugMode || *debugFlag

	zapLogger, err := logger.NewProductionLogger("server", debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() {
		_ = logger.Sync(zapLogger)
	}()

	zapLogger.Info("starting_server",
		zap.String("version", version),
		zap.Bool("debug_mode", debugMode),
		zap.String("server_port", cfg.ServerPort),
		zap.Strings("frontend_origins", cfg.FrontendOrigins),
		zap.String("timezone", cfg.Location.String()),
		zap.String("day_end", cfg.DayEnd),
		zap.Bool("calendar_enabled", cfg.CalendarEnabled()),
		zap.Bool("planner_enabled", cfg.PlannerEnabled()),
		zap.Bool("otel_enabled", cfg.OTELEnabled),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// OpenTelemetry
	tracingEnabled := false
	if cfg.OTELEnabled {
		if cfg.OTELEndpoint == "" {
			zapLogger.Warn("otel_enabled_but_endpoint_not_configured")
		} else if tp, err := telemetry.InitTracer(ctx, telemetry.ServiceName, cfg.OTELEndpoint); err != nil {
			zapLogger.Warn("failed_to_initialize_otel_tracer", zap.Error(err))
		} else {
			tracingEnabled = true
			zapLogger.Info("otel_tracer_initialized", zap.String("endpoint", cfg.OTELEndpoint))
			defer func() {
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer shutdownCancel()
				if err := telemetry.Shutdown(shutdownCtx, tp); err != nil {
					zapLogger.Error("failed_to_shutdown_otel_tracer", zap.Error(err))
				}
			}()
		}
	}

	// Database
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

	// Redis is optional: it backs rate limiting and the busy-interval cache
	var (
		redisConn   *middleware.RedisRateLimiter
		redisClient *redis.Client
		cachePinger handlers.Pinger
	)
	if cfg.RedisURL != "" {
		redisConn, err = middleware.NewRedisRateLimiter(cfg.RedisURL)
		if err != nil {
			zapLogger.Warn("failed_to_connect_to_redis_continuing_without_cache", zap.Error(err))
		} else {
			redisClient = redisConn.Client()
			cachePinger = redisConn
			defer func() {
				if err := redisConn.Close(); err != nil {
					zapLogger.Warn("failed_to_close_redis_connection", zap.Error(err))
				}
			}()
			zapLogger.Info("connected_to_redis")
		}
	}

	// RabbitMQ is optional for the server: without it feedback is stored but
	// retraining waits for the worker's schedule or a manual retrain.
	var jobQueue queue.JobQueue
	if cfg.RabbitMQURL != "" {
		q, err := connectRabbitMQ(cfg.RabbitMQURL, zapLogger)
		if err != nil {
			zapLogger.Warn("rabbitmq_unavailable_retrain_jobs_disabled", zap.Error(err))
		} else {
			jobQueue = q
			defer func() {
				if err := q.Close(); err != nil {
					zapLogger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
				}
			}()
		}
	}

	components, err := app.New(ctx, cfg, db, redisClient, jobQueue, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed_to_initialize_components", zap.Error(err))
	}
	if err := components.WarmStart(ctx); err != nil {
		zapLogger.Warn("model_warm_start_failed", zap.Error(err))
	}

	var assistant planner.Planner = planner.Disabled{}
	var transcriber planner.Transcriber = planner.Disabled{}
	if cfg.PlannerEnabled() {
		openAIPlanner := planner.NewOpenAIPlanner(cfg.OpenAIKey, cfg.AIBaseURL, cfg.AIModel, zapLogger, debugMode)
		assistant = openAIPlanner
		transcriber = openAIPlanner
	}

	// Handlers
	engine := components.Engine
	valueHandler := handlers.NewValueHandler(components.Values, zapLogger)
	taskHandler := handlers.NewTaskHandler(components.Tasks, zapLogger,
		handlers.WithTaskJobQueue(jobQueue, cfg.RetrainDelay))
	analyticsHandler := handlers.NewAnalyticsHandler(components.Tasks, zapLogger)
	predictHandler := handlers.NewPredictHandler(engine, components.Trainer, components.Predictor, zapLogger)
	calendarHandler := handlers.NewCalendarHandler(engine, components.Calendar, zapLogger)
	recommendationHandler := handlers.NewRecommendationHandler(engine, zapLogger)
	plannerHandler := handlers.NewPlannerHandler(assistant, engine, components.Values, zapLogger,
		handlers.WithTranscriber(transcriber))

	healthChecker := handlers.NewHealthCheckerWithDeps(db, cachePinger, jobQueue).WithModel(components.Predictor)

	// Rate limiting
	var store limiter.Store
	if redisConn != nil {
		store, err = redisConn.Store()
		if err != nil {
			zapLogger.Fatal("failed_to_create_rate_limit_store", zap.Error(err))
		}
	} else {
		store = middleware.NewMemoryStore()
	}
	rateLimitMW, err := middleware.RateLimit(store, cfg.RateLimit, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed_to_configure_rate_limit", zap.Error(err))
	}

	r := mux.NewRouter()

	// Middleware runs in registration order; the first registered is outermost.
	if tracingEnabled {
		r.Use(telemetry.Middleware(telemetry.ServiceName))
	}
	r.Use(middleware.RequestID)
	r.Use(middleware.SecurityHeaders(cfg.EnableHSTS))
	r.Use(middleware.CORS(cfg.FrontendOrigins, zapLogger))
	r.Use(middleware.MaxRequestSize(middleware.DefaultMaxRequestSize, middleware.SizeLimit{
		Path:     "/api/v1/planner/generate_with_audio",
		MaxBytes: handlers.MaxAudioUploadSize,
	}))
	r.Use(middleware.ContentType)
	r.Use(middleware.Timeout(middleware.DefaultRequestTimeout))
	r.Use(middleware.ErrorHandler(zapLogger))
	r.Use(middleware.Logging(zapLogger))

	r.HandleFunc("/healthz", healthChecker.HealthCheck).Methods("GET")
	r.HandleFunc("/version", versionInfo(components.Catalog.Version())).Methods("GET")

	apiRouter := r.PathPrefix("/api/v1").Subrouter()
	apiRouter.Use(rateLimitMW)

	valueHandler.RegisterRoutes(apiRouter.PathPrefix("/values").Subrouter())
	taskHandler.RegisterRoutes(apiRouter.PathPrefix("/tasks").Subrouter())
	analyticsHandler.RegisterRoutes(apiRouter.PathPrefix("/analytics").Subrouter())
	predictHandler.RegisterRoutes(apiRouter.PathPrefix("/predict").Subrouter())
	calendarHandler.RegisterRoutes(apiRouter.PathPrefix("/calendar").Subrouter())
	calendarHandler.RegisterSchedulerRoutes(apiRouter.PathPrefix("/scheduler").Subrouter())
	recommendationHandler.RegisterRoutes(apiRouter.PathPrefix("/recommendations").Subrouter())
	plannerHandler.RegisterRoutes(apiRouter.PathPrefix("/planner").Subrouter())

	// Preflight requests need a matching route for the middleware chain to run
	r.Methods("OPTIONS").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	srv := &http.Server{
		Addr:           ":" + cfg.ServerPort,
		Handler:        r,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   45 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	// Pick up models trained by the worker
	reloader := workers.NewModelReloader(components.Snapshots, components.Predictor, cfg.ModelReloadInterval, zapLogger)
	go reloader.Start(ctx)

	if purger, ok := jobQueue.(queue.DLQPurger); ok {
		dlqGC := queue.NewGarbageCollector(purger, cfg.DLQGCInterval, cfg.DLQRetention, zapLogger)
		go func() {
			if err := dlqGC.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				zapLogger.Error("dlq_garbage_collector_stopped_with_error", zap.Error(err))
			}
		}()
		zapLogger.Info("started_dlq_garbage_collector",
			zap.Duration("interval", cfg.DLQGCInterval),
			zap.Duration("retention", cfg.DLQRetention),
		)
	}

	go func() {
		zapLogger.Info("server_listening", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("server_failed_to_start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("server_shutting_down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("server_forced_to_shutdown", zap.Error(err))
	}

	zapLogger.Info("server_exited")
}

// connectRabbitMQ retries with exponential backoff to ride out broker startup
func connectRabbitMQ(url string, zapLogger *zap.Logger) (*queue.RabbitMQQueue, error) {
	const (
		maxRetries   = 10
		initialDelay = 2 * time.Second
		maxDelay     = 30 * time.Second
	)

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		q, err := queue.NewRabbitMQQueue(url, zapLogger)
		if err == nil {
			zapLogger.Info("connected_to_rabbitmq")
			return q, nil
		}
		lastErr = err

		delay := initialDelay * time.Duration(1<<uint(attempt))
		if delay > maxDelay {
			delay = maxDelay
		}
		zapLogger.Warn("failed_to_connect_to_rabbitmq_retrying",
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", maxRetries),
			zap.Duration("retry_delay", delay),
			zap.Error(err),
		)
		time.Sleep(delay)
	}
	return nil, fmt.Errorf("failed to connect to RabbitMQ after %d attempts: %w", maxRetries, lastErr)
}

func versionInfo(catalogVersion int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprintf(w, `{"version":%q,"catalog_version":%d,"timestamp":%q}`,
			version, catalogVersion, time.Now().UTC().Format(time.RFC3339))
	}
}
