// Package commands implements the praxable operator CLI.
package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/SebastianMoseres/Praxable/internal/app"
	"github.com/SebastianMoseres/Praxable/internal/config"
	"github.com/SebastianMoseres/Praxable/internal/database"
	"github.com/SebastianMoseres/Praxable/internal/fulfillment"
	"github.com/SebastianMoseres/Praxable/internal/logger"
	"github.com/SebastianMoseres/Praxable/internal/models"
	"github.com/SebastianMoseres/Praxable/internal/recommend"
	"go.uber.org/zap"
)

// ValueStore manages the user's core values
type ValueStore interface {
	List(ctx context.Context) ([]models.CoreValue, error)
	Create(ctx context.Context, name string) (*models.CoreValue, error)
	Delete(ctx context.Context, name string) error
}

// Engine answers free-time and recommendation queries
type Engine interface {
	Now() time.Time
	GetFreeSlots(ctx context.Context) ([]models.FreeSlot, error)
	GetRecommendations(ctx context.Context, values []string, minDuration int, c recommend.Context) ([]models.Recommendation, error)
}

// Retrainer refits the fulfillment model
type Retrainer interface {
	Retrain(ctx context.Context) (fulfillment.TrainResult, error)
}

// Env is what a command needs from the running system
type Env struct {
	Values  ValueStore
	Engine  Engine
	Trainer Retrainer

	// Warm loads the newest model before predictions are made
	Warm  func(ctx context.Context) error
	Close func() error
}

// Opener builds an Env
type Opener func(ctx context.Context) (*Env, error)

// ConfigOpener returns an Opener that connects to the configured database
// and builds the engine. The CLI runs without Redis or RabbitMQ. Logs go to
// stderr only when *verbose is set at open time.
func ConfigOpener(verbose *bool) Opener {
	return func(ctx context.Context) (*Env, error) {
		log := zap.NewNop()
		if verbose != nil && *verbose {
			l, err := logger.NewDevelopmentLogger(true)
			if err != nil {
				return nil, fmt.Errorf("failed to initialize logger: %w", err)
			}
			log = l
		}
		return openEnv(ctx, log)
	}
}

func openEnv(ctx context.Context, log *zap.Logger) (*Env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	components, err := app.New(ctx, cfg, db, nil, nil, log)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Env{
		Values:  components.Values,
		Engine:  components.Engine,
		Trainer: components.Trainer,
		Warm:    components.WarmStart,
		Close: func() error {
			_ = logger.Sync(log)
			return db.Close()
		},
	}, nil
}

// withEnv opens an Env, runs fn and closes it
func withEnv(ctx context.Context, open Opener, fn func(*Env) error) error {
	env, err := open(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if env.Close != nil {
			_ = env.Close()
		}
	}()
	return fn(env)
}
