package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/SebastianMoseres/Praxable/internal/models"
)

// ModelSnapshotRepository persists trained fulfillment models
type ModelSnapshotRepository struct {
	db *DB
}

// NewModelSnapshotRepository creates a new model snapshot repository
func NewModelSnapshotRepository(db *DB) *ModelSnapshotRepository {
	return &ModelSnapshotRepository{db: db}
}

// Save stores a snapshot
func (r *ModelSnapshotRepository) Save(ctx context.Context, snap *models.ModelSnapshotRecord) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO model_snapshots (version, trained_at, sample_count, payload)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`, snap.Version, snap.TrainedAt, snap.SampleCount, string(snap.Payload)).Scan(&snap.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save model snapshot: %w", err)
	}
	return nil
}

// Latest returns the most recently trained snapshot, or ErrNotFound
func (r *ModelSnapshotRepository) Latest(ctx context.Context) (*models.ModelSnapshotRecord, error) {
	snap := &models.ModelSnapshotRecord{}
	err := r.db.QueryRowContext(ctx, `
		SELECT version, trained_at, sample_count, payload, created_at
		FROM model_snapshots
		ORDER BY trained_at DESC
		LIMIT 1
	`).Scan(&snap.Version, &snap.TrainedAt, &snap.SampleCount, &snap.Payload, &snap.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("model snapshot: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest model snapshot: %w", err)
	}
	return snap, nil
}

// Prune keeps the newest keep snapshots and deletes the rest
func (r *ModelSnapshotRepository) Prune(ctx context.Context, keep int) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM model_snapshots
		WHERE version NOT IN (
			SELECT version FROM model_snapshots ORDER BY trained_at DESC LIMIT $1
		)
	`, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to prune model snapshots: %w", err)
	}
	return res.RowsAffected()
}
