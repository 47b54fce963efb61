package database

import (
	"context"
	"time"

	"github.com/SebastianMoseres/Praxable/internal/models"
)

// TaskRepositoryInterface defines the interface for task repository operations
// This interface enables better testability by allowing mock implementations
type TaskRepositoryInterface interface {
	Create(ctx context.Context, task *models.Task) error
	GetByID(ctx context.Context, id int64) (*models.Task, error)
	List(ctx context.Context) ([]*models.Task, error)
	RecordFeedback(ctx context.Context, id int64, feedback models.TaskFeedback, completedAt time.Time) (*models.Task, error)
	Update(ctx context.Context, id int64, u models.TaskUpdate) (*models.Task, error)
	AlignmentAnalytics(ctx context.Context) (*models.AlignmentAnalytics, error)
	TrainingRecordSource
}

// TrainingRecordSource supplies labelled records for model training
type TrainingRecordSource interface {
	TrainingRecords(ctx context.Context) ([]models.HistoricalTaskRecord, error)
}

// CoreValueRepositoryInterface defines the interface for core value repository operations
type CoreValueRepositoryInterface interface {
	List(ctx context.Context) ([]models.CoreValue, error)
	Create(ctx context.Context, name string) (*models.CoreValue, error)
	Delete(ctx context.Context, name string) error
}

// ModelSnapshotRepositoryInterface defines the interface for model snapshot repository operations
type ModelSnapshotRepositoryInterface interface {
	Save(ctx context.Context, snap *models.ModelSnapshotRecord) error
	Latest(ctx context.Context) (*models.ModelSnapshotRecord, error)
	Prune(ctx context.Context, keep int) (int64, error)
}

// Ensure concrete types implement the interfaces
var (
	_ TaskRepositoryInterface          = (*TaskRepository)(nil)
	_ CoreValueRepositoryInterface     = (*CoreValueRepository)(nil)
	_ ModelSnapshotRepositoryInterface = (*ModelSnapshotRepository)(nil)
)
