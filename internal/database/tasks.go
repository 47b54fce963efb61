package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/SebastianMoseres/Praxable/internal/models"
)

const taskColumns = `id, date, task, task_type, aligned_value, dread_level, location, planned_time,
	actual_time, did_it, mood_before, sleep_quality, energy_level, mood_after, fulfillment_score,
	created_at, updated_at`

// TaskRepository handles task database operations
type TaskRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(db *DB) *TaskRepository {
	return &TaskRepository{db: db, logger: zap.NewNop()}
}

// SetLogger sets the logger used for repository events
func (r *TaskRepository) SetLogger(logger *zap.Logger) {
	if logger != nil {
		r.logger = logger
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*models.Task, error) {
	task := &models.Task{}
	var moodAfter, fulfillment sql.NullInt64
	err := row.Scan(
		&task.ID,
		&task.Date,
		&task.Task,
		&task.TaskType,
		&task.AlignedValue,
		&task.DreadLevel,
		&task.Location,
		&task.PlannedTime,
		&task.ActualTime,
		&task.DidIt,
		&task.MoodBefore,
		&task.SleepQuality,
		&task.EnergyLevel,
		&moodAfter,
		&fulfillment,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	task.MoodAfter = nullableInt(moodAfter)
	task.FulfillmentScore = nullableInt(fulfillment)
	return task, nil
}

func nullableInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}

// Create logs a new task and fills in its generated fields
func (r *TaskRepository) Create(ctx context.Context, task *models.Task) error {
	query := `
		INSERT INTO tasks (date, task, task_type, aligned_value, dread_level, location, planned_time,
			actual_time, did_it, mood_before, sleep_quality, energy_level)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		task.Date,
		task.Task,
		task.TaskType,
		task.AlignedValue,
		task.DreadLevel,
		task.Location,
		task.PlannedTime,
		task.ActualTime,
		task.DidIt,
		task.MoodBefore,
		task.SleepQuality,
		task.EnergyLevel,
	).Scan(&task.ID, &task.CreatedAt, &task.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}

	r.logger.Debug("task_created", zap.Int64("task_id", task.ID))
	return nil
}

// GetByID retrieves a task
func (r *TaskRepository) GetByID(ctx context.Context, id int64) (*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`

	task, err := scanTask(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("task %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return task, nil
}

// List returns all tasks, most recent first
func (r *TaskRepository) List(ctx context.Context) ([]*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks ORDER BY id DESC`
	return r.queryTasks(ctx, query)
}

func (r *TaskRepository) queryTasks(ctx context.Context, query string, args ...any) ([]*models.Task, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			r.logger.Debug("rows_close_failed", zap.Error(closeErr))
		}
	}()

	tasks := []*models.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tasks: %w", err)
	}
	return tasks, nil
}

// RecordFeedback marks a task as done at completedAt and stores the post-task rating
func (r *TaskRepository) RecordFeedback(ctx context.Context, id int64, feedback models.TaskFeedback, completedAt time.Time) (*models.Task, error) {
	query := `
		UPDATE tasks
		SET did_it = TRUE, actual_time = $1, mood_after = $2, fulfillment_score = $3, updated_at = NOW()
		WHERE id = $4
		RETURNING ` + taskColumns

	task, err := scanTask(r.db.QueryRowContext(ctx, query,
		completedAt.Format(models.ClockLayout),
		feedback.MoodAfter,
		feedback.FulfillmentScore,
		id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("task %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to record feedback: %w", err)
	}

	r.logger.Info("task_feedback_recorded",
		zap.Int64("task_id", id),
		zap.Int("fulfillment_score", feedback.FulfillmentScore))
	return task, nil
}

// buildTaskUpdate renders the SET clause for the non-nil fields of u.
// Placeholders start at $1; the caller appends the id argument last.
func buildTaskUpdate(u models.TaskUpdate) (string, []any) {
	var sets []string
	var args []any
	add := func(column string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if u.Task != nil {
		add("task", *u.Task)
	}
	if u.TaskType != nil {
		add("task_type", *u.TaskType)
	}
	if u.AlignedValue != nil {
		add("aligned_value", *u.AlignedValue)
	}
	if u.DreadLevel != nil {
		add("dread_level", *u.DreadLevel)
	}
	if u.MoodAfter != nil {
		add("mood_after", *u.MoodAfter)
	}
	if u.FulfillmentScore != nil {
		add("fulfillment_score", *u.FulfillmentScore)
	}
	if u.EnergyLevel != nil {
		add("energy_level", *u.EnergyLevel)
	}
	if u.MoodBefore != nil {
		add("mood_before", *u.MoodBefore)
	}
	return strings.Join(sets, ", "), args
}

// Update applies a partial update. An empty update just returns the task.
func (r *TaskRepository) Update(ctx context.Context, id int64, u models.TaskUpdate) (*models.Task, error) {
	if u.Empty() {
		return r.GetByID(ctx, id)
	}

	set, args := buildTaskUpdate(u)
	args = append(args, id)
	query := fmt.Sprintf(`UPDATE tasks SET %s, updated_at = NOW() WHERE id = $%d RETURNING %s`, set, len(args), taskColumns)

	task, err := scanTask(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("task %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	r.logger.Debug("task_updated", zap.Int64("task_id", id))
	return task, nil
}

// TrainingRecords returns the feature projection of every task whose
// feedback cycle completed, oldest first.
func (r *TaskRepository) TrainingRecords(ctx context.Context) ([]models.HistoricalTaskRecord, error) {
	query := `
		SELECT task_type, aligned_value, energy_level, mood_before, fulfillment_score
		FROM tasks
		WHERE fulfillment_score IS NOT NULL
		ORDER BY id ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query training records: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			r.logger.Debug("rows_close_failed", zap.Error(closeErr))
		}
	}()

	var records []models.HistoricalTaskRecord
	for rows.Next() {
		var rec models.HistoricalTaskRecord
		var score int
		if err := rows.Scan(&rec.TaskType, &rec.AlignedValue, &rec.EnergyLevel, &rec.MoodBefore, &score); err != nil {
			return nil, fmt.Errorf("failed to scan training record: %w", err)
		}
		rec.FulfillmentScore = &score
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating training records: %w", err)
	}
	return records, nil
}

// AlignmentAnalytics groups tasks by aligned value. Tasks without a
// fulfillment score count as zero in the average.
func (r *TaskRepository) AlignmentAnalytics(ctx context.Context) (*models.AlignmentAnalytics, error) {
	query := `
		SELECT aligned_value, COUNT(*), AVG(COALESCE(fulfillment_score, 0))::float8
		FROM tasks
		GROUP BY aligned_value
		ORDER BY aligned_value
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query alignment analytics: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			r.logger.Debug("rows_close_failed", zap.Error(closeErr))
		}
	}()

	result := &models.AlignmentAnalytics{Breakdown: []models.ValueBreakdown{}}
	for rows.Next() {
		var b models.ValueBreakdown
		if err := rows.Scan(&b.ValueName, &b.TaskCount, &b.AvgFulfillment); err != nil {
			return nil, fmt.Errorf("failed to scan alignment analytics: %w", err)
		}
		result.TotalTasks += b.TaskCount
		result.Breakdown = append(result.Breakdown, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating alignment analytics: %w", err)
	}
	return result, nil
}
