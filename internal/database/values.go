package database

import (
	"context"
	"fmt"

	"github.com/SebastianMoseres/Praxable/internal/models"
)

// CoreValueRepository handles core value database operations
type CoreValueRepository struct {
	db *DB
}

// NewCoreValueRepository creates a new core value repository
func NewCoreValueRepository(db *DB) *CoreValueRepository {
	return &CoreValueRepository{db: db}
}

// List returns all values in insertion order
func (r *CoreValueRepository) List(ctx context.Context) ([]models.CoreValue, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, value_name FROM core_values ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query core values: %w", err)
	}
	defer func() { _ = rows.Close() }()

	values := []models.CoreValue{}
	for rows.Next() {
		var v models.CoreValue
		if err := rows.Scan(&v.ID, &v.ValueName); err != nil {
			return nil, fmt.Errorf("failed to scan core value: %w", err)
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating core values: %w", err)
	}
	return values, nil
}

// Create adds a value. Duplicates return ErrDuplicate.
func (r *CoreValueRepository) Create(ctx context.Context, name string) (*models.CoreValue, error) {
	v := &models.CoreValue{ValueName: name}
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO core_values (value_name) VALUES ($1) RETURNING id`, name,
	).Scan(&v.ID)
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("core value %q: %w", name, ErrDuplicate)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create core value: %w", err)
	}
	return v, nil
}

// Delete removes a value by name. Missing values return ErrNotFound.
func (r *CoreValueRepository) Delete(ctx context.Context, name string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM core_values WHERE value_name = $1`, name)
	if err != nil {
		return fmt.Errorf("failed to delete core value: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deleted rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("core value %q: %w", name, ErrNotFound)
	}
	return nil
}
