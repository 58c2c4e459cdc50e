package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-substitute-api/internal/models"
)

// SubstituteRunRepository tracks engine runs.
type SubstituteRunRepository struct {
	db *sqlx.DB
}

// NewSubstituteRunRepository constructs the repository.
func NewSubstituteRunRepository(db *sqlx.DB) *SubstituteRunRepository {
	return &SubstituteRunRepository{db: db}
}

func (r *SubstituteRunRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Create inserts a run row.
func (r *SubstituteRunRepository) Create(ctx context.Context, exec sqlx.ExtContext, run *models.SubstituteRun) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	const query = `
INSERT INTO substitute_runs (id, leave_date, day_id, status, absent_teachers, total_slots, filled_slots, error_message, created_at, finished_at)
VALUES (:id, :leave_date, :day_id, :status, :absent_teachers, :total_slots, :filled_slots, :error_message, :created_at, :finished_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, run); err != nil {
		return fmt.Errorf("insert substitute run: %w", err)
	}
	return nil
}

// Update stores the run's status, counters and completion time.
func (r *SubstituteRunRepository) Update(ctx context.Context, exec sqlx.ExtContext, run *models.SubstituteRun) error {
	const query = `
UPDATE substitute_runs
SET status = :status,
    day_id = :day_id,
    absent_teachers = :absent_teachers,
    total_slots = :total_slots,
    filled_slots = :filled_slots,
    error_message = :error_message,
    finished_at = :finished_at
WHERE id = :id`
	res, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, run)
	if err != nil {
		return fmt.Errorf("update substitute run: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("update substitute run %s: no rows", run.ID)
	}
	return nil
}

// GetByID fetches one run.
func (r *SubstituteRunRepository) GetByID(ctx context.Context, id string) (*models.SubstituteRun, error) {
	const query = `SELECT id, to_char(leave_date, 'YYYY-MM-DD') AS leave_date, day_id, status, absent_teachers, total_slots, filled_slots, error_message, created_at, finished_at FROM substitute_runs WHERE id = $1`
	var run models.SubstituteRun
	if err := r.db.GetContext(ctx, &run, query, id); err != nil {
		return nil, err
	}
	return &run, nil
}
