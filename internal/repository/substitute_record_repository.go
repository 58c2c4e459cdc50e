package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-substitute-api/internal/models"
)

const substituteRecordColumns = `id, COALESCE(run_id::text, '') AS run_id, to_char(leave_date, 'YYYY-MM-DD') AS leave_date, day_id, period_id, class_id, subject_id, absent_teacher_id, substitute_teacher_id, created_at`

// SubstituteRecordRepository persists engine output per date.
type SubstituteRecordRepository struct {
	db *sqlx.DB
}

// NewSubstituteRecordRepository constructs the repository.
func NewSubstituteRecordRepository(db *sqlx.DB) *SubstituteRecordRepository {
	return &SubstituteRecordRepository{db: db}
}

func (r *SubstituteRecordRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// ListByDate returns records for one date in the order they were produced.
func (r *SubstituteRecordRepository) ListByDate(ctx context.Context, date string) ([]models.SubstituteRecord, error) {
	query := `SELECT ` + substituteRecordColumns + ` FROM substitute_records WHERE leave_date = $1 ORDER BY created_at ASC, seq ASC`
	var records []models.SubstituteRecord
	if err := r.db.SelectContext(ctx, &records, query, date); err != nil {
		return nil, fmt.Errorf("list substitute records: %w", err)
	}
	return records, nil
}

// ListHistory returns every record not dated excludeDate. Re-running a date replaces its
// records, so they must not count toward fairness for that same run.
func (r *SubstituteRecordRepository) ListHistory(ctx context.Context, excludeDate string) ([]models.SubstituteRecord, error) {
	query := `SELECT ` + substituteRecordColumns + ` FROM substitute_records WHERE leave_date <> $1 ORDER BY leave_date ASC, seq ASC`
	var records []models.SubstituteRecord
	if err := r.db.SelectContext(ctx, &records, query, excludeDate); err != nil {
		return nil, fmt.Errorf("list substitute history: %w", err)
	}
	return records, nil
}

// ReplaceForDate deletes the records stored for date and inserts records in their place.
func (r *SubstituteRecordRepository) ReplaceForDate(ctx context.Context, exec sqlx.ExtContext, date string, records []models.SubstituteRecord) error {
	target := r.exec(exec)
	if _, err := target.ExecContext(ctx, `DELETE FROM substitute_records WHERE leave_date = $1`, date); err != nil {
		return fmt.Errorf("delete substitute records: %w", err)
	}

	const query = `
INSERT INTO substitute_records (id, run_id, leave_date, day_id, period_id, class_id, subject_id, absent_teacher_id, substitute_teacher_id, created_at)
VALUES (:id, :run_id, :leave_date, :day_id, :period_id, :class_id, :subject_id, :absent_teacher_id, :substitute_teacher_id, :created_at)`

	now := time.Now().UTC()
	for i := range records {
		record := &records[i]
		if record.ID == "" {
			record.ID = uuid.NewString()
		}
		record.LeaveDate = date
		if record.CreatedAt.IsZero() {
			record.CreatedAt = now
		}
		if _, err := sqlx.NamedExecContext(ctx, target, query, record); err != nil {
			return fmt.Errorf("insert substitute record: %w", err)
		}
	}
	return nil
}
