package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-substitute-api/internal/models"
)

const leaveColumns = `id, to_char(leave_date, 'YYYY-MM-DD') AS leave_date, teacher_id, subject_id, day_id, period_id, class_id, COALESCE(reason, '') AS reason, created_at`

// LeaveRepository persists approved leave periods.
type LeaveRepository struct {
	db *sqlx.DB
}

// NewLeaveRepository constructs the repository.
func NewLeaveRepository(db *sqlx.DB) *LeaveRepository {
	return &LeaveRepository{db: db}
}

func (r *LeaveRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// CreateBatch inserts leave periods, skipping ones already recorded for the same teacher and slot.
func (r *LeaveRepository) CreateBatch(ctx context.Context, exec sqlx.ExtContext, leaves []models.LeaveEntry) error {
	if len(leaves) == 0 {
		return nil
	}
	target := r.exec(exec)
	now := time.Now().UTC()

	const query = `
INSERT INTO leave_requests (id, leave_date, teacher_id, subject_id, day_id, period_id, class_id, reason, created_at)
VALUES (:id, :leave_date, :teacher_id, :subject_id, :day_id, :period_id, :class_id, :reason, :created_at)
ON CONFLICT (leave_date, teacher_id, period_id, class_id) DO NOTHING`

	for i := range leaves {
		leave := &leaves[i]
		if leave.ID == "" {
			leave.ID = uuid.NewString()
		}
		if leave.CreatedAt.IsZero() {
			leave.CreatedAt = now
		}
		if _, err := sqlx.NamedExecContext(ctx, target, query, leave); err != nil {
			return fmt.Errorf("insert leave request: %w", err)
		}
	}
	return nil
}

// ListByDate returns leave periods on one date ordered by teacher then period.
func (r *LeaveRepository) ListByDate(ctx context.Context, date string) ([]models.LeaveEntry, error) {
	query := `SELECT ` + leaveColumns + ` FROM leave_requests WHERE leave_date = $1 ORDER BY teacher_id ASC, period_id ASC, class_id ASC`
	var leaves []models.LeaveEntry
	if err := r.db.SelectContext(ctx, &leaves, query, date); err != nil {
		return nil, fmt.Errorf("list leave requests: %w", err)
	}
	return leaves, nil
}

// List returns every recorded leave period. Used to discount term load.
func (r *LeaveRepository) List(ctx context.Context) ([]models.LeaveEntry, error) {
	query := `SELECT ` + leaveColumns + ` FROM leave_requests ORDER BY leave_date ASC, teacher_id ASC, period_id ASC`
	var leaves []models.LeaveEntry
	if err := r.db.SelectContext(ctx, &leaves, query); err != nil {
		return nil, fmt.Errorf("list leave requests: %w", err)
	}
	return leaves, nil
}

// AbsentTeacherIDs returns the teachers on leave on date in the order their leave was first recorded.
func (r *LeaveRepository) AbsentTeacherIDs(ctx context.Context, date string) ([]string, error) {
	const query = `SELECT teacher_id FROM leave_requests WHERE leave_date = $1 GROUP BY teacher_id ORDER BY MIN(created_at) ASC, teacher_id ASC`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, date); err != nil {
		return nil, fmt.Errorf("list absent teachers: %w", err)
	}
	return ids, nil
}
