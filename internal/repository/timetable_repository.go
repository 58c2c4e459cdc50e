package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-substitute-api/internal/models"
)

const timetableColumns = `id, COALESCE(term_id, '') AS term_id, teacher_id, subject_id, day_id, period_id, class_id`

// TimetableRepository reads the term timetable.
type TimetableRepository struct {
	db *sqlx.DB
}

// NewTimetableRepository constructs the repository.
func NewTimetableRepository(db *sqlx.DB) *TimetableRepository {
	return &TimetableRepository{db: db}
}

// List returns every entry of a term. An empty termID returns all entries.
func (r *TimetableRepository) List(ctx context.Context, termID string) ([]models.TimetableEntry, error) {
	query := `SELECT ` + timetableColumns + ` FROM timetable_entries`
	args := []interface{}{}
	if termID != "" {
		query += ` WHERE term_id = $1`
		args = append(args, termID)
	}
	query += ` ORDER BY teacher_id ASC, day_id ASC, period_id ASC, class_id ASC`

	var entries []models.TimetableEntry
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, fmt.Errorf("list timetable entries: %w", err)
	}
	return entries, nil
}

// ListByTeacherDay returns one teacher's periods on a weekday ordered by period.
func (r *TimetableRepository) ListByTeacherDay(ctx context.Context, termID, teacherID, dayID string) ([]models.TimetableEntry, error) {
	query := `SELECT ` + timetableColumns + ` FROM timetable_entries WHERE teacher_id = $1 AND day_id = $2`
	args := []interface{}{teacherID, dayID}
	if termID != "" {
		query += ` AND term_id = $3`
		args = append(args, termID)
	}
	query += ` ORDER BY period_id ASC, class_id ASC`

	var entries []models.TimetableEntry
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, fmt.Errorf("list teacher timetable: %w", err)
	}
	return entries, nil
}
