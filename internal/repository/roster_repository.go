package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-substitute-api/internal/models"
)

// RosterRepository reads teacher qualifications, teacher levels, class levels and the subject catalog.
type RosterRepository struct {
	db *sqlx.DB
}

// NewRosterRepository constructs the repository.
func NewRosterRepository(db *sqlx.DB) *RosterRepository {
	return &RosterRepository{db: db}
}

// TeacherSubjects returns teacher id -> subjects the teacher is qualified for.
func (r *RosterRepository) TeacherSubjects(ctx context.Context) (map[string][]string, error) {
	const query = `SELECT teacher_id, subject_id FROM teacher_subjects ORDER BY teacher_id ASC, subject_id ASC`
	var rows []models.TeacherSubject
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list teacher subjects: %w", err)
	}
	result := make(map[string][]string)
	for _, row := range rows {
		result[row.TeacherID] = append(result[row.TeacherID], row.SubjectID)
	}
	return result, nil
}

// TeacherLevels returns teacher id -> levels the teacher is suited for.
func (r *RosterRepository) TeacherLevels(ctx context.Context) (map[string][]models.Level, error) {
	const query = `SELECT teacher_id, level FROM teacher_levels ORDER BY teacher_id ASC, level ASC`
	var rows []models.TeacherLevel
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list teacher levels: %w", err)
	}
	result := make(map[string][]models.Level)
	for _, row := range rows {
		result[row.TeacherID] = append(result[row.TeacherID], row.Level)
	}
	return result, nil
}

// ClassLevels returns class id -> level.
func (r *RosterRepository) ClassLevels(ctx context.Context) (map[string]models.Level, error) {
	const query = `SELECT class_id, level FROM class_levels`
	var rows []models.ClassLevel
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list class levels: %w", err)
	}
	result := make(map[string]models.Level, len(rows))
	for _, row := range rows {
		result[row.ClassID] = row.Level
	}
	return result, nil
}

// Subjects returns the subject catalog.
func (r *RosterRepository) Subjects(ctx context.Context) ([]string, error) {
	const query = `SELECT subject_id FROM subjects ORDER BY subject_id ASC`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query); err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	return ids, nil
}
