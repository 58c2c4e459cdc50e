package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-substitute-api/internal/models"
	appErrors "github.com/noah-isme/sma-substitute-api/pkg/errors"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func strPtr(v string) *string { return &v }

func TestTimetableRepositoryListByTerm(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db)

	rows := sqlmock.NewRows([]string{"id", "term_id", "teacher_id", "subject_id", "day_id", "period_id", "class_id"}).
		AddRow("e1", "term-1", "T001", "MATH", "Mon", 1, "ป.1").
		AddRow("e2", "term-1", "T001", "MATH", "Mon", 2, "ป.2")
	mock.ExpectQuery("FROM timetable_entries WHERE term_id = \\$1 ORDER BY teacher_id").
		WithArgs("term-1").
		WillReturnRows(rows)

	entries, err := repo.List(context.Background(), "term-1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "ป.2", entries[1].ClassID)
	assert.Equal(t, 2, entries[1].PeriodID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositoryListAllTerms(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM timetable_entries ORDER BY teacher_id ASC")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "term_id", "teacher_id", "subject_id", "day_id", "period_id", "class_id"}))

	entries, err := repo.List(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositoryListByTeacherDay(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db)

	rows := sqlmock.NewRows([]string{"id", "term_id", "teacher_id", "subject_id", "day_id", "period_id", "class_id"}).
		AddRow("e1", "", "T001", "MATH", "Mon", 3, "ม.1")
	mock.ExpectQuery("WHERE teacher_id = \\$1 AND day_id = \\$2 ORDER BY period_id").
		WithArgs("T001", "Mon").
		WillReturnRows(rows)

	entries, err := repo.ListByTeacherDay(context.Background(), "", "T001", "Mon")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 3, entries[0].PeriodID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRosterRepositoryMaps(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRosterRepository(db)

	mock.ExpectQuery("FROM teacher_subjects").
		WillReturnRows(sqlmock.NewRows([]string{"teacher_id", "subject_id"}).
			AddRow("T001", "MATH").AddRow("T001", "SCI").AddRow("T002", "THAI"))
	mock.ExpectQuery("FROM teacher_levels").
		WillReturnRows(sqlmock.NewRows([]string{"teacher_id", "level"}).
			AddRow("T001", "lower_elementary").AddRow("T001", "middle"))
	mock.ExpectQuery("FROM class_levels").
		WillReturnRows(sqlmock.NewRows([]string{"class_id", "level"}).AddRow("ป.1", "lower_elementary"))

	subjects, err := repo.TeacherSubjects(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{"T001": {"MATH", "SCI"}, "T002": {"THAI"}}, subjects)

	levels, err := repo.TeacherLevels(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []models.Level{models.LevelLowerElementary, models.LevelMiddle}, levels["T001"])

	classes, err := repo.ClassLevels(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.LevelLowerElementary, classes["ป.1"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRosterRepositorySubjects(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRosterRepository(db)

	mock.ExpectQuery("SELECT subject_id FROM subjects").
		WillReturnRows(sqlmock.NewRows([]string{"subject_id"}).AddRow("MATH").AddRow("SCOUT"))

	subjects, err := repo.Subjects(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"MATH", "SCOUT"}, subjects)

	mock.ExpectQuery("SELECT subject_id FROM subjects").WillReturnError(errors.New("relation does not exist"))
	_, err = repo.Subjects(context.Background())
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLeaveRepositoryCreateBatchAndList(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewLeaveRepository(db)

	mock.ExpectExec("INSERT INTO leave_requests").
		WithArgs(sqlmock.AnyArg(), "2024-05-13", "T001", "MATH", "Mon", 1, "ป.1", "sick", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO leave_requests").
		WithArgs(sqlmock.AnyArg(), "2024-05-13", "T001", "MATH", "Mon", 2, "ป.2", "sick", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	leaves := []models.LeaveEntry{
		{LeaveDate: "2024-05-13", TeacherID: "T001", SubjectID: "MATH", DayID: "Mon", PeriodID: 1, ClassID: "ป.1", Reason: "sick"},
		{LeaveDate: "2024-05-13", TeacherID: "T001", SubjectID: "MATH", DayID: "Mon", PeriodID: 2, ClassID: "ป.2", Reason: "sick"},
	}
	require.NoError(t, repo.CreateBatch(context.Background(), nil, leaves))
	assert.NotEmpty(t, leaves[0].ID)
	assert.False(t, leaves[1].CreatedAt.IsZero())

	now := time.Now()
	mock.ExpectQuery("FROM leave_requests WHERE leave_date = \\$1").
		WithArgs("2024-05-13").
		WillReturnRows(sqlmock.NewRows([]string{"id", "leave_date", "teacher_id", "subject_id", "day_id", "period_id", "class_id", "reason", "created_at"}).
			AddRow("l1", "2024-05-13", "T001", "MATH", "Mon", 1, "ป.1", "sick", now))

	listed, err := repo.ListByDate(context.Background(), "2024-05-13")
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "sick", listed[0].Reason)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLeaveRepositoryAbsentTeacherIDs(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewLeaveRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("GROUP BY teacher_id ORDER BY MIN(created_at) ASC")).
		WithArgs("2024-05-13").
		WillReturnRows(sqlmock.NewRows([]string{"teacher_id"}).AddRow("T007").AddRow("T001"))

	ids, err := repo.AbsentTeacherIDs(context.Background(), "2024-05-13")
	require.NoError(t, err)
	assert.Equal(t, []string{"T007", "T001"}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubstituteRecordRepositoryReplaceForDate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSubstituteRecordRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM substitute_records WHERE leave_date = \\$1").
		WithArgs("2024-05-13").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("INSERT INTO substitute_records").
		WithArgs(sqlmock.AnyArg(), "run-1", "2024-05-13", "Mon", 1, "ป.1", "MATH", "T001", "T003", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO substitute_records").
		WithArgs(sqlmock.AnyArg(), "run-1", "2024-05-13", "Mon", 2, "ป.1", "MATH", "T001", nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)
	records := []models.SubstituteRecord{
		{RunID: "run-1", DayID: "Mon", PeriodID: 1, ClassID: "ป.1", SubjectID: "MATH", AbsentTeacherID: "T001", SubstituteTeacherID: strPtr("T003")},
		{RunID: "run-1", DayID: "Mon", PeriodID: 2, ClassID: "ป.1", SubjectID: "MATH", AbsentTeacherID: "T001"},
	}
	require.NoError(t, repo.ReplaceForDate(context.Background(), tx, "2024-05-13", records))
	require.NoError(t, tx.Commit())

	assert.Equal(t, "2024-05-13", records[1].LeaveDate)
	assert.NotEmpty(t, records[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubstituteRecordRepositoryListHistory(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSubstituteRecordRepository(db)

	now := time.Now()
	mock.ExpectQuery("FROM substitute_records WHERE leave_date <> \\$1").
		WithArgs("2024-05-13").
		WillReturnRows(sqlmock.NewRows([]string{"id", "run_id", "leave_date", "day_id", "period_id", "class_id", "subject_id", "absent_teacher_id", "substitute_teacher_id", "created_at"}).
			AddRow("r1", "run-0", "2024-05-06", "Mon", 1, "ป.1", "MATH", "T001", "T003", now).
			AddRow("r2", "run-0", "2024-05-06", "Mon", 2, "ป.1", "MATH", "T001", nil, now))

	history, err := repo.ListHistory(context.Background(), "2024-05-13")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "T003", history[0].SubstituteID())
	assert.False(t, history[1].Filled())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubstituteRunRepositoryLifecycle(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSubstituteRunRepository(db)

	mock.ExpectExec("INSERT INTO substitute_runs").
		WithArgs(sqlmock.AnyArg(), "2024-05-13", "Mon", "QUEUED", sqlmock.AnyArg(), 0, 0, nil, sqlmock.AnyArg(), nil).
		WillReturnResult(sqlmock.NewResult(1, 1))
	run := &models.SubstituteRun{LeaveDate: "2024-05-13", DayID: "Mon", Status: models.SubstituteRunQueued}
	require.NoError(t, repo.Create(context.Background(), nil, run))
	require.NotEmpty(t, run.ID)

	mock.ExpectExec("UPDATE substitute_runs").
		WillReturnResult(sqlmock.NewResult(0, 0))
	run.Status = models.SubstituteRunFinished
	assert.Error(t, repo.Update(context.Background(), nil, run))

	now := time.Now()
	mock.ExpectQuery("FROM substitute_runs WHERE id = \\$1").
		WithArgs(run.ID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "leave_date", "day_id", "status", "absent_teachers", "total_slots", "filled_slots", "error_message", "created_at", "finished_at"}).
			AddRow(run.ID, "2024-05-13", "Mon", "FINISHED", "{T001,T002}", 5, 4, nil, now, now))

	got, err := repo.GetByID(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SubstituteRunFinished, got.Status)
	assert.Equal(t, []string{"T001", "T002"}, []string(got.AbsentTeachers))
	assert.Equal(t, 4, got.FilledSlots)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCacheRepositoryNilClient(t *testing.T) {
	repo := NewCacheRepository(nil, nil)
	var dest map[string]string
	assert.ErrorIs(t, repo.Get(context.Background(), "k", &dest), appErrors.ErrCacheMiss)
	assert.NoError(t, repo.Set(context.Background(), "k", map[string]string{"a": "b"}, time.Minute))
	assert.NoError(t, repo.Delete(context.Background(), "k"))
	assert.NoError(t, repo.Ping(context.Background()))
}
