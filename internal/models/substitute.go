package models

import (
	"time"

	"github.com/lib/pq"
)

// Level is an instructional level a class belongs to and a teacher is suited for.
type Level string

const (
	LevelLowerElementary Level = "lower_elementary"
	LevelUpperElementary Level = "upper_elementary"
	LevelMiddle          Level = "middle"
	LevelUnknown         Level = "unknown"
)

// TimetableEntry is one scheduled teaching period for the term.
type TimetableEntry struct {
	ID        string `db:"id" json:"id,omitempty" yaml:"id,omitempty"`
	TermID    string `db:"term_id" json:"term_id,omitempty" yaml:"term_id,omitempty"`
	TeacherID string `db:"teacher_id" json:"teacher_id" yaml:"teacher_id"`
	SubjectID string `db:"subject_id" json:"subject_id" yaml:"subject_id"`
	DayID     string `db:"day_id" json:"day_id" yaml:"day_id"`
	PeriodID  int    `db:"period_id" json:"period_id" yaml:"period_id"`
	ClassID   string `db:"class_id" json:"class_id" yaml:"class_id"`
}

// LeaveEntry marks a timetable period the teacher is away on approved leave.
type LeaveEntry struct {
	ID        string    `db:"id" json:"id,omitempty" yaml:"id,omitempty"`
	LeaveDate string    `db:"leave_date" json:"leave_date,omitempty" yaml:"leave_date,omitempty"`
	TeacherID string    `db:"teacher_id" json:"teacher_id" yaml:"teacher_id"`
	SubjectID string    `db:"subject_id" json:"subject_id" yaml:"subject_id"`
	DayID     string    `db:"day_id" json:"day_id" yaml:"day_id"`
	PeriodID  int       `db:"period_id" json:"period_id" yaml:"period_id"`
	ClassID   string    `db:"class_id" json:"class_id" yaml:"class_id"`
	Reason    string    `db:"reason" json:"reason,omitempty" yaml:"reason,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at" yaml:"-"`
}

// SubstituteRecord is the outcome for one vacant slot. A nil SubstituteTeacherID
// means no eligible teacher was found.
type SubstituteRecord struct {
	ID                  string    `db:"id" json:"id,omitempty" yaml:"id,omitempty"`
	RunID               string    `db:"run_id" json:"run_id,omitempty" yaml:"run_id,omitempty"`
	LeaveDate           string    `db:"leave_date" json:"leave_date,omitempty" yaml:"leave_date,omitempty"`
	DayID               string    `db:"day_id" json:"day_id" yaml:"day_id"`
	PeriodID            int       `db:"period_id" json:"period_id" yaml:"period_id"`
	ClassID             string    `db:"class_id" json:"class_id" yaml:"class_id"`
	SubjectID           string    `db:"subject_id" json:"subject_id" yaml:"subject_id"`
	AbsentTeacherID     string    `db:"absent_teacher_id" json:"absent_teacher_id" yaml:"absent_teacher_id"`
	SubstituteTeacherID *string   `db:"substitute_teacher_id" json:"substitute_teacher_id" yaml:"substitute_teacher_id"`
	CreatedAt           time.Time `db:"created_at" json:"created_at" yaml:"-"`
}

// Filled reports whether a substitute was assigned.
func (r SubstituteRecord) Filled() bool {
	return r.SubstituteTeacherID != nil && *r.SubstituteTeacherID != ""
}

// SubstituteID returns the substitute teacher or an empty string.
func (r SubstituteRecord) SubstituteID() string {
	if r.SubstituteTeacherID == nil {
		return ""
	}
	return *r.SubstituteTeacherID
}

// TeacherSubject is one row of the teacher qualification map.
type TeacherSubject struct {
	TeacherID string `db:"teacher_id" json:"teacher_id"`
	SubjectID string `db:"subject_id" json:"subject_id"`
}

// TeacherLevel is one row of the teacher level map.
type TeacherLevel struct {
	TeacherID string `db:"teacher_id" json:"teacher_id"`
	Level     Level  `db:"level" json:"level"`
}

// ClassLevel assigns a class to its instructional level.
type ClassLevel struct {
	ClassID string `db:"class_id" json:"class_id"`
	Level   Level  `db:"level" json:"level"`
}

// SubstituteRunStatus captures run lifecycle states.
type SubstituteRunStatus string

const (
	SubstituteRunQueued     SubstituteRunStatus = "QUEUED"
	SubstituteRunProcessing SubstituteRunStatus = "PROCESSING"
	SubstituteRunFinished   SubstituteRunStatus = "FINISHED"
	SubstituteRunFailed     SubstituteRunStatus = "FAILED"
)

// SubstituteRun records one invocation of the assignment engine for a date.
type SubstituteRun struct {
	ID             string              `db:"id" json:"id"`
	LeaveDate      string              `db:"leave_date" json:"leave_date"`
	DayID          string              `db:"day_id" json:"day_id"`
	Status         SubstituteRunStatus `db:"status" json:"status"`
	AbsentTeachers pq.StringArray      `db:"absent_teachers" json:"absent_teachers"`
	TotalSlots     int                 `db:"total_slots" json:"total_slots"`
	FilledSlots    int                 `db:"filled_slots" json:"filled_slots"`
	ErrorMessage   *string             `db:"error_message" json:"error_message,omitempty"`
	CreatedAt      time.Time           `db:"created_at" json:"created_at"`
	FinishedAt     *time.Time          `db:"finished_at" json:"finished_at,omitempty"`
}
