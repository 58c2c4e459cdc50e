package dto

import (
	"github.com/noah-isme/sma-substitute-api/internal/models"
	"github.com/noah-isme/sma-substitute-api/internal/substitute"
)

// SubstituteRunRequest asks for substitutes on one date. When AbsentTeacherIDs is empty the
// teachers with leave recorded on that date are used, in the order their leave was filed.
// A non-nil Seed pins tie-breaking exactly, zero included.
type SubstituteRunRequest struct {
	Date             string   `json:"date" validate:"required,datetime=2006-01-02"`
	AbsentTeacherIDs []string `json:"absent_teacher_ids" validate:"omitempty,dive,required"`
	Async            bool     `json:"async"`
	Seed             *int64   `json:"seed,omitempty"`
}

// SubstituteDayResult is the outcome of a preview or a completed run.
type SubstituteDayResult struct {
	RunID            string                    `json:"run_id,omitempty"`
	Date             string                    `json:"date"`
	DayID            string                    `json:"day_id"`
	AbsentTeacherIDs []string                  `json:"absent_teacher_ids"`
	Records          []models.SubstituteRecord `json:"records"`
	TotalSlots       int                       `json:"total_slots"`
	FilledSlots      int                       `json:"filled_slots"`
	DryRun           bool                      `json:"dry_run"`
}

// SubstituteRunAccepted is returned when a run is queued.
type SubstituteRunAccepted struct {
	RunID  string                     `json:"run_id"`
	Status models.SubstituteRunStatus `json:"status"`
}

// CandidateRequest asks why each teacher would or would not cover one slot.
type CandidateRequest struct {
	Date             string   `json:"date" validate:"required,datetime=2006-01-02"`
	AbsentTeacherIDs []string `json:"absent_teacher_ids" validate:"omitempty,dive,required"`
	PeriodID         int      `json:"period_id" validate:"required,min=1"`
	ClassID          string   `json:"class_id" validate:"required"`
	SubjectID        string   `json:"subject_id" validate:"required"`
	AbsentTeacherID  string   `json:"absent_teacher_id"`
}

// CandidateResponse lists every teacher's eligibility and score for the slot, best first.
type CandidateResponse struct {
	Slot       substitute.Slot        `json:"slot"`
	Candidates []substitute.Candidate `json:"candidates"`
}
