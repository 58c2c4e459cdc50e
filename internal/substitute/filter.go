package substitute

// ExclusionReason names the hard constraint that removed a candidate.
type ExclusionReason string

const (
	ReasonNone     ExclusionReason = ""
	ReasonAbsent   ExclusionReason = "absent"
	ReasonBusy     ExclusionReason = "busy"
	ReasonDailyCap ExclusionReason = "daily_cap"
)

// Slot is one vacancy: a period of an absent teacher's class that needs cover.
type Slot struct {
	DayID           string `json:"day_id"`
	PeriodID        int    `json:"period_id"`
	ClassID         string `json:"class_id"`
	SubjectID       string `json:"subject_id"`
	AbsentTeacherID string `json:"absent_teacher_id"`
}

// Eligibility is the filter verdict for one candidate.
type Eligibility struct {
	Eligible bool            `json:"eligible"`
	Reason   ExclusionReason `json:"reason,omitempty"`
}

// Filter applies the hard constraints. A teacher at the daily cap is never eligible,
// even when that leaves the slot unfilled.
type Filter struct {
	DailyCap int
}

// Check decides whether teacherID may cover slot given the current working state.
func (f Filter) Check(w *WorkingState, teacherID string, slot Slot) Eligibility {
	if w.IsAbsent(teacherID) {
		return Eligibility{Reason: ReasonAbsent}
	}
	if w.IsBusy(teacherID, slot.PeriodID) {
		return Eligibility{Reason: ReasonBusy}
	}
	if f.DailyCap > 0 && w.DailyLoad(teacherID) >= f.DailyCap {
		return Eligibility{Reason: ReasonDailyCap}
	}
	return Eligibility{Eligible: true}
}
