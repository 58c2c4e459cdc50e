package substitute

import (
	"github.com/noah-isme/sma-substitute-api/internal/models"
)

// Candidate is one teacher's evaluation for a slot.
type Candidate struct {
	TeacherID   string          `json:"teacher_id"`
	Eligibility Eligibility     `json:"eligibility"`
	Score       *ScoreBreakdown `json:"score,omitempty"`
}

// Resolver picks a substitute for a single slot.
type Resolver struct {
	filter Filter
	scorer Scorer
	picker Picker
}

// NewResolver wires the filter, scorer and tie-break source.
func NewResolver(filter Filter, scorer Scorer, picker Picker) *Resolver {
	if picker == nil {
		picker = NewRandPicker(0)
	}
	return &Resolver{filter: filter, scorer: scorer, picker: picker}
}

// Evaluate runs the filter over every known teacher and scores the survivors.
// Excluded candidates are returned without a score.
func (r *Resolver) Evaluate(w *WorkingState, slot Slot) []Candidate {
	candidates := make([]Candidate, 0, len(w.index.teacherIDs))
	for _, teacherID := range w.index.teacherIDs {
		candidate := Candidate{
			TeacherID:   teacherID,
			Eligibility: r.filter.Check(w, teacherID, slot),
		}
		if candidate.Eligibility.Eligible {
			breakdown := r.scorer.Breakdown(w, teacherID, slot)
			candidate.Score = &breakdown
		}
		candidates = append(candidates, candidate)
	}
	return candidates
}

// Resolve selects the best eligible teacher, breaking exact ties through the picker,
// and appends the resulting record to the working state. A record without a substitute
// is a normal outcome when nobody is eligible.
func (r *Resolver) Resolve(w *WorkingState, slot Slot) models.SubstituteRecord {
	record := models.SubstituteRecord{
		DayID:           slot.DayID,
		PeriodID:        slot.PeriodID,
		ClassID:         slot.ClassID,
		SubjectID:       slot.SubjectID,
		AbsentTeacherID: slot.AbsentTeacherID,
	}

	if winner, ok := r.selectWinner(r.Evaluate(w, slot)); ok {
		record.SubstituteTeacherID = &winner
	}
	w.Append(record)
	return record
}

func (r *Resolver) selectWinner(candidates []Candidate) (string, bool) {
	var (
		best  float64
		top   []string
		found bool
	)
	for _, candidate := range candidates {
		if candidate.Score == nil {
			continue
		}
		score := candidate.Score.Total
		switch {
		case !found || score > best:
			best = score
			top = append(top[:0], candidate.TeacherID)
			found = true
		case score == best:
			top = append(top, candidate.TeacherID)
		}
	}
	if !found {
		return "", false
	}
	idx := r.picker.Pick(len(top))
	if idx < 0 || idx >= len(top) {
		idx = 0
	}
	return top[idx], true
}
