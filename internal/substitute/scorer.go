package substitute

// ScoreBreakdown lists every additive term of a candidate's score.
type ScoreBreakdown struct {
	Subject    float64 `json:"subject"`
	Level      float64 `json:"level"`
	DailyLoad  float64 `json:"daily_load"`
	History    float64 `json:"history"`
	TermLoad   float64 `json:"term_load"`
	LastResort float64 `json:"last_resort"`
	Total      float64 `json:"total"`
}

// Scorer rates eligible candidates. Higher is better.
type Scorer struct {
	weights    Weights
	lastResort map[string]struct{}
}

// NewScorer builds a scorer from weights and the last-resort teacher list.
func NewScorer(weights Weights, lastResort []string) Scorer {
	set := make(map[string]struct{}, len(lastResort))
	for _, teacherID := range lastResort {
		set[teacherID] = struct{}{}
	}
	return Scorer{weights: weights, lastResort: set}
}

// Score returns the total desirability of teacherID for slot.
func (s Scorer) Score(w *WorkingState, teacherID string, slot Slot) float64 {
	return s.Breakdown(w, teacherID, slot).Total
}

// Breakdown computes each term separately. Terms are summed in a fixed order so that
// candidates with identical inputs get bit-identical totals.
func (s Scorer) Breakdown(w *WorkingState, teacherID string, slot Slot) ScoreBreakdown {
	var b ScoreBreakdown

	if _, ok := w.index.qualifications[teacherID][slot.SubjectID]; ok {
		b.Subject = s.weights.SubjectBonus
	}

	classLevel, known := w.index.classLevels[slot.ClassID]
	if _, ok := w.index.levels[teacherID][classLevel]; known && ok {
		b.Level = s.weights.LevelMatchBonus
	} else {
		b.Level = -s.weights.LevelMismatchPenalty
	}

	b.DailyLoad = -s.weights.DailyLoad * float64(w.DailyLoad(teacherID))
	b.History = -s.weights.History * float64(w.SubstituteCount(teacherID))
	b.TermLoad = -s.weights.TermLoad * float64(w.TermLoad(teacherID))

	if _, ok := s.lastResort[teacherID]; ok {
		b.LastResort = -s.weights.LastResortPenalty
	}

	b.Total = b.Subject + b.Level + b.DailyLoad + b.History + b.TermLoad + b.LastResort
	return b
}
