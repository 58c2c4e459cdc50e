package substitute

import (
	"fmt"
	"sort"
	"strings"

	"github.com/noah-isme/sma-substitute-api/internal/models"
)

// NameFunc resolves a teacher id to a display name.
type NameFunc func(teacherID string) string

// SummaryLine is one vacant slot in a day summary.
type SummaryLine struct {
	PeriodID          int    `json:"period_id"`
	ClassID           string `json:"class_id"`
	SubjectID         string `json:"subject_id"`
	AbsentTeacherID   string `json:"absent_teacher_id"`
	AbsentName        string `json:"absent_name"`
	SubstituteID      string `json:"substitute_teacher_id,omitempty"`
	SubstituteName    string `json:"substitute_name,omitempty"`
	SubstituteMissing bool   `json:"substitute_missing"`
}

// Summary aggregates one day's records for reporting.
type Summary struct {
	Date           string        `json:"date"`
	DayID          string        `json:"day_id"`
	AbsentTeachers []string      `json:"absent_teachers"`
	TotalSlots     int           `json:"total_slots"`
	FilledSlots    int           `json:"filled_slots"`
	SuccessRate    float64       `json:"success_rate"`
	Lines          []SummaryLine `json:"lines"`
}

// Summarize builds a Summary from records. Lines are ordered by period, then class.
// A nil names func shows raw teacher ids.
func Summarize(date, dayID string, records []models.SubstituteRecord, names NameFunc) Summary {
	if names == nil {
		names = func(id string) string { return id }
	}
	s := Summary{Date: date, DayID: dayID, AbsentTeachers: []string{}, Lines: make([]SummaryLine, 0, len(records))}
	seen := make(map[string]struct{})
	for _, record := range records {
		if _, ok := seen[record.AbsentTeacherID]; !ok {
			seen[record.AbsentTeacherID] = struct{}{}
			s.AbsentTeachers = append(s.AbsentTeachers, record.AbsentTeacherID)
		}
		line := SummaryLine{
			PeriodID:        record.PeriodID,
			ClassID:         record.ClassID,
			SubjectID:       record.SubjectID,
			AbsentTeacherID: record.AbsentTeacherID,
			AbsentName:      names(record.AbsentTeacherID),
		}
		if record.Filled() {
			s.FilledSlots++
			line.SubstituteID = record.SubstituteID()
			line.SubstituteName = names(line.SubstituteID)
		} else {
			line.SubstituteMissing = true
		}
		s.Lines = append(s.Lines, line)
	}
	s.TotalSlots = len(records)
	if s.TotalSlots > 0 {
		s.SuccessRate = float64(s.FilledSlots) / float64(s.TotalSlots) * 100
	}
	sort.SliceStable(s.Lines, func(i, j int) bool {
		if s.Lines[i].PeriodID != s.Lines[j].PeriodID {
			return s.Lines[i].PeriodID < s.Lines[j].PeriodID
		}
		return s.Lines[i].ClassID < s.Lines[j].ClassID
	})
	return s
}

// Text renders the summary as a plain-text report.
func (s Summary) Text() string {
	var b strings.Builder
	rule := strings.Repeat("=", 30)
	fmt.Fprintf(&b, "Substitute assignment report\nDate: %s (%s)\n%s\n", s.Date, s.DayID, rule)
	if s.TotalSlots == 0 {
		b.WriteString("\nNo absences recorded for this date.\n")
		return b.String()
	}

	fmt.Fprintf(&b, "\nAbsent teachers: %d\n", len(s.AbsentTeachers))
	fmt.Fprintf(&b, "Periods to cover: %d\n", s.TotalSlots)
	fmt.Fprintf(&b, "Covered: %d (%.1f%%)\n", s.FilledSlots, s.SuccessRate)

	currentPeriod := 0
	for _, line := range s.Lines {
		if line.PeriodID != currentPeriod {
			currentPeriod = line.PeriodID
			fmt.Fprintf(&b, "\nPeriod %d:\n", currentPeriod)
		}
		target := line.SubstituteName
		if line.SubstituteMissing {
			target = "no substitute found"
		}
		fmt.Fprintf(&b, "  - %s (%s): %s -> %s\n", line.SubjectID, line.ClassID, line.AbsentName, target)
	}
	b.WriteString("\n" + rule + "\n")
	return b.String()
}
