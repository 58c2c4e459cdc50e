package substitute

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-substitute-api/internal/models"
)

func TestSummarizeAndText(t *testing.T) {
	records := []models.SubstituteRecord{
		{DayID: "Mon", PeriodID: 2, ClassID: "ป.2", SubjectID: "MATH", AbsentTeacherID: "T001"},
		{DayID: "Mon", PeriodID: 1, ClassID: "ป.1", SubjectID: "MATH", AbsentTeacherID: "T001", SubstituteTeacherID: strPtr("T003")},
		{DayID: "Mon", PeriodID: 1, ClassID: "ม.1", SubjectID: "SCI", AbsentTeacherID: "T002", SubstituteTeacherID: strPtr("T004")},
	}
	names := map[string]string{"T001": "Somchai", "T003": "Malee"}
	summary := Summarize("2024-05-13", "Mon", records, func(id string) string {
		if n, ok := names[id]; ok {
			return n
		}
		return id
	})

	assert.Equal(t, []string{"T001", "T002"}, summary.AbsentTeachers)
	assert.Equal(t, 3, summary.TotalSlots)
	assert.Equal(t, 2, summary.FilledSlots)
	assert.InDelta(t, 66.67, summary.SuccessRate, 0.01)
	require.Len(t, summary.Lines, 3)
	assert.Equal(t, "ป.1", summary.Lines[0].ClassID)
	assert.Equal(t, "ม.1", summary.Lines[1].ClassID)
	assert.True(t, summary.Lines[2].SubstituteMissing)

	text := summary.Text()
	assert.Contains(t, text, "Covered: 2 (66.7%)")
	assert.Contains(t, text, "MATH (ป.1): Somchai -> Malee")
	assert.Contains(t, text, "MATH (ป.2): Somchai -> no substitute found")
	assert.Contains(t, text, "SCI (ม.1): T002 -> T004")
}

func TestSummaryTextEmpty(t *testing.T) {
	text := Summarize("2024-05-18", "Sat", nil, nil).Text()
	assert.Contains(t, text, "No absences recorded")
}

func TestParseDate(t *testing.T) {
	parsed, dayID, err := ParseDate("2024-05-13")
	require.NoError(t, err)
	assert.Equal(t, "Mon", dayID)
	assert.Equal(t, time.May, parsed.Month())

	_, dayID, err = ParseDate("2024-05-19")
	require.NoError(t, err)
	assert.Equal(t, "Sun", dayID)

	_, _, err = ParseDate("13/05/2024")
	assert.ErrorIs(t, err, ErrInputValidation)
}
