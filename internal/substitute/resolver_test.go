package substitute

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-substitute-api/internal/models"
)

func tiedStore() *Store {
	return &Store{
		Timetable: []models.TimetableEntry{
			entry("ABS", "Math", "Mon", 1, "ป.1"),
		},
		Qualifications: map[string][]string{"ABS": {"Math"}, "P": {"Math"}, "Q": {"Math"}},
		Levels: map[string][]models.Level{
			"P": {models.LevelLowerElementary},
			"Q": {models.LevelLowerElementary},
		},
		ClassLevels: defaultClassLevels(),
	}
}

func TestResolveTieBreakIsRoughlyUniform(t *testing.T) {
	store := tiedStore()
	resolver := NewResolver(Filter{DailyCap: 4}, NewScorer(DefaultWeights(), nil), NewRandPicker(7))
	slot := Slot{DayID: "Mon", PeriodID: 1, ClassID: "ป.1", SubjectID: "Math", AbsentTeacherID: "ABS"}

	const trials = 4000
	wins := map[string]int{}
	for i := 0; i < trials; i++ {
		state := NewWorkingState(store, "Mon", []string{"ABS"})
		record := resolver.Resolve(state, slot)
		require.True(t, record.Filled())
		wins[record.SubstituteID()]++
	}

	assert.Len(t, wins, 2)
	for _, teacherID := range []string{"P", "Q"} {
		share := float64(wins[teacherID]) / trials
		assert.InDelta(t, 0.5, share, 0.05, "teacher %s won %.3f of ties", teacherID, share)
	}
}

func TestResolveUsesInjectedPicker(t *testing.T) {
	store := tiedStore()
	var seen int
	picker := PickerFunc(func(n int) int {
		seen = n
		return n - 1
	})
	resolver := NewResolver(Filter{DailyCap: 4}, NewScorer(DefaultWeights(), nil), picker)

	state := NewWorkingState(store, "Mon", []string{"ABS"})
	record := resolver.Resolve(state, Slot{DayID: "Mon", PeriodID: 1, ClassID: "ป.1", SubjectID: "Math", AbsentTeacherID: "ABS"})

	assert.Equal(t, 2, seen)
	assert.Equal(t, "Q", record.SubstituteID())
}

func TestResolveOutOfRangePickFallsBackToFirst(t *testing.T) {
	resolver := NewResolver(Filter{}, NewScorer(DefaultWeights(), nil), PickerFunc(func(int) int { return 9 }))
	state := NewWorkingState(tiedStore(), "Mon", []string{"ABS"})

	record := resolver.Resolve(state, Slot{DayID: "Mon", PeriodID: 1, ClassID: "ป.1", SubjectID: "Math", AbsentTeacherID: "ABS"})
	assert.Equal(t, "P", record.SubstituteID())
}

func TestResolveNoCandidateAppendsEmptyRecord(t *testing.T) {
	store := tiedStore()
	resolver := NewResolver(Filter{DailyCap: 4}, NewScorer(DefaultWeights(), nil), FirstPicker)
	state := NewWorkingState(store, "Mon", []string{"ABS", "P", "Q"})

	record := resolver.Resolve(state, Slot{DayID: "Mon", PeriodID: 1, ClassID: "ป.1", SubjectID: "Math", AbsentTeacherID: "ABS"})

	assert.False(t, record.Filled())
	assert.Nil(t, record.SubstituteTeacherID)
	require.Len(t, state.RunRecords(), 1)
	assert.Equal(t, "ABS", state.RunRecords()[0].AbsentTeacherID)
}

func TestRandPickerSingleCandidate(t *testing.T) {
	picker := NewRandPicker(1)
	assert.Equal(t, 0, picker.Pick(1))
	assert.Equal(t, 0, picker.Pick(0))
	for i := 0; i < 50; i++ {
		v := picker.Pick(3)
		assert.GreaterOrEqual(t, v, 0)
		assert.Less(t, v, 3)
	}
}

func TestSeededPickerZeroSeedIsFixed(t *testing.T) {
	a, b := NewSeededPicker(0), NewSeededPicker(0)
	for i := 0; i < 50; i++ {
		assert.Equal(t, a.Pick(10), b.Pick(10))
	}
}
