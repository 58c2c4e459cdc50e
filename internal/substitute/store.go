package substitute

import (
	"sort"

	"github.com/noah-isme/sma-substitute-api/internal/models"
)

// Store is the read-only snapshot the engine works from. Callers load it once per run.
type Store struct {
	Timetable      []models.TimetableEntry
	Leaves         []models.LeaveEntry
	Qualifications map[string][]string
	Levels         map[string][]models.Level
	ClassLevels    map[string]models.Level
	History        []models.SubstituteRecord
	// Subjects optionally declares subjects that exist even though no teacher is qualified for them.
	Subjects []string
}

type teacherDay struct {
	teacherID string
	dayID     string
}

type teacherPeriod struct {
	teacherID string
	periodID  int
}

type leaveKey struct {
	teacherID string
	dayID     string
	periodID  int
}

// storeIndex holds lookups derived from a Store.
type storeIndex struct {
	teacherIDs     []string
	byTeacherDay   map[teacherDay][]models.TimetableEntry
	termLoad       map[string]int
	qualifications map[string]map[string]struct{}
	levels         map[string]map[models.Level]struct{}
	classLevels    map[string]models.Level
	subjects       map[string]struct{}
}

func newStoreIndex(store *Store) *storeIndex {
	idx := &storeIndex{
		byTeacherDay:   make(map[teacherDay][]models.TimetableEntry),
		termLoad:       make(map[string]int),
		qualifications: make(map[string]map[string]struct{}),
		levels:         make(map[string]map[models.Level]struct{}),
		classLevels:    make(map[string]models.Level, len(store.ClassLevels)),
		subjects:       make(map[string]struct{}),
	}

	teachers := make(map[string]struct{})
	onLeave := make(map[leaveKey]struct{}, len(store.Leaves))
	for _, leave := range store.Leaves {
		onLeave[leaveKey{teacherID: leave.TeacherID, dayID: leave.DayID, periodID: leave.PeriodID}] = struct{}{}
	}

	for _, entry := range store.Timetable {
		teachers[entry.TeacherID] = struct{}{}
		key := teacherDay{teacherID: entry.TeacherID, dayID: entry.DayID}
		idx.byTeacherDay[key] = append(idx.byTeacherDay[key], entry)
		if _, away := onLeave[leaveKey{teacherID: entry.TeacherID, dayID: entry.DayID, periodID: entry.PeriodID}]; !away {
			idx.termLoad[entry.TeacherID]++
		}
	}
	for teacherID, subjects := range store.Qualifications {
		teachers[teacherID] = struct{}{}
		set := make(map[string]struct{}, len(subjects))
		for _, subject := range subjects {
			set[subject] = struct{}{}
			idx.subjects[subject] = struct{}{}
		}
		idx.qualifications[teacherID] = set
	}
	for teacherID, levels := range store.Levels {
		teachers[teacherID] = struct{}{}
		set := make(map[models.Level]struct{}, len(levels))
		for _, level := range levels {
			set[level] = struct{}{}
		}
		idx.levels[teacherID] = set
	}
	for classID, level := range store.ClassLevels {
		idx.classLevels[classID] = level
	}
	for _, subject := range store.Subjects {
		idx.subjects[subject] = struct{}{}
	}

	idx.teacherIDs = make([]string, 0, len(teachers))
	for teacherID := range teachers {
		idx.teacherIDs = append(idx.teacherIDs, teacherID)
	}
	sort.Strings(idx.teacherIDs)
	return idx
}

// entriesFor returns a teacher's entries for the day ordered by period then class.
func (idx *storeIndex) entriesFor(teacherID, dayID string) []models.TimetableEntry {
	entries := append([]models.TimetableEntry(nil), idx.byTeacherDay[teacherDay{teacherID: teacherID, dayID: dayID}]...)
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].PeriodID == entries[j].PeriodID {
			return entries[i].ClassID < entries[j].ClassID
		}
		return entries[i].PeriodID < entries[j].PeriodID
	})
	return entries
}

// WorkingState is the mutable view of one day's run. It owns a private copy of the
// historical log and appends the run's records to it.
type WorkingState struct {
	dayID    string
	index    *storeIndex
	absent   map[string]struct{}
	log      []models.SubstituteRecord
	runStart int

	busy       map[teacherPeriod]struct{}
	dailyLoad  map[string]int
	substitute map[string]int
}

// NewWorkingState seeds a run for dayID from the store.
func NewWorkingState(store *Store, dayID string, absent []string) *WorkingState {
	return newWorkingState(newStoreIndex(store), store.History, dayID, absent)
}

func newWorkingState(idx *storeIndex, history []models.SubstituteRecord, dayID string, absent []string) *WorkingState {
	w := &WorkingState{
		dayID:      dayID,
		index:      idx,
		absent:     make(map[string]struct{}, len(absent)),
		log:        make([]models.SubstituteRecord, len(history)),
		runStart:   len(history),
		busy:       make(map[teacherPeriod]struct{}),
		dailyLoad:  make(map[string]int),
		substitute: make(map[string]int),
	}
	copy(w.log, history)
	for _, teacherID := range absent {
		w.absent[teacherID] = struct{}{}
	}
	for key, entries := range idx.byTeacherDay {
		if key.dayID != dayID {
			continue
		}
		for _, entry := range entries {
			w.busy[teacherPeriod{teacherID: entry.TeacherID, periodID: entry.PeriodID}] = struct{}{}
			w.dailyLoad[entry.TeacherID]++
		}
	}
	for _, record := range history {
		if record.Filled() {
			w.substitute[record.SubstituteID()]++
		}
	}
	return w
}

// DayID returns the day this state was seeded for.
func (w *WorkingState) DayID() string { return w.dayID }

// IsAbsent reports whether the teacher is off for the whole day.
func (w *WorkingState) IsAbsent(teacherID string) bool {
	_, ok := w.absent[teacherID]
	return ok
}

// IsBusy reports whether the teacher already teaches or substitutes at the period.
func (w *WorkingState) IsBusy(teacherID string, periodID int) bool {
	_, ok := w.busy[teacherPeriod{teacherID: teacherID, periodID: periodID}]
	return ok
}

// DailyLoad counts regular periods plus substitute periods assigned in this run.
func (w *WorkingState) DailyLoad(teacherID string) int {
	return w.dailyLoad[teacherID]
}

// SubstituteCount counts records in the whole log where the teacher was the substitute.
func (w *WorkingState) SubstituteCount(teacherID string) int {
	return w.substitute[teacherID]
}

// TermLoad counts the teacher's term periods not covered by leave.
func (w *WorkingState) TermLoad(teacherID string) int {
	return w.index.termLoad[teacherID]
}

// Append adds a record to the log. Filled records count toward the substitute's
// daily load, busy periods and history from here on.
func (w *WorkingState) Append(record models.SubstituteRecord) {
	w.log = append(w.log, record)
	if !record.Filled() {
		return
	}
	teacherID := record.SubstituteID()
	w.substitute[teacherID]++
	if record.DayID == w.dayID {
		w.busy[teacherPeriod{teacherID: teacherID, periodID: record.PeriodID}] = struct{}{}
		w.dailyLoad[teacherID]++
	}
}

// Log returns a copy of history plus run records.
func (w *WorkingState) Log() []models.SubstituteRecord {
	return append([]models.SubstituteRecord(nil), w.log...)
}

// RunRecords returns a copy of the records appended during this run.
func (w *WorkingState) RunRecords() []models.SubstituteRecord {
	return append([]models.SubstituteRecord(nil), w.log[w.runStart:]...)
}
