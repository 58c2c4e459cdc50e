// Package substitute assigns cover teachers to periods left vacant by absent staff.
//
// The engine is split into a hard-constraint Filter, an additive Scorer over the
// survivors, a Resolver that picks the best candidate for one slot, and Engine.AssignDay
// which walks every vacant slot of a day. Each run works on its own WorkingState so
// assignments made earlier in the run are visible to later slots and nothing leaks
// between runs.
package substitute

import (
	"github.com/noah-isme/sma-substitute-api/internal/models"
)

// DayRequest identifies the day to process and the teachers who are away for all of it.
// Absent teachers are processed in the given order.
type DayRequest struct {
	DayID            string
	AbsentTeacherIDs []string
}

// DayResult is the ordered output of one day's run.
type DayResult struct {
	DayID   string
	Records []models.SubstituteRecord
	State   *WorkingState
}

// Filled counts records with a substitute.
func (r *DayResult) Filled() int {
	filled := 0
	for _, record := range r.Records {
		if record.Filled() {
			filled++
		}
	}
	return filled
}

// Engine runs the per-day assignment.
type Engine struct {
	cfg      Config
	resolver *Resolver
}

// NewEngine builds an engine. A nil picker falls back to a time-seeded RandPicker.
func NewEngine(cfg Config, picker Picker) *Engine {
	return &Engine{
		cfg: cfg,
		resolver: NewResolver(
			Filter{DailyCap: cfg.DailyCap},
			NewScorer(cfg.Weights, cfg.LastResortTeachers),
			picker,
		),
	}
}

// Config returns the engine configuration.
func (e *Engine) Config() Config { return e.cfg }

// AssignDay resolves every vacant slot for the absent teachers of req.DayID. Inputs are
// validated before any slot is processed, so an error never comes with partial results.
func (e *Engine) AssignDay(store *Store, req DayRequest) (*DayResult, error) {
	absent, slots, idx, err := e.prepare(store, req)
	if err != nil {
		return nil, err
	}

	state := newWorkingState(idx, store.History, req.DayID, absent)
	records := make([]models.SubstituteRecord, 0, len(slots))
	for _, slot := range slots {
		records = append(records, e.resolver.Resolve(state, slot))
	}
	return &DayResult{DayID: req.DayID, Records: records, State: state}, nil
}

// Explain evaluates every teacher for one slot against a fresh working state for the day.
// Records in assigned are applied to that state first, as if made earlier in the run.
func (e *Engine) Explain(store *Store, req DayRequest, slot Slot, assigned ...models.SubstituteRecord) ([]Candidate, error) {
	absent, _, idx, err := e.prepare(store, req)
	if err != nil {
		return nil, err
	}
	slot.DayID = req.DayID
	if slot.PeriodID < 1 {
		return nil, &SlotError{Kind: ErrInputValidation, DayID: slot.DayID, ClassID: slot.ClassID, Msg: "period_id must be >= 1"}
	}
	if err := checkSlot(idx, slot); err != nil {
		return nil, err
	}
	state := newWorkingState(idx, store.History, req.DayID, absent)
	for _, record := range assigned {
		state.Append(record)
	}
	return e.resolver.Evaluate(state, slot), nil
}

// VacantSlots lists the slots AssignDay would process, in processing order.
func (e *Engine) VacantSlots(store *Store, req DayRequest) ([]Slot, error) {
	_, slots, _, err := e.prepare(store, req)
	return slots, err
}

func (e *Engine) prepare(store *Store, req DayRequest) ([]string, []Slot, *storeIndex, error) {
	absent, err := validateRequest(req)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := validateStore(store); err != nil {
		return nil, nil, nil, err
	}

	idx := newStoreIndex(store)
	slots := make([]Slot, 0)
	for _, teacherID := range absent {
		for _, entry := range idx.entriesFor(teacherID, req.DayID) {
			slot := Slot{
				DayID:           req.DayID,
				PeriodID:        entry.PeriodID,
				ClassID:         entry.ClassID,
				SubjectID:       entry.SubjectID,
				AbsentTeacherID: teacherID,
			}
			if err := checkSlot(idx, slot); err != nil {
				return nil, nil, nil, err
			}
			slots = append(slots, slot)
		}
	}
	return absent, slots, idx, nil
}
