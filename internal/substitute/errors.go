package substitute

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInputValidation marks malformed or missing input fields. Raised before any slot is processed.
	ErrInputValidation = errors.New("input validation failed")
	// ErrStateConsistency marks input that references unknown classes or subjects.
	ErrStateConsistency = errors.New("state consistency violation")
)

// SlotError carries the context needed to trace a rejected input back to its source row.
type SlotError struct {
	Kind      error
	DayID     string
	PeriodID  int
	ClassID   string
	TeacherID string
	Msg       string
}

// Error implements the error interface.
func (e *SlotError) Error() string {
	if e == nil {
		return "<nil>"
	}
	parts := make([]string, 0, 4)
	if e.DayID != "" {
		parts = append(parts, "day="+e.DayID)
	}
	if e.PeriodID != 0 {
		parts = append(parts, fmt.Sprintf("period=%d", e.PeriodID))
	}
	if e.ClassID != "" {
		parts = append(parts, "class="+e.ClassID)
	}
	if e.TeacherID != "" {
		parts = append(parts, "teacher="+e.TeacherID)
	}
	if len(parts) == 0 {
		return fmt.Sprintf("%v: %s", e.Kind, e.Msg)
	}
	return fmt.Sprintf("%v: %s (%s)", e.Kind, e.Msg, strings.Join(parts, " "))
}

// Unwrap exposes the sentinel kind for errors.Is.
func (e *SlotError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Kind
}

func inputError(msg string) *SlotError {
	return &SlotError{Kind: ErrInputValidation, Msg: msg}
}
