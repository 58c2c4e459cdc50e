package substitute

import (
	"fmt"
	"strings"
)

func validateRequest(req DayRequest) ([]string, error) {
	if strings.TrimSpace(req.DayID) == "" {
		return nil, inputError("day_id is required")
	}
	seen := make(map[string]struct{}, len(req.AbsentTeacherIDs))
	absent := make([]string, 0, len(req.AbsentTeacherIDs))
	for i, teacherID := range req.AbsentTeacherIDs {
		if strings.TrimSpace(teacherID) == "" {
			return nil, &SlotError{Kind: ErrInputValidation, DayID: req.DayID, Msg: fmt.Sprintf("absent teacher #%d has empty teacher_id", i)}
		}
		if _, dup := seen[teacherID]; dup {
			continue
		}
		seen[teacherID] = struct{}{}
		absent = append(absent, teacherID)
	}
	return absent, nil
}

func validateStore(store *Store) error {
	if store == nil {
		return inputError("store is required")
	}
	for i, entry := range store.Timetable {
		if err := requireFields(
			"timetable", i, entry.DayID, entry.PeriodID, entry.ClassID, entry.TeacherID,
			field{"teacher_id", entry.TeacherID},
			field{"subject_id", entry.SubjectID},
			field{"day_id", entry.DayID},
			field{"class_id", entry.ClassID},
		); err != nil {
			return err
		}
	}
	for i, leave := range store.Leaves {
		if err := requireFields(
			"leave", i, leave.DayID, leave.PeriodID, leave.ClassID, leave.TeacherID,
			field{"teacher_id", leave.TeacherID},
			field{"day_id", leave.DayID},
		); err != nil {
			return err
		}
	}
	for i, record := range store.History {
		if err := requireFields(
			"history", i, record.DayID, record.PeriodID, record.ClassID, record.AbsentTeacherID,
			field{"absent_teacher_id", record.AbsentTeacherID},
			field{"day_id", record.DayID},
			field{"class_id", record.ClassID},
		); err != nil {
			return err
		}
	}
	return nil
}

type field struct {
	name  string
	value string
}

func requireFields(source string, index int, dayID string, periodID int, classID, teacherID string, fields ...field) error {
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return &SlotError{
				Kind:      ErrInputValidation,
				DayID:     dayID,
				PeriodID:  periodID,
				ClassID:   classID,
				TeacherID: teacherID,
				Msg:       fmt.Sprintf("%s row %d is missing %s", source, index, f.name),
			}
		}
	}
	if periodID < 1 {
		return &SlotError{
			Kind:      ErrInputValidation,
			DayID:     dayID,
			ClassID:   classID,
			TeacherID: teacherID,
			Msg:       fmt.Sprintf("%s row %d has period_id %d, must be >= 1", source, index, periodID),
		}
	}
	return nil
}

// checkSlot rejects vacancies referencing classes or subjects the maps do not know.
func checkSlot(idx *storeIndex, slot Slot) error {
	if _, ok := idx.classLevels[slot.ClassID]; !ok {
		return &SlotError{
			Kind:      ErrStateConsistency,
			DayID:     slot.DayID,
			PeriodID:  slot.PeriodID,
			ClassID:   slot.ClassID,
			TeacherID: slot.AbsentTeacherID,
			Msg:       "class has no level mapping",
		}
	}
	if _, ok := idx.subjects[slot.SubjectID]; !ok {
		return &SlotError{
			Kind:      ErrStateConsistency,
			DayID:     slot.DayID,
			PeriodID:  slot.PeriodID,
			ClassID:   slot.ClassID,
			TeacherID: slot.AbsentTeacherID,
			Msg:       fmt.Sprintf("subject %s is unknown", slot.SubjectID),
		}
	}
	return nil
}
