// Package roster loads timetable and teacher data files for offline substitute runs.
//
// A roster directory holds one file per dataset, each in YAML or JSON:
//
//	timetable        list of timetable entries (required)
//	leaves           list of leave entries
//	history          list of earlier substitute records
//	teacher_subjects map of teacher id to subject ids
//	teacher_levels   map of teacher id to levels
//	class_levels     map of class id to level
//	subjects         list of subject ids taught even without a qualified teacher
//	teacher_names    map of teacher id to display name
//
// Missing maps are derived from the timetable.
package roster

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/noah-isme/sma-substitute-api/internal/models"
)

const (
	FileTimetable       = "timetable"
	FileLeaves          = "leaves"
	FileHistory         = "history"
	FileTeacherSubjects = "teacher_subjects"
	FileTeacherLevels   = "teacher_levels"
	FileClassLevels     = "class_levels"
	FileTeacherNames    = "teacher_names"
	FileSubjects        = "subjects"
)

var extensions = []string{".yaml", ".yml", ".json"}

// ErrNoTimetable is returned when the directory has no timetable file.
var ErrNoTimetable = errors.New("roster: timetable file not found")

// Roster is the decoded content of a roster directory.
type Roster struct {
	Timetable       []models.TimetableEntry
	Leaves          []models.LeaveEntry
	History         []models.SubstituteRecord
	TeacherSubjects map[string][]string
	TeacherLevels   map[string][]models.Level
	ClassLevels     map[string]models.Level
	TeacherNames    map[string]string
	Subjects        []string
}

// Load reads every known dataset from dir and fills in maps the directory does not provide.
func Load(dir string) (*Roster, error) {
	r := &Roster{}

	found, err := decode(dir, FileTimetable, &r.Timetable)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w in %s", ErrNoTimetable, dir)
	}
	optional := []struct {
		name string
		out  interface{}
	}{
		{FileLeaves, &r.Leaves},
		{FileHistory, &r.History},
		{FileTeacherSubjects, &r.TeacherSubjects},
		{FileTeacherLevels, &r.TeacherLevels},
		{FileClassLevels, &r.ClassLevels},
		{FileTeacherNames, &r.TeacherNames},
		{FileSubjects, &r.Subjects},
	}
	for _, o := range optional {
		if _, err := decode(dir, o.name, o.out); err != nil {
			return nil, err
		}
	}

	r.derive()
	return r, nil
}

// DisplayName returns the configured name for teacherID, or the ID itself.
func (r *Roster) DisplayName(teacherID string) string {
	if name, ok := r.TeacherNames[teacherID]; ok && name != "" {
		return name
	}
	return teacherID
}

// derive fills class levels for unlisted classes and, when the files were absent,
// teacher subjects and levels from what each teacher already teaches. Classes that
// ClassifyLevel cannot place stay out of ClassLevels so the engine reports them.
func (r *Roster) derive() {
	if r.ClassLevels == nil {
		r.ClassLevels = make(map[string]models.Level)
	}
	for _, entry := range r.Timetable {
		if _, ok := r.ClassLevels[entry.ClassID]; ok {
			continue
		}
		if level := ClassifyLevel(entry.ClassID); level != models.LevelUnknown {
			r.ClassLevels[entry.ClassID] = level
		}
	}

	deriveSubjects := r.TeacherSubjects == nil
	deriveLevels := r.TeacherLevels == nil
	if !deriveSubjects && !deriveLevels {
		return
	}

	subjects := make(map[string]map[string]struct{})
	levels := make(map[string]map[models.Level]struct{})
	for _, entry := range r.Timetable {
		if subjects[entry.TeacherID] == nil {
			subjects[entry.TeacherID] = make(map[string]struct{})
			levels[entry.TeacherID] = make(map[models.Level]struct{})
		}
		subjects[entry.TeacherID][entry.SubjectID] = struct{}{}
		if level, ok := r.ClassLevels[entry.ClassID]; ok {
			levels[entry.TeacherID][level] = struct{}{}
		}
	}

	if deriveSubjects {
		r.TeacherSubjects = make(map[string][]string, len(subjects))
		for teacherID, set := range subjects {
			r.TeacherSubjects[teacherID] = sortedKeys(set)
		}
	}
	if deriveLevels {
		r.TeacherLevels = make(map[string][]models.Level, len(levels))
		for teacherID, set := range levels {
			list := make([]models.Level, 0, len(set))
			for level := range set {
				list = append(list, level)
			}
			sort.Slice(list, func(i, j int) bool { return list[i] < list[j] })
			r.TeacherLevels[teacherID] = list
		}
	}
}

// ClassifyLevel maps a Thai class label to its level: ป.1-3 lower elementary,
// ป.4-6 upper elementary, any ม. class middle school.
func ClassifyLevel(classID string) models.Level {
	switch {
	case strings.HasPrefix(classID, "ป."):
		grade, err := strconv.Atoi(strings.TrimPrefix(classID, "ป."))
		if err != nil || grade < 1 {
			return models.LevelUnknown
		}
		if grade <= 3 {
			return models.LevelLowerElementary
		}
		return models.LevelUpperElementary
	case strings.HasPrefix(classID, "ม."):
		return models.LevelMiddle
	default:
		return models.LevelUnknown
	}
}

// decode reads the first existing <name><ext> file in dir into out. JSON is parsed by the
// YAML decoder, which accepts it as a subset.
func decode(dir, name string, out interface{}) (bool, error) {
	for _, ext := range extensions {
		path := filepath.Join(dir, name+ext)
		data, err := os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return false, fmt.Errorf("read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, out); err != nil {
			return false, fmt.Errorf("decode %s: %w", path, err)
		}
		return true, nil
	}
	return false, nil
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
