package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-substitute-api/internal/substitute"
	"github.com/noah-isme/sma-substitute-api/pkg/config"
)

const timetableYAML = `
- {teacher_id: T1, subject_id: Math, day_id: Mon, period_id: 1, class_id: "ป.1"}
- {teacher_id: T2, subject_id: Math, day_id: Mon, period_id: 2, class_id: "ป.2"}
- {teacher_id: T3, subject_id: Thai, day_id: Mon, period_id: 1, class_id: "ป.3"}
`

const leavesYAML = `
- {leave_date: "2024-01-08", teacher_id: T1, subject_id: Math, day_id: Mon, period_id: 1, class_id: "ป.1"}
`

func writeRoster(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "timetable.yaml"), []byte(timetableYAML), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "leaves.yaml"), []byte(leavesYAML), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "teacher_names.json"), []byte(`{"T1":"Somchai","T2":"Malee"}`), 0o644))
	return dir
}

func testConfig() *config.Config {
	return &config.Config{Substitute: config.SubstituteConfig{DailyCap: 4, LevelMatchBonus: 5, SubjectBonus: 2}}
}

func TestRunPrintsSummaryFromLeaves(t *testing.T) {
	var out bytes.Buffer
	err := run([]string{"-date", "2024-01-08", "-data", writeRoster(t), "-seed", "3"}, testConfig(), zap.NewNop(), &out)
	require.NoError(t, err)

	text := out.String()
	assert.Contains(t, text, "Somchai")
	// T3 teaches period 1, so T2 is the only free teacher.
	assert.Contains(t, text, "Somchai -> Malee")
}

func TestRunExplicitAbsentList(t *testing.T) {
	var out bytes.Buffer
	err := run([]string{"-date", "2024-01-08", "-data", writeRoster(t), "-absent", "T1, T2"}, testConfig(), zap.NewNop(), &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "no substitute found")
}

func TestRunRequiresDate(t *testing.T) {
	var out bytes.Buffer
	assert.Error(t, run([]string{"-data", t.TempDir()}, testConfig(), zap.NewNop(), &out))
	assert.Error(t, run([]string{"-date", "2024-01-08", "-data", t.TempDir()}, testConfig(), zap.NewNop(), &out))
}

func TestSplitIDs(t *testing.T) {
	assert.Equal(t, []string{"T1", "T2"}, splitIDs(" T1,,T2 "))
	assert.Nil(t, splitIDs(""))
}

func TestRunFailsOnUnclassifiableClass(t *testing.T) {
	dir := writeRoster(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "timetable.yaml"), []byte(`
- {teacher_id: T1, subject_id: Math, day_id: Mon, period_id: 1, class_id: "K.1"}
- {teacher_id: T2, subject_id: Math, day_id: Mon, period_id: 2, class_id: "K.2"}
`), 0o644))

	var out bytes.Buffer
	err := run([]string{"-date", "2024-01-08", "-data", dir, "-absent", "T1"}, testConfig(), zap.NewNop(), &out)
	require.Error(t, err)
	assert.ErrorIs(t, err, substitute.ErrStateConsistency)
	assert.Contains(t, err.Error(), "K.1")
	assert.Empty(t, out.String())
}

func TestRunAcceptsCatalogSubjectWithoutQualifiedTeacher(t *testing.T) {
	dir := writeRoster(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "teacher_subjects.yaml"), []byte("T2: [Math]\nT3: [Thai]\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "timetable.yaml"), []byte(timetableYAML+`- {teacher_id: T1, subject_id: Scout, day_id: Mon, period_id: 3, class_id: "ป.1"}
`), 0o644))

	var out bytes.Buffer
	err := run([]string{"-date", "2024-01-08", "-data", dir, "-absent", "T1"}, testConfig(), zap.NewNop(), &out)
	assert.ErrorIs(t, err, substitute.ErrStateConsistency)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "subjects.yaml"), []byte("[Math, Thai, Scout]\n"), 0o644))
	out.Reset()
	require.NoError(t, run([]string{"-date", "2024-01-08", "-data", dir, "-absent", "T1"}, testConfig(), zap.NewNop(), &out))
	assert.Contains(t, out.String(), "Scout")
}
