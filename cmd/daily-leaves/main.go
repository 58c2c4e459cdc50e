// Command daily-leaves prints substitute assignments for one date from roster files
// without touching the database.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-substitute-api/internal/service"
	"github.com/noah-isme/sma-substitute-api/internal/substitute"
	"github.com/noah-isme/sma-substitute-api/pkg/config"
	"github.com/noah-isme/sma-substitute-api/pkg/logger"
	"github.com/noah-isme/sma-substitute-api/pkg/roster"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if err := run(os.Args[1:], cfg, logr, os.Stdout); err != nil {
		logr.Error("daily leave run failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(args []string, cfg *config.Config, logr *zap.Logger, out io.Writer) error {
	fs := flag.NewFlagSet("daily-leaves", flag.ContinueOnError)
	fs.SetOutput(out)
	var (
		date    string
		absent  string
		dataDir string
		seed    int64
	)
	fs.StringVar(&date, "date", "", "Leave date (YYYY-MM-DD)")
	fs.StringVar(&absent, "absent", "", "Comma separated absent teacher ids; defaults to teachers with leave on -date")
	fs.StringVar(&dataDir, "data", cfg.Roster.Dir, "Roster data directory")
	fs.Int64Var(&seed, "seed", cfg.Substitute.RandomSeed, "Tie-break seed, 0 seeds from the clock")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if date == "" {
		return errors.New("-date is required")
	}

	_, dayID, err := substitute.ParseDate(date)
	if err != nil {
		return err
	}
	data, err := roster.Load(dataDir)
	if err != nil {
		return err
	}

	absentIDs := splitIDs(absent)
	if len(absentIDs) == 0 {
		absentIDs = absentOn(data, date)
	}
	logr.Info("processing daily leaves",
		zap.String("date", date),
		zap.String("day_id", dayID),
		zap.Strings("absent", absentIDs),
		zap.String("data", dataDir),
	)

	engine := substitute.NewEngine(service.NewEngineConfig(cfg.Substitute), substitute.NewRandPicker(seed))
	result, err := engine.AssignDay(&substitute.Store{
		Timetable:      data.Timetable,
		Leaves:         data.Leaves,
		Qualifications: data.TeacherSubjects,
		Levels:         data.TeacherLevels,
		ClassLevels:    data.ClassLevels,
		History:        data.History,
		Subjects:       data.Subjects,
	}, substitute.DayRequest{DayID: dayID, AbsentTeacherIDs: absentIDs})
	if err != nil {
		return err
	}

	summary := substitute.Summarize(date, dayID, result.Records, data.DisplayName)
	_, err = fmt.Fprintln(out, summary.Text())
	return err
}

// absentOn lists teachers with leave on date in the order their leave appears.
func absentOn(data *roster.Roster, date string) []string {
	seen := make(map[string]struct{})
	var ids []string
	for _, leave := range data.Leaves {
		if leave.LeaveDate != date {
			continue
		}
		if _, ok := seen[leave.TeacherID]; ok {
			continue
		}
		seen[leave.TeacherID] = struct{}{}
		ids = append(ids, leave.TeacherID)
	}
	return ids
}

func splitIDs(raw string) []string {
	var ids []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			ids = append(ids, trimmed)
		}
	}
	return ids
}
