package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-substitute-api/internal/dto"
	"github.com/noah-isme/sma-substitute-api/internal/models"
	"github.com/noah-isme/sma-substitute-api/internal/substitute"
	"github.com/noah-isme/sma-substitute-api/pkg/cache"
	"github.com/noah-isme/sma-substitute-api/pkg/config"
	"github.com/noah-isme/sma-substitute-api/pkg/database"
	appErrors "github.com/noah-isme/sma-substitute-api/pkg/errors"
	"github.com/noah-isme/sma-substitute-api/pkg/jobs"
)

type timetableReader interface {
	List(ctx context.Context, termID string) ([]models.TimetableEntry, error)
}

type rosterReader interface {
	TeacherSubjects(ctx context.Context) (map[string][]string, error)
	TeacherLevels(ctx context.Context) (map[string][]models.Level, error)
	ClassLevels(ctx context.Context) (map[string]models.Level, error)
	Subjects(ctx context.Context) ([]string, error)
}

type leaveReader interface {
	List(ctx context.Context) ([]models.LeaveEntry, error)
	AbsentTeacherIDs(ctx context.Context, date string) ([]string, error)
}

type substituteRecordStore interface {
	ListByDate(ctx context.Context, date string) ([]models.SubstituteRecord, error)
	ListHistory(ctx context.Context, excludeDate string) ([]models.SubstituteRecord, error)
	ReplaceForDate(ctx context.Context, exec sqlx.ExtContext, date string, records []models.SubstituteRecord) error
}

type substituteRunStore interface {
	Create(ctx context.Context, exec sqlx.ExtContext, run *models.SubstituteRun) error
	Update(ctx context.Context, exec sqlx.ExtContext, run *models.SubstituteRun) error
	GetByID(ctx context.Context, id string) (*models.SubstituteRun, error)
}

type runEnqueuer interface {
	Enqueue(job jobs.Job[dto.SubstituteRunRequest]) error
}

// SubstituteServiceConfig tunes the assignment service.
type SubstituteServiceConfig struct {
	Engine substitute.Config
	// Seed fixes the tie-break sequence. Zero seeds from the clock.
	Seed     int64
	TermID   string
	CacheTTL time.Duration
}

// NewEngineConfig maps the substitute settings onto the engine configuration.
func NewEngineConfig(cfg config.SubstituteConfig) substitute.Config {
	return substitute.Config{
		DailyCap: cfg.DailyCap,
		Weights: substitute.Weights{
			SubjectBonus:         cfg.SubjectBonus,
			LevelMatchBonus:      cfg.LevelMatchBonus,
			LevelMismatchPenalty: cfg.LevelMismatchPenalty,
			DailyLoad:            cfg.DailyLoadWeight,
			History:              cfg.HistoryWeight,
			TermLoad:             cfg.TermLoadWeight,
			LastResortPenalty:    cfg.LastResortPenalty,
		},
		LastResortTeachers: cfg.LastResortTeachers,
	}
}

// SubstituteService loads the school's timetable state, runs the assignment engine and
// persists the outcome per date.
type SubstituteService struct {
	timetable timetableReader
	roster    rosterReader
	leaves    leaveReader
	records   substituteRecordStore
	runs      substituteRunStore
	tx        database.TxBeginner
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	engine    *substitute.Engine
	queue     runEnqueuer
	cfg       SubstituteServiceConfig
}

// NewSubstituteService wires the service dependencies.
func NewSubstituteService(
	timetable timetableReader,
	roster rosterReader,
	leaves leaveReader,
	records substituteRecordStore,
	runs substituteRunStore,
	tx database.TxBeginner,
	cacheSvc *CacheService,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg SubstituteServiceConfig,
) *SubstituteService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubstituteService{
		timetable: timetable,
		roster:    roster,
		leaves:    leaves,
		records:   records,
		runs:      runs,
		tx:        tx,
		cache:     cacheSvc,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		engine:    substitute.NewEngine(cfg.Engine, substitute.NewRandPicker(cfg.Seed)),
		cfg:       cfg,
	}
}

// AttachQueue enables Enqueue. The queue's handler is usually ProcessQueued.
func (s *SubstituteService) AttachQueue(queue runEnqueuer) {
	s.queue = queue
}

// Preview computes assignments for a date without writing anything.
func (s *SubstituteService) Preview(ctx context.Context, req dto.SubstituteRunRequest) (*dto.SubstituteDayResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid substitute request")
	}
	plan, err := s.plan(ctx, req)
	if err != nil {
		return nil, err
	}
	result := plan.toDTO()
	result.DryRun = true
	return result, nil
}

// Run computes and persists assignments for a date, replacing earlier results for it.
func (s *SubstituteService) Run(ctx context.Context, req dto.SubstituteRunRequest) (*dto.SubstituteDayResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid substitute request")
	}
	run := &models.SubstituteRun{LeaveDate: req.Date, Status: models.SubstituteRunProcessing}
	if err := s.runs.Create(ctx, nil, run); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create substitute run")
	}
	return s.execute(ctx, run, req)
}

// Enqueue records a queued run and hands it to the background queue.
func (s *SubstituteService) Enqueue(ctx context.Context, req dto.SubstituteRunRequest) (*dto.SubstituteRunAccepted, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid substitute request")
	}
	if s.queue == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "run queue unavailable")
	}
	run := &models.SubstituteRun{LeaveDate: req.Date, Status: models.SubstituteRunQueued}
	if _, dayID, err := substitute.ParseDate(req.Date); err == nil {
		run.DayID = dayID
	}
	if err := s.runs.Create(ctx, nil, run); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create substitute run")
	}
	if err := s.queue.Enqueue(jobs.Job[dto.SubstituteRunRequest]{ID: run.ID, Payload: req}); err != nil {
		s.markFailed(ctx, run, err)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue substitute run")
	}
	return &dto.SubstituteRunAccepted{RunID: run.ID, Status: run.Status}, nil
}

// ProcessQueued is the queue handler for runs created by Enqueue. Input and state errors
// fail the run immediately; anything else is returned so the queue retries.
func (s *SubstituteService) ProcessQueued(ctx context.Context, job jobs.Job[dto.SubstituteRunRequest]) error {
	run, err := s.runs.GetByID(ctx, job.ID)
	if err != nil {
		return fmt.Errorf("load substitute run %s: %w", job.ID, err)
	}
	run.Status = models.SubstituteRunProcessing
	if err := s.runs.Update(ctx, nil, run); err != nil {
		return fmt.Errorf("mark substitute run %s processing: %w", job.ID, err)
	}
	_, err = s.execute(ctx, run, job.Payload)
	if err == nil || isPermanent(err) {
		return nil
	}
	return err
}

// FailQueued marks a run failed once the queue gives up on it.
func (s *SubstituteService) FailQueued(ctx context.Context, job jobs.Job[dto.SubstituteRunRequest], cause error) {
	run, err := s.runs.GetByID(ctx, job.ID)
	if err != nil {
		s.logger.Warn("failed to load exhausted substitute run", zap.String("run_id", job.ID), zap.Error(err))
		return
	}
	s.markFailed(ctx, run, cause)
}

// RunStatus returns a run by id.
func (s *SubstituteService) RunStatus(ctx context.Context, id string) (*models.SubstituteRun, error) {
	run, err := s.runs.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "substitute run not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load substitute run")
	}
	return run, nil
}

// ListByDate returns the stored records for a date and whether they came from cache.
func (s *SubstituteService) ListByDate(ctx context.Context, date string) ([]models.SubstituteRecord, bool, error) {
	if _, _, err := substitute.ParseDate(date); err != nil {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD")
	}
	key := recordsCacheKey(date)
	var cached []models.SubstituteRecord
	if s.cache.Get(ctx, key, &cached) {
		return cached, true, nil
	}

	start := time.Now()
	records, err := s.records.ListByDate(ctx, date)
	s.metrics.ObserveDBQuery("substitute_records_by_date", time.Since(start))
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list substitute records")
	}
	if records == nil {
		records = []models.SubstituteRecord{}
	}
	s.cache.Set(ctx, key, records, s.cfg.CacheTTL)
	return records, false, nil
}

// Candidates explains every teacher's eligibility and score for one slot, best first.
// Substitutes already stored for the date count as busy and add to daily load.
func (s *SubstituteService) Candidates(ctx context.Context, req dto.CandidateRequest) (*dto.CandidateResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid candidate request")
	}
	_, dayID, err := substitute.ParseDate(req.Date)
	if err != nil {
		return nil, mapEngineError(err)
	}
	absent, err := s.absentTeachers(ctx, req.Date, req.AbsentTeacherIDs)
	if err != nil {
		return nil, err
	}
	if req.AbsentTeacherID != "" && !contains(absent, req.AbsentTeacherID) {
		absent = append(absent, req.AbsentTeacherID)
	}
	store, err := s.loadStore(ctx, req.Date)
	if err != nil {
		return nil, err
	}
	assigned, err := s.records.ListByDate(ctx, req.Date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list substitute records")
	}

	slot := substitute.Slot{
		DayID:           dayID,
		PeriodID:        req.PeriodID,
		ClassID:         req.ClassID,
		SubjectID:       req.SubjectID,
		AbsentTeacherID: req.AbsentTeacherID,
	}
	candidates, err := s.engine.Explain(store, substitute.DayRequest{DayID: dayID, AbsentTeacherIDs: absent}, slot, assigned...)
	if err != nil {
		return nil, mapEngineError(err)
	}
	sortCandidates(candidates)
	return &dto.CandidateResponse{Slot: slot, Candidates: candidates}, nil
}

// dayPlan is the engine output for one date along with the inputs that produced it.
type dayPlan struct {
	date   string
	dayID  string
	absent []string
	result *substitute.DayResult
}

func (p *dayPlan) toDTO() *dto.SubstituteDayResult {
	records := p.result.Records
	if records == nil {
		records = []models.SubstituteRecord{}
	}
	for i := range records {
		records[i].LeaveDate = p.date
	}
	return &dto.SubstituteDayResult{
		Date:             p.date,
		DayID:            p.dayID,
		AbsentTeacherIDs: p.absent,
		Records:          records,
		TotalSlots:       len(records),
		FilledSlots:      p.result.Filled(),
	}
}

func (s *SubstituteService) plan(ctx context.Context, req dto.SubstituteRunRequest) (*dayPlan, error) {
	_, dayID, err := substitute.ParseDate(req.Date)
	if err != nil {
		return nil, mapEngineError(err)
	}
	absent, err := s.absentTeachers(ctx, req.Date, req.AbsentTeacherIDs)
	if err != nil {
		return nil, err
	}
	store, err := s.loadStore(ctx, req.Date)
	if err != nil {
		return nil, err
	}

	engine := s.engine
	if req.Seed != nil {
		engine = substitute.NewEngine(s.cfg.Engine, substitute.NewSeededPicker(*req.Seed))
	}
	result, err := engine.AssignDay(store, substitute.DayRequest{DayID: dayID, AbsentTeacherIDs: absent})
	if err != nil {
		return nil, mapEngineError(err)
	}
	return &dayPlan{date: req.Date, dayID: dayID, absent: absent, result: result}, nil
}

func (s *SubstituteService) execute(ctx context.Context, run *models.SubstituteRun, req dto.SubstituteRunRequest) (*dto.SubstituteDayResult, error) {
	start := time.Now()
	plan, err := s.plan(ctx, req)
	if err != nil {
		s.metrics.ObserveRun(runOutcome(err), 0, 0, time.Since(start))
		s.markFailed(ctx, run, err)
		return nil, err
	}

	result := plan.toDTO()
	for i := range result.Records {
		result.Records[i].RunID = run.ID
	}
	now := time.Now().UTC()
	run.DayID = plan.dayID
	run.AbsentTeachers = plan.absent
	run.TotalSlots = result.TotalSlots
	run.FilledSlots = result.FilledSlots
	run.Status = models.SubstituteRunFinished
	run.ErrorMessage = nil
	run.FinishedAt = &now

	err = database.WithTx(ctx, s.tx, func(tx *sqlx.Tx) error {
		if err := s.records.ReplaceForDate(ctx, tx, req.Date, result.Records); err != nil {
			return err
		}
		return s.runs.Update(ctx, tx, run)
	})
	if err != nil {
		s.metrics.ObserveRun(RunOutcomeFailure, 0, 0, time.Since(start))
		s.markFailed(ctx, run, err)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist substitute run")
	}

	s.cache.Invalidate(ctx, recordsCacheKey(req.Date), summaryCacheKey(req.Date))
	s.metrics.ObserveRun(RunOutcomeSuccess, result.FilledSlots, result.TotalSlots-result.FilledSlots, time.Since(start))
	s.logger.Info("substitute run completed",
		zap.String("run_id", run.ID),
		zap.String("date", req.Date),
		zap.String("day_id", plan.dayID),
		zap.Int("absent", len(plan.absent)),
		zap.Int("filled", result.FilledSlots),
		zap.Int("unfilled", result.TotalSlots-result.FilledSlots),
	)
	result.RunID = run.ID
	return result, nil
}

func (s *SubstituteService) markFailed(ctx context.Context, run *models.SubstituteRun, cause error) {
	now := time.Now().UTC()
	msg := cause.Error()
	run.Status = models.SubstituteRunFailed
	run.ErrorMessage = &msg
	run.FinishedAt = &now
	if err := s.runs.Update(ctx, nil, run); err != nil {
		s.logger.Warn("failed to mark substitute run failed", zap.String("run_id", run.ID), zap.Error(err))
	}
	s.logger.Warn("substitute run failed", zap.String("run_id", run.ID), zap.String("date", run.LeaveDate), zap.Error(cause))
}

// absentTeachers returns the requested ids, or the teachers on leave for date, without
// duplicates and in first-seen order.
func (s *SubstituteService) absentTeachers(ctx context.Context, date string, requested []string) ([]string, error) {
	ids := requested
	if len(ids) == 0 {
		var err error
		ids, err = s.leaves.AbsentTeacherIDs(ctx, date)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load leave requests")
		}
	}
	unique := make([]string, 0, len(ids))
	for _, id := range ids {
		if !contains(unique, id) {
			unique = append(unique, id)
		}
	}
	return unique, nil
}

// loadStore reads the snapshot for a run on date. Records already stored for date are
// left out of the history because the run replaces them.
func (s *SubstituteService) loadStore(ctx context.Context, date string) (*substitute.Store, error) {
	start := time.Now()
	defer func() { s.metrics.ObserveDBQuery("substitute_load_store", time.Since(start)) }()

	wrap := func(err error, what string) error {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load "+what)
	}

	timetable, err := s.timetable.List(ctx, s.cfg.TermID)
	if err != nil {
		return nil, wrap(err, "timetable")
	}
	leaves, err := s.leaves.List(ctx)
	if err != nil {
		return nil, wrap(err, "leave requests")
	}
	subjects, err := s.roster.TeacherSubjects(ctx)
	if err != nil {
		return nil, wrap(err, "teacher subjects")
	}
	levels, err := s.roster.TeacherLevels(ctx)
	if err != nil {
		return nil, wrap(err, "teacher levels")
	}
	classLevels, err := s.roster.ClassLevels(ctx)
	if err != nil {
		return nil, wrap(err, "class levels")
	}
	catalog, err := s.roster.Subjects(ctx)
	if err != nil {
		return nil, wrap(err, "subjects")
	}
	history, err := s.records.ListHistory(ctx, date)
	if err != nil {
		return nil, wrap(err, "substitute history")
	}

	return &substitute.Store{
		Timetable:      timetable,
		Leaves:         leaves,
		Qualifications: subjects,
		Levels:         levels,
		ClassLevels:    classLevels,
		History:        history,
		Subjects:       catalog,
	}, nil
}

func mapEngineError(err error) error {
	var appErr *appErrors.Error
	switch {
	case errors.As(err, &appErr):
		return err
	case errors.Is(err, substitute.ErrInputValidation):
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	case errors.Is(err, substitute.ErrStateConsistency):
		return appErrors.Wrap(err, appErrors.ErrStateConsistency.Code, appErrors.ErrStateConsistency.Status, err.Error())
	default:
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "substitute engine failed")
	}
}

func isPermanent(err error) bool {
	return errors.Is(err, substitute.ErrInputValidation) || errors.Is(err, substitute.ErrStateConsistency)
}

func runOutcome(err error) string {
	switch {
	case errors.Is(err, substitute.ErrInputValidation):
		return RunOutcomeValidation
	case errors.Is(err, substitute.ErrStateConsistency):
		return RunOutcomeState
	default:
		return RunOutcomeFailure
	}
}

func sortCandidates(candidates []substitute.Candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if (a.Score != nil) != (b.Score != nil) {
			return a.Score != nil
		}
		if a.Score != nil && a.Score.Total != b.Score.Total {
			return a.Score.Total > b.Score.Total
		}
		return a.TeacherID < b.TeacherID
	})
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}

func recordsCacheKey(date string) string {
	return cache.Key("records", date)
}

func summaryCacheKey(date string) string {
	return cache.Key("summary", date)
}
