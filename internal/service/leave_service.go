package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-substitute-api/internal/dto"
	"github.com/noah-isme/sma-substitute-api/internal/models"
	"github.com/noah-isme/sma-substitute-api/internal/substitute"
	"github.com/noah-isme/sma-substitute-api/pkg/database"
	appErrors "github.com/noah-isme/sma-substitute-api/pkg/errors"
)

type teacherDayReader interface {
	ListByTeacherDay(ctx context.Context, termID, teacherID, dayID string) ([]models.TimetableEntry, error)
}

type leaveStore interface {
	CreateBatch(ctx context.Context, exec sqlx.ExtContext, leaves []models.LeaveEntry) error
	ListByDate(ctx context.Context, date string) ([]models.LeaveEntry, error)
}

// LeaveService records teacher leave against the timetable.
type LeaveService struct {
	timetable teacherDayReader
	leaves    leaveStore
	tx        database.TxBeginner
	validator *validator.Validate
	logger    *zap.Logger
	termID    string
}

// NewLeaveService constructs the service.
func NewLeaveService(timetable teacherDayReader, leaves leaveStore, tx database.TxBeginner, validate *validator.Validate, logger *zap.Logger, termID string) *LeaveService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LeaveService{timetable: timetable, leaves: leaves, tx: tx, validator: validate, logger: logger, termID: termID}
}

// Create expands a leave request into one entry per taught period on that weekday.
// Periods already on record are skipped by the store.
func (s *LeaveService) Create(ctx context.Context, req dto.CreateLeaveRequest) ([]models.LeaveEntry, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid leave request")
	}
	_, dayID, err := substitute.ParseDate(req.Date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "date must be YYYY-MM-DD")
	}

	entries, err := s.timetable.ListByTeacherDay(ctx, s.termID, req.TeacherID, dayID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable")
	}
	if len(entries) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("teacher %s has no periods on %s", req.TeacherID, dayID))
	}

	wanted := make(map[int]bool, len(req.Periods))
	for _, period := range req.Periods {
		wanted[period] = false
	}

	now := time.Now().UTC()
	leaves := make([]models.LeaveEntry, 0, len(entries))
	for _, entry := range entries {
		if len(wanted) > 0 {
			if _, ok := wanted[entry.PeriodID]; !ok {
				continue
			}
			wanted[entry.PeriodID] = true
		}
		leaves = append(leaves, models.LeaveEntry{
			LeaveDate: req.Date,
			TeacherID: req.TeacherID,
			SubjectID: entry.SubjectID,
			DayID:     dayID,
			PeriodID:  entry.PeriodID,
			ClassID:   entry.ClassID,
			Reason:    req.Reason,
			CreatedAt: now,
		})
	}
	for period, found := range wanted {
		if !found {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("teacher %s does not teach period %d on %s", req.TeacherID, period, dayID))
		}
	}

	err = database.WithTx(ctx, s.tx, func(tx *sqlx.Tx) error {
		return s.leaves.CreateBatch(ctx, tx, leaves)
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record leave")
	}

	s.logger.Info("leave recorded",
		zap.String("teacher_id", req.TeacherID),
		zap.String("date", req.Date),
		zap.Int("periods", len(leaves)),
	)
	return leaves, nil
}

// ListByDate returns leave recorded for a date.
func (s *LeaveService) ListByDate(ctx context.Context, date string) ([]models.LeaveEntry, error) {
	if _, _, err := substitute.ParseDate(date); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD")
	}
	leaves, err := s.leaves.ListByDate(ctx, date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list leave")
	}
	if leaves == nil {
		leaves = []models.LeaveEntry{}
	}
	return leaves, nil
}
