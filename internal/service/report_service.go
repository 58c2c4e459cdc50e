package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-substitute-api/internal/dto"
	"github.com/noah-isme/sma-substitute-api/internal/models"
	"github.com/noah-isme/sma-substitute-api/internal/substitute"
	appErrors "github.com/noah-isme/sma-substitute-api/pkg/errors"
	"github.com/noah-isme/sma-substitute-api/pkg/export"
	"github.com/noah-isme/sma-substitute-api/pkg/storage"
)

type recordLister interface {
	ListByDate(ctx context.Context, date string) ([]models.SubstituteRecord, bool, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type datasetRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type tokenSigner interface {
	Generate(exportID, relPath string) (string, time.Time, error)
	Parse(token string) (exportID, relPath string, expiresAt time.Time, err error)
}

// ReportConfig tunes report exports.
type ReportConfig struct {
	APIPrefix       string
	CleanupInterval time.Duration
	RetentionTTL    time.Duration
}

// ReportService summarises a day's substitutions and exports them as files.
type ReportService struct {
	records   recordLister
	storage   fileStorage
	csv       datasetRenderer
	pdf       datasetRenderer
	signer    tokenSigner
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ReportConfig
}

// NewReportService constructs the report service. Nil renderers use the default exporters.
func NewReportService(records recordLister, files fileStorage, signer tokenSigner, csv, pdf datasetRenderer, cacheSvc *CacheService, validate *validator.Validate, logger *zap.Logger, cfg ReportConfig) *ReportService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter("")
	}
	if cfg.RetentionTTL <= 0 {
		cfg.RetentionTTL = 72 * time.Hour
	}
	return &ReportService{
		records:   records,
		storage:   files,
		csv:       csv,
		pdf:       pdf,
		signer:    signer,
		cache:     cacheSvc,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
	}
}

// Summary aggregates the stored records for a date.
func (s *ReportService) Summary(ctx context.Context, date string) (*substitute.Summary, error) {
	_, dayID, err := substitute.ParseDate(date)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD")
	}
	key := summaryCacheKey(date)
	var cached substitute.Summary
	if s.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	records, _, err := s.records.ListByDate(ctx, date)
	if err != nil {
		return nil, err
	}
	summary := substitute.Summarize(date, dayID, records, nil)
	s.cache.Set(ctx, key, summary, 0)
	return &summary, nil
}

// Export renders the day summary in the requested format and returns a signed download link.
func (s *ReportService) Export(ctx context.Context, req dto.ReportExportRequest) (*dto.ReportExportResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid export request")
	}
	summary, err := s.Summary(ctx, req.Date)
	if err != nil {
		return nil, err
	}

	dataset := buildSummaryDataset(summary)
	var payload []byte
	switch req.Format {
	case dto.ReportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case dto.ReportFormatPDF:
		payload, err = s.pdf.Render(dataset)
	default:
		err = fmt.Errorf("unsupported format %s", req.Format)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render report")
	}

	exportID := uuid.NewString()
	relPath, err := s.storage.Save(fmt.Sprintf("substitutes/%s-%s.%s", req.Date, exportID, req.Format), payload)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store report")
	}
	token, expiresAt, err := s.signer.Generate(exportID, relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign report link")
	}

	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}
	s.logger.Info("substitute report exported",
		zap.String("export_id", exportID),
		zap.String("date", req.Date),
		zap.String("format", req.Format),
		zap.Int("bytes", len(payload)),
	)
	return &dto.ReportExportResponse{
		ExportID:    exportID,
		Format:      req.Format,
		Token:       token,
		DownloadURL: fmt.Sprintf("%s/substitutes/report/download?token=%s", prefix, token),
		ExpiresAt:   expiresAt,
	}, nil
}

// ResolveDownload validates a download token and opens the export it points at.
func (s *ReportService) ResolveDownload(ctx context.Context, token string) (*dto.ReportDownload, error) {
	if strings.TrimSpace(token) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "token is required")
	}
	_, relPath, _, err := s.signer.Parse(token)
	if err != nil {
		if errors.Is(err, storage.ErrTokenExpired) {
			return nil, appErrors.Clone(appErrors.ErrExpired, "download link expired")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid download token")
	}
	file, err := s.storage.Open(relPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "report file not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open report")
	}

	name := relPath
	if idx := strings.LastIndex(relPath, "/"); idx >= 0 {
		name = relPath[idx+1:]
	}
	return &dto.ReportDownload{
		File:        file,
		Path:        relPath,
		FileName:    name,
		ContentType: contentTypeFor(name),
	}, nil
}

// StartCleanup boots a goroutine that purges old exports periodically.
func (s *ReportService) StartCleanup(ctx context.Context) {
	if s.cfg.CleanupInterval <= 0 {
		return
	}
	ticker := time.NewTicker(s.cfg.CleanupInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.cleanupExpired()
			}
		}
	}()
}

func (s *ReportService) cleanupExpired() {
	removed, err := s.storage.CleanupOlderThan(s.cfg.RetentionTTL)
	if err != nil {
		s.logger.Sugar().Warnw("report cleanup failed", "error", err)
		return
	}
	if len(removed) > 0 {
		s.logger.Sugar().Infow("report cleanup removed files", "count", len(removed))
	}
}

func buildSummaryDataset(summary *substitute.Summary) export.Dataset {
	rows := make([][]string, 0, len(summary.Lines))
	for _, line := range summary.Lines {
		sub := line.SubstituteName
		if line.SubstituteMissing {
			sub = "no substitute found"
		}
		rows = append(rows, []string{
			strconv.Itoa(line.PeriodID),
			line.ClassID,
			line.SubjectID,
			line.AbsentName,
			sub,
		})
	}
	return export.Dataset{
		Title:    fmt.Sprintf("Substitute assignments %s (%s)", summary.Date, summary.DayID),
		Subtitle: fmt.Sprintf("Absent teachers: %d  Periods: %d", len(summary.AbsentTeachers), summary.TotalSlots),
		Headers:  []string{"Period", "Class", "Subject", "Absent teacher", "Substitute"},
		Rows:     rows,
		Footer:   fmt.Sprintf("Covered: %d (%.1f%%)", summary.FilledSlots, summary.SuccessRate),
	}
}

func contentTypeFor(name string) string {
	switch {
	case strings.HasSuffix(name, ".csv"):
		return "text/csv; charset=utf-8"
	case strings.HasSuffix(name, ".pdf"):
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}
