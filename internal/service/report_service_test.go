package service

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-substitute-api/internal/dto"
	"github.com/noah-isme/sma-substitute-api/internal/models"
	appErrors "github.com/noah-isme/sma-substitute-api/pkg/errors"
	"github.com/noah-isme/sma-substitute-api/pkg/export"
	"github.com/noah-isme/sma-substitute-api/pkg/storage"
)

type recordListerStub struct {
	records []models.SubstituteRecord
	err     error
}

func (s *recordListerStub) ListByDate(ctx context.Context, date string) ([]models.SubstituteRecord, bool, error) {
	return s.records, false, s.err
}

type rendererStub struct {
	payload []byte
	last    export.Dataset
}

func (r *rendererStub) Render(data export.Dataset) ([]byte, error) {
	r.last = data
	return r.payload, nil
}

type expiredSigner struct{}

func (expiredSigner) Generate(exportID, relPath string) (string, time.Time, error) {
	return "", time.Time{}, errors.New("not used")
}

func (expiredSigner) Parse(token string) (string, string, time.Time, error) {
	return "exp", "substitutes/old.csv", time.Now().Add(-time.Minute), storage.ErrTokenExpired
}

func sampleRecords() []models.SubstituteRecord {
	sub := "P"
	return []models.SubstituteRecord{
		{DayID: "Mon", PeriodID: 2, ClassID: "ป.1", SubjectID: "Math", AbsentTeacherID: "ABS"},
		{DayID: "Mon", PeriodID: 1, ClassID: "ป.1", SubjectID: "Math", AbsentTeacherID: "ABS", SubstituteTeacherID: &sub},
	}
}

func newReportFixture(t *testing.T) (*ReportService, *recordListerStub, *rendererStub, *storage.LocalStorage, *storage.SignedURLSigner) {
	t.Helper()
	files, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("secret", time.Hour)
	records := &recordListerStub{records: sampleRecords()}
	pdf := &rendererStub{payload: []byte("%PDF-1.3")}
	svc := NewReportService(records, files, signer, nil, pdf, nil, nil, nil, ReportConfig{APIPrefix: "/api/v1/"})
	return svc, records, pdf, files, signer
}

func TestReportServiceSummary(t *testing.T) {
	svc, _, _, _, _ := newReportFixture(t)

	summary, err := svc.Summary(context.Background(), testMonday)
	require.NoError(t, err)

	assert.Equal(t, "Mon", summary.DayID)
	assert.Equal(t, 2, summary.TotalSlots)
	assert.Equal(t, 1, summary.FilledSlots)
	assert.InDelta(t, 50.0, summary.SuccessRate, 0.001)
	require.Len(t, summary.Lines, 2)
	assert.Equal(t, 1, summary.Lines[0].PeriodID)
}

func TestReportServiceSummaryPropagatesErrors(t *testing.T) {
	svc, records, _, _, _ := newReportFixture(t)
	records.err = appErrors.Clone(appErrors.ErrInternal, "boom")

	_, err := svc.Summary(context.Background(), testMonday)
	require.Error(t, err)

	_, err = svc.Summary(context.Background(), "not-a-date")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestReportServiceExportCSVAndDownload(t *testing.T) {
	svc, _, _, _, _ := newReportFixture(t)
	ctx := context.Background()

	resp, err := svc.Export(ctx, dto.ReportExportRequest{Date: testMonday, Format: dto.ReportFormatCSV})
	require.NoError(t, err)

	assert.Equal(t, dto.ReportFormatCSV, resp.Format)
	assert.True(t, strings.HasPrefix(resp.DownloadURL, "/api/v1/substitutes/report/download?token="))
	assert.True(t, resp.ExpiresAt.After(time.Now()))

	download, err := svc.ResolveDownload(ctx, resp.Token)
	require.NoError(t, err)
	defer download.File.Close()

	assert.Equal(t, "text/csv; charset=utf-8", download.ContentType)
	assert.True(t, strings.HasPrefix(download.FileName, testMonday+"-"))
	body, err := io.ReadAll(download.File)
	require.NoError(t, err)
	assert.Contains(t, string(body), "no substitute found")
	assert.Contains(t, string(body), "ป.1")
}

func TestReportServiceExportPDFUsesRenderer(t *testing.T) {
	svc, _, pdf, _, _ := newReportFixture(t)

	resp, err := svc.Export(context.Background(), dto.ReportExportRequest{Date: testMonday, Format: dto.ReportFormatPDF})
	require.NoError(t, err)

	assert.Equal(t, dto.ReportFormatPDF, resp.Format)
	assert.Len(t, pdf.last.Rows, 2)
	assert.Equal(t, "Covered: 1 (50.0%)", pdf.last.Footer)
}

func TestReportServiceExportValidation(t *testing.T) {
	svc, _, _, _, _ := newReportFixture(t)

	_, err := svc.Export(context.Background(), dto.ReportExportRequest{Date: testMonday, Format: "xlsx"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestReportServiceResolveDownloadErrors(t *testing.T) {
	svc, _, _, files, _ := newReportFixture(t)
	ctx := context.Background()

	_, err := svc.ResolveDownload(ctx, "")
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.ResolveDownload(ctx, "garbage")
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	expiredSvc := NewReportService(&recordListerStub{}, files, expiredSigner{}, nil, nil, nil, nil, nil, ReportConfig{})
	_, err = expiredSvc.ResolveDownload(ctx, "exp.1.b2xk.sig")
	assert.Equal(t, appErrors.ErrExpired.Code, appErrors.FromError(err).Code)

	missing, _, err := storage.NewSignedURLSigner("secret", time.Hour).Generate("gone", "substitutes/gone.csv")
	require.NoError(t, err)
	_, err = svc.ResolveDownload(ctx, missing)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	_, statErr := files.Open("substitutes/gone.csv")
	assert.True(t, errors.Is(statErr, os.ErrNotExist))
}
