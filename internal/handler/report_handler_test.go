package handler

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-substitute-api/internal/dto"
	"github.com/noah-isme/sma-substitute-api/internal/substitute"
	appErrors "github.com/noah-isme/sma-substitute-api/pkg/errors"
)

type reportServiceMock struct {
	file string
}

func (m *reportServiceMock) Summary(ctx context.Context, date string) (*substitute.Summary, error) {
	return &substitute.Summary{Date: date, DayID: "Mon", TotalSlots: 1, Lines: []substitute.SummaryLine{
		{PeriodID: 1, ClassID: "ป.1", SubjectID: "Math", AbsentTeacherID: "T1", AbsentName: "T1", SubstituteMissing: true},
	}}, nil
}

func (m *reportServiceMock) Export(ctx context.Context, req dto.ReportExportRequest) (*dto.ReportExportResponse, error) {
	return &dto.ReportExportResponse{ExportID: "exp-1", Format: req.Format, Token: "tok"}, nil
}

func (m *reportServiceMock) ResolveDownload(ctx context.Context, token string) (*dto.ReportDownload, error) {
	if token != "tok" {
		return nil, appErrors.Clone(appErrors.ErrExpired, "download link expired")
	}
	file, err := os.Open(m.file)
	if err != nil {
		return nil, err
	}
	return &dto.ReportDownload{File: file, FileName: "report.csv", ContentType: "text/csv; charset=utf-8"}, nil
}

func newReportRouter(t *testing.T) *gin.Engine {
	gin.SetMode(gin.TestMode)
	path := filepath.Join(t.TempDir(), "report.csv")
	require.NoError(t, os.WriteFile(path, []byte("Period,Class\n1,ป.1\n"), 0o644))
	h := NewReportHandler(&reportServiceMock{file: path})
	router := gin.New()
	router.GET("/substitutes/report", h.Summary)
	router.POST("/substitutes/report/export", h.Export)
	router.GET("/substitutes/report/download", h.Download)
	return router
}

func TestReportHandlerSummaryFormats(t *testing.T) {
	router := newReportRouter(t)

	w := doJSON(router, http.MethodGet, "/substitutes/report?date=2024-01-08", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"day_id":"Mon"`)

	w = doJSON(router, http.MethodGet, "/substitutes/report?date=2024-01-08&format=text", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "no substitute found")

	w = doJSON(router, http.MethodGet, "/substitutes/report", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReportHandlerExport(t *testing.T) {
	w := doJSON(newReportRouter(t), http.MethodPost, "/substitutes/report/export", map[string]interface{}{"date": "2024-01-08", "format": "csv"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"export_id":"exp-1"`)
}

func TestReportHandlerDownload(t *testing.T) {
	router := newReportRouter(t)

	w := doJSON(router, http.MethodGet, "/substitutes/report/download?token=tok", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "report.csv")
	assert.Contains(t, w.Body.String(), "ป.1")

	w = doJSON(router, http.MethodGet, "/substitutes/report/download?token=old", nil)
	assert.Equal(t, http.StatusGone, w.Code)
}
