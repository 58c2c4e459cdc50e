package handler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-substitute-api/internal/dto"
	"github.com/noah-isme/sma-substitute-api/internal/substitute"
	appErrors "github.com/noah-isme/sma-substitute-api/pkg/errors"
	"github.com/noah-isme/sma-substitute-api/pkg/response"
)

type reportService interface {
	Summary(ctx context.Context, date string) (*substitute.Summary, error)
	Export(ctx context.Context, req dto.ReportExportRequest) (*dto.ReportExportResponse, error)
	ResolveDownload(ctx context.Context, token string) (*dto.ReportDownload, error)
}

// ReportHandler exposes the daily substitute report.
type ReportHandler struct {
	service reportService
}

// NewReportHandler constructs handler.
func NewReportHandler(service reportService) *ReportHandler {
	return &ReportHandler{service: service}
}

// Summary godoc
// @Summary Daily substitute summary
// @Description Returns JSON by default, or the plain-text report with format=text.
// @Tags Reports
// @Produce json
// @Produce plain
// @Param date query string true "Date (YYYY-MM-DD)"
// @Param format query string false "json or text"
// @Success 200 {object} response.Envelope
// @Router /substitutes/report [get]
func (h *ReportHandler) Summary(c *gin.Context) {
	date := strings.TrimSpace(c.Query("date"))
	if date == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date is required"))
		return
	}
	summary, err := h.service.Summary(c.Request.Context(), date)
	if err != nil {
		response.Error(c, err)
		return
	}
	if c.Query("format") == "text" {
		c.String(http.StatusOK, summary.Text())
		return
	}
	response.JSON(c, http.StatusOK, summary)
}

// Export godoc
// @Summary Export the daily substitute report
// @Tags Reports
// @Accept json
// @Produce json
// @Param payload body dto.ReportExportRequest true "Export payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /substitutes/report/export [post]
func (h *ReportHandler) Export(c *gin.Context) {
	var req dto.ReportExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid export payload"))
		return
	}
	result, err := h.service.Export(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Download godoc
// @Summary Download an exported report through its signed token
// @Tags Reports
// @Produce octet-stream
// @Param token query string true "Signed token"
// @Success 200 {file} file
// @Failure 410 {object} response.Envelope
// @Router /substitutes/report/download [get]
func (h *ReportHandler) Download(c *gin.Context) {
	download, err := h.service.ResolveDownload(c.Request.Context(), c.Query("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer download.File.Close()

	c.Header("Content-Type", download.ContentType)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", download.FileName))
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, download.File); err != nil {
		_ = c.Error(err)
	}
}
