package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-substitute-api/internal/dto"
	"github.com/noah-isme/sma-substitute-api/internal/middleware"
	"github.com/noah-isme/sma-substitute-api/internal/models"
	appErrors "github.com/noah-isme/sma-substitute-api/pkg/errors"
	"github.com/noah-isme/sma-substitute-api/pkg/response"
)

type substituteService interface {
	Preview(ctx context.Context, req dto.SubstituteRunRequest) (*dto.SubstituteDayResult, error)
	Run(ctx context.Context, req dto.SubstituteRunRequest) (*dto.SubstituteDayResult, error)
	Enqueue(ctx context.Context, req dto.SubstituteRunRequest) (*dto.SubstituteRunAccepted, error)
	RunStatus(ctx context.Context, id string) (*models.SubstituteRun, error)
	ListByDate(ctx context.Context, date string) ([]models.SubstituteRecord, bool, error)
	Candidates(ctx context.Context, req dto.CandidateRequest) (*dto.CandidateResponse, error)
}

// SubstituteHandler exposes substitute assignment endpoints.
type SubstituteHandler struct {
	service substituteService
}

// NewSubstituteHandler constructs the handler.
func NewSubstituteHandler(service substituteService) *SubstituteHandler {
	return &SubstituteHandler{service: service}
}

// Preview godoc
// @Summary Preview substitute assignments for a date
// @Description Runs the assignment without storing anything.
// @Tags Substitutes
// @Accept json
// @Produce json
// @Param payload body dto.SubstituteRunRequest true "Run payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /substitutes/preview [post]
func (h *SubstituteHandler) Preview(c *gin.Context) {
	var req dto.SubstituteRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid run payload"))
		return
	}
	result, err := h.service.Preview(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetMeta(c, "dry_run", true)
	response.JSON(c, http.StatusOK, result, middleware.Meta(c))
}

// Run godoc
// @Summary Assign and store substitutes for a date
// @Description Replaces any earlier results for the date. With async=true the run is queued and 202 is returned.
// @Tags Substitutes
// @Accept json
// @Produce json
// @Param payload body dto.SubstituteRunRequest true "Run payload"
// @Success 201 {object} response.Envelope
// @Success 202 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /substitutes/runs [post]
func (h *SubstituteHandler) Run(c *gin.Context) {
	var req dto.SubstituteRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid run payload"))
		return
	}
	if req.Async {
		accepted, err := h.service.Enqueue(c.Request.Context(), req)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Accepted(c, accepted)
		return
	}
	result, err := h.service.Run(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// RunStatus godoc
// @Summary Get a substitute run
// @Tags Substitutes
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /substitutes/runs/{id} [get]
func (h *SubstituteHandler) RunStatus(c *gin.Context) {
	run, err := h.service.RunStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, run)
}

// List godoc
// @Summary List stored substitute records for a date
// @Tags Substitutes
// @Produce json
// @Param date query string true "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /substitutes [get]
func (h *SubstituteHandler) List(c *gin.Context) {
	date := strings.TrimSpace(c.Query("date"))
	if date == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date is required"))
		return
	}
	records, cacheHit, err := h.service.ListByDate(c.Request.Context(), date)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, records, middleware.Meta(c))
}

// Candidates godoc
// @Summary Explain candidate eligibility and scores for one slot
// @Tags Substitutes
// @Accept json
// @Produce json
// @Param payload body dto.CandidateRequest true "Slot payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /substitutes/candidates [post]
func (h *SubstituteHandler) Candidates(c *gin.Context) {
	var req dto.CandidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid candidate payload"))
		return
	}
	result, err := h.service.Candidates(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}
