package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/fieldtrack/trips-backend-go/internal/models"
	"github.com/fieldtrack/trips-backend-go/internal/service"
	"github.com/fieldtrack/trips-backend-go/pkg/response"
)

// ReprocessHandler handles HTTP requests for batch road-matching runs
type ReprocessHandler struct {
	matches *service.MatchService
}

// NewReprocessHandler creates a new reprocess handler
func NewReprocessHandler(matches *service.MatchService) *ReprocessHandler {
	return &ReprocessHandler{matches: matches}
}

// Reprocess handles POST /api/v1/trips/reprocess
func (h *ReprocessHandler) Reprocess(c *gin.Context) {
	var req models.ReprocessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid reprocess request")
		return
	}

	report, err := h.matches.Reprocess(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoSelector):
			response.BadRequest(c, "At least one trip selector is required")
		case errors.Is(err, service.ErrMatcherUnconfigured):
			response.Error(c, http.StatusServiceUnavailable, "Matching service is not configured")
		default:
			response.InternalError(c, "Batch reprocessing failed")
		}
		return
	}

	response.Success(c, report)
}

// ListBatchRuns handles GET /api/v1/batch-runs
func (h *ReprocessHandler) ListBatchRuns(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	runs, err := h.matches.RecentRuns(limit)
	if err != nil {
		response.InternalError(c, "Failed to list batch runs")
		return
	}

	response.Success(c, gin.H{
		"data":  runs,
		"total": len(runs),
	})
}
