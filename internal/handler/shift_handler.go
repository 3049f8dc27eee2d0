package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fieldtrack/trips-backend-go/internal/models"
	"github.com/fieldtrack/trips-backend-go/internal/repository"
	"github.com/fieldtrack/trips-backend-go/pkg/response"
)

// ShiftHandler handles HTTP requests for shifts and fix ingestion
type ShiftHandler struct {
	shifts *repository.ShiftRepository
	fixes  *repository.FixRepository
}

// NewShiftHandler creates a new shift handler
func NewShiftHandler(shifts *repository.ShiftRepository, fixes *repository.FixRepository) *ShiftHandler {
	return &ShiftHandler{shifts: shifts, fixes: fixes}
}

type createShiftRequest struct {
	StartedAt int64 `json:"started_at"`
}

// CreateShift handles POST /api/v1/shifts
func (h *ShiftHandler) CreateShift(c *gin.Context) {
	var req createShiftRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		response.BadRequest(c, "Invalid request body")
		return
	}
	if req.StartedAt == 0 {
		req.StartedAt = time.Now().Unix()
	}

	shift, err := h.shifts.Create(req.StartedAt)
	if err != nil {
		response.InternalError(c, "Failed to create shift")
		return
	}
	response.Success(c, shift)
}

// CompleteShift handles POST /api/v1/shifts/:id/complete
func (h *ShiftHandler) CompleteShift(c *gin.Context) {
	id, ok := shiftID(c)
	if !ok {
		return
	}

	shift, err := h.shifts.GetByID(id)
	if err != nil {
		response.InternalError(c, "Failed to get shift")
		return
	}
	if shift == nil {
		response.NotFound(c, "Shift not found")
		return
	}

	if err := h.shifts.Complete(id, time.Now().Unix()); err != nil {
		response.InternalError(c, "Failed to complete shift")
		return
	}

	shift, err = h.shifts.GetByID(id)
	if err != nil {
		response.InternalError(c, "Failed to get shift")
		return
	}
	response.Success(c, shift)
}

// UploadFixes handles POST /api/v1/shifts/:id/fixes
func (h *ShiftHandler) UploadFixes(c *gin.Context) {
	id, ok := shiftID(c)
	if !ok {
		return
	}

	shift, err := h.shifts.GetByID(id)
	if err != nil {
		response.InternalError(c, "Failed to get shift")
		return
	}
	if shift == nil {
		response.NotFound(c, "Shift not found")
		return
	}

	var fixes []models.FixUpload
	if err := c.ShouldBindJSON(&fixes); err != nil {
		response.BadRequest(c, "Invalid fix payload")
		return
	}

	inserted, err := h.fixes.InsertBatch(id, fixes)
	if err != nil {
		response.InternalError(c, "Failed to store fixes")
		return
	}

	response.Success(c, gin.H{"inserted": inserted})
}

// shiftID parses the :id path parameter, replying 400 on garbage.
func shiftID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "Invalid shift ID")
		return 0, false
	}
	return id, true
}
