package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/fieldtrack/trips-backend-go/internal/service"
	"github.com/fieldtrack/trips-backend-go/pkg/response"
)

// DetectionHandler handles HTTP requests for trip detection
type DetectionHandler struct {
	detection *service.DetectionService
}

// NewDetectionHandler creates a new detection handler
func NewDetectionHandler(detection *service.DetectionService) *DetectionHandler {
	return &DetectionHandler{detection: detection}
}

// DetectTrips handles POST /api/v1/shifts/:id/detect
func (h *DetectionHandler) DetectTrips(c *gin.Context) {
	id, ok := shiftID(c)
	if !ok {
		return
	}

	trips, err := h.detection.DetectTrips(id)
	if err != nil {
		if errors.Is(err, service.ErrShiftNotFound) {
			response.NotFound(c, "Shift not found")
			return
		}
		response.InternalError(c, "Trip detection failed")
		return
	}

	response.Success(c, gin.H{
		"data":  trips,
		"total": len(trips),
	})
}
