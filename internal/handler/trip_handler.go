package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/fieldtrack/trips-backend-go/internal/models"
	"github.com/fieldtrack/trips-backend-go/internal/repository"
	"github.com/fieldtrack/trips-backend-go/pkg/response"
)

// TripHandler handles HTTP requests for trips
type TripHandler struct {
	trips *repository.TripRepository
}

// NewTripHandler creates a new trip handler
func NewTripHandler(trips *repository.TripRepository) *TripHandler {
	return &TripHandler{trips: trips}
}

// ListShiftTrips handles GET /api/v1/shifts/:id/trips
func (h *TripHandler) ListShiftTrips(c *gin.Context) {
	id, ok := shiftID(c)
	if !ok {
		return
	}

	trips, err := h.trips.ListByShift(id)
	if err != nil {
		response.InternalError(c, "Failed to list trips")
		return
	}
	if trips == nil {
		trips = []models.Trip{}
	}

	response.Success(c, gin.H{
		"data":  trips,
		"total": len(trips),
	})
}

// GetTripByID handles GET /api/v1/trips/:id
func (h *TripHandler) GetTripByID(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid trip ID")
		return
	}

	trip, err := h.trips.GetByID(id)
	if err != nil {
		response.InternalError(c, "Failed to get trip")
		return
	}
	if trip == nil {
		response.NotFound(c, "Trip not found")
		return
	}

	response.Success(c, trip)
}
