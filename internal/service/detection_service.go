package service

import (
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/fieldtrack/trips-backend-go/internal/database"
	"github.com/fieldtrack/trips-backend-go/internal/detect"
	"github.com/fieldtrack/trips-backend-go/internal/models"
	"github.com/fieldtrack/trips-backend-go/internal/repository"
)

// ErrShiftNotFound is returned when detection is requested for an unknown
// shift.
var ErrShiftNotFound = errors.New("shift not found")

// DetectionService turns a shift's fix stream into persisted trips.
type DetectionService struct {
	db        *sql.DB
	shifts    *repository.ShiftRepository
	fixes     *repository.FixRepository
	trips     *repository.TripRepository
	segmenter *detect.Segmenter
}

// NewDetectionService creates a detection service with production
// thresholds.
func NewDetectionService(db *sql.DB) *DetectionService {
	return &DetectionService{
		db:        db,
		shifts:    repository.NewShiftRepository(db),
		fixes:     repository.NewFixRepository(db),
		trips:     repository.NewTripRepository(db),
		segmenter: detect.NewSegmenter(detect.DefaultThresholds),
	}
}

// DetectTrips runs segmentation for a shift and returns its full trip list.
//
// For a completed shift the run is idempotent and destructive: all existing
// trips are deleted and re-derived from the full fix sequence in one
// transaction. For an active shift the run is incremental: persisted trips
// stay untouched, only fixes newer than the last trip end are consumed, and
// a trip still in progress at the end of the available fixes is left
// unpersisted for the next run.
func (s *DetectionService) DetectTrips(shiftID int64) ([]models.Trip, error) {
	shift, err := s.shifts.GetByID(shiftID)
	if err != nil {
		return nil, err
	}
	if shift == nil {
		return nil, ErrShiftNotFound
	}

	if shift.IsCompleted() {
		err = s.detectFull(shiftID)
	} else {
		err = s.detectIncremental(shiftID)
	}
	if err != nil {
		return nil, err
	}

	trips, err := s.trips.ListByShift(shiftID)
	if err != nil {
		return nil, err
	}
	if trips == nil {
		trips = []models.Trip{}
	}
	return trips, nil
}

func (s *DetectionService) detectFull(shiftID int64) error {
	fixes, err := s.fixes.ListByShift(shiftID, 0)
	if err != nil {
		return err
	}

	candidates := s.segmenter.Detect(fixes, true)
	log.Printf("[Detection] shift %d: full run over %d fixes -> %d trips", shiftID, len(fixes), len(candidates))

	return database.TransactionOn(s.db, func(tx *sql.Tx) error {
		if err := s.trips.DeleteByShiftTx(tx, shiftID); err != nil {
			return err
		}
		return s.insertCandidates(tx, shiftID, candidates)
	})
}

func (s *DetectionService) detectIncremental(shiftID int64) error {
	cutoff, err := s.trips.LastEndedAt(shiftID)
	if err != nil {
		return err
	}

	fixes, err := s.fixes.ListByShift(shiftID, cutoff)
	if err != nil {
		return err
	}

	candidates := s.segmenter.Detect(fixes, false)
	log.Printf("[Detection] shift %d: incremental run over %d fixes (after %d) -> %d trips",
		shiftID, len(fixes), cutoff, len(candidates))

	if len(candidates) == 0 {
		return nil
	}
	return database.TransactionOn(s.db, func(tx *sql.Tx) error {
		return s.insertCandidates(tx, shiftID, candidates)
	})
}

func (s *DetectionService) insertCandidates(tx *sql.Tx, shiftID int64, candidates []detect.TripCandidate) error {
	for i := range candidates {
		c := &candidates[i]
		start := c.Fixes[0]
		end := c.Fixes[len(c.Fixes)-1]

		trip := &models.Trip{
			ShiftID:             shiftID,
			StartedAt:           c.StartedAt(),
			EndedAt:             c.EndedAt(),
			StartLat:            start.Latitude,
			StartLon:            start.Longitude,
			EndLat:              end.Latitude,
			EndLon:              end.Longitude,
			HaversineDistanceKm: c.DistanceKm,
			DurationMinutes:     c.DurationMinutes,
			Classification:      c.Classification,
			FixCount:            len(c.Fixes),
		}

		if _, err := s.trips.InsertTx(tx, trip); err != nil {
			return fmt.Errorf("failed to persist trip %d of shift %d: %w", i, shiftID, err)
		}
	}
	return nil
}
