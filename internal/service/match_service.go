package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/fieldtrack/trips-backend-go/internal/config"
	"github.com/fieldtrack/trips-backend-go/internal/matching"
	"github.com/fieldtrack/trips-backend-go/internal/models"
	"github.com/fieldtrack/trips-backend-go/internal/repository"
)

// MaxTripsPerBatch is the hard ceiling on one reprocessing run.
const MaxTripsPerBatch = 500

// DefaultBatchSize is the page size used when the request does not set one.
const DefaultBatchSize = 100

// Orchestration errors surfaced to the caller before any trip is touched.
var (
	ErrNoSelector          = errors.New("no trip selector provided")
	ErrMatcherUnconfigured = errors.New("matching service URL is not configured")
)

// RoadMatcher abstracts the external map-matching call so batch tests can
// substitute a fake.
type RoadMatcher interface {
	Match(ctx context.Context, trace []models.GpsFix) models.MatchResult
}

// MatchService runs the simplify -> match -> validate pipeline per trip and
// orchestrates batch reprocessing runs.
type MatchService struct {
	cfg     config.MatcherConfig
	matcher RoadMatcher
	trips   *repository.TripRepository
	fixes   *repository.FixRepository
	runs    *repository.BatchRunRepository
}

// NewMatchService creates a match service backed by the real HTTP matching
// client.
func NewMatchService(db *sql.DB, cfg config.MatcherConfig) *MatchService {
	return NewMatchServiceWith(db, cfg, matching.NewClient(cfg))
}

// NewMatchServiceWith creates a match service with an injected matcher.
func NewMatchServiceWith(db *sql.DB, cfg config.MatcherConfig, matcher RoadMatcher) *MatchService {
	return &MatchService{
		cfg:     cfg,
		matcher: matcher,
		trips:   repository.NewTripRepository(db),
		fixes:   repository.NewFixRepository(db),
		runs:    repository.NewBatchRunRepository(db),
	}
}

// Reprocess runs the batch orchestrator: select trips per the request,
// enforce skip policy, process strictly sequentially with a fixed delay
// between external calls, and aggregate a summary. One trip's failure never
// aborts the remaining queue.
func (s *MatchService) Reprocess(ctx context.Context, req models.ReprocessRequest) (*models.BatchReport, error) {
	if !req.HasSelector() {
		return nil, ErrNoSelector
	}
	if s.cfg.BaseURL == "" {
		return nil, ErrMatcherUnconfigured
	}

	limit := req.Limit
	if limit <= 0 {
		limit = DefaultBatchSize
	}
	if limit > MaxTripsPerBatch {
		limit = MaxTripsPerBatch
	}

	trips, err := s.trips.SelectForReprocess(req, limit)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	report := &models.BatchReport{
		Summary: models.BatchSummary{
			RunID:          uuid.NewString(),
			TotalRequested: len(trips),
		},
		Results: []models.TripReprocessResult{},
	}

	log.Printf("[Batch] run %s: %d trips selected", report.Summary.RunID, len(trips))

	for i := range trips {
		trip := &trips[i]

		if skip, reason := s.shouldSkip(trip, req); skip {
			report.Summary.Skipped++
			report.Results = append(report.Results, models.TripReprocessResult{
				TripID: trip.ID,
				Status: models.ResultStatusSkipped,
				Error:  reason,
			})
			continue
		}

		claimed, err := s.trips.ClaimForProcessing(trip.ID, req.Explicit())
		if err != nil {
			report.Summary.Failed++
			report.Results = append(report.Results, models.TripReprocessResult{
				TripID: trip.ID,
				Status: models.MatchStatusFailed,
				Error:  err.Error(),
			})
			continue
		}
		if !claimed {
			report.Summary.Skipped++
			report.Results = append(report.Results, models.TripReprocessResult{
				TripID: trip.ID,
				Status: models.ResultStatusSkipped,
				Error:  "already being processed",
			})
			continue
		}

		outcome := s.processTrip(ctx, trip)
		report.Summary.Processed++

		switch outcome.Status {
		case models.MatchStatusMatched:
			report.Summary.Matched++
		case models.MatchStatusAnomalous:
			report.Summary.Anomalous++
		default:
			report.Summary.Failed++
		}

		line := models.TripReprocessResult{
			TripID:          trip.ID,
			Status:          outcome.Status,
			RoadDistanceKm:  outcome.RoadDistanceKm,
			MatchConfidence: outcome.MatchConfidence,
		}
		if outcome.Error != nil {
			line.Error = *outcome.Error
		}
		report.Results = append(report.Results, line)

		// Pause between external calls to respect the service's rate limit.
		if i < len(trips)-1 && s.cfg.RateDelay > 0 {
			time.Sleep(s.cfg.RateDelay)
		}
	}

	report.Summary.DurationSeconds = time.Since(start).Seconds()

	if err := s.runs.Record(report.Summary); err != nil {
		log.Printf("[Batch] run %s: failed to record summary: %v", report.Summary.RunID, err)
	}

	log.Printf("[Batch] run %s: processed=%d matched=%d failed=%d anomalous=%d skipped=%d in %.1fs",
		report.Summary.RunID, report.Summary.Processed, report.Summary.Matched,
		report.Summary.Failed, report.Summary.Anomalous, report.Summary.Skipped,
		report.Summary.DurationSeconds)

	return report, nil
}

// shouldSkip applies the batch skip policy. The attempts cap is only
// overridden by reprocessAll or an explicit trip-id request (which resets
// the counter at claim time); reprocessFailed does not lift it.
func (s *MatchService) shouldSkip(trip *models.Trip, req models.ReprocessRequest) (bool, string) {
	if req.ReprocessAll || req.Explicit() {
		return false, ""
	}
	if trip.MatchStatus == models.MatchStatusMatched {
		return true, "already matched"
	}
	if trip.MatchAttempts >= repository.MaxMatchAttempts {
		return true, "max attempts reached"
	}
	return false, ""
}

// processTrip runs simplify -> match -> validate for one claimed trip and
// persists the outcome. Any panic or persistence error degrades to a failed
// outcome so the batch loop keeps going.
func (s *MatchService) processTrip(ctx context.Context, trip *models.Trip) (outcome models.MatchOutcome) {
	defer func() {
		if p := recover(); p != nil {
			outcome = models.FailedOutcome(fmt.Sprintf("matching panicked: %v", p))
			if err := s.trips.UpdateTripMatch(trip.ID, outcome); err != nil {
				log.Printf("[Batch] trip %d: failed to persist panic outcome: %v", trip.ID, err)
			}
		}
	}()

	outcome = s.matchTrip(ctx, trip)

	if err := s.trips.UpdateTripMatch(trip.ID, outcome); err != nil {
		log.Printf("[Batch] trip %d: failed to persist outcome: %v", trip.ID, err)
		outcome = models.FailedOutcome(fmt.Sprintf("failed to persist match result: %v", err))
	}
	return outcome
}

// matchTrip produces the final outcome for one trip without persisting it.
func (s *MatchService) matchTrip(ctx context.Context, trip *models.Trip) models.MatchOutcome {
	fixes, err := s.fixes.ListByTimeRange(trip.ShiftID, trip.StartedAt, trip.EndedAt)
	if err != nil {
		return models.FailedOutcome(fmt.Sprintf("failed to load trip fixes: %v", err))
	}
	if len(fixes) < matching.MinFixesForMatching {
		return models.FailedOutcome("insufficient GPS points")
	}

	trace := matching.SimplifyTrace(fixes, matching.MaxTracePoints)
	result := s.matcher.Match(ctx, trace)
	return matching.Validate(result, trip.HaversineDistanceKm)
}

// RecentRuns lists recent batch run summaries.
func (s *MatchService) RecentRuns(limit int) ([]models.BatchSummary, error) {
	return s.runs.List(limit)
}
