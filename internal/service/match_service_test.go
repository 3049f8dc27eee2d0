package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldtrack/trips-backend-go/internal/config"
	"github.com/fieldtrack/trips-backend-go/internal/database"
	"github.com/fieldtrack/trips-backend-go/internal/models"
	"github.com/fieldtrack/trips-backend-go/internal/repository"
)

// fakeMatcher substitutes the external matching service in batch tests.
type fakeMatcher struct {
	calls  int
	result models.MatchResult
	fn     func(trace []models.GpsFix) models.MatchResult
}

func (m *fakeMatcher) Match(_ context.Context, trace []models.GpsFix) models.MatchResult {
	m.calls++
	if m.fn != nil {
		return m.fn(trace)
	}
	return m.result
}

func goodMatch() models.MatchResult {
	return models.MatchResult{
		Success:         true,
		MatchStatus:     models.MatchStatusMatched,
		RouteGeometry:   "geom",
		RoadDistanceKm:  5.0,
		MatchConfidence: 0.9,
		MatchedPoints:   4,
		TracePoints:     4,
	}
}

func testMatcherConfig() config.MatcherConfig {
	return config.MatcherConfig{BaseURL: "http://osrm.test:5000"}
}

// newMatchFixture seeds a shift with one driving trip backed by four fixes
// and returns the trip id.
func newMatchFixture(t *testing.T, db *sql.DB) int64 {
	t.Helper()

	shift, err := repository.NewShiftRepository(db).Create(1000)
	require.NoError(t, err)

	uploadTrack(t, db, shift.ID, 1000, 0, 300, 600, 900)

	trips := repository.NewTripRepository(db)
	var id int64
	err = database.TransactionOn(db, func(tx *sql.Tx) error {
		id, err = trips.InsertTx(tx, &models.Trip{
			ShiftID:             shift.ID,
			StartedAt:           1000,
			EndedAt:             1180,
			StartLat:            31.0,
			StartLon:            121.5,
			EndLat:              31.008,
			EndLon:              121.5,
			HaversineDistanceKm: 3.2,
			DurationMinutes:     3.0,
			Classification:      models.ClassificationDriving,
			FixCount:            4,
		})
		return err
	})
	require.NoError(t, err)
	return id
}

func TestReprocessRequestValidation(t *testing.T) {
	db := newTestDB(t)

	t.Run("no selector", func(t *testing.T) {
		svc := NewMatchServiceWith(db, testMatcherConfig(), &fakeMatcher{})
		_, err := svc.Reprocess(context.Background(), models.ReprocessRequest{})
		assert.ErrorIs(t, err, ErrNoSelector)
	})

	t.Run("matcher unconfigured", func(t *testing.T) {
		svc := NewMatchServiceWith(db, config.MatcherConfig{}, &fakeMatcher{})
		_, err := svc.Reprocess(context.Background(), models.ReprocessRequest{ReprocessAll: true})
		assert.ErrorIs(t, err, ErrMatcherUnconfigured)
	})
}

func TestReprocessMatchesTrip(t *testing.T) {
	db := newTestDB(t)
	tripID := newMatchFixture(t, db)

	matcher := &fakeMatcher{result: goodMatch()}
	svc := NewMatchServiceWith(db, testMatcherConfig(), matcher)

	report, err := svc.Reprocess(context.Background(), models.ReprocessRequest{TripIDs: []int64{tripID}})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Summary.TotalRequested)
	assert.Equal(t, 1, report.Summary.Processed)
	assert.Equal(t, 1, report.Summary.Matched)
	assert.Zero(t, report.Summary.Failed)
	assert.Equal(t, 1, matcher.calls)

	require.Len(t, report.Results, 1)
	line := report.Results[0]
	assert.Equal(t, tripID, line.TripID)
	assert.Equal(t, models.MatchStatusMatched, line.Status)
	require.NotNil(t, line.RoadDistanceKm)
	assert.Equal(t, 5.0, *line.RoadDistanceKm)

	trip, err := repository.NewTripRepository(db).GetByID(tripID)
	require.NoError(t, err)
	assert.Equal(t, models.MatchStatusMatched, trip.MatchStatus)
	// Explicit requests reset the attempt counter at claim time.
	assert.Equal(t, 1, trip.MatchAttempts)
	require.NotNil(t, trip.RouteGeometry)
	assert.Equal(t, "geom", *trip.RouteGeometry)
}

func TestReprocessFlagsAnomalousTrip(t *testing.T) {
	db := newTestDB(t)
	tripID := newMatchFixture(t, db)

	// 15 km of road for a 3.2 km straight-line estimate crosses the 3x bound.
	result := goodMatch()
	result.RoadDistanceKm = 15.0
	svc := NewMatchServiceWith(db, testMatcherConfig(), &fakeMatcher{result: result})

	report, err := svc.Reprocess(context.Background(), models.ReprocessRequest{TripIDs: []int64{tripID}})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Summary.Anomalous)

	trip, err := repository.NewTripRepository(db).GetByID(tripID)
	require.NoError(t, err)
	assert.Equal(t, models.MatchStatusAnomalous, trip.MatchStatus)
	require.NotNil(t, trip.RoadDistanceKm)
	assert.Equal(t, 15.0, *trip.RoadDistanceKm)
	require.NotNil(t, trip.MatchError)
}

func TestReprocessInsufficientFixes(t *testing.T) {
	db := newTestDB(t)
	tripID := newMatchFixture(t, db)

	// Shrink the trip window to cover only two fixes: too few to match.
	_, err := db.Exec("UPDATE trips SET started_at = 1000, ended_at = 1060 WHERE id = ?", tripID)
	require.NoError(t, err)

	matcher := &fakeMatcher{result: goodMatch()}
	svc := NewMatchServiceWith(db, testMatcherConfig(), matcher)

	report, err := svc.Reprocess(context.Background(), models.ReprocessRequest{TripIDs: []int64{tripID}})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Summary.Failed)
	// The external service is never called for an unmatchable trace.
	assert.Zero(t, matcher.calls)

	trip, err := repository.NewTripRepository(db).GetByID(tripID)
	require.NoError(t, err)
	assert.Equal(t, models.MatchStatusFailed, trip.MatchStatus)
	require.NotNil(t, trip.MatchError)
	assert.Equal(t, "insufficient GPS points", *trip.MatchError)
}

func TestReprocessSkipPolicy(t *testing.T) {
	db := newTestDB(t)
	trips := repository.NewTripRepository(db)

	retryable := newMatchFixture(t, db)
	exhausted := newMatchFixture(t, db)

	require.NoError(t, trips.UpdateTripMatch(retryable, models.FailedOutcome("matching service returned HTTP 502")))
	require.NoError(t, trips.UpdateTripMatch(exhausted, models.FailedOutcome("matching service returned HTTP 502")))
	_, err := db.Exec("UPDATE trips SET match_attempts = ? WHERE id = ?", repository.MaxMatchAttempts, exhausted)
	require.NoError(t, err)

	t.Run("attempt cap holds for retry sweeps", func(t *testing.T) {
		matcher := &fakeMatcher{result: goodMatch()}
		svc := NewMatchServiceWith(db, testMatcherConfig(), matcher)

		// The retryable trip belongs to a different shift, so sweep via the
		// exhausted trip's shift to observe the skip.
		exhaustedTrip, err := trips.GetByID(exhausted)
		require.NoError(t, err)

		report, err := svc.Reprocess(context.Background(), models.ReprocessRequest{ShiftID: exhaustedTrip.ShiftID})
		require.NoError(t, err)

		assert.Equal(t, 1, report.Summary.TotalRequested)
		assert.Equal(t, 1, report.Summary.Skipped)
		assert.Zero(t, report.Summary.Processed)
		assert.Zero(t, matcher.calls)

		require.Len(t, report.Results, 1)
		assert.Equal(t, models.ResultStatusSkipped, report.Results[0].Status)
		assert.Equal(t, "max attempts reached", report.Results[0].Error)
	})

	t.Run("explicit request lifts the cap", func(t *testing.T) {
		matcher := &fakeMatcher{result: goodMatch()}
		svc := NewMatchServiceWith(db, testMatcherConfig(), matcher)

		report, err := svc.Reprocess(context.Background(), models.ReprocessRequest{TripIDs: []int64{exhausted}})
		require.NoError(t, err)

		assert.Equal(t, 1, report.Summary.Processed)
		assert.Equal(t, 1, report.Summary.Matched)
		assert.Equal(t, 1, matcher.calls)

		trip, err := trips.GetByID(exhausted)
		require.NoError(t, err)
		assert.Equal(t, models.MatchStatusMatched, trip.MatchStatus)
		assert.Equal(t, 1, trip.MatchAttempts)
	})

	t.Run("retry sweep picks up retryable trips", func(t *testing.T) {
		matcher := &fakeMatcher{result: goodMatch()}
		svc := NewMatchServiceWith(db, testMatcherConfig(), matcher)

		report, err := svc.Reprocess(context.Background(), models.ReprocessRequest{ReprocessFailed: true})
		require.NoError(t, err)

		assert.Equal(t, 1, report.Summary.Processed)
		assert.Equal(t, 1, report.Summary.Matched)

		trip, err := trips.GetByID(retryable)
		require.NoError(t, err)
		assert.Equal(t, models.MatchStatusMatched, trip.MatchStatus)
		assert.Equal(t, 1, trip.MatchAttempts)
	})
}

func TestReprocessRecoversFromPanic(t *testing.T) {
	db := newTestDB(t)
	first := newMatchFixture(t, db)
	second := newMatchFixture(t, db)

	calls := 0
	matcher := &fakeMatcher{fn: func(trace []models.GpsFix) models.MatchResult {
		calls++
		if calls == 1 {
			panic("matcher exploded")
		}
		return goodMatch()
	}}
	svc := NewMatchServiceWith(db, testMatcherConfig(), matcher)

	report, err := svc.Reprocess(context.Background(), models.ReprocessRequest{TripIDs: []int64{first, second}})
	require.NoError(t, err)

	// One trip's panic never aborts the rest of the batch.
	assert.Equal(t, 2, report.Summary.Processed)
	assert.Equal(t, 1, report.Summary.Failed)
	assert.Equal(t, 1, report.Summary.Matched)

	trips := repository.NewTripRepository(db)
	failed, err := trips.GetByID(first)
	require.NoError(t, err)
	assert.Equal(t, models.MatchStatusFailed, failed.MatchStatus)
	require.NotNil(t, failed.MatchError)
	assert.Contains(t, *failed.MatchError, "matching panicked")

	matched, err := trips.GetByID(second)
	require.NoError(t, err)
	assert.Equal(t, models.MatchStatusMatched, matched.MatchStatus)
}

func TestReprocessRecordsRunSummary(t *testing.T) {
	db := newTestDB(t)
	tripID := newMatchFixture(t, db)

	svc := NewMatchServiceWith(db, testMatcherConfig(), &fakeMatcher{result: goodMatch()})

	report, err := svc.Reprocess(context.Background(), models.ReprocessRequest{TripIDs: []int64{tripID}})
	require.NoError(t, err)
	require.NotEmpty(t, report.Summary.RunID)

	runs, err := svc.RecentRuns(10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, report.Summary.RunID, runs[0].RunID)
	assert.Equal(t, 1, runs[0].Matched)
}

func TestReprocessLimitClamp(t *testing.T) {
	db := newTestDB(t)
	for i := 0; i < 3; i++ {
		newMatchFixture(t, db)
	}

	svc := NewMatchServiceWith(db, testMatcherConfig(), &fakeMatcher{result: goodMatch()})

	report, err := svc.Reprocess(context.Background(), models.ReprocessRequest{ReprocessAll: true, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Summary.TotalRequested)
}
