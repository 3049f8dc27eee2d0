package service

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldtrack/trips-backend-go/internal/database"
	"github.com/fieldtrack/trips-backend-go/internal/models"
	"github.com/fieldtrack/trips-backend-go/internal/repository"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

// uploadTrack inserts fixes from northward displacements in meters, one fix
// every 60 seconds starting at startedAt, all with a 10 m accuracy radius.
func uploadTrack(t *testing.T, db *sql.DB, shiftID, startedAt int64, offsetsM ...float64) {
	t.Helper()

	acc := 10.0
	uploads := make([]models.FixUpload, len(offsetsM))
	for i, m := range offsetsM {
		uploads[i] = models.FixUpload{
			Latitude:       31.0 + m/111195.0,
			Longitude:      121.5,
			AccuracyMeters: &acc,
			CapturedAt:     startedAt + int64(i)*60,
		}
	}

	_, err := repository.NewFixRepository(db).InsertBatch(shiftID, uploads)
	require.NoError(t, err)
}

func TestDetectTripsUnknownShift(t *testing.T) {
	svc := NewDetectionService(newTestDB(t))

	_, err := svc.DetectTrips(404)
	assert.ErrorIs(t, err, ErrShiftNotFound)
}

func TestDetectTripsFullRunIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	svc := NewDetectionService(db)
	shifts := repository.NewShiftRepository(db)

	shift, err := shifts.Create(1000)
	require.NoError(t, err)

	// Idle, three fast minutes, then a confirmed stop.
	uploadTrack(t, db, shift.ID, 1000, 0, 0, 200, 500, 833, 853, 858, 863)
	require.NoError(t, shifts.Complete(shift.ID, 1000+7*60))

	trips, err := svc.DetectTrips(shift.ID)
	require.NoError(t, err)
	require.Len(t, trips, 1)

	trip := trips[0]
	assert.Equal(t, int64(1060), trip.StartedAt)
	assert.Equal(t, int64(1240), trip.EndedAt)
	assert.Equal(t, models.ClassificationDriving, trip.Classification)
	assert.Equal(t, 4, trip.FixCount)
	assert.Equal(t, models.MatchStatusPending, trip.MatchStatus)
	assert.InDelta(t, 1.083, trip.HaversineDistanceKm, 0.01)
	assert.InDelta(t, 3.0, trip.DurationMinutes, 0.01)

	// Re-running a completed shift re-derives the same trip set instead of
	// duplicating it.
	again, err := svc.DetectTrips(shift.ID)
	require.NoError(t, err)
	require.Len(t, again, 1)
	assert.Equal(t, trip.StartedAt, again[0].StartedAt)
	assert.Equal(t, trip.EndedAt, again[0].EndedAt)
}

func TestDetectTripsIncremental(t *testing.T) {
	db := newTestDB(t)
	svc := NewDetectionService(db)
	shifts := repository.NewShiftRepository(db)

	shift, err := shifts.Create(1000)
	require.NoError(t, err)

	// A trip still in progress on an active shift stays unpersisted.
	uploadTrack(t, db, shift.ID, 1000, 0, 300, 600, 900)
	trips, err := svc.DetectTrips(shift.ID)
	require.NoError(t, err)
	assert.Empty(t, trips)

	// Once the stop is confirmed by later fixes, the trip materializes.
	uploadTrack(t, db, shift.ID, 1240, 900, 900, 900)
	trips, err = svc.DetectTrips(shift.ID)
	require.NoError(t, err)
	require.Len(t, trips, 1)
	assert.Equal(t, int64(1000), trips[0].StartedAt)
	assert.Equal(t, int64(1180), trips[0].EndedAt)
	firstID := trips[0].ID

	// A further incremental run leaves the persisted trip untouched.
	trips, err = svc.DetectTrips(shift.ID)
	require.NoError(t, err)
	require.Len(t, trips, 1)
	assert.Equal(t, firstID, trips[0].ID)
}

func TestDetectTripsNoFixes(t *testing.T) {
	db := newTestDB(t)
	svc := NewDetectionService(db)

	shift, err := repository.NewShiftRepository(db).Create(1000)
	require.NoError(t, err)

	trips, err := svc.DetectTrips(shift.ID)
	require.NoError(t, err)
	assert.NotNil(t, trips)
	assert.Empty(t, trips)
}
