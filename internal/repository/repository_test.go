package repository

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fieldtrack/trips-backend-go/internal/database"
	"github.com/fieldtrack/trips-backend-go/internal/models"
)

// newTestDB opens a fresh migrated database in a per-test temp directory.
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

func newTestShift(t *testing.T, db *sql.DB) int64 {
	t.Helper()

	shift, err := NewShiftRepository(db).Create(1000)
	require.NoError(t, err)
	return shift.ID
}

// insertTestTrip persists a minimal pending trip and returns its id.
func insertTestTrip(t *testing.T, db *sql.DB, shiftID, startedAt, endedAt int64) int64 {
	t.Helper()

	repo := NewTripRepository(db)
	var id int64
	err := database.TransactionOn(db, func(tx *sql.Tx) error {
		var err error
		id, err = repo.InsertTx(tx, &models.Trip{
			ShiftID:             shiftID,
			StartedAt:           startedAt,
			EndedAt:             endedAt,
			StartLat:            31.23,
			StartLon:            121.47,
			EndLat:              31.25,
			EndLon:              121.49,
			HaversineDistanceKm: 3.2,
			DurationMinutes:     12.0,
			Classification:      models.ClassificationDriving,
			FixCount:            24,
		})
		return err
	})
	require.NoError(t, err)
	return id
}
