package repository

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/fieldtrack/trips-backend-go/internal/models"
)

// TripRepository handles database operations for trips
type TripRepository struct {
	db *sql.DB
}

// NewTripRepository creates a new trip repository
func NewTripRepository(db *sql.DB) *TripRepository {
	return &TripRepository{db: db}
}

const tripColumns = `id, shift_id, started_at, ended_at, start_lat, start_lon,
	end_lat, end_lon, haversine_distance_km, duration_minutes, classification,
	fix_count, match_status, match_attempts, road_distance_km, match_confidence,
	route_geometry, match_error, created_at, updated_at`

func scanTrip(row interface{ Scan(...interface{}) error }) (*models.Trip, error) {
	var t models.Trip
	err := row.Scan(
		&t.ID, &t.ShiftID, &t.StartedAt, &t.EndedAt, &t.StartLat, &t.StartLon,
		&t.EndLat, &t.EndLon, &t.HaversineDistanceKm, &t.DurationMinutes,
		&t.Classification, &t.FixCount, &t.MatchStatus, &t.MatchAttempts,
		&t.RoadDistanceKm, &t.MatchConfidence, &t.RouteGeometry, &t.MatchError,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// GetByID retrieves a single trip by ID. Returns (nil, nil) when absent.
func (r *TripRepository) GetByID(id int64) (*models.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips WHERE id = ?`

	t, err := scanTrip(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get trip: %w", err)
	}
	return t, nil
}

// ListByShift retrieves a shift's trips ordered by start time.
func (r *TripRepository) ListByShift(shiftID int64) ([]models.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips WHERE shift_id = ? ORDER BY started_at`

	rows, err := r.db.Query(query, shiftID)
	if err != nil {
		return nil, fmt.Errorf("failed to query trips: %w", err)
	}
	defer rows.Close()

	var trips []models.Trip
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trip: %w", err)
		}
		trips = append(trips, *t)
	}
	return trips, rows.Err()
}

// LastEndedAt returns the latest trip end timestamp for a shift, or 0 when
// the shift has no persisted trips. Incremental detection consumes only
// fixes newer than this cutoff.
func (r *TripRepository) LastEndedAt(shiftID int64) (int64, error) {
	var ended sql.NullInt64
	err := r.db.QueryRow("SELECT MAX(ended_at) FROM trips WHERE shift_id = ?", shiftID).Scan(&ended)
	if err != nil {
		return 0, fmt.Errorf("failed to query last trip end: %w", err)
	}
	if !ended.Valid {
		return 0, nil
	}
	return ended.Int64, nil
}

// DeleteByShiftTx removes all trips for a shift inside a transaction, as
// the first half of a destructive re-detection.
func (r *TripRepository) DeleteByShiftTx(tx *sql.Tx, shiftID int64) error {
	if _, err := tx.Exec("DELETE FROM trips WHERE shift_id = ?", shiftID); err != nil {
		return fmt.Errorf("failed to delete trips for shift %d: %w", shiftID, err)
	}
	return nil
}

// InsertTx inserts a freshly detected trip inside a transaction. Match
// fields start at their pending defaults.
func (r *TripRepository) InsertTx(tx *sql.Tx, t *models.Trip) (int64, error) {
	query := `
		INSERT INTO trips (
			shift_id, started_at, ended_at, start_lat, start_lon, end_lat, end_lon,
			haversine_distance_km, duration_minutes, classification, fix_count,
			match_status, match_attempts, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	`

	res, err := tx.Exec(query,
		t.ShiftID, t.StartedAt, t.EndedAt, t.StartLat, t.StartLon, t.EndLat, t.EndLon,
		t.HaversineDistanceKm, t.DurationMinutes, t.Classification, t.FixCount,
		models.MatchStatusPending,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert trip: %w", err)
	}
	return res.LastInsertId()
}

// SelectForReprocess returns the trips a batch request targets, capped at
// limit, ordered by id for a stable processing sequence.
func (r *TripRepository) SelectForReprocess(req models.ReprocessRequest, limit int) ([]models.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips`
	var args []interface{}

	switch {
	case len(req.TripIDs) > 0:
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(req.TripIDs)), ",")
		query += " WHERE id IN (" + placeholders + ")"
		for _, id := range req.TripIDs {
			args = append(args, id)
		}
	case req.ShiftID > 0:
		query += " WHERE shift_id = ? AND match_status != ?"
		args = append(args, req.ShiftID, models.MatchStatusMatched)
	case req.ReprocessAll:
		// no filter
	case req.ReprocessFailed:
		query += " WHERE match_status IN (?, ?) AND match_attempts < ?"
		args = append(args, models.MatchStatusFailed, models.MatchStatusPending, MaxMatchAttempts)
	default:
		return nil, fmt.Errorf("no trip selector provided")
	}

	query += " ORDER BY id LIMIT ?"
	args = append(args, limit)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select trips for reprocessing: %w", err)
	}
	defer rows.Close()

	var trips []models.Trip
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trip: %w", err)
		}
		trips = append(trips, *t)
	}
	return trips, rows.Err()
}

// MaxMatchAttempts caps matching retries per trip.
const MaxMatchAttempts = 3

// ClaimForProcessing atomically marks a trip processing and bumps its
// attempt counter (or resets it to 1 for explicit reprocess requests). The
// conditional update is the concurrency guard: a trip already claimed by a
// concurrent run is left alone and the claim reports false.
func (r *TripRepository) ClaimForProcessing(id int64, resetAttempts bool) (bool, error) {
	attemptExpr := "match_attempts + 1"
	if resetAttempts {
		attemptExpr = "1"
	}

	query := fmt.Sprintf(`
		UPDATE trips
		SET match_status = ?,
		    match_attempts = %s,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND match_status != ?
	`, attemptExpr)

	res, err := r.db.Exec(query, models.MatchStatusProcessing, id, models.MatchStatusProcessing)
	if err != nil {
		return false, fmt.Errorf("failed to claim trip %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read claim result for trip %d: %w", id, err)
	}
	return n > 0, nil
}

// UpdateTripMatch persists a final match outcome. This is the sole write
// path for the match fields, so the status/value invariant holds by
// construction: failed outcomes carry nil values, matched/anomalous carry
// all three.
func (r *TripRepository) UpdateTripMatch(id int64, outcome models.MatchOutcome) error {
	query := `
		UPDATE trips
		SET match_status = ?,
		    road_distance_km = ?,
		    match_confidence = ?,
		    route_geometry = ?,
		    match_error = ?,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`

	_, err := r.db.Exec(query,
		outcome.Status, outcome.RoadDistanceKm, outcome.MatchConfidence,
		outcome.RouteGeometry, outcome.Error, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update trip %d match: %w", id, err)
	}
	return nil
}
