package repository

import (
	"database/sql"
	"fmt"

	"github.com/fieldtrack/trips-backend-go/internal/models"
)

// FixRepository handles database operations for GPS fixes
type FixRepository struct {
	db *sql.DB
}

// NewFixRepository creates a new fix repository
func NewFixRepository(db *sql.DB) *FixRepository {
	return &FixRepository{db: db}
}

// InsertBatch appends a batch of fixes for a shift. Fixes are immutable:
// there is no update path.
func (r *FixRepository) InsertBatch(shiftID int64, fixes []models.FixUpload) (int, error) {
	if len(fixes) == 0 {
		return 0, nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO gps_fixes (shift_id, latitude, longitude, accuracy_m, sensor_speed_mps, captured_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare fix insert: %w", err)
	}
	defer stmt.Close()

	for _, f := range fixes {
		if _, err := stmt.Exec(shiftID, f.Latitude, f.Longitude, f.AccuracyMeters, f.SensorSpeedMps, f.CapturedAt); err != nil {
			return 0, fmt.Errorf("failed to insert fix: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit fix batch: %w", err)
	}
	return len(fixes), nil
}

// ListByShift returns a shift's fixes in chronological order, optionally
// only those captured strictly after the given cutoff.
func (r *FixRepository) ListByShift(shiftID int64, afterUnix int64) ([]models.GpsFix, error) {
	query := `
		SELECT id, shift_id, latitude, longitude, accuracy_m, sensor_speed_mps, captured_at
		FROM gps_fixes
		WHERE shift_id = ? AND captured_at > ?
		ORDER BY captured_at, id
	`

	rows, err := r.db.Query(query, shiftID, afterUnix)
	if err != nil {
		return nil, fmt.Errorf("failed to query fixes: %w", err)
	}
	defer rows.Close()

	var fixes []models.GpsFix
	for rows.Next() {
		var f models.GpsFix
		if err := rows.Scan(&f.ID, &f.ShiftID, &f.Latitude, &f.Longitude,
			&f.AccuracyMeters, &f.SensorSpeedMps, &f.CapturedAt); err != nil {
			return nil, fmt.Errorf("failed to scan fix: %w", err)
		}
		fixes = append(fixes, f)
	}
	return fixes, rows.Err()
}

// ListByTimeRange returns a shift's fixes within [from, to], inclusive.
// Used to rebuild a persisted trip's trace for map-matching.
func (r *FixRepository) ListByTimeRange(shiftID, from, to int64) ([]models.GpsFix, error) {
	query := `
		SELECT id, shift_id, latitude, longitude, accuracy_m, sensor_speed_mps, captured_at
		FROM gps_fixes
		WHERE shift_id = ? AND captured_at >= ? AND captured_at <= ?
		ORDER BY captured_at, id
	`

	rows, err := r.db.Query(query, shiftID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query fixes: %w", err)
	}
	defer rows.Close()

	var fixes []models.GpsFix
	for rows.Next() {
		var f models.GpsFix
		if err := rows.Scan(&f.ID, &f.ShiftID, &f.Latitude, &f.Longitude,
			&f.AccuracyMeters, &f.SensorSpeedMps, &f.CapturedAt); err != nil {
			return nil, fmt.Errorf("failed to scan fix: %w", err)
		}
		fixes = append(fixes, f)
	}
	return fixes, rows.Err()
}
