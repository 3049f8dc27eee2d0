package repository

import (
	"database/sql"
	"fmt"

	"github.com/fieldtrack/trips-backend-go/internal/models"
)

// ShiftRepository handles database operations for shifts
type ShiftRepository struct {
	db *sql.DB
}

// NewShiftRepository creates a new shift repository
func NewShiftRepository(db *sql.DB) *ShiftRepository {
	return &ShiftRepository{db: db}
}

// Create inserts a new active shift.
func (r *ShiftRepository) Create(startedAt int64) (*models.Shift, error) {
	res, err := r.db.Exec(
		"INSERT INTO shifts (status, started_at) VALUES (?, ?)",
		models.ShiftStatusActive, startedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create shift: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read shift id: %w", err)
	}
	return r.GetByID(id)
}

// GetByID retrieves a shift. Returns (nil, nil) when absent.
func (r *ShiftRepository) GetByID(id int64) (*models.Shift, error) {
	query := `SELECT id, status, started_at, ended_at, created_at, updated_at FROM shifts WHERE id = ?`

	var s models.Shift
	err := r.db.QueryRow(query, id).Scan(&s.ID, &s.Status, &s.StartedAt, &s.EndedAt, &s.CreatedAt, &s.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get shift: %w", err)
	}
	return &s, nil
}

// Complete marks a shift completed at the given timestamp.
func (r *ShiftRepository) Complete(id, endedAt int64) error {
	res, err := r.db.Exec(`
		UPDATE shifts
		SET status = ?, ended_at = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, models.ShiftStatusCompleted, endedAt, id)
	if err != nil {
		return fmt.Errorf("failed to complete shift %d: %w", id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read shift update result: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("shift %d not found", id)
	}
	return nil
}
