package models

import "time"

// Shift status constants
const (
	ShiftStatusActive    = "active"
	ShiftStatusCompleted = "completed"
)

// Shift is the minimal projection of the shift lifecycle this pipeline
// needs: trip detection runs in incremental mode while a shift is active
// and in full (destructive) mode once it is completed.
type Shift struct {
	ID        int64     `json:"id" db:"id"`
	Status    string    `json:"status" db:"status"`
	StartedAt int64     `json:"started_at" db:"started_at"`
	EndedAt   *int64    `json:"ended_at,omitempty" db:"ended_at"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// IsCompleted reports whether detection should run in full mode.
func (s *Shift) IsCompleted() bool {
	return s.Status == ShiftStatusCompleted
}
