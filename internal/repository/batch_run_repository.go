package repository

import (
	"database/sql"
	"fmt"

	"github.com/fieldtrack/trips-backend-go/internal/models"
)

// BatchRunRepository persists batch reprocessing summaries for
// operational review.
type BatchRunRepository struct {
	db *sql.DB
}

// NewBatchRunRepository creates a new batch run repository
func NewBatchRunRepository(db *sql.DB) *BatchRunRepository {
	return &BatchRunRepository{db: db}
}

// Record stores one orchestrator run summary.
func (r *BatchRunRepository) Record(s models.BatchSummary) error {
	_, err := r.db.Exec(`
		INSERT INTO batch_runs (id, total_requested, processed, matched, failed, anomalous, skipped, duration_seconds)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, s.RunID, s.TotalRequested, s.Processed, s.Matched, s.Failed, s.Anomalous, s.Skipped, s.DurationSeconds)
	if err != nil {
		return fmt.Errorf("failed to record batch run %s: %w", s.RunID, err)
	}
	return nil
}

// List returns recent batch run summaries, newest first.
func (r *BatchRunRepository) List(limit int) ([]models.BatchSummary, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.db.Query(`
		SELECT id, total_requested, processed, matched, failed, anomalous, skipped, duration_seconds
		FROM batch_runs
		ORDER BY created_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query batch runs: %w", err)
	}
	defer rows.Close()

	var runs []models.BatchSummary
	for rows.Next() {
		var s models.BatchSummary
		if err := rows.Scan(&s.RunID, &s.TotalRequested, &s.Processed, &s.Matched,
			&s.Failed, &s.Anomalous, &s.Skipped, &s.DurationSeconds); err != nil {
			return nil, fmt.Errorf("failed to scan batch run: %w", err)
		}
		runs = append(runs, s)
	}
	return runs, rows.Err()
}
