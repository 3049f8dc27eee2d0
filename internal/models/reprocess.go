package models

// ReprocessRequest selects trips for a batch matching run. Exactly one
// selection mode applies per invocation: an explicit trip-id list, a
// shift's unmatched trips, retryable failed/pending trips, or everything.
type ReprocessRequest struct {
	TripIDs         []int64 `json:"tripIds"`
	ShiftID         int64   `json:"shiftId"`
	ReprocessFailed bool    `json:"reprocessFailed"`
	ReprocessAll    bool    `json:"reprocessAll"`
	Limit           int     `json:"limit"`
}

// HasSelector reports whether the request names any trip selection at all.
func (r *ReprocessRequest) HasSelector() bool {
	return len(r.TripIDs) > 0 || r.ShiftID > 0 || r.ReprocessFailed || r.ReprocessAll
}

// Explicit reports whether the caller named trips directly. Explicit
// requests reset the attempt counter before processing.
func (r *ReprocessRequest) Explicit() bool {
	return len(r.TripIDs) > 0
}

// Per-trip result statuses beyond the persisted match statuses.
const (
	ResultStatusSkipped = "skipped"
)

// TripReprocessResult is one line of a batch run's report.
type TripReprocessResult struct {
	TripID          int64    `json:"trip_id"`
	Status          string   `json:"status"`
	RoadDistanceKm  *float64 `json:"road_distance_km,omitempty"`
	MatchConfidence *float64 `json:"match_confidence,omitempty"`
	Error           string   `json:"error,omitempty"`
}

// BatchSummary aggregates one orchestrator run.
type BatchSummary struct {
	RunID           string  `json:"run_id"`
	TotalRequested  int     `json:"total_requested"`
	Processed       int     `json:"processed"`
	Matched         int     `json:"matched"`
	Failed          int     `json:"failed"`
	Anomalous       int     `json:"anomalous"`
	Skipped         int     `json:"skipped"`
	DurationSeconds float64 `json:"duration_seconds"`
}

// BatchReport is the full response of a batch reprocessing run.
type BatchReport struct {
	Summary BatchSummary          `json:"summary"`
	Results []TripReprocessResult `json:"results"`
}
