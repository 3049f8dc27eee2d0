package models

import "time"

// Trip classification constants
const (
	ClassificationDriving = "driving"
	ClassificationWalking = "walking"
)

// Match status constants. A trip starts out pending; the batch orchestrator
// moves it through processing into exactly one of matched/failed/anomalous.
const (
	MatchStatusPending    = "pending"
	MatchStatusProcessing = "processing"
	MatchStatusMatched    = "matched"
	MatchStatusFailed     = "failed"
	MatchStatusAnomalous  = "anomalous"
)

// Trip represents one detected movement segment within a shift.
//
// The three match value fields (RoadDistanceKm, MatchConfidence,
// RouteGeometry) are nil unless MatchStatus is matched or anomalous; that
// invariant is enforced by writing them only through
// TripRepository.UpdateTripMatch with a MatchOutcome.
type Trip struct {
	ID      int64 `json:"id" db:"id"`
	ShiftID int64 `json:"shift_id" db:"shift_id"`

	StartedAt int64 `json:"started_at" db:"started_at"`
	EndedAt   int64 `json:"ended_at" db:"ended_at"`

	StartLat float64 `json:"start_lat" db:"start_lat"`
	StartLon float64 `json:"start_lon" db:"start_lon"`
	EndLat   float64 `json:"end_lat" db:"end_lat"`
	EndLon   float64 `json:"end_lon" db:"end_lon"`

	// HaversineDistanceKm is the summed great-circle distance over the
	// trip's fixes with the road correction factor applied. Superseded by
	// RoadDistanceKm once map-matching succeeds.
	HaversineDistanceKm float64 `json:"haversine_distance_km" db:"haversine_distance_km"`
	DurationMinutes     float64 `json:"duration_minutes" db:"duration_minutes"`
	Classification      string  `json:"classification" db:"classification"`
	FixCount            int     `json:"fix_count" db:"fix_count"`

	MatchStatus     string   `json:"match_status" db:"match_status"`
	MatchAttempts   int      `json:"match_attempts" db:"match_attempts"`
	RoadDistanceKm  *float64 `json:"road_distance_km,omitempty" db:"road_distance_km"`
	MatchConfidence *float64 `json:"match_confidence,omitempty" db:"match_confidence"`
	RouteGeometry   *string  `json:"route_geometry,omitempty" db:"route_geometry"`
	MatchError      *string  `json:"match_error,omitempty" db:"match_error"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// StartCoord returns the trip's first coordinate, used for regional
// endpoint selection.
func (t *Trip) StartCoord() Coord {
	return Coord{Lat: t.StartLat, Lon: t.StartLon}
}

// MatchOutcome is the tagged result of one matching pass over a trip. The
// value fields are only meaningful for the statuses that carry them:
// matched and anomalous carry distance/confidence/geometry, failed carries
// only the error text. Building trips' match columns exclusively from this
// type keeps invalid column combinations unrepresentable.
type MatchOutcome struct {
	Status          string
	RoadDistanceKm  *float64
	MatchConfidence *float64
	RouteGeometry   *string
	Error           *string
}

// FailedOutcome builds a failed outcome carrying only an error message.
func FailedOutcome(reason string) MatchOutcome {
	return MatchOutcome{Status: MatchStatusFailed, Error: &reason}
}

// MatchedOutcome builds a matched outcome with the accepted values.
func MatchedOutcome(distanceKm, confidence float64, geometry string) MatchOutcome {
	return MatchOutcome{
		Status:          MatchStatusMatched,
		RoadDistanceKm:  &distanceKm,
		MatchConfidence: &confidence,
		RouteGeometry:   &geometry,
	}
}

// AnomalousOutcome builds an anomalous outcome: the matched values are kept
// for manual review, with an explanatory error.
func AnomalousOutcome(distanceKm, confidence float64, geometry, reason string) MatchOutcome {
	return MatchOutcome{
		Status:          MatchStatusAnomalous,
		RoadDistanceKm:  &distanceKm,
		MatchConfidence: &confidence,
		RouteGeometry:   &geometry,
		Error:           &reason,
	}
}

// MatchResult is the ephemeral output of one road-matcher invocation. It is
// never persisted as its own entity; the validator folds it into the trip.
type MatchResult struct {
	Success            bool
	MatchStatus        string
	RouteGeometry      string
	RoadDistanceKm     float64
	MatchConfidence    float64
	MatchError         string
	GeometryPointCount int

	// MatchedPoints / TracePoints feed the coverage check: how many of the
	// simplified trace's fixes the service managed to snap to a road.
	MatchedPoints int
	TracePoints   int
}
