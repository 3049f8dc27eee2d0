package matching

import (
	"fmt"
	"math"

	"github.com/fieldtrack/trips-backend-go/internal/models"
)

// Validator acceptance bounds.
const (
	// MinFixesForMatching is the smallest trace worth sending to the
	// service at all.
	MinFixesForMatching = 3

	minCoverageRatio = 0.5
	// Low confidence alone is not disqualifying: the service's confidence
	// metric mostly reflects route ambiguity. It is only fatal when paired
	// with poor coverage.
	minConfidence          = 0.05
	confidenceRescueRatio  = 0.8
	anomalousDistanceRatio = 3.0
)

// Validate accepts, rejects, or flags a match result, producing the final
// outcome to persist on the trip. Rules apply in order; the first failing
// rule wins.
func Validate(res models.MatchResult, haversineDistanceKm float64) models.MatchOutcome {
	if !res.Success {
		return models.FailedOutcome(res.MatchError)
	}

	coverage := 0.0
	if res.TracePoints > 0 {
		coverage = float64(res.MatchedPoints) / float64(res.TracePoints)
	}

	if coverage < minCoverageRatio {
		return models.FailedOutcome(fmt.Sprintf(
			"only %d%% of points matched to roads", int(math.Round(coverage*100))))
	}

	if res.MatchConfidence < minConfidence && coverage < confidenceRescueRatio {
		return models.FailedOutcome(fmt.Sprintf(
			"match confidence too low (%.3f) with %d%% coverage",
			res.MatchConfidence, int(math.Round(coverage*100))))
	}

	roadKm := roundTo(res.RoadDistanceKm, 3)
	confidence := roundTo(res.MatchConfidence, 2)

	if haversineDistanceKm > 0 && res.RoadDistanceKm > anomalousDistanceRatio*haversineDistanceKm {
		return models.AnomalousOutcome(roadKm, confidence, res.RouteGeometry, fmt.Sprintf(
			"road distance %.2f km exceeds %.0fx the straight-line estimate %.2f km",
			res.RoadDistanceKm, anomalousDistanceRatio, haversineDistanceKm))
	}

	return models.MatchedOutcome(roadKm, confidence, res.RouteGeometry)
}

func roundTo(v float64, decimals int) float64 {
	scale := math.Pow(10, float64(decimals))
	return math.Round(v*scale) / scale
}
