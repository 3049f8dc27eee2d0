package detect

import "github.com/fieldtrack/trips-backend-go/internal/models"

// Classifier speed bounds (km/h). Between the two lies the grey zone where
// inter-fix speeds decide.
const (
	drivingSpeedKmh = 10.0
	walkingSpeedKmh = 4.0

	greyZoneSlowKmh   = 5.0
	greyZoneSlowShare = 0.8
	greyZoneMaxWalkKm = 1.0
)

// Classify labels a finalized trip driving or walking.
//
// avgSpeedKmh is trip distance over duration. In the grey zone the
// per-segment speed distribution breaks the tie: mostly-slow segments over
// a short total distance mean walking, anything else is stop-and-go
// driving.
func Classify(avgSpeedKmh float64, segmentSpeedsKmh []float64, distanceKm float64) string {
	if avgSpeedKmh > drivingSpeedKmh {
		return models.ClassificationDriving
	}
	if avgSpeedKmh < walkingSpeedKmh {
		return models.ClassificationWalking
	}

	if len(segmentSpeedsKmh) > 0 {
		slow := 0
		for _, v := range segmentSpeedsKmh {
			if v < greyZoneSlowKmh {
				slow++
			}
		}
		slowShare := float64(slow) / float64(len(segmentSpeedsKmh))
		if slowShare > greyZoneSlowShare && distanceKm < greyZoneMaxWalkKm {
			return models.ClassificationWalking
		}
	}
	return models.ClassificationDriving
}
