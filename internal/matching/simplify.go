package matching

import (
	"math"

	"github.com/fieldtrack/trips-backend-go/internal/models"
)

// MaxTracePoints bounds the number of fixes submitted to the external
// matching service per trip.
const MaxTracePoints = 100

// SimplifyTrace downsamples a trip's fix list to at most maxPoints while
// always preserving the first and last fix. Interior fixes are sampled at a
// fixed stride, so the result is deterministic and order-preserving.
func SimplifyTrace(fixes []models.GpsFix, maxPoints int) []models.GpsFix {
	n := len(fixes)
	if maxPoints < 2 || n <= maxPoints {
		out := make([]models.GpsFix, n)
		copy(out, fixes)
		return out
	}

	out := make([]models.GpsFix, 0, maxPoints)
	out = append(out, fixes[0])

	step := float64(n-2) / float64(maxPoints-2)
	for i := 1; i <= maxPoints-2; i++ {
		idx := int(math.Round(float64(i) * step))
		if idx < 1 {
			idx = 1
		}
		if idx > n-2 {
			idx = n - 2
		}
		out = append(out, fixes[idx])
	}

	out = append(out, fixes[n-1])
	return out
}
