package detect

import (
	"github.com/fieldtrack/trips-backend-go/internal/models"
	"github.com/fieldtrack/trips-backend-go/internal/spatial"
)

// TripCandidate is a trip boundary emitted by the segmenter, before it is
// persisted. Fixes are the confirmed trip points in chronological order.
type TripCandidate struct {
	Fixes            []models.GpsFix
	RawDistanceKm    float64 // summed great-circle distance, uncorrected
	DistanceKm       float64 // corrected road-distance approximation
	NetDisplacementM float64 // straight line start -> end
	DurationMinutes  float64
	AvgSpeedKmh      float64
	Classification   string
	SegmentSpeedsKmh []float64
}

// StartedAt returns the candidate's first fix timestamp.
func (c *TripCandidate) StartedAt() int64 { return c.Fixes[0].CapturedAt }

// EndedAt returns the candidate's last fix timestamp.
func (c *TripCandidate) EndedAt() int64 { return c.Fixes[len(c.Fixes)-1].CapturedAt }

// Segmenter walks a chronological fix sequence and emits trip boundaries.
// It is a two-state machine: Idle until the effective speed between two
// consecutive fixes reaches MovementKmh, then Moving until the speed stays
// under StationaryKmh for StationaryGap, or until a recording gap longer
// than GPSGap forces an end at the gap boundary.
type Segmenter struct {
	T Thresholds
}

// NewSegmenter creates a segmenter with the given thresholds.
func NewSegmenter(t Thresholds) *Segmenter {
	return &Segmenter{T: t}
}

// Detect runs the state machine over the fixes and returns the finalized
// trips. Fixes must be in chronological order.
//
// closeTrailing controls what happens to a trip still in progress when the
// fixes run out: for a completed shift the trip is finalized at the last
// confirmed moving fix; for an active shift it is dropped, to be re-derived
// once more fixes arrive.
func (s *Segmenter) Detect(fixes []models.GpsFix, closeTrailing bool) []TripCandidate {
	usable := make([]models.GpsFix, 0, len(fixes))
	for _, f := range fixes {
		if UsableFix(f, s.T) {
			usable = append(usable, f)
		}
	}
	if len(usable) < 2 {
		return nil
	}

	var trips []TripCandidate

	moving := false
	var cur []models.GpsFix     // confirmed trip fixes
	var curSpeeds []float64     // effective speed of each confirmed pair
	var pending []models.GpsFix // fixes inside an unconfirmed stationary window

	endTrip := func() {
		if c, ok := s.finalize(cur, curSpeeds); ok {
			trips = append(trips, c)
		}
		moving = false
		cur, curSpeeds, pending = nil, nil, nil
	}

	for i := 1; i < len(usable); i++ {
		prev, fix := usable[i-1], usable[i]

		// A recording gap forces a trip end exactly at the gap boundary,
		// using the last fix before the gap.
		if float64(fix.CapturedAt-prev.CapturedAt) > s.T.GPSGap.Seconds() {
			if moving {
				s.attachPending(&cur, &curSpeeds, pending, nil)
				pending = nil
				endTrip()
			}
			moving = false
			cur, curSpeeds, pending = nil, nil, nil
			continue
		}

		v := EffectiveSpeedKmh(prev, fix, s.T)

		if !moving {
			if v >= s.T.MovementKmh {
				// The trip starts at the earlier of the two fixes that
				// triggered the transition.
				moving = true
				cur = []models.GpsFix{prev, fix}
				curSpeeds = []float64{v}
				pending = nil
			}
			continue
		}

		if v >= s.T.StationaryKmh {
			// Movement resumed: any stationary-window fixes rejoin the trip.
			s.attachPending(&cur, &curSpeeds, pending, &fix)
			pending = nil
			continue
		}

		pending = append(pending, fix)
		stillFor := fix.CapturedAt - cur[len(cur)-1].CapturedAt
		if float64(stillFor) >= s.T.StationaryGap.Seconds() {
			// The stationary span is confirmed; the trip ended where it
			// began, at the last confirmed moving fix.
			pending = nil
			endTrip()
		}
	}

	if moving && closeTrailing {
		endTrip()
	}

	return trips
}

// attachPending appends the stationary-window fixes (and optionally the fix
// that revived movement) to the confirmed trip, chaining their pair speeds.
func (s *Segmenter) attachPending(cur *[]models.GpsFix, curSpeeds *[]float64, pending []models.GpsFix, next *models.GpsFix) {
	chain := append([]models.GpsFix{(*cur)[len(*cur)-1]}, pending...)
	if next != nil {
		chain = append(chain, *next)
	}
	for j := 1; j < len(chain); j++ {
		*curSpeeds = append(*curSpeeds, EffectiveSpeedKmh(chain[j-1], chain[j], s.T))
	}
	*cur = append(*cur, chain[1:]...)
}

// finalize computes the candidate's distance, duration and classification,
// then applies the minimum-size rule: walking trips need MinWalkingM of net
// displacement, driving trips need MinDrivingM of distance. Trips below the
// minimum for their class are discarded entirely.
func (s *Segmenter) finalize(fixes []models.GpsFix, speeds []float64) (TripCandidate, bool) {
	if len(fixes) < 2 {
		return TripCandidate{}, false
	}

	raw := 0.0
	for i := 1; i < len(fixes); i++ {
		raw += spatial.HaversineDistanceKm(
			fixes[i-1].Latitude, fixes[i-1].Longitude,
			fixes[i].Latitude, fixes[i].Longitude,
		)
	}
	corrected := raw * s.T.CorrectionFactor

	start, end := fixes[0], fixes[len(fixes)-1]
	durationMin := float64(end.CapturedAt-start.CapturedAt) / 60.0
	if durationMin <= 0 {
		return TripCandidate{}, false
	}

	avgKmh := corrected / (durationMin / 60.0)
	netM := spatial.HaversineDistance(start.Latitude, start.Longitude, end.Latitude, end.Longitude)

	c := TripCandidate{
		Fixes:            fixes,
		RawDistanceKm:    raw,
		DistanceKm:       corrected,
		NetDisplacementM: netM,
		DurationMinutes:  durationMin,
		AvgSpeedKmh:      avgKmh,
		Classification:   Classify(avgKmh, speeds, corrected),
		SegmentSpeedsKmh: speeds,
	}

	switch c.Classification {
	case models.ClassificationWalking:
		if netM < s.T.MinWalkingM {
			return TripCandidate{}, false
		}
	case models.ClassificationDriving:
		if corrected*1000.0 < s.T.MinDrivingM {
			return TripCandidate{}, false
		}
	}

	return c, true
}
