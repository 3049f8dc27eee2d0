package detect

import (
	"time"

	"github.com/fieldtrack/trips-backend-go/internal/models"
	"github.com/fieldtrack/trips-backend-go/internal/spatial"
)

// Thresholds defines the tunable constants of the detection pipeline.
type Thresholds struct {
	MaxAccuracyM   float64 // fixes worse than this never reach segmentation
	GlitchKmh      float64 // instantaneous speeds above this are sensor glitches
	MovementKmh    float64 // Idle -> Moving transition speed
	StationaryKmh  float64 // Moving holds while at or above this speed
	StationaryGap  time.Duration
	GPSGap         time.Duration
	SensorStillMps float64 // sensor speeds below this on both fixes mean stationary

	CorrectionFactor float64 // straight-line -> road distance multiplier
	MinWalkingM      float64 // minimum net displacement for a walking trip
	MinDrivingM      float64 // minimum distance for a driving trip
}

// DefaultThresholds provides the production detection thresholds.
var DefaultThresholds = Thresholds{
	MaxAccuracyM:   200.0,
	GlitchKmh:      200.0,
	MovementKmh:    8.0,
	StationaryKmh:  3.0,
	StationaryGap:  3 * time.Minute,
	GPSGap:         15 * time.Minute,
	SensorStillMps: 0.5,

	CorrectionFactor: 1.3,
	MinWalkingM:      100.0,
	MinDrivingM:      500.0,
}

// UsableFix reports whether a fix is reliable enough for segmentation.
// Fixes with an error radius above MaxAccuracyM are glitches and are
// dropped before any other stage sees them.
func UsableFix(f models.GpsFix, t Thresholds) bool {
	return f.AccuracyMeters == nil || *f.AccuracyMeters <= t.MaxAccuracyM
}

// EffectiveSpeedKmh returns the speed the segmenter should attribute to the
// movement between two chronologically adjacent fixes.
//
// Two fixes whose displacement is smaller than either error circle are
// indistinguishable from stationary, so the noise floor forces zero. When
// both fixes carry a near-zero sensor speed, the device's own reading
// overrides whatever the coordinates imply. Speeds above GlitchKmh are
// clipped to zero: a glitch must not extend a trip.
func EffectiveSpeedKmh(a, b models.GpsFix, t Thresholds) float64 {
	elapsed := b.CapturedAt - a.CapturedAt
	if elapsed <= 0 {
		return 0
	}

	// Sensor cross-check: both fixes report the device as still.
	if a.SensorSpeedMps != nil && b.SensorSpeedMps != nil &&
		*a.SensorSpeedMps < t.SensorStillMps && *b.SensorSpeedMps < t.SensorStillMps {
		return 0
	}

	displacement := spatial.HaversineDistance(a.Latitude, a.Longitude, b.Latitude, b.Longitude)

	// Noise floor: the displacement is within GPS error.
	if displacement < maxAccuracy(a, b) {
		return 0
	}

	speedKmh := displacement / float64(elapsed) * 3.6
	if speedKmh > t.GlitchKmh {
		return 0
	}
	return speedKmh
}

func maxAccuracy(a, b models.GpsFix) float64 {
	acc := 0.0
	if a.AccuracyMeters != nil {
		acc = *a.AccuracyMeters
	}
	if b.AccuracyMeters != nil && *b.AccuracyMeters > acc {
		acc = *b.AccuracyMeters
	}
	return acc
}
