package models

// GpsFix represents a single location sample captured during a shift.
// Fixes are produced by the on-device capture subsystem and are immutable:
// the pipeline only ever reads them.
type GpsFix struct {
	ID      int64 `json:"id" db:"id"`
	ShiftID int64 `json:"shift_id" db:"shift_id"`

	Latitude  float64 `json:"latitude" db:"latitude"`
	Longitude float64 `json:"longitude" db:"longitude"`

	// AccuracyMeters is the reported horizontal error radius. Nil when the
	// device did not report one.
	AccuracyMeters *float64 `json:"accuracy_meters,omitempty" db:"accuracy_m"`

	// SensorSpeedMps is the device-reported ground speed in m/s, when present.
	SensorSpeedMps *float64 `json:"sensor_speed_mps,omitempty" db:"sensor_speed_mps"`

	// CapturedAt is a Unix timestamp in seconds.
	CapturedAt int64 `json:"captured_at" db:"captured_at"`
}

// Coord is a bare latitude/longitude pair.
type Coord struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// FixUpload is the request body for bulk fix ingestion.
type FixUpload struct {
	Latitude       float64  `json:"latitude" binding:"required"`
	Longitude      float64  `json:"longitude" binding:"required"`
	AccuracyMeters *float64 `json:"accuracy_meters"`
	SensorSpeedMps *float64 `json:"sensor_speed_mps"`
	CapturedAt     int64    `json:"captured_at" binding:"required"`
}
