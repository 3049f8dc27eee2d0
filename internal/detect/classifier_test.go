package detect

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fieldtrack/trips-backend-go/internal/models"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name          string
		avgSpeedKmh   float64
		segmentSpeeds []float64
		distanceKm    float64
		want          string
	}{
		{
			name:        "clearly driving",
			avgSpeedKmh: 35.0,
			distanceKm:  12.0,
			want:        models.ClassificationDriving,
		},
		{
			name:        "clearly walking",
			avgSpeedKmh: 3.2,
			distanceKm:  0.8,
			want:        models.ClassificationWalking,
		},
		{
			name:          "grey zone slow segments short distance is walking",
			avgSpeedKmh:   5.5,
			segmentSpeeds: []float64{2.0, 3.1, 4.5, 2.8, 1.5, 9.0},
			distanceKm:    0.7,
			want:          models.ClassificationWalking,
		},
		{
			name:          "grey zone slow segments but long distance is driving",
			avgSpeedKmh:   5.5,
			segmentSpeeds: []float64{2.0, 3.1, 4.5, 2.8, 1.5, 9.0},
			distanceKm:    2.4,
			want:          models.ClassificationDriving,
		},
		{
			name:          "grey zone mixed speeds is stop-and-go driving",
			avgSpeedKmh:   7.0,
			segmentSpeeds: []float64{1.0, 22.0, 0.5, 18.0, 2.0},
			distanceKm:    0.9,
			want:          models.ClassificationDriving,
		},
		{
			name:        "grey zone without segment speeds defaults to driving",
			avgSpeedKmh: 6.0,
			distanceKm:  0.5,
			want:        models.ClassificationDriving,
		},
		{
			name:          "exactly four fifths slow is not enough for walking",
			avgSpeedKmh:   5.0,
			segmentSpeeds: []float64{2.0, 2.0, 2.0, 2.0, 9.0},
			distanceKm:    0.5,
			want:          models.ClassificationDriving,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.avgSpeedKmh, tt.segmentSpeeds, tt.distanceKm))
		})
	}
}
