package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldtrack/trips-backend-go/internal/models"
)

func traceOfLen(n int) []models.GpsFix {
	fixes := make([]models.GpsFix, n)
	for i := range fixes {
		fixes[i] = models.GpsFix{
			Latitude:   31.0 + float64(i)*0.001,
			Longitude:  121.5,
			CapturedAt: int64(i) * 30,
		}
	}
	return fixes
}

func TestSimplifyTrace(t *testing.T) {
	t.Run("short trace passes through", func(t *testing.T) {
		fixes := traceOfLen(40)
		out := SimplifyTrace(fixes, MaxTracePoints)
		assert.Equal(t, fixes, out)
	})

	t.Run("returned slice is a copy", func(t *testing.T) {
		fixes := traceOfLen(5)
		out := SimplifyTrace(fixes, MaxTracePoints)
		out[0].Latitude = -90
		assert.Equal(t, 31.0, fixes[0].Latitude)
	})

	t.Run("long trace downsamples to the cap", func(t *testing.T) {
		fixes := traceOfLen(250)
		out := SimplifyTrace(fixes, MaxTracePoints)
		require.Len(t, out, MaxTracePoints)
		assert.Equal(t, fixes[0], out[0])
		assert.Equal(t, fixes[249], out[len(out)-1])
	})

	t.Run("sampled fixes stay in chronological order", func(t *testing.T) {
		out := SimplifyTrace(traceOfLen(1000), MaxTracePoints)
		require.Len(t, out, MaxTracePoints)
		for i := 1; i < len(out); i++ {
			assert.Greater(t, out[i].CapturedAt, out[i-1].CapturedAt)
		}
	})

	t.Run("one over the cap", func(t *testing.T) {
		fixes := traceOfLen(MaxTracePoints + 1)
		out := SimplifyTrace(fixes, MaxTracePoints)
		require.Len(t, out, MaxTracePoints)
		assert.Equal(t, fixes[0], out[0])
		assert.Equal(t, fixes[MaxTracePoints], out[len(out)-1])
	})

	t.Run("deterministic", func(t *testing.T) {
		fixes := traceOfLen(777)
		assert.Equal(t, SimplifyTrace(fixes, MaxTracePoints), SimplifyTrace(fixes, MaxTracePoints))
	})
}
