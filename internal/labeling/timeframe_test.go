package labeling

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dans91364-create/NECROZMAv2/internal/contracts"
)

func seriesWithDeltas(deltas ...time.Duration) *contracts.PriceSeries {
	t0 := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	s := &contracts.PriceSeries{Time: []time.Time{t0}}
	for _, d := range deltas {
		t0 = t0.Add(d)
		s.Time = append(s.Time, t0)
	}
	n := len(s.Time)
	s.High = make([]float64, n)
	s.Low = make([]float64, n)
	s.Close = make([]float64, n)
	return s
}

func TestDetectBarsPerMinute(t *testing.T) {
	tests := []struct {
		name   string
		series *contracts.PriceSeries
		want   float64
	}{
		{
			name:   "one minute bars",
			series: seriesWithDeltas(time.Minute, time.Minute, time.Minute),
			want:   1.0,
		},
		{
			name:   "five minute bars",
			series: seriesWithDeltas(5*time.Minute, 5*time.Minute),
			want:   0.2,
		},
		{
			name:   "median ignores weekend gap",
			series: seriesWithDeltas(time.Minute, time.Minute, 48*time.Hour, time.Minute, time.Minute),
			want:   1.0,
		},
		{
			name:   "even count averages middle deltas",
			series: seriesWithDeltas(30*time.Second, 30*time.Second, 90*time.Second, 90*time.Second),
			want:   1.0, // median 60s
		},
		{
			name:   "single timestamped bar",
			series: seriesWithDeltas(),
			want:   DefaultBarsPerMinute,
		},
		{
			name: "no timestamps",
			series: &contracts.PriceSeries{
				High: []float64{1, 2}, Low: []float64{1, 2}, Close: []float64{1, 2},
			},
			want: DefaultBarsPerMinute,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectBarsPerMinute(tt.series)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}
}

func TestDetectBarsPerMinute_Errors(t *testing.T) {
	_, err := DetectBarsPerMinute(&contracts.PriceSeries{})
	assert.ErrorIs(t, err, contracts.ErrEmptySeries)

	_, err = DetectBarsPerMinute(seriesWithDeltas(0, 0, time.Minute))
	assert.ErrorIs(t, err, ErrInvalidTimestamps)
}

func TestHorizonBars(t *testing.T) {
	tests := []struct {
		minutes int
		bpm     float64
		want    int
	}{
		{60, 1.0, 60},
		{60, 0.2, 12},
		{1, 0.2, 0},
		{30, 1.0 / 15.0, 2},
		{7, 60.0 / 7.0, 60}, // product not exactly representable
		{90, 4.0, 360},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, HorizonBars(tt.minutes, tt.bpm), "%d min @ %v", tt.minutes, tt.bpm)
	}
}
