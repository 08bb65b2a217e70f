package labeling

import (
	"errors"
	"math"
	"slices"

	"github.com/dans91364-create/NECROZMAv2/internal/contracts"
)

// DefaultBarsPerMinute is assumed when the series has no timestamps (M1 bars)
const DefaultBarsPerMinute = 1.0

// horizonEpsilon keeps minutes × bars_per_minute from truncating one bar
// short when the product lands a hair below a whole number.
const horizonEpsilon = 1e-9

// ErrInvalidTimestamps is returned when the median bar spacing is not positive
var ErrInvalidTimestamps = errors.New("timestamps are not strictly increasing")

// DetectBarsPerMinute infers the bar frequency from the median spacing of
// consecutive timestamps: bars_per_minute = 60 / median_delta_seconds.
func DetectBarsPerMinute(series *contracts.PriceSeries) (float64, error) {
	n := series.Len()
	if n == 0 {
		return 0, contracts.ErrEmptySeries
	}
	if !series.HasTimestamps() || n < 2 {
		return DefaultBarsPerMinute, nil
	}

	deltas := make([]float64, n-1)
	for i := 1; i < n; i++ {
		deltas[i-1] = series.Time[i].Sub(series.Time[i-1]).Seconds()
	}
	slices.Sort(deltas)

	var median float64
	mid := len(deltas) / 2
	if len(deltas)%2 == 1 {
		median = deltas[mid]
	} else {
		median = (deltas[mid-1] + deltas[mid]) / 2
	}

	if median <= 0 {
		return 0, ErrInvalidTimestamps
	}

	return 60.0 / median, nil
}

// HorizonBars converts a horizon in minutes to a whole number of bars (floor)
func HorizonBars(minutes int, barsPerMinute float64) int {
	return int(math.Floor(float64(minutes)*barsPerMinute + horizonEpsilon))
}
