package labeling

import (
	"errors"
	"fmt"
	"math"

	"github.com/dans91364-create/NECROZMAv2/internal/contracts"
)

// ErrInvalidPeriod is returned for non-positive forward periods
var ErrInvalidPeriod = errors.New("forward period must be positive")

// DefaultForwardPeriods are the bar counts used when none are given
var DefaultForwardPeriods = []int{1, 5, 10, 20, 50, 100}

// ForwardReturns computes the forward return, high and low of every period.
// Row i of period N looks at bars i+1..i+N; the last N rows are NaN.
func ForwardReturns(series *contracts.PriceSeries, periods []int) ([]contracts.ForwardWindow, error) {
	if err := series.Check(); err != nil {
		return nil, err
	}
	if err := validatePeriods(periods); err != nil {
		return nil, err
	}

	n := series.Len()
	windows := make([]contracts.ForwardWindow, 0, len(periods))
	for _, period := range periods {
		w := contracts.ForwardWindow{
			Period: period,
			Return: nanSlice(n),
			High:   windowExtreme(series.High, period, func(a, b float64) bool { return a >= b }),
			Low:    windowExtreme(series.Low, period, func(a, b float64) bool { return a <= b }),
		}
		for i := 0; i+period < n; i++ {
			if c := series.Close[i]; c != 0 {
				w.Return[i] = series.Close[i+period]/c - 1
			}
		}
		windows = append(windows, w)
	}
	return windows, nil
}

// TargetLevelsFor returns the exit prices of every bar for one pair,
// entering at the close.
func TargetLevelsFor(series *contracts.PriceSeries, targetPips, stopPips int, pipValue float64) (*contracts.TargetLevels, error) {
	if err := series.Check(); err != nil {
		return nil, err
	}
	if targetPips <= 0 || stopPips <= 0 || !(pipValue > 0) {
		return nil, fmt.Errorf("%w: target=%d stop=%d pip=%v", contracts.ErrInvalidGrid, targetPips, stopPips, pipValue)
	}

	n := series.Len()
	tp := float64(targetPips) * pipValue
	sl := float64(stopPips) * pipValue

	levels := &contracts.TargetLevels{
		TargetPips:  targetPips,
		StopPips:    stopPips,
		RiskReward:  float64(targetPips) / float64(stopPips),
		LongTarget:  make([]float64, n),
		LongStop:    make([]float64, n),
		ShortTarget: make([]float64, n),
		ShortStop:   make([]float64, n),
	}
	for i, c := range series.Close {
		levels.LongTarget[i] = c + tp
		levels.LongStop[i] = c - sl
		levels.ShortTarget[i] = c - tp
		levels.ShortStop[i] = c + sl
	}
	return levels, nil
}

// gridTargetLevels computes levels for every (target, stop) pair of the grid
func gridTargetLevels(series *contracts.PriceSeries, grid contracts.SweepGrid) ([]*contracts.TargetLevels, error) {
	out := make([]*contracts.TargetLevels, 0, len(grid.TargetPips)*len(grid.StopPips))
	for _, tp := range grid.TargetPips {
		for _, sl := range grid.StopPips {
			levels, err := TargetLevelsFor(series, tp, sl, grid.PipValue)
			if err != nil {
				return nil, err
			}
			out = append(out, levels)
		}
	}
	return out, nil
}

func validatePeriods(periods []int) error {
	if len(periods) == 0 {
		return fmt.Errorf("%w: no periods", ErrInvalidPeriod)
	}
	for _, p := range periods {
		if p <= 0 {
			return fmt.Errorf("%w: %d", ErrInvalidPeriod, p)
		}
	}
	return nil
}

// windowExtreme returns, for each i, the extreme of values[i+1..i+period]
// using a monotonic deque. keep(a, b) reports whether a dominates b.
func windowExtreme(values []float64, period int, keep func(a, b float64) bool) []float64 {
	n := len(values)
	out := nanSlice(n)
	deque := make([]int, 0, period)

	for j := 1; j < n; j++ {
		for len(deque) > 0 && keep(values[j], values[deque[len(deque)-1]]) {
			deque = deque[:len(deque)-1]
		}
		deque = append(deque, j)

		// window of row i = j-period is [j-period+1, j]
		if deque[0] <= j-period {
			deque = deque[1:]
		}
		if i := j - period; i >= 0 {
			out[i] = values[deque[0]]
		}
	}
	return out
}

func nanSlice(n int) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = math.NaN()
	}
	return s
}
