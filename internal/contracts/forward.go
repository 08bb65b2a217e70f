package contracts

import "math"

// ForwardWindow holds the forward-looking columns of one period.
// Rows without a full window of N later bars are NaN.
type ForwardWindow struct {
	Period int
	Return []float64 // close[i+N]/close[i] - 1
	High   []float64 // max high over bars i+1..i+N
	Low    []float64 // min low over bars i+1..i+N
}

// ForwardSummary aggregates one window over its defined rows
type ForwardSummary struct {
	Period     int     `json:"period"`
	Rows       int     `json:"rows"`
	MeanReturn float64 `json:"mean_return"`
	UpRatio    float64 `json:"up_ratio"`   // share of rows with a positive return
	MeanRange  float64 `json:"mean_range"` // mean of High - Low
}

// Summary computes the aggregate over rows with a defined return
func (w ForwardWindow) Summary() ForwardSummary {
	s := ForwardSummary{Period: w.Period}

	var sumReturn, sumRange float64
	var up int
	for i, r := range w.Return {
		if math.IsNaN(r) {
			continue
		}
		s.Rows++
		sumReturn += r
		sumRange += w.High[i] - w.Low[i]
		if r > 0 {
			up++
		}
	}

	if s.Rows > 0 {
		s.MeanReturn = sumReturn / float64(s.Rows)
		s.MeanRange = sumRange / float64(s.Rows)
		s.UpRatio = float64(up) / float64(s.Rows)
	}
	return s
}

// TargetLevels are the per-bar exit prices of one (target, stop) pair
// ⭐ SSOT: 진입가 = 종가
type TargetLevels struct {
	TargetPips  int
	StopPips    int
	RiskReward  float64 // TargetPips / StopPips
	LongTarget  []float64
	LongStop    []float64
	ShortTarget []float64
	ShortStop   []float64
}
