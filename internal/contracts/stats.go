package contracts

import "time"

// ConfigStats are the diagnostic win-rate statistics of one configuration
type ConfigStats struct {
	Name           string  `json:"name"`
	HorizonBars    int     `json:"horizon_bars"`
	LongWins       int     `json:"long_wins"`
	LongLosses     int     `json:"long_losses"`
	LongTimeouts   int     `json:"long_timeouts"`
	ShortWins      int     `json:"short_wins"`
	ShortLosses    int     `json:"short_losses"`
	ShortTimeouts  int     `json:"short_timeouts"`
	LongWinRate    float64 `json:"long_win_rate"`  // 0.0 ~ 1.0, timeouts excluded
	ShortWinRate   float64 `json:"short_win_rate"` // 0.0 ~ 1.0, timeouts excluded
	ElapsedSeconds float64 `json:"elapsed_seconds,omitempty"`
}

// AverageWinRate returns the mean of both directional win rates.
// ok is false unless both directions have at least one decided trade.
func (s ConfigStats) AverageWinRate() (avg float64, ok bool) {
	if s.LongWins+s.LongLosses == 0 || s.ShortWins+s.ShortLosses == 0 {
		return 0, false
	}
	return (s.LongWinRate + s.ShortWinRate) / 2.0, true
}

// Stats tallies the outcomes of a frame
func (f *LabelFrame) Stats() ConfigStats {
	st := ConfigStats{Name: f.Name, HorizonBars: f.HorizonBars}

	for i := 0; i < f.Len(); i++ {
		switch f.Up.Outcome[i] {
		case OutcomeTarget:
			st.LongWins++
		case OutcomeStop:
			st.LongLosses++
		case OutcomeTimeout:
			st.LongTimeouts++
		}
		switch f.Down.Outcome[i] {
		case OutcomeTarget:
			st.ShortWins++
		case OutcomeStop:
			st.ShortLosses++
		case OutcomeTimeout:
			st.ShortTimeouts++
		}
	}

	st.LongWinRate = winRate(st.LongWins, st.LongLosses)
	st.ShortWinRate = winRate(st.ShortWins, st.ShortLosses)
	return st
}

func winRate(wins, losses int) float64 {
	if wins+losses == 0 {
		return 0
	}
	return float64(wins) / float64(wins+losses)
}

// SweepRun summarizes one labeling request for persistence
type SweepRun struct {
	RunID         string        `json:"run_id"`
	Fingerprint   string        `json:"fingerprint"`
	Symbol        string        `json:"symbol,omitempty"`
	Rows          int           `json:"rows"`
	BarsPerMinute float64       `json:"bars_per_minute"`
	Stats         []ConfigStats `json:"stats"`
	Best          string        `json:"best,omitempty"`
	Skipped       int           `json:"skipped"`
	FromCache     bool          `json:"from_cache"`
	StartedAt     time.Time     `json:"started_at"`
	Elapsed       time.Duration `json:"elapsed"`
}
