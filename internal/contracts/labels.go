package contracts

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidGrid is returned for sweep grids that cannot be labeled
var ErrInvalidGrid = errors.New("invalid sweep grid")

// Direction of a hypothetical trade
type Direction uint8

const (
	Long Direction = iota
	Short
)

// String returns the column prefix used for the direction ("up" / "down")
func (d Direction) String() string {
	if d == Short {
		return "down"
	}
	return "up"
}

// Outcome is the first-touch result of a forward scan
type Outcome uint8

const (
	OutcomeTarget Outcome = iota + 1
	OutcomeStop
	OutcomeTimeout
)

// String returns the label value ("target", "stop", "timeout")
func (o Outcome) String() string {
	switch o {
	case OutcomeTarget:
		return "target"
	case OutcomeStop:
		return "stop"
	case OutcomeTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// MarshalText encodes the outcome as its label value
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText decodes a label value
func (o *Outcome) UnmarshalText(b []byte) error {
	switch string(b) {
	case "target":
		*o = OutcomeTarget
	case "stop":
		*o = OutcomeStop
	case "timeout":
		*o = OutcomeTimeout
	case "unknown":
		*o = 0
	default:
		return fmt.Errorf("unknown outcome %q", string(b))
	}
	return nil
}

// GobEncode stores the outcome as a single byte
func (o Outcome) GobEncode() ([]byte, error) {
	return []byte{byte(o)}, nil
}

// GobDecode reads the single-byte form written by GobEncode
func (o *Outcome) GobDecode(b []byte) error {
	if len(b) != 1 || Outcome(b[0]) > OutcomeTimeout {
		return fmt.Errorf("invalid outcome encoding %v", b)
	}
	*o = Outcome(b[0])
	return nil
}

// ScanConfig fully determines one scan run
type ScanConfig struct {
	TargetDistance float64 // price units
	StopDistance   float64 // price units
	HorizonBars    int
	Direction      Direction
}

// ScanResult is produced once per (bar, config) pair
type ScanResult struct {
	Outcome      Outcome
	MFE          float64 // pips, >= 0
	MAE          float64 // pips, >= 0
	RMultiple    float64
	BarsToResult int // 0 <= x <= HorizonBars
}

// SweepGrid is the caller-supplied sweep configuration
// ⭐ SSOT: 라벨 스윕 파라미터 구조
type SweepGrid struct {
	TargetPips []int   `json:"target_pips" yaml:"target_pips"`
	StopPips   []int   `json:"stop_pips" yaml:"stop_pips"`
	Horizons   []int   `json:"horizons" yaml:"horizons"` // minutes
	PipValue   float64 `json:"pip_value" yaml:"pip_value"`
}

// Size returns the number of (target, stop, horizon) configurations
func (g SweepGrid) Size() int {
	return len(g.TargetPips) * len(g.StopPips) * len(g.Horizons)
}

// Validate checks that every list is non-empty and positive
func (g SweepGrid) Validate() error {
	lists := []struct {
		name   string
		values []int
	}{
		{"target_pips", g.TargetPips},
		{"stop_pips", g.StopPips},
		{"horizons", g.Horizons},
	}
	for _, l := range lists {
		if len(l.values) == 0 {
			return fmt.Errorf("%w: %s is empty", ErrInvalidGrid, l.name)
		}
		for _, v := range l.values {
			if v <= 0 {
				return fmt.Errorf("%w: %s contains %d", ErrInvalidGrid, l.name, v)
			}
		}
	}
	if g.PipValue <= 0 {
		return fmt.Errorf("%w: pip_value must be positive, got %v", ErrInvalidGrid, g.PipValue)
	}
	return nil
}

// Configs enumerates the cartesian product in grid order
// (targets outermost, horizons innermost).
func (g SweepGrid) Configs() []SweepConfig {
	configs := make([]SweepConfig, 0, g.Size())
	for _, tp := range g.TargetPips {
		for _, sl := range g.StopPips {
			for _, h := range g.Horizons {
				configs = append(configs, SweepConfig{
					Index:          len(configs),
					TargetPips:     tp,
					StopPips:       sl,
					HorizonMinutes: h,
				})
			}
		}
	}
	return configs
}

// SweepConfig is one (target, stop, horizon) point of the grid
type SweepConfig struct {
	Index          int
	TargetPips     int
	StopPips       int
	HorizonMinutes int
}

// Name returns the configuration name, e.g. "T10_S10_H60"
func (c SweepConfig) Name() string {
	return ConfigName(c.TargetPips, c.StopPips, c.HorizonMinutes)
}

// ConfigName formats a configuration name
func ConfigName(targetPips, stopPips, horizonMinutes int) string {
	return fmt.Sprintf("T%d_S%d_H%d", targetPips, stopPips, horizonMinutes)
}

// DirectionLabels holds one direction's columns of a LabelFrame
type DirectionLabels struct {
	Outcome      []Outcome
	MFE          []float64
	MAE          []float64
	RMultiple    []float64
	TimeToResult []int32
}

func newDirectionLabels(n int) DirectionLabels {
	return DirectionLabels{
		Outcome:      make([]Outcome, n),
		MFE:          make([]float64, n),
		MAE:          make([]float64, n),
		RMultiple:    make([]float64, n),
		TimeToResult: make([]int32, n),
	}
}

// LabelFrame is the per-bar label table of one sweep configuration
type LabelFrame struct {
	Name           string
	TargetPips     int
	StopPips       int
	HorizonMinutes int
	HorizonBars    int

	Up   DirectionLabels // long
	Down DirectionLabels // short

	// Derived binary win flags (1 = target hit first)
	LabelLong  []uint8
	LabelShort []uint8
}

// NewLabelFrame allocates a frame with n rows
func NewLabelFrame(cfg SweepConfig, horizonBars, n int) *LabelFrame {
	return &LabelFrame{
		Name:           cfg.Name(),
		TargetPips:     cfg.TargetPips,
		StopPips:       cfg.StopPips,
		HorizonMinutes: cfg.HorizonMinutes,
		HorizonBars:    horizonBars,
		Up:             newDirectionLabels(n),
		Down:           newDirectionLabels(n),
		LabelLong:      make([]uint8, n),
		LabelShort:     make([]uint8, n),
	}
}

// Len returns the number of rows
func (f *LabelFrame) Len() int {
	return len(f.LabelLong)
}

// Set stores a scan result for bar i
func (f *LabelFrame) Set(i int, dir Direction, r ScanResult) {
	cols := &f.Up
	flags := f.LabelLong
	if dir == Short {
		cols = &f.Down
		flags = f.LabelShort
	}

	cols.Outcome[i] = r.Outcome
	cols.MFE[i] = r.MFE
	cols.MAE[i] = r.MAE
	cols.RMultiple[i] = r.RMultiple
	cols.TimeToResult[i] = int32(r.BarsToResult)

	flags[i] = 0
	if r.Outcome == OutcomeTarget {
		flags[i] = 1
	}
}

// Result returns the stored scan result for bar i
func (f *LabelFrame) Result(i int, dir Direction) ScanResult {
	cols := f.Up
	if dir == Short {
		cols = f.Down
	}
	return ScanResult{
		Outcome:      cols.Outcome[i],
		MFE:          cols.MFE[i],
		MAE:          cols.MAE[i],
		RMultiple:    cols.RMultiple[i],
		BarsToResult: int(cols.TimeToResult[i]),
	}
}

// LabelRow is one row of a LabelFrame with the downstream column names
type LabelRow struct {
	Index            int     `json:"index"`
	UpOutcome        Outcome `json:"up_outcome"`
	DownOutcome      Outcome `json:"down_outcome"`
	UpMFE            float64 `json:"up_mfe"`
	UpMAE            float64 `json:"up_mae"`
	DownMFE          float64 `json:"down_mfe"`
	DownMAE          float64 `json:"down_mae"`
	UpRMultiple      float64 `json:"up_r_multiple"`
	DownRMultiple    float64 `json:"down_r_multiple"`
	UpTimeToResult   int32   `json:"up_time_to_result"`
	DownTimeToResult int32   `json:"down_time_to_result"`
	LabelLong        uint8   `json:"label_long"`
	LabelShort       uint8   `json:"label_short"`
}

// Row returns row i
func (f *LabelFrame) Row(i int) LabelRow {
	return LabelRow{
		Index:            i,
		UpOutcome:        f.Up.Outcome[i],
		DownOutcome:      f.Down.Outcome[i],
		UpMFE:            f.Up.MFE[i],
		UpMAE:            f.Up.MAE[i],
		DownMFE:          f.Down.MFE[i],
		DownMAE:          f.Down.MAE[i],
		UpRMultiple:      f.Up.RMultiple[i],
		DownRMultiple:    f.Down.RMultiple[i],
		UpTimeToResult:   f.Up.TimeToResult[i],
		DownTimeToResult: f.Down.TimeToResult[i],
		LabelLong:        f.LabelLong[i],
		LabelShort:       f.LabelShort[i],
	}
}

// Rows returns rows [from, to) clamped to the frame
func (f *LabelFrame) Rows(from, to int) []LabelRow {
	if from < 0 {
		from = 0
	}
	if to > f.Len() {
		to = f.Len()
	}
	if from >= to {
		return []LabelRow{}
	}

	rows := make([]LabelRow, 0, to-from)
	for i := from; i < to; i++ {
		rows = append(rows, f.Row(i))
	}
	return rows
}

// LabelSet maps configuration names to frames for one full sweep
type LabelSet struct {
	Names  []string // grid order
	Frames map[string]*LabelFrame
}

// NewLabelSet creates an empty set
func NewLabelSet(capacity int) *LabelSet {
	return &LabelSet{
		Names:  make([]string, 0, capacity),
		Frames: make(map[string]*LabelFrame, capacity),
	}
}

// Add appends a frame, keeping grid order
func (s *LabelSet) Add(f *LabelFrame) {
	if _, exists := s.Frames[f.Name]; !exists {
		s.Names = append(s.Names, f.Name)
	}
	s.Frames[f.Name] = f
}

// Get returns the frame for a configuration name
func (s *LabelSet) Get(name string) (*LabelFrame, bool) {
	if s == nil {
		return nil, false
	}
	f, ok := s.Frames[name]
	return f, ok
}

// Len returns the number of frames
func (s *LabelSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Names)
}

// CacheEntry is one persisted sweep, keyed by fingerprint
// Never mutated in place: a different sweep produces a different fingerprint.
type CacheEntry struct {
	Fingerprint string
	CreatedAt   time.Time
	Symbol      string
	Rows        int
	Grid        SweepGrid
	Labels      *LabelSet
	Skipped     []SkippedConfig // configs of Grid missing from Labels
}

// SkippedConfig records a configuration the sweep could not label
type SkippedConfig struct {
	Name   string
	Reason string
}
