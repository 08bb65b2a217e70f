package series

import (
	"errors"
	"fmt"
	"math"

	"github.com/dans91364-create/NECROZMAv2/internal/contracts"
)

// ErrQualityGate is returned when a series fails validation
var ErrQualityGate = errors.New("series failed quality gate")

// Gate validates a bar series before labeling
type Gate struct {
	config GateConfig
}

// GateConfig holds quality thresholds
type GateConfig struct {
	MaxInvalidRatio float64 `yaml:"max_invalid_ratio"` // 0.01 (1%)
	AllowUnordered  bool    `yaml:"allow_unordered"`   // false
}

// DefaultGateConfig returns the default thresholds
func DefaultGateConfig() GateConfig {
	return GateConfig{
		MaxInvalidRatio: 0.01,
		AllowUnordered:  false,
	}
}

// NewGate creates a new quality gate
func NewGate(config GateConfig) *Gate {
	return &Gate{config: config}
}

// Report summarizes the issues found in a series
type Report struct {
	Rows         int
	NaNPrices    int // rows with a NaN/Inf high, low or close
	Inverted     int // rows with high < low
	Unordered    int // timestamps not strictly increasing
	InvalidRatio float64
	Passed       bool
	Warnings     []string
}

// Err returns ErrQualityGate with the first reason, or nil when passed
func (r *Report) Err() error {
	if r.Passed {
		return nil
	}
	if len(r.Warnings) == 0 {
		return ErrQualityGate
	}
	return fmt.Errorf("%w: %s", ErrQualityGate, r.Warnings[0])
}

// Check inspects the series and returns a report
// ⭐ SSOT: 라벨링 전 데이터 품질 검증
func (g *Gate) Check(s *contracts.PriceSeries) (*Report, error) {
	if err := s.Check(); err != nil {
		return nil, err
	}

	report := &Report{Rows: s.Len()}

	// 1. 가격 값 검사
	for i := 0; i < report.Rows; i++ {
		h, l, c := s.High[i], s.Low[i], s.Close[i]
		if !finite(h) || !finite(l) || !finite(c) {
			report.NaNPrices++
			continue
		}
		if h < l {
			report.Inverted++
		}
	}

	// 2. 타임스탬프 순서 검사
	if s.HasTimestamps() {
		for i := 1; i < report.Rows; i++ {
			if !s.Time[i].After(s.Time[i-1]) {
				report.Unordered++
			}
		}
	}

	// 3. 판정
	invalid := report.NaNPrices + report.Inverted
	report.InvalidRatio = float64(invalid) / float64(report.Rows)
	report.Passed = true

	if report.InvalidRatio > g.config.MaxInvalidRatio {
		report.Passed = false
		report.Warnings = append(report.Warnings, fmt.Sprintf(
			"%.2f%% invalid rows (nan=%d inverted=%d) exceeds %.2f%%",
			report.InvalidRatio*100, report.NaNPrices, report.Inverted, g.config.MaxInvalidRatio*100))
	} else if invalid > 0 {
		report.Warnings = append(report.Warnings, fmt.Sprintf(
			"%d invalid rows (nan=%d inverted=%d)", invalid, report.NaNPrices, report.Inverted))
	}

	if report.Unordered > 0 {
		msg := fmt.Sprintf("%d timestamps are not strictly increasing", report.Unordered)
		if !g.config.AllowUnordered {
			report.Passed = false
		}
		report.Warnings = append(report.Warnings, msg)
	}

	return report, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
