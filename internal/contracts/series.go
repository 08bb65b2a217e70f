package contracts

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// Input contract errors
var (
	ErrEmptySeries    = errors.New("price series is empty")
	ErrMissingColumn  = errors.New("price series is missing a required column")
	ErrLengthMismatch = errors.New("price series columns have different lengths")
)

// PriceSeries is the time-ordered bar table handed over by the universe stage
// ⭐ SSOT: 라벨링 입력 데이터 구조는 여기서만 정의
//
// Columns are stored as contiguous slices so the forward scan can walk them
// without per-bar allocation. The series is borrowed read-only.
type PriceSeries struct {
	Symbol string      `json:"symbol,omitempty"`
	Time   []time.Time `json:"time,omitempty"` // optional
	High   []float64   `json:"high"`
	Low    []float64   `json:"low"`
	Close  []float64   `json:"close"`
}

// Len returns the number of bars
func (s *PriceSeries) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Close)
}

// HasTimestamps reports whether every bar carries a timestamp
func (s *PriceSeries) HasTimestamps() bool {
	return s != nil && len(s.Time) > 0 && len(s.Time) == len(s.Close)
}

// Check fails fast on empty or column-missing input
func (s *PriceSeries) Check() error {
	if s == nil {
		return ErrEmptySeries
	}

	n := len(s.Close)
	if n == 0 && len(s.High) == 0 && len(s.Low) == 0 {
		return ErrEmptySeries
	}

	switch {
	case s.High == nil:
		return fmt.Errorf("%w: high", ErrMissingColumn)
	case s.Low == nil:
		return fmt.Errorf("%w: low", ErrMissingColumn)
	case s.Close == nil:
		return fmt.Errorf("%w: close", ErrMissingColumn)
	}

	if len(s.High) != n || len(s.Low) != n {
		return fmt.Errorf("%w: high=%d low=%d close=%d", ErrLengthMismatch, len(s.High), len(s.Low), n)
	}
	if len(s.Time) != 0 && len(s.Time) != n {
		return fmt.Errorf("%w: time=%d close=%d", ErrLengthMismatch, len(s.Time), n)
	}

	return nil
}

// Bounds returns the first and last index labels as strings.
// Without timestamps the positional index is used ("0", "n-1").
func (s *PriceSeries) Bounds() (first, last string) {
	n := s.Len()
	if n == 0 {
		return "", ""
	}
	if s.HasTimestamps() {
		return s.Time[0].UTC().Format(time.RFC3339Nano), s.Time[n-1].UTC().Format(time.RFC3339Nano)
	}
	return "0", strconv.Itoa(n - 1)
}
