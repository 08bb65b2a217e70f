package series

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dans91364-create/NECROZMAv2/internal/contracts"
)

func minuteSeries(n int) *contracts.PriceSeries {
	base := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	s := &contracts.PriceSeries{Symbol: "TEST"}
	for i := 0; i < n; i++ {
		c := 100 + float64(i)
		s.Time = append(s.Time, base.Add(time.Duration(i)*time.Minute))
		s.High = append(s.High, c+0.5)
		s.Low = append(s.Low, c-0.5)
		s.Close = append(s.Close, c)
	}
	return s
}

func TestGate_Check(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(s *contracts.PriceSeries)
		config     GateConfig
		wantPassed bool
		wantNaN    int
		wantInv    int
		wantUnord  int
	}{
		{
			name:       "clean",
			mutate:     func(s *contracts.PriceSeries) {},
			config:     DefaultGateConfig(),
			wantPassed: true,
		},
		{
			name: "nan within tolerance",
			mutate: func(s *contracts.PriceSeries) {
				s.Close[10] = math.NaN()
			},
			config:     GateConfig{MaxInvalidRatio: 0.05},
			wantPassed: true,
			wantNaN:    1,
		},
		{
			name: "inverted bars above tolerance",
			mutate: func(s *contracts.PriceSeries) {
				s.High[1], s.Low[1] = s.Low[1], s.High[1]
				s.High[2], s.Low[2] = s.Low[2], s.High[2]
			},
			config:     DefaultGateConfig(),
			wantPassed: false,
			wantInv:    2,
		},
		{
			name: "duplicated timestamp",
			mutate: func(s *contracts.PriceSeries) {
				s.Time[5] = s.Time[4]
			},
			config:     DefaultGateConfig(),
			wantPassed: false,
			wantUnord:  1,
		},
		{
			name: "unordered allowed",
			mutate: func(s *contracts.PriceSeries) {
				s.Time[5] = s.Time[4]
			},
			config:     GateConfig{MaxInvalidRatio: 0.01, AllowUnordered: true},
			wantPassed: true,
			wantUnord:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := minuteSeries(100)
			tt.mutate(s)

			report, err := NewGate(tt.config).Check(s)
			require.NoError(t, err)

			assert.Equal(t, 100, report.Rows)
			assert.Equal(t, tt.wantPassed, report.Passed)
			assert.Equal(t, tt.wantNaN, report.NaNPrices)
			assert.Equal(t, tt.wantInv, report.Inverted)
			assert.Equal(t, tt.wantUnord, report.Unordered)

			if tt.wantPassed {
				assert.NoError(t, report.Err())
			} else {
				assert.ErrorIs(t, report.Err(), ErrQualityGate)
			}
		})
	}
}

func TestGate_CheckInvalidSeries(t *testing.T) {
	_, err := NewGate(DefaultGateConfig()).Check(&contracts.PriceSeries{})
	assert.ErrorIs(t, err, contracts.ErrEmptySeries)
}
