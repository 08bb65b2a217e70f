package series

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dans91364-create/NECROZMAv2/internal/contracts"
)

func TestReadCSV(t *testing.T) {
	data := `DateTime,Open,High,Low,Close,Volume
2024-01-02 09:00:00,2050.0,2051.5,2049.0,2050.8,120
2024-01-02 09:01:00,2050.8,2052.0,2050.1,2051.7,98
2024-01-02 09:02:00,2051.7,2051.9,2050.6,2050.9,143
`
	s, err := ReadCSV(strings.NewReader(data), "XAUUSD")
	require.NoError(t, err)

	assert.Equal(t, "XAUUSD", s.Symbol)
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, []float64{2051.5, 2052.0, 2051.9}, s.High)
	assert.Equal(t, []float64{2049.0, 2050.1, 2050.6}, s.Low)
	assert.Equal(t, []float64{2050.8, 2051.7, 2050.9}, s.Close)
	require.True(t, s.HasTimestamps())
	assert.Equal(t, time.Date(2024, 1, 2, 9, 1, 0, 0, time.UTC), s.Time[1])
}

func TestReadCSV_HeaderVariants(t *testing.T) {
	tests := []struct {
		name     string
		data     string
		wantTime bool
		wantErr  error
	}{
		{
			name:     "lowercase timestamp column",
			data:     "timestamp,high,low,close\n2024-01-02T09:00:00Z,2,1,1.5\n",
			wantTime: true,
		},
		{
			name:     "unix seconds",
			data:     "Time,High,Low,Close\n1704186000,2,1,1.5\n",
			wantTime: true,
		},
		{
			name:     "dotted date",
			data:     "Date,High,Low,Close\n2024.01.02 09:00,2,1,1.5\n",
			wantTime: true,
		},
		{
			name: "no time column",
			data: "High,Low,Close\n2,1,1.5\n",
		},
		{
			name:    "missing close",
			data:    "DateTime,High,Low\n2024-01-02 09:00:00,2,1\n",
			wantErr: contracts.ErrMissingColumn,
		},
		{
			name:    "header only",
			data:    "DateTime,High,Low,Close\n",
			wantErr: contracts.ErrEmptySeries,
		},
		{
			name:    "empty file",
			data:    "",
			wantErr: contracts.ErrEmptySeries,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := ReadCSV(strings.NewReader(tt.data), "TEST")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 1, s.Len())
			assert.Equal(t, tt.wantTime, s.HasTimestamps())
		})
	}
}

func TestReadCSV_BadValues(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("High,Low,Close\n2,abc,1\n"), "X")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2 low")

	_, err = ReadCSV(strings.NewReader("DateTime,High,Low,Close\nyesterday,2,1,1\n"), "X")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unrecognized time format")
}

func TestLoadCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "EURUSD.csv")
	require.NoError(t, os.WriteFile(path, []byte("High,Low,Close\n1.1,1.0,1.05\n1.2,1.1,1.15\n"), 0o644))

	s, err := LoadCSV(path)
	require.NoError(t, err)
	assert.Equal(t, "EURUSD", s.Symbol)
	assert.Equal(t, 2, s.Len())

	_, err = LoadCSV(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}
