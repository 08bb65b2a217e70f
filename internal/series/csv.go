package series

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dans91364-create/NECROZMAv2/internal/contracts"
)

// Accepted header names (case-insensitive)
var (
	timeColumns = []string{"datetime", "timestamp", "time", "date"}

	timeLayouts = []string{
		time.RFC3339Nano,
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04",
		"2006.01.02 15:04:05",
		"2006.01.02 15:04",
		"2006-01-02",
	}
)

// LoadCSV reads a bar file. The symbol defaults to the file name without extension.
func LoadCSV(path string) (*contracts.PriceSeries, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	symbol := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	s, err := ReadCSV(f, symbol)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// ReadCSV parses bars with DateTime,Open,High,Low,Close,Volume style headers.
// High/Low/Close are required; the time column is optional.
func ReadCSV(r io.Reader, symbol string) (*contracts.PriceSeries, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, contracts.ErrEmptySeries
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	cols := indexHeader(header)
	required := make([]int, 3)
	for i, name := range []string{"high", "low", "close"} {
		idx, ok := cols[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", contracts.ErrMissingColumn, name)
		}
		required[i] = idx
	}
	highIdx, lowIdx, closeIdx := required[0], required[1], required[2]

	timeIdx := -1
	for _, name := range timeColumns {
		if i, ok := cols[name]; ok {
			timeIdx = i
			break
		}
	}

	s := &contracts.PriceSeries{Symbol: symbol}
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		high, err := parseFloat(record, highIdx)
		if err != nil {
			return nil, fmt.Errorf("line %d high: %w", line, err)
		}
		low, err := parseFloat(record, lowIdx)
		if err != nil {
			return nil, fmt.Errorf("line %d low: %w", line, err)
		}
		closePrice, err := parseFloat(record, closeIdx)
		if err != nil {
			return nil, fmt.Errorf("line %d close: %w", line, err)
		}

		if timeIdx >= 0 {
			ts, err := parseTime(field(record, timeIdx))
			if err != nil {
				return nil, fmt.Errorf("line %d time: %w", line, err)
			}
			s.Time = append(s.Time, ts)
		}
		s.High = append(s.High, high)
		s.Low = append(s.Low, low)
		s.Close = append(s.Close, closePrice)
	}

	if len(s.Close) == 0 {
		return nil, contracts.ErrEmptySeries
	}
	return s, nil
}

func indexHeader(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := cols[name]; !dup {
			cols[name] = i
		}
	}
	return cols
}

func field(record []string, idx int) string {
	if idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

func parseFloat(record []string, idx int) (float64, error) {
	v := field(record, idx)
	if v == "" {
		return 0, fmt.Errorf("empty value")
	}
	return strconv.ParseFloat(v, 64)
}

// parseTime accepts the common bar export layouts and unix seconds
func parseTime(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, fmt.Errorf("empty value")
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC(), nil
		}
	}
	if sec, err := strconv.ParseInt(v, 10, 64); err == nil {
		return time.Unix(sec, 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("unrecognized time format %q", v)
}
