package sweepconfig

import (
	"fmt"

	"github.com/dans91364-create/NECROZMAv2/pkg/config"
)

// ValidationError names the offending field
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks all required constraints
func Validate(f *File) error {
	lists := []struct {
		field  string
		values []int
	}{
		{"labeling.target_pips", f.Labeling.TargetPips},
		{"labeling.stop_pips", f.Labeling.StopPips},
		{"labeling.horizons", f.Labeling.Horizons},
	}
	for _, l := range lists {
		if len(l.values) == 0 {
			return ValidationError{l.field, "required"}
		}
		seen := make(map[int]bool, len(l.values))
		for _, v := range l.values {
			if v <= 0 {
				return ValidationError{l.field, fmt.Sprintf("must be > 0, got %d", v)}
			}
			if seen[v] {
				return ValidationError{l.field, fmt.Sprintf("duplicate value %d", v)}
			}
			seen[v] = true
		}
	}

	if f.Labeling.PipValue <= 0 {
		return ValidationError{"labeling.pip_value", "must be > 0"}
	}

	switch f.Labeling.FingerprintMode {
	case "", config.FingerprintContent, config.FingerprintBoundary:
	default:
		return ValidationError{"labeling.fingerprint_mode", fmt.Sprintf("unknown mode %q", f.Labeling.FingerprintMode)}
	}

	if q := f.Quality; q != nil {
		if q.MaxInvalidRatio < 0 || q.MaxInvalidRatio > 1 {
			return ValidationError{"quality.max_invalid_ratio", "must be in [0, 1]"}
		}
	}

	return nil
}
