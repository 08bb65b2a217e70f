package sweepconfig

import (
	"github.com/dans91364-create/NECROZMAv2/internal/contracts"
	"github.com/dans91364-create/NECROZMAv2/internal/series"
	"github.com/dans91364-create/NECROZMAv2/pkg/config"
)

// File is the root of a sweep YAML file
// ⭐ SSOT: 스윕 YAML 스키마
type File struct {
	Labeling Labeling `yaml:"labeling" json:"labeling"`
	Quality  *Quality `yaml:"quality,omitempty" json:"quality,omitempty"`
}

// Labeling mirrors the labeling: section
type Labeling struct {
	TargetPips []int   `yaml:"target_pips" json:"target_pips"`
	StopPips   []int   `yaml:"stop_pips" json:"stop_pips"`
	Horizons   []int   `yaml:"horizons" json:"horizons"` // minutes
	PipValue   float64 `yaml:"pip_value" json:"pip_value"`

	// Optional overrides; nil keeps the environment value
	UseCache        *bool  `yaml:"use_cache,omitempty" json:"use_cache,omitempty"`
	CacheDir        string `yaml:"cache_dir,omitempty" json:"cache_dir,omitempty"`
	FingerprintMode string `yaml:"fingerprint_mode,omitempty" json:"fingerprint_mode,omitempty"`
}

// Quality overrides the series quality gate thresholds
type Quality struct {
	MaxInvalidRatio float64 `yaml:"max_invalid_ratio" json:"max_invalid_ratio"`
	AllowUnordered  bool    `yaml:"allow_unordered" json:"allow_unordered"`
}

// Grid returns the sweep grid of the file
func (f *File) Grid() contracts.SweepGrid {
	return contracts.SweepGrid{
		TargetPips: f.Labeling.TargetPips,
		StopPips:   f.Labeling.StopPips,
		Horizons:   f.Labeling.Horizons,
		PipValue:   f.Labeling.PipValue,
	}
}

// GateConfig returns the quality gate thresholds (defaults when unset)
func (f *File) GateConfig() series.GateConfig {
	if f.Quality == nil {
		return series.DefaultGateConfig()
	}
	return series.GateConfig{
		MaxInvalidRatio: f.Quality.MaxInvalidRatio,
		AllowUnordered:  f.Quality.AllowUnordered,
	}
}

// Apply overlays the file onto the environment configuration
func (f *File) Apply(cfg *config.LabelingConfig) {
	cfg.TargetPips = f.Labeling.TargetPips
	cfg.StopPips = f.Labeling.StopPips
	cfg.Horizons = f.Labeling.Horizons
	cfg.PipValue = f.Labeling.PipValue

	if f.Labeling.UseCache != nil {
		cfg.UseCache = *f.Labeling.UseCache
	}
	if f.Labeling.CacheDir != "" {
		cfg.CacheDir = f.Labeling.CacheDir
	}
	if f.Labeling.FingerprintMode != "" {
		cfg.FingerprintMode = f.Labeling.FingerprintMode
	}
}
