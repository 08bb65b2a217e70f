package labeling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dans91364-create/NECROZMAv2/internal/contracts"
	"github.com/dans91364-create/NECROZMAv2/pkg/logger"
)

// ErrCacheDisabled is returned by cache reads when no store is configured
var ErrCacheDisabled = errors.New("label cache is disabled")

// Service is the labeling facade used by backtest/strategy evaluation code
// ⭐ SSOT: 라벨 생성 진입점은 여기서만
type Service struct {
	sweeper  *Sweeper
	cache    *Cache
	recorder contracts.SweepStatsRepository // optional
	logger   *logger.Logger
}

// Options configures one labeling request
type Options struct {
	Grid            contracts.SweepGrid
	UseCache        bool
	FingerprintMode FingerprintMode

	// ForwardPeriods, when set, adds forward returns for these bar counts
	// and the target levels of every (target, stop) pair. Never cached.
	ForwardPeriods []int
}

// Result is the outcome of one labeling request
type Result struct {
	RunID         string
	Fingerprint   string
	Labels        *contracts.LabelSet
	Stats         []contracts.ConfigStats
	Best          *contracts.ConfigStats
	Skipped       int
	Errors        []ConfigError
	BarsPerMinute float64
	FromCache     bool
	Elapsed       time.Duration

	Forward []contracts.ForwardWindow // with Options.ForwardPeriods
	Targets []*contracts.TargetLevels // grid order of (target, stop)
}

// NewService creates a labeling service
func NewService(sweeper *Sweeper, cache *Cache, log *logger.Logger) *Service {
	return &Service{
		sweeper: sweeper,
		cache:   cache,
		logger:  log.Component("labeling.service"),
	}
}

// WithStatsRepository attaches a sink for per-config statistics
func (s *Service) WithStatsRepository(repo contracts.SweepStatsRepository) *Service {
	s.recorder = repo
	return s
}

// Label returns the full label set for a series and sweep grid.
//
// With caching enabled a persisted entry for the fingerprint is returned
// without recomputation; otherwise the sweep runs and its result is persisted.
// Cache faults fall back to recomputation.
func (s *Service) Label(ctx context.Context, series *contracts.PriceSeries, opts Options) (*Result, error) {
	startTime := time.Now()

	// 1. Fail fast on bad input
	if err := series.Check(); err != nil {
		return nil, fmt.Errorf("invalid series: %w", err)
	}
	if err := opts.Grid.Validate(); err != nil {
		return nil, err
	}
	if len(opts.ForwardPeriods) > 0 {
		if err := validatePeriods(opts.ForwardPeriods); err != nil {
			return nil, err
		}
	}

	barsPerMinute, err := DetectBarsPerMinute(series)
	if err != nil {
		return nil, fmt.Errorf("detect timeframe: %w", err)
	}

	fingerprint, err := Fingerprint(series, opts.Grid, opts.FingerprintMode)
	if err != nil {
		return nil, fmt.Errorf("fingerprint: %w", err)
	}

	result := &Result{
		RunID:         uuid.NewString(),
		Fingerprint:   fingerprint,
		BarsPerMinute: barsPerMinute,
	}

	log := s.logger.WithFields(map[string]interface{}{
		"run_id":      result.RunID,
		"symbol":      series.Symbol,
		"fingerprint": fingerprint,
	})

	// 2. Cache lookup
	if opts.UseCache {
		if entry, ok := s.cache.Lookup(ctx, fingerprint); ok {
			result.Labels = entry.Labels
			result.FromCache = true
			result.Stats = StatsOf(entry.Labels)
			result.Best = BestConfig(result.Stats)
			result.Skipped = len(entry.Skipped)
			result.Errors = restoreErrors(entry.Skipped)
			if result.Skipped > 0 {
				log.WithField("skipped", result.Skipped).Warn("Cached sweep has skipped configurations")
			}
			if err := s.attachForward(series, opts, result); err != nil {
				return nil, err
			}
			result.Elapsed = time.Since(startTime)
			s.record(ctx, series, result, startTime)
			return result, nil
		}
	}

	// 3. Sweep
	sweep, err := s.sweeper.Run(ctx, series, opts.Grid, barsPerMinute)
	if err != nil {
		return nil, err
	}

	result.Labels = sweep.Labels
	result.Stats = sweep.Stats
	result.Best = sweep.Best
	result.Skipped = sweep.Skipped
	result.Errors = sweep.Errors

	if sweep.Skipped > 0 {
		log.WithField("skipped", sweep.Skipped).Warn("Some configurations were skipped")
	}

	// 4. Persist
	if opts.UseCache {
		s.cache.Store(ctx, &contracts.CacheEntry{
			Fingerprint: fingerprint,
			CreatedAt:   time.Now().UTC(),
			Symbol:      series.Symbol,
			Rows:        series.Len(),
			Grid:        opts.Grid,
			Labels:      sweep.Labels,
			Skipped:     skippedConfigs(sweep.Errors),
		})
	}

	if err := s.attachForward(series, opts, result); err != nil {
		return nil, err
	}

	result.Elapsed = time.Since(startTime)
	s.record(ctx, series, result, startTime)

	return result, nil
}

// attachForward adds forward returns and target levels when requested
func (s *Service) attachForward(series *contracts.PriceSeries, opts Options, result *Result) error {
	if len(opts.ForwardPeriods) == 0 {
		return nil
	}

	forward, err := ForwardReturns(series, opts.ForwardPeriods)
	if err != nil {
		return fmt.Errorf("forward returns: %w", err)
	}
	targets, err := gridTargetLevels(series, opts.Grid)
	if err != nil {
		return fmt.Errorf("target levels: %w", err)
	}

	result.Forward = forward
	result.Targets = targets
	return nil
}

// Load returns a persisted entry by fingerprint (content-addressed)
func (s *Service) Load(ctx context.Context, fingerprint string) (*contracts.CacheEntry, error) {
	if !s.cache.Enabled() {
		return nil, ErrCacheDisabled
	}
	return s.cache.store.Load(ctx, fingerprint)
}

// LoadLatest returns the most recently persisted entry (recency-addressed)
func (s *Service) LoadLatest(ctx context.Context) (*contracts.CacheEntry, error) {
	if !s.cache.Enabled() {
		return nil, ErrCacheDisabled
	}
	return s.cache.store.LoadLatest(ctx)
}

// record stores sweep statistics; failures are only logged
func (s *Service) record(ctx context.Context, series *contracts.PriceSeries, result *Result, startedAt time.Time) {
	if s.recorder == nil {
		return
	}

	run := &contracts.SweepRun{
		RunID:         result.RunID,
		Fingerprint:   result.Fingerprint,
		Symbol:        series.Symbol,
		Rows:          series.Len(),
		BarsPerMinute: result.BarsPerMinute,
		Stats:         result.Stats,
		Skipped:       result.Skipped,
		FromCache:     result.FromCache,
		StartedAt:     startedAt.UTC(),
		Elapsed:       result.Elapsed,
	}
	if result.Best != nil {
		run.Best = result.Best.Name
	}

	if err := s.recorder.SaveRun(ctx, run); err != nil {
		s.logger.WithError(err).WithField("run_id", result.RunID).Warn("Failed to save sweep stats")
	}
}

// skippedConfigs flattens config errors for persistence
func skippedConfigs(errs []ConfigError) []contracts.SkippedConfig {
	if len(errs) == 0 {
		return nil
	}
	out := make([]contracts.SkippedConfig, len(errs))
	for i, e := range errs {
		out[i] = contracts.SkippedConfig{Name: e.Name, Reason: e.Err.Error()}
	}
	return out
}

// restoreErrors rebuilds config errors from a cache entry.
// Only the message survives; sentinel identity is lost.
func restoreErrors(skipped []contracts.SkippedConfig) []ConfigError {
	if len(skipped) == 0 {
		return nil
	}
	out := make([]ConfigError, len(skipped))
	for i, sc := range skipped {
		out[i] = ConfigError{Name: sc.Name, Err: errors.New(sc.Reason)}
	}
	return out
}

// StatsOf recomputes per-config statistics of a label set, in grid order
func StatsOf(set *contracts.LabelSet) []contracts.ConfigStats {
	stats := make([]contracts.ConfigStats, 0, set.Len())
	if set == nil {
		return stats
	}
	for _, name := range set.Names {
		if f, ok := set.Get(name); ok {
			stats = append(stats, f.Stats())
		}
	}
	return stats
}
