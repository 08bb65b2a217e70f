package labeling

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/dans91364-create/NECROZMAv2/internal/contracts"
	"github.com/dans91364-create/NECROZMAv2/pkg/logger"
)

// Sweeper runs the (target × stop × horizon) grid over a price series
// ⭐ SSOT: 라벨 스윕 실행은 여기서만
type Sweeper struct {
	workers int
	logger  *logger.Logger
}

// ConfigError records a configuration that failed and was skipped
type ConfigError struct {
	Name string
	Err  error
}

func (e ConfigError) Error() string {
	return fmt.Sprintf("%s: %v", e.Name, e.Err)
}

func (e ConfigError) Unwrap() error {
	return e.Err
}

// SweepResult holds one full sweep
type SweepResult struct {
	Labels        *contracts.LabelSet
	Stats         []contracts.ConfigStats // grid order, labeled configs only
	Best          *contracts.ConfigStats
	Skipped       int
	Errors        []ConfigError
	BarsPerMinute float64
	Elapsed       time.Duration
}

// slot is the private output cell of one configuration
type slot struct {
	frame   *contracts.LabelFrame
	stats   contracts.ConfigStats
	err     error
	elapsed time.Duration
}

// NewSweeper creates a sweeper with a bounded worker pool
func NewSweeper(workers int, log *logger.Logger) *Sweeper {
	if workers < 1 {
		workers = 1
	}
	return &Sweeper{
		workers: workers,
		logger:  log.Component("labeling.sweep"),
	}
}

// Run labels every bar for every configuration of the grid, both directions.
//
// Configurations are independent and run in parallel; each worker writes only
// its own slot and the label set is assembled in grid order afterwards. A
// failing configuration is logged and skipped. ctx is polled between
// configurations; on cancellation the partial sweep is discarded.
func (s *Sweeper) Run(ctx context.Context, series *contracts.PriceSeries, grid contracts.SweepGrid, barsPerMinute float64) (*SweepResult, error) {
	if err := series.Check(); err != nil {
		return nil, err
	}
	if err := grid.Validate(); err != nil {
		return nil, err
	}

	configs := grid.Configs()
	slots := make([]slot, len(configs))
	startTime := time.Now()

	s.logger.WithFields(map[string]interface{}{
		"configs":         len(configs),
		"bars":            series.Len(),
		"targets":         grid.TargetPips,
		"stops":           grid.StopPips,
		"horizons":        grid.Horizons,
		"bars_per_minute": fmt.Sprintf("%.2f", barsPerMinute),
		"workers":         s.workers,
	}).Info("Creating labels")

	// Worker pool
	jobCh := make(chan int)
	var wg sync.WaitGroup

	for w := 0; w < s.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobCh {
				if ctx.Err() != nil {
					slots[idx].err = ctx.Err()
					continue
				}
				slots[idx] = s.labelConfig(series, configs[idx], grid.PipValue, barsPerMinute)
			}
		}()
	}

feed:
	for i := range configs {
		select {
		case jobCh <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobCh)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		s.logger.WithError(err).Warn("Sweep cancelled")
		return nil, err
	}

	result := &SweepResult{
		Labels:        contracts.NewLabelSet(len(configs)),
		Stats:         make([]contracts.ConfigStats, 0, len(configs)),
		BarsPerMinute: barsPerMinute,
	}

	for i, sl := range slots {
		name := configs[i].Name()
		if sl.err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, ConfigError{Name: name, Err: sl.err})
			s.logger.WithError(sl.err).WithField("config", name).Error("Config skipped")
			continue
		}

		result.Labels.Add(sl.frame)
		result.Stats = append(result.Stats, sl.stats)

		s.logger.WithFields(map[string]interface{}{
			"config":         name,
			"horizon_bars":   sl.frame.HorizonBars,
			"elapsed":        sl.elapsed.Seconds(),
			"long_win_rate":  fmt.Sprintf("%.1f%%", sl.stats.LongWinRate*100),
			"short_win_rate": fmt.Sprintf("%.1f%%", sl.stats.ShortWinRate*100),
		}).Debug("Config labeled")
	}

	result.Best = BestConfig(result.Stats)
	result.Elapsed = time.Since(startTime)

	fields := map[string]interface{}{
		"configs": len(configs),
		"labeled": result.Labels.Len(),
		"skipped": result.Skipped,
		"elapsed": result.Elapsed.Seconds(),
	}
	if result.Best != nil {
		avg, _ := result.Best.AverageWinRate()
		fields["best_config"] = result.Best.Name
		fields["best_avg_win_rate"] = fmt.Sprintf("%.1f%%", avg*100)
	}
	s.logger.WithFields(fields).Info("Labels created")

	return result, nil
}

// labelConfig scans every bar of the series for one configuration.
// A panic is reported as the configuration's error.
func (s *Sweeper) labelConfig(series *contracts.PriceSeries, cfg contracts.SweepConfig, pipValue, barsPerMinute float64) (out slot) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			out = slot{err: fmt.Errorf("panic: %v", r)}
			s.logger.WithField("stack", string(debug.Stack())).Debug("Config panic recovered")
		}
	}()

	horizonBars := HorizonBars(cfg.HorizonMinutes, barsPerMinute)
	if horizonBars < 1 {
		return slot{err: fmt.Errorf("%w: %d minutes at %.4f bars/min is %d bars", ErrOutOfRange, cfg.HorizonMinutes, barsPerMinute, horizonBars)}
	}

	high, low, closes := series.High, series.Low, series.Close
	n := len(closes)
	tp := float64(cfg.TargetPips) * pipValue
	sl := float64(cfg.StopPips) * pipValue

	frame := contracts.NewLabelFrame(cfg, horizonBars, n)

	for i := 0; i < n; i++ {
		entry := closes[i]

		up, err := Scan(high, low, i, horizonBars, entry, entry+tp, entry-sl, pipValue, contracts.Long)
		if err != nil {
			return slot{err: fmt.Errorf("bar %d long: %w", i, err)}
		}
		down, err := Scan(high, low, i, horizonBars, entry, entry-tp, entry+sl, pipValue, contracts.Short)
		if err != nil {
			return slot{err: fmt.Errorf("bar %d short: %w", i, err)}
		}

		frame.Set(i, contracts.Long, up)
		frame.Set(i, contracts.Short, down)
	}

	stats := frame.Stats()
	elapsed := time.Since(start)
	stats.ElapsedSeconds = elapsed.Seconds()

	return slot{frame: frame, stats: stats, elapsed: elapsed}
}

// BestConfig returns the configuration with the highest average win rate.
// Only configurations with decided trades in both directions and a positive
// average compete; ties keep the earliest configuration in grid order.
func BestConfig(stats []contracts.ConfigStats) *contracts.ConfigStats {
	var best *contracts.ConfigStats
	for i := range stats {
		if betterWinRate(stats[i], best) {
			best = &stats[i]
		}
	}
	return best
}

// betterWinRate is the first-wins comparator: strictly greater replaces
func betterWinRate(candidate contracts.ConfigStats, best *contracts.ConfigStats) bool {
	avg, ok := candidate.AverageWinRate()
	if !ok || avg <= 0 {
		return false
	}
	if best == nil {
		return true
	}
	bestAvg, _ := best.AverageWinRate()
	return avg > bestAvg
}
