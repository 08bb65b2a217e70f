package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dans91364-create/NECROZMAv2/internal/contracts"
	"github.com/dans91364-create/NECROZMAv2/internal/labeling"
	"github.com/dans91364-create/NECROZMAv2/pkg/logger"
)

// LabelRefreshJob relabels the trailing window of each symbol so the cache
// stays warm for downstream evaluation
type LabelRefreshJob struct {
	source   contracts.SeriesSource
	service  *labeling.Service
	symbols  []string
	lookback time.Duration
	opts     labeling.Options
	schedule string
	logger   *logger.Logger
	now      func() time.Time
}

// NewLabelRefreshJob creates a new label refresh job
func NewLabelRefreshJob(
	source contracts.SeriesSource,
	service *labeling.Service,
	symbols []string,
	lookback time.Duration,
	opts labeling.Options,
	schedule string,
	log *logger.Logger,
) *LabelRefreshJob {
	if schedule == "" {
		schedule = "0 0 */6 * * *" // 6시간마다
	}
	return &LabelRefreshJob{
		source:   source,
		service:  service,
		symbols:  symbols,
		lookback: lookback,
		opts:     opts,
		schedule: schedule,
		logger:   log,
		now:      time.Now,
	}
}

// Name returns the job name
func (j *LabelRefreshJob) Name() string {
	return "label_refresh"
}

// Schedule returns the cron schedule
func (j *LabelRefreshJob) Schedule() string {
	return j.schedule
}

// Run labels every symbol; one failing symbol does not stop the others
func (j *LabelRefreshJob) Run(ctx context.Context) error {
	to := j.now().UTC()
	from := to.Add(-j.lookback)

	var errs []error
	for _, symbol := range j.symbols {
		if err := ctx.Err(); err != nil {
			return err
		}

		s, err := j.source.Load(ctx, symbol, from, to)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: load series: %w", symbol, err))
			continue
		}

		result, err := j.service.Label(ctx, s, j.opts)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: label: %w", symbol, err))
			continue
		}

		fields := map[string]interface{}{
			"symbol":      symbol,
			"rows":        s.Len(),
			"fingerprint": result.Fingerprint,
			"from_cache":  result.FromCache,
		}
		if result.Best != nil {
			fields["best"] = result.Best.Name
		}
		j.logger.WithFields(fields).Info("Labels refreshed")
	}

	return errors.Join(errs...)
}
