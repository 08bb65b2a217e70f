package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/dans91364-create/NECROZMAv2/internal/contracts"
	"github.com/dans91364-create/NECROZMAv2/pkg/logger"
)

// CachePruneJob removes label cache entries older than the retention window
type CachePruneJob struct {
	store     contracts.LabelStore
	retention time.Duration
	schedule  string
	logger    *logger.Logger
}

// NewCachePruneJob creates a new cache prune job
func NewCachePruneJob(store contracts.LabelStore, retention time.Duration, schedule string, log *logger.Logger) *CachePruneJob {
	if schedule == "" {
		schedule = "0 30 3 * * *" // 매일 03:30
	}
	return &CachePruneJob{
		store:     store,
		retention: retention,
		schedule:  schedule,
		logger:    log,
	}
}

// Name returns the job name
func (j *CachePruneJob) Name() string {
	return "label_cache_prune"
}

// Schedule returns the cron schedule
func (j *CachePruneJob) Schedule() string {
	return j.schedule
}

// Run executes the prune
func (j *CachePruneJob) Run(ctx context.Context) error {
	if j.retention <= 0 {
		return fmt.Errorf("retention must be positive, got %s", j.retention)
	}

	j.logger.WithField("retention", j.retention.String()).Debug("Starting scheduled cache prune")

	removed, err := j.store.Prune(ctx, j.retention)
	if err != nil {
		return fmt.Errorf("prune label cache: %w", err)
	}

	if removed > 0 {
		j.logger.WithField("removed", removed).Info("Cache prune completed")
	}
	return nil
}
