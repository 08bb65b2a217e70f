package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dans91364-create/NECROZMAv2/pkg/logger"
)

type fakeJob struct {
	name     string
	schedule string
	failures int32 // number of leading failed runs
	calls    atomic.Int32
}

func (j *fakeJob) Name() string     { return j.name }
func (j *fakeJob) Schedule() string { return j.schedule }

func (j *fakeJob) Run(ctx context.Context) error {
	n := j.calls.Add(1)
	if n <= j.failures {
		return errors.New("boom")
	}
	return nil
}

func newTestScheduler() *Scheduler {
	return New(logger.NewNop(), WithRetry(2, time.Millisecond))
}

func TestAddJob(t *testing.T) {
	s := newTestScheduler()

	require.NoError(t, s.AddJob(&fakeJob{name: "b", schedule: "@every 1h"}))
	require.NoError(t, s.AddJob(&fakeJob{name: "a", schedule: "0 30 3 * * *"}))

	err := s.AddJob(&fakeJob{name: "a", schedule: "@daily"})
	assert.Error(t, err)

	err = s.AddJob(&fakeJob{name: "bad", schedule: "not a schedule"})
	assert.Error(t, err)

	assert.Equal(t, []string{"a", "b"}, s.GetAllJobs())
}

func TestRemoveJob(t *testing.T) {
	s := newTestScheduler()
	require.NoError(t, s.AddJob(&fakeJob{name: "a", schedule: "@hourly"}))

	require.NoError(t, s.RemoveJob("a"))
	assert.Empty(t, s.GetAllJobs())
	assert.Empty(t, s.cron.Entries())
	assert.Error(t, s.RemoveJob("a"))
}

func TestRunJob_Retry(t *testing.T) {
	tests := []struct {
		name        string
		failures    int32
		wantSuccess bool
		wantCalls   int32
	}{
		{"first try", 0, true, 1},
		{"succeeds on retry", 2, true, 3},
		{"exhausts retries", 5, false, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestScheduler()
			job := &fakeJob{name: "job", schedule: "@hourly", failures: tt.failures}
			require.NoError(t, s.AddJob(job))

			result, err := s.RunJob(context.Background(), "job")
			require.NoError(t, err)

			assert.Equal(t, tt.wantSuccess, result.Success)
			assert.Equal(t, tt.wantCalls, job.calls.Load())
			assert.Equal(t, int(tt.wantCalls), result.Attempts)
			if !tt.wantSuccess {
				assert.Equal(t, "boom", result.Error)
			}

			history, err := s.GetJobHistory("job")
			require.NoError(t, err)
			assert.Len(t, history.Results, 1)
		})
	}
}

func TestRunJob_Unknown(t *testing.T) {
	_, err := newTestScheduler().RunJob(context.Background(), "missing")
	assert.Error(t, err)

	_, err = newTestScheduler().GetJobHistory("missing")
	assert.Error(t, err)
}

func TestGetJobStats(t *testing.T) {
	s := newTestScheduler()
	ok := &fakeJob{name: "ok", schedule: "@hourly"}
	bad := &fakeJob{name: "bad", schedule: "@daily", failures: 100}
	require.NoError(t, s.AddJob(ok))
	require.NoError(t, s.AddJob(bad))

	_, _ = s.RunJob(context.Background(), "ok")
	_, _ = s.RunJob(context.Background(), "bad")

	stats := s.GetJobStats()
	require.Len(t, stats, 2)

	assert.Equal(t, 1, stats["ok"].SuccessCount)
	assert.Equal(t, 1.0, stats["ok"].SuccessRate)
	assert.NotNil(t, stats["ok"].LastSuccess)
	assert.Nil(t, stats["ok"].LastFailure)

	assert.Equal(t, "@daily", stats["bad"].Schedule)
	assert.Equal(t, 1, stats["bad"].FailureCount)
	assert.NotNil(t, stats["bad"].LastFailure)
}

func TestStartStop(t *testing.T) {
	s := newTestScheduler()
	require.NoError(t, s.AddJob(&fakeJob{name: "a", schedule: "@hourly"}))

	s.Start()
	s.Stop()
	assert.Error(t, s.ctx.Err())
}

func TestJobHistory(t *testing.T) {
	h := &JobHistory{}
	assert.Equal(t, 0.0, h.GetSuccessRate())
	assert.Empty(t, h.GetLatestResults(5))

	for i := 0; i < maxHistory+10; i++ {
		h.AddResult(JobResult{Success: i%2 == 0})
	}

	assert.Len(t, h.Results, maxHistory)
	assert.Len(t, h.GetLatestResults(3), 3)
	assert.Len(t, h.GetFailedResults(), maxHistory/2)
	assert.InDelta(t, 0.5, h.GetSuccessRate(), 1e-9)
}
