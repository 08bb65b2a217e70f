package jobs

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dans91364-create/NECROZMAv2/internal/contracts"
	"github.com/dans91364-create/NECROZMAv2/internal/labeling"
	"github.com/dans91364-create/NECROZMAv2/internal/labelstore"
	"github.com/dans91364-create/NECROZMAv2/pkg/logger"
)

func rampSeries(symbol string, n int) *contracts.PriceSeries {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	s := &contracts.PriceSeries{Symbol: symbol}
	for i := 0; i < n; i++ {
		c := 100 + 2*float64(i)
		s.Time = append(s.Time, base.Add(time.Duration(i)*time.Minute))
		s.High = append(s.High, c+0.5)
		s.Low = append(s.Low, c-0.5)
		s.Close = append(s.Close, c)
	}
	return s
}

type fakeSource struct {
	series map[string]*contracts.PriceSeries
}

func (f *fakeSource) Load(ctx context.Context, symbol string, from, to time.Time) (*contracts.PriceSeries, error) {
	s, ok := f.series[symbol]
	if !ok {
		return nil, contracts.ErrEmptySeries
	}
	return s, nil
}

func TestCachePruneJob(t *testing.T) {
	ctx := context.Background()
	store := labelstore.NewFileStore(t.TempDir())

	fp := strings.Repeat("ab", 32)
	set := contracts.NewLabelSet(0)
	require.NoError(t, store.Save(ctx, &contracts.CacheEntry{Fingerprint: fp, Labels: set}))
	old := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(store.Path(fp), old, old))

	job := NewCachePruneJob(store, 24*time.Hour, "", logger.NewNop())
	assert.Equal(t, "label_cache_prune", job.Name())
	assert.Equal(t, "0 30 3 * * *", job.Schedule())

	require.NoError(t, job.Run(ctx))

	_, err := store.Load(ctx, fp)
	assert.ErrorIs(t, err, contracts.ErrCacheMiss)
}

func TestCachePruneJob_InvalidRetention(t *testing.T) {
	job := NewCachePruneJob(labelstore.NewFileStore(t.TempDir()), 0, "@daily", logger.NewNop())
	assert.Equal(t, "@daily", job.Schedule())
	assert.Error(t, job.Run(context.Background()))
}

func TestLabelRefreshJob(t *testing.T) {
	ctx := context.Background()
	log := logger.NewNop()
	store := labelstore.NewFileStore(t.TempDir())
	service := labeling.NewService(labeling.NewSweeper(2, log), labeling.NewCache(store, log), log)

	source := &fakeSource{series: map[string]*contracts.PriceSeries{
		"XAUUSD": rampSeries("XAUUSD", 120),
	}}
	opts := labeling.Options{
		Grid:     contracts.SweepGrid{TargetPips: []int{10}, StopPips: []int{10}, Horizons: []int{60}, PipValue: 0.1},
		UseCache: true,
	}

	job := NewLabelRefreshJob(source, service, []string{"XAUUSD"}, 24*time.Hour, opts, "", log)
	assert.Equal(t, "label_refresh", job.Name())
	require.NoError(t, job.Run(ctx))

	latest, err := store.LoadLatest(ctx)
	require.NoError(t, err)
	assert.Equal(t, "XAUUSD", latest.Symbol)
	assert.Equal(t, 1, latest.Labels.Len())

	// an unknown symbol is reported without blocking the others
	job = NewLabelRefreshJob(source, service, []string{"MISSING", "XAUUSD"}, time.Hour, opts, "@hourly", log)
	err = job.Run(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, contracts.ErrEmptySeries))
	assert.Contains(t, err.Error(), "MISSING")
}
