package labeling

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dans91364-create/NECROZMAv2/internal/contracts"
	"github.com/dans91364-create/NECROZMAv2/internal/labelstore"
	"github.com/dans91364-create/NECROZMAv2/pkg/logger"
)

type recordingStats struct {
	mu   sync.Mutex
	runs []*contracts.SweepRun
	err  error
}

func (r *recordingStats) SaveRun(ctx context.Context, run *contracts.SweepRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, run)
	return r.err
}

func (r *recordingStats) ListByFingerprint(ctx context.Context, fingerprint string) ([]contracts.ConfigStats, error) {
	return nil, nil
}

func newTestService(t *testing.T, store contracts.LabelStore) *Service {
	t.Helper()
	log := logger.NewNop()
	return NewService(NewSweeper(2, log), NewCache(store, log), log)
}

func TestService_LabelCachesResult(t *testing.T) {
	store := labelstore.NewFileStore(t.TempDir())
	svc := newTestService(t, store)
	opts := Options{Grid: singleGrid, UseCache: true}
	ctx := context.Background()

	first, err := svc.Label(ctx, rampSeries(120), opts)
	require.NoError(t, err)
	assert.False(t, first.FromCache)
	assert.Equal(t, 1.0, first.BarsPerMinute)
	assert.NotEmpty(t, first.RunID)

	_, err = os.Stat(store.Path(first.Fingerprint))
	require.NoError(t, err)

	second, err := svc.Label(ctx, rampSeries(120), opts)
	require.NoError(t, err)
	assert.True(t, second.FromCache)
	assert.Equal(t, first.Fingerprint, second.Fingerprint)
	assert.Equal(t, first.Labels, second.Labels)
	assert.Equal(t, first.Stats[0].LongWins, second.Stats[0].LongWins)
	assert.NotEqual(t, first.RunID, second.RunID)

	entry, err := svc.Load(ctx, first.Fingerprint)
	require.NoError(t, err)
	assert.Equal(t, "XAUUSD", entry.Symbol)
	assert.Equal(t, 120, entry.Rows)

	latest, err := svc.LoadLatest(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.Fingerprint, latest.Fingerprint)
}

func TestService_CacheHitKeepsSkipped(t *testing.T) {
	svc := newTestService(t, labelstore.NewFileStore(t.TempDir()))
	ctx := context.Background()
	opts := Options{
		Grid:     contracts.SweepGrid{TargetPips: []int{10}, StopPips: []int{10}, Horizons: []int{1, 60}, PipValue: 0.1},
		UseCache: true,
	}

	// 5-minute bars: H1 is shorter than one bar
	s := rampSeries(40)
	for i := range s.Time {
		s.Time[i] = s.Time[0].Add(time.Duration(5*i) * time.Minute)
	}

	first, err := svc.Label(ctx, s, opts)
	require.NoError(t, err)
	require.False(t, first.FromCache)
	assert.Equal(t, 1, first.Skipped)
	require.Len(t, first.Errors, 1)
	assert.ErrorIs(t, first.Errors[0], ErrOutOfRange)

	second, err := svc.Label(ctx, s, opts)
	require.NoError(t, err)
	assert.True(t, second.FromCache)
	assert.Equal(t, 1, second.Labels.Len())
	assert.Equal(t, first.Skipped, second.Skipped)
	require.Len(t, second.Errors, 1)
	assert.Equal(t, first.Errors[0].Name, second.Errors[0].Name)
	assert.Equal(t, first.Errors[0].Error(), second.Errors[0].Error())

	entry, err := svc.Load(ctx, first.Fingerprint)
	require.NoError(t, err)
	require.Len(t, entry.Skipped, 1)
	assert.Equal(t, "T10_S10_H1", entry.Skipped[0].Name)
}

func TestService_ForwardPeriods(t *testing.T) {
	svc := newTestService(t, labelstore.NewFileStore(t.TempDir()))
	ctx := context.Background()
	opts := Options{Grid: singleGrid, UseCache: true, ForwardPeriods: []int{1, 5}}

	for _, wantCache := range []bool{false, true} {
		result, err := svc.Label(ctx, rampSeries(30), opts)
		require.NoError(t, err)
		assert.Equal(t, wantCache, result.FromCache)

		require.Len(t, result.Forward, 2)
		assert.Equal(t, 5, result.Forward[1].Period)
		assert.Equal(t, 29, result.Forward[0].Summary().Rows)
		assert.Equal(t, 25, result.Forward[1].Summary().Rows)

		require.Len(t, result.Targets, 1)
		assert.Equal(t, 1.0, result.Targets[0].RiskReward)
		assert.InDelta(t, 101.0, result.Targets[0].LongTarget[0], 1e-9)
	}

	// off by default
	plain, err := svc.Label(ctx, rampSeries(30), Options{Grid: singleGrid})
	require.NoError(t, err)
	assert.Nil(t, plain.Forward)
	assert.Nil(t, plain.Targets)

	_, err = svc.Label(ctx, rampSeries(30), Options{Grid: singleGrid, ForwardPeriods: []int{-1}})
	assert.ErrorIs(t, err, ErrInvalidPeriod)
}

func TestService_CacheDisabledByOption(t *testing.T) {
	dir := t.TempDir()
	svc := newTestService(t, labelstore.NewFileStore(dir))

	result, err := svc.Label(context.Background(), rampSeries(50), Options{Grid: singleGrid})
	require.NoError(t, err)
	assert.False(t, result.FromCache)

	files, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestService_CorruptCacheRecomputes(t *testing.T) {
	store := labelstore.NewFileStore(t.TempDir())
	svc := newTestService(t, store)
	opts := Options{Grid: singleGrid, UseCache: true}

	fp, err := Fingerprint(rampSeries(60), singleGrid, FingerprintContent)
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(store.Dir(), 0o755))
	require.NoError(t, os.WriteFile(store.Path(fp), []byte("garbage"), 0o644))

	result, err := svc.Label(context.Background(), rampSeries(60), opts)
	require.NoError(t, err)
	assert.False(t, result.FromCache)
	assert.Equal(t, 1, result.Labels.Len())

	// the corrupt file is replaced by the fresh sweep
	entry, err := store.Load(context.Background(), fp)
	require.NoError(t, err)
	assert.Equal(t, result.Labels, entry.Labels)
}

func TestService_UnwritableCacheStillLabels(t *testing.T) {
	// cache dir path is a regular file
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	svc := newTestService(t, labelstore.NewFileStore(filepath.Join(blocker, "labels")))
	result, err := svc.Label(context.Background(), rampSeries(30), Options{Grid: singleGrid, UseCache: true})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Labels.Len())
}

func TestService_NoStore(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	result, err := svc.Label(ctx, rampSeries(30), Options{Grid: singleGrid, UseCache: true})
	require.NoError(t, err)
	assert.False(t, result.FromCache)

	_, err = svc.Load(ctx, result.Fingerprint)
	assert.ErrorIs(t, err, ErrCacheDisabled)
	_, err = svc.LoadLatest(ctx)
	assert.ErrorIs(t, err, ErrCacheDisabled)
}

func TestService_InvalidInput(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	_, err := svc.Label(ctx, &contracts.PriceSeries{}, Options{Grid: singleGrid})
	assert.ErrorIs(t, err, contracts.ErrEmptySeries)

	_, err = svc.Label(ctx, rampSeries(10), Options{Grid: contracts.SweepGrid{TargetPips: []int{10}}})
	assert.ErrorIs(t, err, contracts.ErrInvalidGrid)

	dup := rampSeries(10)
	for i := range dup.Time {
		dup.Time[i] = dup.Time[0]
	}
	_, err = svc.Label(ctx, dup, Options{Grid: singleGrid})
	assert.ErrorIs(t, err, ErrInvalidTimestamps)

	_, err = svc.Label(ctx, rampSeries(10), Options{Grid: singleGrid, FingerprintMode: "fast"})
	assert.Error(t, err)
}

func TestService_RecordsStats(t *testing.T) {
	recorder := &recordingStats{}
	svc := newTestService(t, labelstore.NewFileStore(t.TempDir())).WithStatsRepository(recorder)
	opts := Options{Grid: singleGrid, UseCache: true}

	_, err := svc.Label(context.Background(), rampSeries(40), opts)
	require.NoError(t, err)

	// failures in the recorder do not fail the request
	recorder.err = errors.New("db down")
	_, err = svc.Label(context.Background(), rampSeries(40), opts)
	require.NoError(t, err)

	require.Len(t, recorder.runs, 2)
	assert.False(t, recorder.runs[0].FromCache)
	assert.True(t, recorder.runs[1].FromCache)
	assert.Equal(t, "XAUUSD", recorder.runs[0].Symbol)
	assert.Equal(t, 40, recorder.runs[0].Rows)
	require.Len(t, recorder.runs[0].Stats, 1)
	assert.Equal(t, recorder.runs[0].Fingerprint, recorder.runs[1].Fingerprint)
}

func TestStatsOf(t *testing.T) {
	assert.Empty(t, StatsOf(nil))

	result, err := NewSweeper(1, logger.NewNop()).Run(context.Background(), rampSeries(20), singleGrid, 1)
	require.NoError(t, err)
	assert.Equal(t, result.Stats[0].LongWins, StatsOf(result.Labels)[0].LongWins)
}
