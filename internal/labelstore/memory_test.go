package labelstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dans91364-create/NECROZMAv2/internal/contracts"
	"github.com/dans91364-create/NECROZMAv2/pkg/logger"
)

func TestMemoryStore_SaveLoad(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(logger.NewNop())

	_, err := store.Load(ctx, fp('a'))
	assert.ErrorIs(t, err, contracts.ErrCacheMiss)
	_, err = store.LoadLatest(ctx)
	assert.ErrorIs(t, err, contracts.ErrCacheMiss)

	entry := testEntry(fp('a'))
	require.NoError(t, store.Save(ctx, entry))

	loaded, err := store.Load(ctx, fp('a'))
	require.NoError(t, err)
	assert.Equal(t, entry, loaded)

	// loaded copies are independent of the stored entry
	loaded.Labels.Names[0] = "mutated"
	again, err := store.Load(ctx, fp('a'))
	require.NoError(t, err)
	assert.Equal(t, "T10_S10_H60", again.Labels.Names[0])

	assert.ErrorIs(t, store.Save(ctx, testEntry("../x")), contracts.ErrInvalidFingerprint)
	_, err = store.Load(ctx, "NOPE")
	assert.ErrorIs(t, err, contracts.ErrInvalidFingerprint)
}

func TestMemoryStore_LatestAndPrune(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(logger.NewNop())

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	saves := []struct {
		fp  string
		age time.Duration
	}{
		{fp('a'), 48 * time.Hour},
		{fp('b'), 2 * time.Hour},
		{fp('c'), 30 * 24 * time.Hour},
	}
	for _, s := range saves {
		store.now = func() time.Time { return now.Add(-s.age) }
		require.NoError(t, store.Save(ctx, testEntry(s.fp)))
	}
	store.now = func() time.Time { return now }

	latest, err := store.LoadLatest(ctx)
	require.NoError(t, err)
	assert.Equal(t, fp('b'), latest.Fingerprint)

	stats := store.Stats()
	assert.Equal(t, 3, stats.Count)
	assert.Positive(t, stats.Bytes)
	assert.Equal(t, now.Add(-30*24*time.Hour), stats.Oldest)
	assert.Equal(t, now.Add(-2*time.Hour), stats.Newest)

	removed, err := store.Prune(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	assert.Equal(t, 1, store.Len())

	_, err = store.Load(ctx, fp('a'))
	assert.ErrorIs(t, err, contracts.ErrCacheMiss)
}
