package labelstats

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dans91364-create/NECROZMAv2/internal/contracts"
	"github.com/dans91364-create/NECROZMAv2/pkg/config"
	"github.com/dans91364-create/NECROZMAv2/pkg/database"
)

// TestRepository_SaveAndList runs against a live database when DATABASE_URL is set
func TestRepository_SaveAndList(t *testing.T) {
	if os.Getenv("DATABASE_URL") == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	cfg, err := config.Load()
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := database.New(ctx, cfg)
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db.Pool)
	require.NoError(t, repo.EnsureSchema(ctx))

	fingerprint := "ffff" + uuid.NewString()[:8] + "0000aaaa"
	run := &contracts.SweepRun{
		RunID:         uuid.NewString(),
		Fingerprint:   fingerprint,
		Symbol:        "XAUUSD",
		Rows:          1000,
		BarsPerMinute: 1,
		Stats: []contracts.ConfigStats{
			{Name: "T10_S10_H60", HorizonBars: 60, LongWins: 3, LongLosses: 1, LongWinRate: 0.75, ShortWins: 1, ShortLosses: 3, ShortWinRate: 0.25},
			{Name: "T20_S10_H60", HorizonBars: 60, LongWins: 1, LongLosses: 1, LongWinRate: 0.5, ShortTimeouts: 2},
		},
		Best:      "T10_S10_H60",
		StartedAt: time.Now().UTC(),
		Elapsed:   1500 * time.Millisecond,
	}
	require.NoError(t, repo.SaveRun(ctx, run))
	defer db.Pool.Exec(context.Background(), `DELETE FROM labels.sweep_runs WHERE run_id = $1`, run.RunID)

	stats, err := repo.ListByFingerprint(ctx, fingerprint)
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, run.Stats[0], stats[0])
	assert.Equal(t, run.Stats[1], stats[1])
}
