package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dans91364-create/NECROZMAv2/internal/api/handlers"
	"github.com/dans91364-create/NECROZMAv2/internal/contracts"
	"github.com/dans91364-create/NECROZMAv2/internal/labeling"
	"github.com/dans91364-create/NECROZMAv2/internal/labelstore"
	"github.com/dans91364-create/NECROZMAv2/pkg/logger"
)

type fakeStats struct {
	stats []contracts.ConfigStats
}

func (f *fakeStats) SaveRun(ctx context.Context, run *contracts.SweepRun) error { return nil }

func (f *fakeStats) ListByFingerprint(ctx context.Context, fingerprint string) ([]contracts.ConfigStats, error) {
	return f.stats, nil
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(ctx context.Context) error { return p.err }

var testGrid = contracts.SweepGrid{
	TargetPips: []int{10, 20},
	StopPips:   []int{10},
	Horizons:   []int{60},
	PipValue:   0.1,
}

// rampCSV is a strictly rising M1 series (close = 100 + 2i)
func rampCSV(n int) string {
	var b strings.Builder
	b.WriteString("DateTime,Open,High,Low,Close,Volume\n")
	base := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		c := 100 + 2*float64(i)
		fmt.Fprintf(&b, "%s,%.1f,%.1f,%.1f,%.1f,1\n",
			base.Add(time.Duration(i)*time.Minute).Format("2006-01-02 15:04:05"), c, c+0.5, c-0.5, c)
	}
	return b.String()
}

func newTestRouter(t *testing.T, stats contracts.SweepStatsRepository, checks map[string]Pinger) http.Handler {
	t.Helper()
	log := logger.NewNop()
	store := labelstore.NewFileStore(t.TempDir())
	service := labeling.NewService(labeling.NewSweeper(2, log), labeling.NewCache(store, log), log)

	h := handlers.NewLabelHandler(service, labeling.Options{Grid: testGrid, UseCache: true}, log)
	if stats != nil {
		h.WithStatsRepository(stats)
	}
	return NewRouter(h, checks, log)
}

func do(t *testing.T, router http.Handler, method, target, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var out map[string]interface{}
	if strings.HasPrefix(strings.TrimSpace(rec.Body.String()), "{") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func TestHealth(t *testing.T) {
	router := newTestRouter(t, nil, nil)
	rec, body := do(t, router, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])

	router = newTestRouter(t, nil, map[string]Pinger{
		"database": fakePinger{},
		"redis":    fakePinger{err: errors.New("connection refused")},
	})
	rec, body = do(t, router, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "degraded", body["status"])
}

func TestLabelsFlow(t *testing.T) {
	router := newTestRouter(t, nil, nil)

	// nothing cached yet
	rec, _ := do(t, router, http.MethodGet, "/api/labels/latest", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// run a sweep from an uploaded CSV
	rec, run := do(t, router, http.MethodPost, "/api/labels?symbol=XAUUSD", rampCSV(120))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, false, run["from_cache"])
	assert.Equal(t, 120.0, run["rows"])
	assert.Equal(t, 1.0, run["bars_per_minute"])
	fingerprint := run["fingerprint"].(string)

	// same upload is served from cache
	_, again := do(t, router, http.MethodPost, "/api/labels?symbol=XAUUSD", rampCSV(120))
	assert.Equal(t, true, again["from_cache"])
	assert.Equal(t, fingerprint, again["fingerprint"])

	// recency and content lookups agree
	rec, latest := do(t, router, http.MethodGet, "/api/labels/latest", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, fingerprint, latest["fingerprint"])
	assert.Len(t, latest["configs"], 2)

	rec, byFP := do(t, router, http.MethodGet, "/api/labels/"+fingerprint, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "XAUUSD", byFP["symbol"])

	// row paging
	rec, page := do(t, router, http.MethodGet, "/api/labels/"+fingerprint+"/T10_S10_H60?offset=0&limit=2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 120.0, page["total"])
	rows := page["rows"].([]interface{})
	require.Len(t, rows, 2)
	first := rows[0].(map[string]interface{})
	assert.Equal(t, "target", first["up_outcome"])
	assert.Equal(t, "stop", first["down_outcome"])
	assert.Equal(t, 1.0, first["label_long"])

	rec, _ = do(t, router, http.MethodGet, "/api/labels/"+fingerprint+"/T99_S1_H1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = do(t, router, http.MethodGet, "/api/labels/"+fingerprint+"/T10_S10_H60?limit=0", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLabelsForward(t *testing.T) {
	router := newTestRouter(t, nil, nil)

	rec, run := do(t, router, http.MethodPost, "/api/labels?symbol=XAUUSD&forward=1,5", rampCSV(50))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	forward := run["forward"].([]interface{})
	require.Len(t, forward, 2)
	one := forward[0].(map[string]interface{})
	assert.Equal(t, 1.0, one["period"])
	assert.Equal(t, 49.0, one["rows"])
	assert.Equal(t, 1.0, one["up_ratio"])
	assert.Equal(t, 45.0, forward[1].(map[string]interface{})["rows"])

	// T10 and T20 against S10; last close is 198
	targets := run["targets"].([]interface{})
	require.Len(t, targets, 2)
	t20 := targets[1].(map[string]interface{})
	assert.Equal(t, 2.0, t20["rr_ratio"])
	assert.InDelta(t, 200.0, t20["long_tp"], 1e-9)
	assert.InDelta(t, 197.0, t20["long_sl"], 1e-9)

	// without the query the response carries no forward data
	_, plain := do(t, router, http.MethodPost, "/api/labels?symbol=XAUUSD", rampCSV(50))
	assert.NotContains(t, plain, "forward")

	rec, _ = do(t, router, http.MethodPost, "/api/labels?symbol=XAUUSD&forward=0", rampCSV(50))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec, _ = do(t, router, http.MethodPost, "/api/labels?symbol=XAUUSD&forward=x", rampCSV(50))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLabelsErrors(t *testing.T) {
	router := newTestRouter(t, nil, nil)

	tests := []struct {
		name   string
		method string
		target string
		body   string
		want   int
	}{
		{"invalid fingerprint", http.MethodGet, "/api/labels/NOT-HEX", "", http.StatusBadRequest},
		{"unknown fingerprint", http.MethodGet, "/api/labels/" + strings.Repeat("0", 64), "", http.StatusNotFound},
		{"missing symbol", http.MethodPost, "/api/labels", rampCSV(10), http.StatusBadRequest},
		{"missing column", http.MethodPost, "/api/labels?symbol=X", "DateTime,High,Low\n2024-01-02 00:00:00,1,1\n", http.StatusBadRequest},
		{"stats without repository", http.MethodGet, "/api/labels/" + strings.Repeat("0", 64) + "/stats", "", http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := do(t, router, tt.method, tt.target, tt.body)
			assert.Equal(t, tt.want, rec.Code)
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestStoredStats(t *testing.T) {
	repo := &fakeStats{stats: []contracts.ConfigStats{{Name: "T10_S10_H60", LongWinRate: 1}}}
	router := newTestRouter(t, repo, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/labels/"+strings.Repeat("a", 64)+"/stats", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var stats []contracts.ConfigStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, repo.stats, stats)

	repo.stats = nil
	rec, _ = do(t, router, http.MethodGet, "/api/labels/"+strings.Repeat("a", 64)+"/stats", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
