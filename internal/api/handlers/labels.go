package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/dans91364-create/NECROZMAv2/internal/contracts"
	"github.com/dans91364-create/NECROZMAv2/internal/labeling"
	"github.com/dans91364-create/NECROZMAv2/internal/series"
	"github.com/dans91364-create/NECROZMAv2/pkg/logger"
)

const (
	defaultRowLimit = 500
	maxRowLimit     = 10000
	maxUploadBytes  = 256 << 20
)

// LabelService is the part of labeling.Service used by the API
type LabelService interface {
	Label(ctx context.Context, s *contracts.PriceSeries, opts labeling.Options) (*labeling.Result, error)
	Load(ctx context.Context, fingerprint string) (*contracts.CacheEntry, error)
	LoadLatest(ctx context.Context) (*contracts.CacheEntry, error)
}

// LabelHandler serves persisted label sets
type LabelHandler struct {
	service LabelService
	stats   contracts.SweepStatsRepository // optional
	opts    labeling.Options
	logger  *logger.Logger
}

// NewLabelHandler creates a new label handler. opts is used for uploads.
func NewLabelHandler(service LabelService, opts labeling.Options, log *logger.Logger) *LabelHandler {
	return &LabelHandler{
		service: service,
		opts:    opts,
		logger:  log.Component("api.labels"),
	}
}

// WithStatsRepository enables the stored statistics endpoint
func (h *LabelHandler) WithStatsRepository(repo contracts.SweepStatsRepository) *LabelHandler {
	h.stats = repo
	return h
}

// EntrySummary describes one cached sweep without its rows
type EntrySummary struct {
	Fingerprint string                  `json:"fingerprint"`
	CreatedAt   time.Time               `json:"created_at"`
	Symbol      string                  `json:"symbol,omitempty"`
	Rows        int                     `json:"rows"`
	Grid        contracts.SweepGrid     `json:"grid"`
	Configs     []contracts.ConfigStats `json:"configs"`
	Best        *contracts.ConfigStats  `json:"best,omitempty"`
}

// RowsResponse is one page of a configuration's label rows
type RowsResponse struct {
	Fingerprint string               `json:"fingerprint"`
	Config      string               `json:"config"`
	HorizonBars int                  `json:"horizon_bars"`
	Total       int                  `json:"total"`
	Offset      int                  `json:"offset"`
	Limit       int                  `json:"limit"`
	Rows        []contracts.LabelRow `json:"rows"`
}

// RunResponse is returned by POST /api/labels
type RunResponse struct {
	RunID         string                  `json:"run_id"`
	Fingerprint   string                  `json:"fingerprint"`
	Rows          int                     `json:"rows"`
	BarsPerMinute float64                 `json:"bars_per_minute"`
	FromCache     bool                    `json:"from_cache"`
	Skipped       int                     `json:"skipped"`
	ElapsedMs     int64                   `json:"elapsed_ms"`
	Configs       []contracts.ConfigStats `json:"configs"`
	Best          *contracts.ConfigStats  `json:"best,omitempty"`

	Forward []contracts.ForwardSummary `json:"forward,omitempty"`
	Targets []TargetSummary            `json:"targets,omitempty"`
}

// TargetSummary describes the exit levels of the last bar for one pair
type TargetSummary struct {
	TargetPips  int     `json:"target_pips"`
	StopPips    int     `json:"stop_pips"`
	RiskReward  float64 `json:"rr_ratio"`
	LongTarget  float64 `json:"long_tp"`
	LongStop    float64 `json:"long_sl"`
	ShortTarget float64 `json:"short_tp"`
	ShortStop   float64 `json:"short_sl"`
}

// GetLatest handles GET /api/labels/latest
func (h *LabelHandler) GetLatest(w http.ResponseWriter, r *http.Request) {
	entry, err := h.service.LoadLatest(r.Context())
	if err != nil {
		h.fail(w, err, "load latest labels")
		return
	}
	respondJSON(w, http.StatusOK, summarize(entry))
}

// GetByFingerprint handles GET /api/labels/{fingerprint}
func (h *LabelHandler) GetByFingerprint(w http.ResponseWriter, r *http.Request) {
	entry, err := h.service.Load(r.Context(), mux.Vars(r)["fingerprint"])
	if err != nil {
		h.fail(w, err, "load labels")
		return
	}
	respondJSON(w, http.StatusOK, summarize(entry))
}

// GetRows handles GET /api/labels/{fingerprint}/{config}?offset=0&limit=500
func (h *LabelHandler) GetRows(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	offset, err := queryInt(r, "offset", 0)
	if err != nil || offset < 0 {
		respondError(w, http.StatusBadRequest, "Invalid offset")
		return
	}
	limit, err := queryInt(r, "limit", defaultRowLimit)
	if err != nil || limit < 1 {
		respondError(w, http.StatusBadRequest, "Invalid limit")
		return
	}
	if limit > maxRowLimit {
		limit = maxRowLimit
	}

	entry, err := h.service.Load(r.Context(), vars["fingerprint"])
	if err != nil {
		h.fail(w, err, "load labels")
		return
	}

	frame, ok := entry.Labels.Get(vars["config"])
	if !ok {
		respondError(w, http.StatusNotFound, fmt.Sprintf("Unknown config %q", vars["config"]))
		return
	}

	respondJSON(w, http.StatusOK, RowsResponse{
		Fingerprint: entry.Fingerprint,
		Config:      frame.Name,
		HorizonBars: frame.HorizonBars,
		Total:       frame.Len(),
		Offset:      offset,
		Limit:       limit,
		Rows:        frame.Rows(offset, offset+limit),
	})
}

// GetStoredStats handles GET /api/labels/{fingerprint}/stats
func (h *LabelHandler) GetStoredStats(w http.ResponseWriter, r *http.Request) {
	if h.stats == nil {
		respondError(w, http.StatusServiceUnavailable, "Stats repository not configured")
		return
	}

	fingerprint := mux.Vars(r)["fingerprint"]
	if !contracts.IsValidFingerprint(fingerprint) {
		respondError(w, http.StatusBadRequest, "Invalid fingerprint")
		return
	}

	stats, err := h.stats.ListByFingerprint(r.Context(), fingerprint)
	if err != nil {
		h.fail(w, err, "list sweep stats")
		return
	}
	if len(stats) == 0 {
		respondError(w, http.StatusNotFound, "No stats for fingerprint")
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

// Run handles POST /api/labels?symbol=XAUUSD with a CSV body
func (h *LabelHandler) Run(w http.ResponseWriter, r *http.Request) {
	symbol := r.URL.Query().Get("symbol")
	if symbol == "" {
		respondError(w, http.StatusBadRequest, "symbol is required")
		return
	}

	s, err := series.ReadCSV(http.MaxBytesReader(w, r.Body, maxUploadBytes), symbol)
	if err != nil {
		h.logger.WithError(err).Warn("Rejected CSV upload")
		respondError(w, http.StatusBadRequest, fmt.Sprintf("Invalid CSV: %v", err))
		return
	}

	opts := h.opts
	if r.URL.Query().Get("no_cache") == "true" {
		opts.UseCache = false
	}
	if raw := r.URL.Query().Get("forward"); raw != "" {
		periods, err := parsePeriods(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid forward periods")
			return
		}
		opts.ForwardPeriods = periods
	}

	result, err := h.service.Label(r.Context(), s, opts)
	if err != nil {
		h.fail(w, err, "label series")
		return
	}

	respondJSON(w, http.StatusOK, RunResponse{
		RunID:         result.RunID,
		Fingerprint:   result.Fingerprint,
		Rows:          s.Len(),
		BarsPerMinute: result.BarsPerMinute,
		FromCache:     result.FromCache,
		Skipped:       result.Skipped,
		ElapsedMs:     result.Elapsed.Milliseconds(),
		Configs:       result.Stats,
		Best:          result.Best,
		Forward:       forwardSummaries(result.Forward),
		Targets:       targetSummaries(result.Targets),
	})
}

// parsePeriods parses "1,5,10"
func parsePeriods(raw string) ([]int, error) {
	parts := strings.Split(raw, ",")
	periods := make([]int, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		periods = append(periods, v)
	}
	return periods, nil
}

func forwardSummaries(windows []contracts.ForwardWindow) []contracts.ForwardSummary {
	if len(windows) == 0 {
		return nil
	}
	out := make([]contracts.ForwardSummary, len(windows))
	for i, w := range windows {
		out[i] = w.Summary()
	}
	return out
}

func targetSummaries(levels []*contracts.TargetLevels) []TargetSummary {
	if len(levels) == 0 {
		return nil
	}
	out := make([]TargetSummary, len(levels))
	for i, l := range levels {
		last := len(l.LongTarget) - 1
		out[i] = TargetSummary{
			TargetPips:  l.TargetPips,
			StopPips:    l.StopPips,
			RiskReward:  l.RiskReward,
			LongTarget:  l.LongTarget[last],
			LongStop:    l.LongStop[last],
			ShortTarget: l.ShortTarget[last],
			ShortStop:   l.ShortStop[last],
		}
	}
	return out
}

func (h *LabelHandler) fail(w http.ResponseWriter, err error, action string) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.WithError(err).Error("Failed to " + action)
		respondError(w, status, "Failed to "+action)
		return
	}
	respondError(w, status, err.Error())
}

func summarize(entry *contracts.CacheEntry) EntrySummary {
	stats := labeling.StatsOf(entry.Labels)
	return EntrySummary{
		Fingerprint: entry.Fingerprint,
		CreatedAt:   entry.CreatedAt,
		Symbol:      entry.Symbol,
		Rows:        entry.Rows,
		Grid:        entry.Grid,
		Configs:     stats,
		Best:        labeling.BestConfig(stats),
	}
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}
