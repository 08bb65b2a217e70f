package contracts

import (
	"context"
	"errors"
	"time"
)

// Cache errors
var (
	ErrCacheMiss          = errors.New("label cache miss")
	ErrInvalidFingerprint = errors.New("invalid fingerprint")
)

// LabelStore persists label sets keyed by fingerprint
// ⭐ SSOT: 라벨 캐시 저장소 인터페이스
//
// Content-addressed (Load) and recency-addressed (LoadLatest) retrieval are
// separate operations.
type LabelStore interface {
	// Load returns the entry for a fingerprint or ErrCacheMiss
	Load(ctx context.Context, fingerprint string) (*CacheEntry, error)

	// Save persists an entry under entry.Fingerprint
	Save(ctx context.Context, entry *CacheEntry) error

	// LoadLatest returns the most recently written entry or ErrCacheMiss
	LoadLatest(ctx context.Context) (*CacheEntry, error)

	// Prune removes entries older than the given age and returns the count
	Prune(ctx context.Context, olderThan time.Duration) (int, error)
}

// SeriesSource loads a price series for a symbol and period
type SeriesSource interface {
	Load(ctx context.Context, symbol string, from, to time.Time) (*PriceSeries, error)
}

// SweepStatsRepository stores per-configuration sweep statistics
type SweepStatsRepository interface {
	SaveRun(ctx context.Context, run *SweepRun) error
	ListByFingerprint(ctx context.Context, fingerprint string) ([]ConfigStats, error)
}

// IsValidFingerprint reports whether s is a lowercase hex digest
func IsValidFingerprint(s string) bool {
	if len(s) < 16 || len(s) > 128 {
		return false
	}
	for _, c := range s {
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f') {
			return false
		}
	}
	return true
}
