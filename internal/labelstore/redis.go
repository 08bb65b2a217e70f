package labelstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dans91364-create/NECROZMAv2/internal/contracts"
	"github.com/dans91364-create/NECROZMAv2/pkg/redis"
)

// latestScan bounds how many index members LoadLatest walks past expired payloads
const latestScan = 16

// indexedCache is the subset of redis.Cache used by RedisStore
type indexedCache interface {
	Enabled() bool
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	Recent(ctx context.Context, limit int) ([]string, error)
	OlderThan(ctx context.Context, cutoff time.Time) ([]string, error)
}

// RedisStore shares label sets between workers through Redis.
// Payloads expire after ttl; the recency index lives in a sorted set.
type RedisStore struct {
	cache indexedCache
	ttl   time.Duration
	now   func() time.Time
}

// NewRedisStore creates a store on top of the redis cache helper
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return newRedisStore(redis.NewCache(client, redis.LabelsPrefix), ttl)
}

func newRedisStore(cache indexedCache, ttl time.Duration) *RedisStore {
	return &RedisStore{
		cache: cache,
		ttl:   ttl,
		now:   time.Now,
	}
}

// Load reads the entry for fingerprint
func (s *RedisStore) Load(ctx context.Context, fingerprint string) (*contracts.CacheEntry, error) {
	if !contracts.IsValidFingerprint(fingerprint) {
		return nil, fmt.Errorf("%w: %q", contracts.ErrInvalidFingerprint, fingerprint)
	}

	data, found, err := s.cache.Get(ctx, fingerprint)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", contracts.ErrCacheMiss, fingerprint)
	}

	return decodeBytes(data)
}

// Save writes the entry with the configured TTL
func (s *RedisStore) Save(ctx context.Context, entry *contracts.CacheEntry) error {
	if !contracts.IsValidFingerprint(entry.Fingerprint) {
		return fmt.Errorf("%w: %q", contracts.ErrInvalidFingerprint, entry.Fingerprint)
	}
	if !s.cache.Enabled() {
		return fmt.Errorf("redis is disabled")
	}

	data, err := encodeBytes(entry)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, entry.Fingerprint, data, s.ttl)
}

// LoadLatest reads the most recently written entry whose payload is still live.
// Index members whose payload has expired are dropped on the way.
func (s *RedisStore) LoadLatest(ctx context.Context) (*contracts.CacheEntry, error) {
	fingerprints, err := s.cache.Recent(ctx, latestScan)
	if err != nil {
		return nil, err
	}

	var expired []string
	defer func() {
		if len(expired) > 0 {
			// 인덱스 정리 실패는 다음 조회에서 재시도
			_ = s.cache.Delete(ctx, expired...)
		}
	}()

	for _, fingerprint := range fingerprints {
		entry, err := s.Load(ctx, fingerprint)
		if err == nil {
			return entry, nil
		}
		if !errors.Is(err, contracts.ErrCacheMiss) {
			return nil, fmt.Errorf("latest %s: %w", fingerprint, err)
		}
		expired = append(expired, fingerprint)
	}

	return nil, fmt.Errorf("%w: no live entry in redis index", contracts.ErrCacheMiss)
}

// Prune drops entries written before now-olderThan (expired payloads included)
func (s *RedisStore) Prune(ctx context.Context, olderThan time.Duration) (int, error) {
	keys, err := s.cache.OlderThan(ctx, s.now().Add(-olderThan))
	if err != nil {
		return 0, err
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		return 0, err
	}
	return len(keys), nil
}
