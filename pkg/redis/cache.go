package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache provides namespaced byte caching with a recency index
// ⭐ SSOT: 캐시 헬퍼는 여기서만
//
// Payloads live under "{prefix}:cache:{key}". Every Set also records the key
// in the sorted set "{prefix}:index" scored by write time, so callers can ask
// for the newest key or for keys older than a cutoff.
type Cache struct {
	client *Client
	prefix string
}

// NewCache creates a new cache helper
func NewCache(client *Client, prefix string) *Cache {
	return &Cache{
		client: client,
		prefix: prefix,
	}
}

// Enabled reports whether the underlying client is connected
func (c *Cache) Enabled() bool {
	return c.client != nil && c.client.Enabled()
}

// Get retrieves a cached payload. found is false on a missing key.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if !c.Enabled() {
		return nil, false, nil
	}

	data, err := c.client.Redis().Get(ctx, c.Key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get failed: %w", err)
	}

	return data, true, nil
}

// Set stores a payload with TTL and indexes it by write time
func (c *Cache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if !c.Enabled() {
		return nil
	}

	pipe := c.client.Redis().TxPipeline()
	pipe.Set(ctx, c.Key(key), data, ttl)
	pipe.ZAdd(ctx, c.IndexKey(), redis.Z{
		Score:  float64(time.Now().UnixNano()),
		Member: key,
	})

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache set failed: %w", err)
	}
	return nil
}

// Delete removes payloads and their index entries
func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if !c.Enabled() || len(keys) == 0 {
		return nil
	}

	fullKeys := make([]string, len(keys))
	members := make([]interface{}, len(keys))
	for i, k := range keys {
		fullKeys[i] = c.Key(k)
		members[i] = k
	}

	pipe := c.client.Redis().TxPipeline()
	pipe.Del(ctx, fullKeys...)
	pipe.ZRem(ctx, c.IndexKey(), members...)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache delete failed: %w", err)
	}
	return nil
}

// Recent returns up to limit keys, newest first
func (c *Cache) Recent(ctx context.Context, limit int) ([]string, error) {
	if !c.Enabled() || limit < 1 {
		return nil, nil
	}

	keys, err := c.client.Redis().ZRevRange(ctx, c.IndexKey(), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("cache index read failed: %w", err)
	}
	return keys, nil
}

// OlderThan returns the keys written before cutoff
func (c *Cache) OlderThan(ctx context.Context, cutoff time.Time) ([]string, error) {
	if !c.Enabled() {
		return nil, nil
	}

	keys, err := c.client.Redis().ZRangeByScore(ctx, c.IndexKey(), &redis.ZRangeBy{
		Min: "-inf",
		Max: fmt.Sprintf("(%d", cutoff.UnixNano()),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("cache index read failed: %w", err)
	}
	return keys, nil
}

// Key returns the full payload key
func (c *Cache) Key(key string) string {
	return fmt.Sprintf("%s:cache:%s", c.prefix, key)
}

// IndexKey returns the recency index key
func (c *Cache) IndexKey() string {
	return fmt.Sprintf("%s:index", c.prefix)
}

// LabelsPrefix namespaces label-set payloads
const LabelsPrefix = "necrozma:labels"
