package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dans91364-create/NECROZMAv2/pkg/config"
)

func TestNewClient_Disabled(t *testing.T) {
	cfg := &config.Config{
		Redis: config.RedisConfig{
			Enabled: false,
		},
	}

	client, err := New(cfg)
	require.NoError(t, err)
	assert.False(t, client.Enabled())
	assert.NoError(t, client.Close())
}

func TestCache_Disabled(t *testing.T) {
	client, _ := New(&config.Config{})
	cache := NewCache(client, "test")
	ctx := context.Background()

	// When Redis is disabled, cache operations should be no-ops
	data, found, err := cache.Get(ctx, "key")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, data)

	assert.NoError(t, cache.Set(ctx, "key", []byte("v"), time.Minute))
	assert.NoError(t, cache.Delete(ctx, "key"))

	recent, err := cache.Recent(ctx, 3)
	require.NoError(t, err)
	assert.Empty(t, recent)
}

func TestCacheKeys(t *testing.T) {
	cache := NewCache(nil, LabelsPrefix)

	assert.Equal(t, "necrozma:labels:cache:abc", cache.Key("abc"))
	assert.Equal(t, "necrozma:labels:index", cache.IndexKey())
	assert.False(t, cache.Enabled())
}

// TestCache_Integration runs against a live server when REDIS_HOST is set
func TestCache_Integration(t *testing.T) {
	host := os.Getenv("REDIS_HOST")
	if testing.Short() || host == "" {
		t.Skip("skipping redis integration test")
	}

	client, err := New(&config.Config{
		Redis: config.RedisConfig{Host: host, Port: "6379", Enabled: true},
	})
	require.NoError(t, err)
	defer client.Close()

	ctx := context.Background()
	cache := NewCache(client, "necrozma:test:"+time.Now().Format("150405.000"))

	require.NoError(t, cache.Set(ctx, "old", []byte("1"), time.Minute))
	time.Sleep(5 * time.Millisecond)
	cutoff := time.Now()
	time.Sleep(5 * time.Millisecond)
	require.NoError(t, cache.Set(ctx, "new", []byte("2"), time.Minute))

	recent, err := cache.Recent(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"new", "old"}, recent)

	old, err := cache.OlderThan(ctx, cutoff)
	require.NoError(t, err)
	assert.Equal(t, []string{"old"}, old)

	require.NoError(t, cache.Delete(ctx, "old", "new"))
	_, found, err := cache.Get(ctx, "new")
	require.NoError(t, err)
	assert.False(t, found)
}
