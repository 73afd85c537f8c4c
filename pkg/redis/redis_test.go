package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/signalbt/pkg/config"
)

func TestNewClient_Disabled(t *testing.T) {
	client, err := New(context.Background(), config.RedisConfig{Enabled: false})
	require.NoError(t, err)
	assert.False(t, client.Enabled())
	assert.NoError(t, client.Close())
}

func TestCache_Disabled(t *testing.T) {
	client, _ := New(context.Background(), config.RedisConfig{Enabled: false})
	cache := NewCache(client, "test")
	ctx := context.Background()

	var result string
	found, err := cache.Get(ctx, "key", &result)
	require.NoError(t, err)
	assert.False(t, found)

	assert.NoError(t, cache.Set(ctx, "key", "value", TTLShort))
	assert.NoError(t, cache.Delete(ctx, "key"))
}

func TestCacheKeys(t *testing.T) {
	assert.Equal(t, "series:2024-02:INFY", SeriesKey("INFY", "2024-02"))
	assert.Equal(t, "run:abc", RunKey("abc"))

	cache := NewCache(&Client{}, "signalbt")
	assert.Equal(t, "signalbt:cache:series:2024-02:INFY", cache.fullKey(SeriesKey("INFY", "2024-02")))
}

func TestCache_RoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	if os.Getenv("REDIS_HOST") == "" {
		t.Skip("REDIS_HOST not set, skipping integration test")
	}

	ctx := context.Background()
	client, err := New(ctx, config.RedisConfig{
		Enabled: true,
		Host:    os.Getenv("REDIS_HOST"),
		Port:    "6379",
	})
	require.NoError(t, err)
	defer client.Close()

	cache := NewCache(client, "signalbt-test")
	key := SeriesKey("INFY", time.Now().Format(time.RFC3339Nano))
	require.NoError(t, cache.Set(ctx, key, map[string]float64{"close": 101.5}, time.Minute))
	defer cache.Delete(ctx, key)

	var got map[string]float64
	found, err := cache.Get(ctx, key, &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 101.5, got["close"])
}

func TestCache_GetOrSetDisabled(t *testing.T) {
	cache := NewCache(&Client{enabled: false}, "test")

	calls := 0
	var got []int
	err := cache.GetOrSet(context.Background(), "k", &got, TTLShort, func() (interface{}, error) {
		calls++
		return []int{1, 2, 3}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, got)
	assert.Equal(t, 1, calls)
}
