package prices

import (
	"context"
	"time"

	"github.com/wonny/signalbt/internal/contracts"
	"github.com/wonny/signalbt/pkg/redis"
)

// CachedSource is a Redis read-through cache over another source.
// Only successfully parsed series are cached; missing files are re-checked.
type CachedSource struct {
	source Source
	cache  *redis.Cache
	ttl    time.Duration
}

// NewCachedSource wraps source with a cache; ttl <= 0 uses redis.TTLLong
func NewCachedSource(source Source, cache *redis.Cache, ttl time.Duration) *CachedSource {
	if ttl <= 0 {
		ttl = redis.TTLLong
	}
	return &CachedSource{source: source, cache: cache, ttl: ttl}
}

func (c *CachedSource) HasPeriod(ctx context.Context, period contracts.Period) bool {
	return c.source.HasPeriod(ctx, period)
}

func (c *CachedSource) Series(ctx context.Context, instrument string, period contracts.Period) (*contracts.PriceSeries, error) {
	var series contracts.PriceSeries
	err := c.cache.GetOrSet(ctx, redis.SeriesKey(instrument, string(period)), &series, c.ttl, func() (interface{}, error) {
		return c.source.Series(ctx, instrument, period)
	})
	if err != nil {
		return nil, err
	}
	return &series, nil
}
