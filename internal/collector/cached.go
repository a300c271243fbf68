package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"FinAlpha/internal/metrics"
	"FinAlpha/internal/model"
)

// CachedFetcher serves repeated requests for the same window from a Cache.
// Errors and empty results are not cached.
type CachedFetcher struct {
	inner   Fetcher
	cache   Cache
	ttl     time.Duration
	metrics *metrics.Metrics
}

// NewCachedFetcher wraps inner. m may be nil.
func NewCachedFetcher(inner Fetcher, cache Cache, ttl time.Duration, m *metrics.Metrics) *CachedFetcher {
	return &CachedFetcher{inner: inner, cache: cache, ttl: ttl, metrics: m}
}

func (c *CachedFetcher) Name() string { return c.inner.Name() }

func cacheKey(source, symbol string, lookback model.Lookback) string {
	return fmt.Sprintf("finalpha:bars:%s:%s:%s", source, symbol, lookback)
}

func (c *CachedFetcher) FetchDailyBars(ctx context.Context, symbol string, lookback model.Lookback) ([]model.OHLCV, error) {
	key := cacheKey(c.inner.Name(), symbol, lookback)
	if raw, ok := c.cache.Get(ctx, key); ok {
		var bars []model.OHLCV
		if err := json.Unmarshal(raw, &bars); err == nil {
			c.metrics.CacheResult(true)
			return bars, nil
		}
		log.Warn().Str("key", key).Msg("discarding undecodable cache entry")
	}
	c.metrics.CacheResult(false)

	bars, err := c.inner.FetchDailyBars(ctx, symbol, lookback)
	if err != nil || len(bars) == 0 {
		return bars, err
	}
	if raw, err := json.Marshal(bars); err == nil {
		c.cache.Set(ctx, key, raw, c.ttl)
	}
	return bars, nil
}
