package collector

import (
	"context"
	"fmt"
	"time"

	"FinAlpha/internal/model"
)

// Collector turns fetcher output into a PriceSeries.
type Collector struct {
	Fetcher Fetcher
	now     func() time.Time
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher) *Collector {
	return &Collector{Fetcher: fetcher, now: time.Now}
}

// Collect fetches the daily history for symbol over lookback.
func (c *Collector) Collect(ctx context.Context, symbol string, lookback model.Lookback) (*model.PriceSeries, error) {
	if lookback == "" {
		lookback = model.DefaultLookback
	}
	bars, err := c.Fetcher.FetchDailyBars(ctx, symbol, lookback)
	if err != nil {
		return nil, fmt.Errorf("fetch daily bars: %w", err)
	}
	return &model.PriceSeries{
		Symbol:    symbol,
		Lookback:  lookback,
		Source:    c.Fetcher.Name(),
		Bars:      bars,
		FetchedAt: c.now(),
	}, nil
}
