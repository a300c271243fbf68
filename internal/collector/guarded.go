package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"FinAlpha/internal/metrics"
	"FinAlpha/internal/model"
)

// GuardConfig tunes the limiter and circuit breaker around a fetcher.
type GuardConfig struct {
	RequestsPerSecond   float64
	Burst               int
	ConsecutiveFailures uint32
	OpenTimeout         time.Duration
}

// DefaultGuardConfig allows 2 req/s with a burst of 5 and trips after 3 failures in a row.
func DefaultGuardConfig() GuardConfig {
	return GuardConfig{
		RequestsPerSecond:   2,
		Burst:               5,
		ConsecutiveFailures: 3,
		OpenTimeout:         60 * time.Second,
	}
}

// GuardedFetcher throttles and circuit-breaks calls to an inner Fetcher.
// It never retries.
type GuardedFetcher struct {
	inner   Fetcher
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
	metrics *metrics.Metrics
}

// NewGuardedFetcher wraps inner. m may be nil.
func NewGuardedFetcher(inner Fetcher, cfg GuardConfig, m *metrics.Metrics) *GuardedFetcher {
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = DefaultGuardConfig().RequestsPerSecond
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.ConsecutiveFailures == 0 {
		cfg.ConsecutiveFailures = DefaultGuardConfig().ConsecutiveFailures
	}

	st := gobreaker.Settings{
		Name:     inner.Name(),
		Interval: 60 * time.Second,
		Timeout:  cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
		},
		IsSuccessful: sourceHealthy,
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("source", name).Str("from", from.String()).Str("to", to.String()).
				Msg("price source breaker state changed")
			m.SetBreakerState(name, float64(to))
		},
	}
	return &GuardedFetcher{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		breaker: gobreaker.NewCircuitBreaker(st),
		metrics: m,
	}
}

func (g *GuardedFetcher) Name() string { return g.inner.Name() }

// State reports the breaker state.
func (g *GuardedFetcher) State() gobreaker.State { return g.breaker.State() }

func (g *GuardedFetcher) FetchDailyBars(ctx context.Context, symbol string, lookback model.Lookback) ([]model.OHLCV, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%s rate limit: %w", g.inner.Name(), err)
	}
	res, err := g.breaker.Execute(func() (interface{}, error) {
		return g.inner.FetchDailyBars(ctx, symbol, lookback)
	})
	if err != nil {
		if !callerGaveUp(err) {
			g.metrics.FetchError(g.inner.Name())
		}
		return nil, err
	}
	return res.([]model.OHLCV), nil
}

// sourceHealthy keeps caller cancellations from counting against the source.
func sourceHealthy(err error) bool {
	return err == nil || callerGaveUp(err)
}

func callerGaveUp(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
