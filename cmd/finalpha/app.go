package main

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"FinAlpha/internal/collector"
	"FinAlpha/internal/config"
	"FinAlpha/internal/metrics"
	"FinAlpha/internal/recorder"
	"FinAlpha/internal/risk"
	"FinAlpha/internal/screener"
)

// app holds the components built from config.
type app struct {
	cfg       *config.Config
	metrics   *metrics.Metrics
	fetcher   collector.Fetcher
	analyzer  *risk.Analyzer
	collector *collector.Collector
	screener  *screener.Screener
	recorder  recorder.Recorder
	closers   []func() error
}

func newApp(opts *globalOpts) (*app, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, metrics: metrics.New()}

	a.fetcher = a.buildFetcher()
	log.Info().Str("source", a.fetcher.Name()).Str("lookback", string(cfg.Lookback())).Msg("data source ready")

	a.analyzer, err = risk.NewAnalyzer(cfg.Risk, a.fetcher)
	if err != nil {
		return nil, err
	}
	a.collector = collector.NewCollector(a.fetcher)
	a.screener = screener.New(a.analyzer, cfg.Screener.Workers, cfg.Lookback(), a.metrics)
	return a, nil
}

// buildFetcher layers cache over breaker over the configured source.
func (a *app) buildFetcher() collector.Fetcher {
	cfg := a.cfg
	var base collector.Fetcher
	switch cfg.DataSource.Source {
	case "eodhd":
		var eopts []collector.EODHDOption
		if cfg.DataSource.BaseURL != "" {
			eopts = append(eopts, collector.WithEODHDBaseURL(cfg.DataSource.BaseURL))
		}
		if cfg.DataSource.Exchange != "" {
			eopts = append(eopts, collector.WithEODHDExchange(cfg.DataSource.Exchange))
		}
		base = collector.NewEODHDFetcher(cfg.DataSource.APIKey, cfg.Proxy, eopts...)
	case "mock":
		// Deterministic data needs neither throttling nor caching.
		return &collector.MockFetcher{}
	default:
		y := collector.NewYahooFetcher(cfg.Proxy)
		if cfg.DataSource.BaseURL != "" {
			y.BaseURL = cfg.DataSource.BaseURL
		}
		base = y
	}

	guarded := collector.NewGuardedFetcher(base, collector.GuardConfig{
		RequestsPerSecond:   cfg.RateLimit.RequestsPerSecond,
		Burst:               cfg.RateLimit.Burst,
		ConsecutiveFailures: cfg.Breaker.ConsecutiveFailures,
		OpenTimeout:         cfg.Breaker.OpenTimeout,
	}, a.metrics)

	return collector.NewCachedFetcher(guarded, a.buildCache(), cfg.Cache.TTL, a.metrics)
}

func (a *app) buildCache() collector.Cache {
	addr := a.cfg.Cache.RedisAddr
	if addr == "" {
		return collector.NewMemoryCache()
	}
	rc := collector.NewRedisCache(addr, a.cfg.Cache.RedisPassword, a.cfg.Cache.RedisDB)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rc.Ping(ctx); err != nil {
		log.Warn().Err(err).Str("addr", addr).Msg("redis unavailable, using in-memory cache")
		rc.Close()
		return collector.NewMemoryCache()
	}
	a.closers = append(a.closers, rc.Close)
	log.Info().Str("addr", addr).Msg("using redis price cache")
	return rc
}

// openRecorder returns the SQLite recorder, or a no-op one when it cannot be
// opened. Later calls return the same recorder.
func (a *app) openRecorder() recorder.Recorder {
	if a.recorder != nil {
		return a.recorder
	}
	a.recorder = recorder.NewNoopRecorder()
	if a.cfg.Database.SQLitePath == "" {
		return a.recorder
	}
	sr, err := recorder.NewSQLiteRecorder(a.cfg.Database.SQLitePath)
	if err != nil {
		log.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
		return a.recorder
	}
	a.closers = append(a.closers, sr.Close)
	a.recorder = sr
	return sr
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			log.Warn().Err(err).Msg("close")
		}
	}
}
