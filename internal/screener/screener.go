// Package screener ranks a universe of tickers by volatility and keeps the
// least risky ones.
package screener

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"FinAlpha/internal/metrics"
	"FinAlpha/internal/model"
	"FinAlpha/internal/risk"
)

const DefaultWorkers = 4

var (
	ErrEmptyUniverse = errors.New("screen universe is empty")
	ErrInvalidTopN   = errors.New("top n must be positive")
)

// DefaultUniverse is the set of large-cap US names screened when none is configured.
var DefaultUniverse = []string{
	"AAPL", "MSFT", "GOOGL", "AMZN", "META", "NVDA", "BRK.B", "JNJ", "JPM", "V",
	"PG", "UNH", "HD", "MA", "KO", "PEP", "WMT", "MRK", "ABBV", "COST",
	"MCD", "CSCO", "VZ", "T", "XOM", "CVX", "LLY", "ORCL", "IBM", "MMM",
}

// Analyzer is the subset of risk.Analyzer the screener needs.
type Analyzer interface {
	Analyze(ctx context.Context, ticker string, lookback model.Lookback) (*model.RiskMetrics, error)
}

// Failure is a ticker the screen could not analyze.
type Failure struct {
	Ticker string `json:"ticker"`
	Kind   string `json:"kind"`
	Error  string `json:"error"`
}

// Result holds the top low-risk names plus everything that failed.
type Result struct {
	Top       []model.RiskMetrics `json:"top"`
	Screened  int                 `json:"screened"`
	LowCount  int                 `json:"low_count"`
	Failures  []Failure           `json:"failures,omitempty"`
	StartedAt time.Time           `json:"started_at"`
	Elapsed   time.Duration       `json:"elapsed_ns"`
}

// Screener runs analyses concurrently over a bounded pool.
type Screener struct {
	analyzer Analyzer
	workers  int
	lookback model.Lookback
	metrics  *metrics.Metrics
}

// New creates a Screener. workers <= 0 selects DefaultWorkers; m may be nil.
func New(a Analyzer, workers int, lookback model.Lookback, m *metrics.Metrics) *Screener {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if lookback == "" {
		lookback = model.DefaultLookback
	}
	return &Screener{analyzer: a, workers: workers, lookback: lookback, metrics: m}
}

type outcome struct {
	metrics *model.RiskMetrics
	err     error
}

// Screen analyzes universe and returns at most topN LOW names ordered by
// volatility ascending, ties broken by ticker.
func (s *Screener) Screen(ctx context.Context, universe []string, topN int) (*Result, error) {
	if topN <= 0 {
		return nil, ErrInvalidTopN
	}
	tickers := dedupe(universe)
	if len(tickers) == 0 {
		return nil, ErrEmptyUniverse
	}

	start := time.Now()
	outcomes := make([]outcome, len(tickers))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, t := range tickers {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			began := time.Now()
			m, err := s.analyzer.Analyze(gctx, t, s.lookback)
			s.metrics.ObserveAnalysis(risk.Kind(err), time.Since(began))
			outcomes[i] = outcome{metrics: m, err: err}
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := &Result{Screened: len(tickers), StartedAt: start}
	var low []model.RiskMetrics
	for i, o := range outcomes {
		if o.err != nil {
			log.Debug().Str("ticker", tickers[i]).Err(o.err).Msg("screen: analysis failed")
			res.Failures = append(res.Failures, Failure{
				Ticker: tickers[i],
				Kind:   risk.Kind(o.err),
				Error:  o.err.Error(),
			})
			continue
		}
		if o.metrics.RiskLevel == model.RiskLow {
			low = append(low, *o.metrics)
		}
	}

	sort.Slice(low, func(i, j int) bool {
		if low[i].Volatility != low[j].Volatility {
			return low[i].Volatility < low[j].Volatility
		}
		return low[i].Ticker < low[j].Ticker
	})
	res.LowCount = len(low)
	if len(low) > topN {
		low = low[:topN]
	}
	res.Top = low
	res.Elapsed = time.Since(start)

	s.metrics.ScreenCompleted()
	log.Info().Int("screened", res.Screened).Int("low", res.LowCount).
		Int("failed", len(res.Failures)).Dur("elapsed", res.Elapsed).Msg("screen completed")
	return res, nil
}

func dedupe(universe []string) []string {
	seen := make(map[string]bool, len(universe))
	out := make([]string, 0, len(universe))
	for _, t := range universe {
		t = risk.NormalizeTicker(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
