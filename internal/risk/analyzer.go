// Package risk computes single-security risk statistics from daily closes.
//
// The analyzer is pure apart from the price fetch: it holds no mutable state,
// never logs, and is safe for concurrent use.
package risk

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"FinAlpha/internal/calculator"
	"FinAlpha/internal/model"
)

// Config holds the analyzer's thresholds and constants.
type Config struct {
	HighThreshold         float64 `yaml:"high_threshold"`
	MediumThreshold       float64 `yaml:"medium_threshold"`
	TradingDaysPerYear    int     `yaml:"trading_days_per_year"`
	MinReturnObservations int     `yaml:"min_return_observations"`
}

// DefaultConfig returns the standard thresholds: HIGH above 30% annualized
// volatility, MEDIUM above 15%, 252 trading days, at least 30 daily returns.
func DefaultConfig() Config {
	return Config{
		HighThreshold:         0.30,
		MediumThreshold:       0.15,
		TradingDaysPerYear:    252,
		MinReturnObservations: 30,
	}
}

// Validate checks the configuration for internal consistency.
func (c Config) Validate() error {
	if c.TradingDaysPerYear <= 0 {
		return errors.New("trading_days_per_year must be positive")
	}
	if c.MinReturnObservations < 2 {
		return errors.New("min_return_observations must be at least 2")
	}
	if c.MediumThreshold < 0 || c.HighThreshold < 0 {
		return errors.New("risk thresholds must not be negative")
	}
	if c.MediumThreshold > c.HighThreshold {
		return fmt.Errorf("medium_threshold %.4f exceeds high_threshold %.4f", c.MediumThreshold, c.HighThreshold)
	}
	return nil
}

// PriceSource supplies ascending daily bars for a symbol.
type PriceSource interface {
	FetchDailyBars(ctx context.Context, symbol string, lookback model.Lookback) ([]model.OHLCV, error)
}

// Analyzer turns a price history into RiskMetrics.
type Analyzer struct {
	cfg    Config
	source PriceSource
	now    func() time.Time
}

// NewAnalyzer creates an Analyzer. source may be nil when only AnalyzeSeries is used.
func NewAnalyzer(cfg Config, source PriceSource) (*Analyzer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("risk config: %w", err)
	}
	return &Analyzer{cfg: cfg, source: source, now: time.Now}, nil
}

// Config returns the analyzer's configuration.
func (a *Analyzer) Config() Config { return a.cfg }

// NormalizeTicker trims and upper-cases a symbol. It does not check that the symbol exists.
func NormalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}

// Analyze fetches the lookback window for ticker and analyzes its closes.
// Fetch failures are wrapped in *AnalysisError and never retried here.
func (a *Analyzer) Analyze(ctx context.Context, ticker string, lookback model.Lookback) (*model.RiskMetrics, error) {
	symbol := NormalizeTicker(ticker)
	if symbol == "" {
		return nil, &AnalysisError{Ticker: ticker, Err: ErrEmptyTicker}
	}
	if a.source == nil {
		return nil, &AnalysisError{Ticker: symbol, Err: errors.New("no price source configured")}
	}
	if lookback == "" {
		lookback = model.DefaultLookback
	}

	bars, err := a.source.FetchDailyBars(ctx, symbol, lookback)
	if err != nil {
		return nil, &AnalysisError{Ticker: symbol, Err: err}
	}

	m, err := a.AnalyzeSeries(symbol, model.ExtractCloses(bars))
	if err != nil {
		return nil, err
	}
	m.AnalyzedAt = a.now()
	return m, nil
}

// AnalyzeSeries computes RiskMetrics from ascending closes. It is deterministic:
// identical input gives identical output.
func (a *Analyzer) AnalyzeSeries(ticker string, closes []float64) (*model.RiskMetrics, error) {
	symbol := NormalizeTicker(ticker)
	if len(closes) == 0 {
		return nil, &NoDataError{Ticker: symbol}
	}
	for i, c := range closes {
		if math.IsNaN(c) || math.IsInf(c, 0) || c <= 0 {
			return nil, &AnalysisError{Ticker: symbol, Err: fmt.Errorf("%w: close[%d]=%v", ErrInvalidPrice, i, c)}
		}
	}
	if have := len(closes) - 1; have < a.cfg.MinReturnObservations {
		return nil, &InsufficientDataError{Ticker: symbol, Have: have, Need: a.cfg.MinReturnObservations}
	}

	returns, err := calculator.SimpleReturns(closes)
	if err != nil {
		return nil, &AnalysisError{Ticker: symbol, Err: err}
	}

	days := a.cfg.TradingDaysPerYear
	volatility, err := calculator.AnnualizedVolatility(returns, days)
	if err != nil {
		return nil, &AnalysisError{Ticker: symbol, Err: err}
	}
	var95, err := calculator.Percentile(returns, 5)
	if err != nil {
		return nil, &AnalysisError{Ticker: symbol, Err: err}
	}
	var99, err := calculator.Percentile(returns, 1)
	if err != nil {
		return nil, &AnalysisError{Ticker: symbol, Err: err}
	}
	maxDD, err := calculator.MaxDrawdown(returns)
	if err != nil {
		return nil, &AnalysisError{Ticker: symbol, Err: err}
	}
	annualReturn, err := calculator.AnnualizedReturn(returns, days)
	if err != nil {
		return nil, &AnalysisError{Ticker: symbol, Err: err}
	}

	current := closes[len(closes)-1]
	high, low, _ := calculator.PriceRange(closes)
	position, _ := calculator.RangePosition(current, high, low)

	level := a.cfg.Classify(volatility)
	return &model.RiskMetrics{
		Ticker:         symbol,
		CurrentPrice:   current,
		Volatility:     volatility,
		VaR95:          var95,
		VaR99:          var99,
		MaxDrawdown:    maxDD,
		SharpeRatio:    calculator.SharpeRatio(annualReturn, volatility),
		RiskLevel:      level,
		RiskColor:      level.Color(),
		Observations:   len(returns),
		PeriodHigh:     high,
		PeriodLow:      low,
		PeriodPosition: position,
	}, nil
}
