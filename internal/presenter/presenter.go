// Package presenter drives one interactive analysis session: it validates
// input, rejects overlapping submissions and turns analyzer output into
// display-ready views.
package presenter

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"FinAlpha/internal/metrics"
	"FinAlpha/internal/model"
	"FinAlpha/internal/risk"
)

// State is the session state.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateSuccess
	StateError
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateSuccess:
		return "success"
	case StateError:
		return "error"
	default:
		return "idle"
	}
}

// Style tells the renderer how to present a view.
type Style string

const (
	StyleInfo    Style = "info"
	StyleWarning Style = "warning"
	StyleSuccess Style = "success"
	StyleError   Style = "error"
)

const (
	MsgEmptyTicker = "Please enter a ticker symbol"
	MsgLoading     = "Analyzing stock data...\n\nFetching market data and calculating risk metrics."
	MsgBusy        = "An analysis is already running. Please wait."
)

// ErrBusy is set on the view returned for a submission made while loading.
var ErrBusy = errors.New("analysis already in progress")

// View is everything a renderer needs for one screen update.
type View struct {
	State     State
	Ticker    string
	Text      string // full report or message
	Summary   string // "Risk Level: X" on success, otherwise Text
	Style     Style
	RiskColor string
	Metrics   *model.RiskMetrics
	Err       error
}

// Analyzer is the subset of risk.Analyzer the presenter needs.
type Analyzer interface {
	Analyze(ctx context.Context, ticker string, lookback model.Lookback) (*model.RiskMetrics, error)
}

// TransitionFunc observes state changes. It is called without locks held.
type TransitionFunc func(from, to State, v View)

// Presenter is safe for concurrent use. Only one analysis runs at a time.
type Presenter struct {
	analyzer Analyzer
	lookback model.Lookback
	metrics  *metrics.Metrics

	mu        sync.Mutex
	state     State
	last      View
	listeners []TransitionFunc
}

// New creates a Presenter in the idle state. m may be nil.
func New(a Analyzer, lookback model.Lookback, m *metrics.Metrics) *Presenter {
	if lookback == "" {
		lookback = model.DefaultLookback
	}
	return &Presenter{
		analyzer: a,
		lookback: lookback,
		metrics:  m,
		last:     View{State: StateIdle, Style: StyleInfo},
	}
}

// OnTransition registers fn for every subsequent state change.
func (p *Presenter) OnTransition(fn TransitionFunc) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listeners = append(p.listeners, fn)
}

// State returns the current state.
func (p *Presenter) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Last returns the most recently produced view.
func (p *Presenter) Last() View {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}

func (p *Presenter) notify(from, to State, v View) {
	p.mu.Lock()
	ls := append([]TransitionFunc(nil), p.listeners...)
	p.mu.Unlock()
	for _, fn := range ls {
		fn(from, to, v)
	}
}

// Submit analyzes ticker and returns the resulting view. Blank input yields a
// warning without contacting the analyzer; a submission while another is
// loading is rejected with ErrBusy.
func (p *Presenter) Submit(ctx context.Context, ticker string) View {
	symbol := risk.NormalizeTicker(ticker)
	if symbol == "" {
		v := View{State: StateIdle, Text: MsgEmptyTicker, Summary: MsgEmptyTicker, Style: StyleWarning}
		p.mu.Lock()
		p.last = v
		p.mu.Unlock()
		return v
	}

	p.mu.Lock()
	if p.state == StateLoading {
		p.mu.Unlock()
		return View{State: StateLoading, Ticker: symbol, Text: MsgBusy, Summary: MsgBusy, Style: StyleWarning, Err: ErrBusy}
	}
	from := p.state
	p.state = StateLoading
	loading := View{State: StateLoading, Ticker: symbol, Text: MsgLoading, Summary: MsgLoading, Style: StyleInfo}
	p.last = loading
	p.mu.Unlock()
	p.notify(from, StateLoading, loading)

	start := time.Now()
	m, err := p.analyzer.Analyze(ctx, symbol, p.lookback)
	if err == nil && m == nil {
		err = fmt.Errorf("unable to analyze %s", symbol)
	}
	p.metrics.ObserveAnalysis(risk.Kind(err), time.Since(start))

	v := p.render(symbol, m, err)
	if err != nil {
		log.Debug().Str("ticker", symbol).Str("kind", risk.Kind(err)).Err(err).Msg("analysis failed")
	}

	p.mu.Lock()
	p.state = v.State
	p.last = v
	p.mu.Unlock()
	p.notify(StateLoading, v.State, v)

	p.mu.Lock()
	p.state = StateIdle
	p.mu.Unlock()
	p.notify(v.State, StateIdle, v)
	return v
}

func (p *Presenter) render(symbol string, m *model.RiskMetrics, err error) View {
	if err != nil {
		text := risk.FormatError(symbol, err)
		return View{State: StateError, Ticker: symbol, Text: text, Summary: text, Style: StyleError, Err: err}
	}
	text := risk.FormatResults(m)
	summary := text
	if lvl, ok := risk.RiskLevelFromText(text); ok {
		summary = "Risk Level: " + lvl.String()
	}
	return View{
		State:     StateSuccess,
		Ticker:    symbol,
		Text:      text,
		Summary:   summary,
		Style:     StyleSuccess,
		RiskColor: m.RiskColor,
		Metrics:   m,
	}
}
