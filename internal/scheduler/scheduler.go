package scheduler

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"FinAlpha/internal/model"
	"FinAlpha/internal/notifier"
	"FinAlpha/internal/presenter"
	"FinAlpha/internal/recorder"
	"FinAlpha/internal/risk"
	"FinAlpha/internal/screener"
)

// Analyzer runs one risk analysis.
type Analyzer interface {
	Analyze(ctx context.Context, ticker string, lookback model.Lookback) (*model.RiskMetrics, error)
}

// Screener runs a low-risk screen.
type Screener interface {
	Screen(ctx context.Context, universe []string, topN int) (*screener.Result, error)
}

// Sender delivers notifications.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Options are the lists and knobs the jobs work on.
type Options struct {
	Watchlist []string
	Universe  []string
	TopN      int
	Lookback  model.Lookback
	Source    string
}

// Scheduler manages the cron jobs and answers chat commands.
type Scheduler struct {
	Cron      *cron.Cron
	Analyzer  Analyzer
	Screener  Screener
	Presenter *presenter.Presenter
	Notifier  Sender
	Recorder  recorder.Recorder
	Opts      Options
	Ctx       context.Context
}

// DailySummary describes one watchlist run.
type DailySummary struct {
	Analyzed int
	Changed  []string
	Failed   []string
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, an Analyzer, sc Screener, tn Sender, rec recorder.Recorder, opts Options) *Scheduler {
	if opts.Lookback == "" {
		opts.Lookback = model.DefaultLookback
	}
	if opts.TopN <= 0 {
		opts.TopN = 5
	}
	if len(opts.Universe) == 0 {
		opts.Universe = screener.DefaultUniverse
	}
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds()),
		Analyzer:  an,
		Screener:  sc,
		Presenter: presenter.New(an, opts.Lookback, nil),
		Notifier:  tn,
		Recorder:  rec,
		Opts:      opts,
		Ctx:       ctx,
	}
}

// RegisterAll registers the daily watchlist job and the weekly screen.
func (s *Scheduler) RegisterAll(dailyCron, weeklyCron string) error {
	if _, err := s.Cron.AddFunc(dailyCron, func() { s.RunDaily(s.Ctx) }); err != nil {
		return fmt.Errorf("register daily task: %w", err)
	}
	if _, err := s.Cron.AddFunc(weeklyCron, func() {
		if err := s.RunWeekly(s.Ctx); err != nil {
			log.Error().Err(err).Msg("weekly screen")
		}
	}); err != nil {
		return fmt.Errorf("register weekly task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Info().Int("jobs", len(s.Cron.Entries())).Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Info().Msg("scheduler stopped")
}

// RunDaily analyzes every watchlist ticker, records the outcome and alerts
// when a ticker's level differs from its last recorded level.
func (s *Scheduler) RunDaily(ctx context.Context) DailySummary {
	log.Info().Int("tickers", len(s.Opts.Watchlist)).Msg("running daily watchlist")
	var sum DailySummary

	for _, raw := range s.Opts.Watchlist {
		if ctx.Err() != nil {
			break
		}
		ticker := risk.NormalizeTicker(raw)
		m, err := s.Analyzer.Analyze(ctx, ticker, s.Opts.Lookback)
		if err != nil {
			log.Warn().Str("ticker", ticker).Err(err).Msg("daily analysis failed")
			sum.Failed = append(sum.Failed, ticker)
			s.recordFailure(ticker, err)
			continue
		}
		sum.Analyzed++

		prev, perr := s.Recorder.LatestAnalysis(ticker)
		if perr != nil && !errors.Is(perr, recorder.ErrNotFound) {
			log.Error().Str("ticker", ticker).Err(perr).Msg("load previous analysis")
		}
		s.recordAnalysis(m)

		if perr == nil && prev.Metrics.RiskLevel != m.RiskLevel {
			sum.Changed = append(sum.Changed, ticker)
			s.trySend(ctx, notifier.FormatRiskChange(prev.Metrics.RiskLevel, prev.Timestamp, m))
		}
	}

	if len(sum.Failed) > 0 {
		s.trySend(ctx, fmt.Sprintf("❌ Daily check failed for: %s", html.EscapeString(strings.Join(sum.Failed, ", "))))
	}
	log.Info().Int("analyzed", sum.Analyzed).Int("changed", len(sum.Changed)).
		Int("failed", len(sum.Failed)).Msg("daily watchlist done")
	return sum
}

// RunWeekly screens the universe and sends the report.
func (s *Scheduler) RunWeekly(ctx context.Context) error {
	log.Info().Msg("running weekly screen")
	res, err := s.Screener.Screen(ctx, s.Opts.Universe, s.Opts.TopN)
	if err != nil {
		s.trySend(ctx, fmt.Sprintf("❌ Weekly screen failed: %s", html.EscapeString(err.Error())))
		return err
	}
	s.trySend(ctx, notifier.FormatScreenReport(res))
	return nil
}

const helpText = "Commands:\n" +
	"• /analyze TICKER\n" +
	"• /screen\n" +
	"• /watchlist"

// HandleCommand processes a chat command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return helpText
	}
	// Group chats address commands as /cmd@botname.
	cmd, _, _ := strings.Cut(strings.ToLower(fields[0]), "@")

	switch cmd {
	case "/analyze":
		arg := ""
		if len(fields) > 1 {
			arg = fields[1]
		}
		v := s.Presenter.Submit(ctx, arg)
		switch v.Style {
		case presenter.StyleSuccess:
			s.recordAnalysis(v.Metrics)
			return notifier.FormatAnalysisHTML(v.Metrics)
		case presenter.StyleError:
			s.recordFailure(v.Ticker, v.Err)
			return notifier.FormatAnalysisError(v.Ticker, v.Err)
		default:
			return html.EscapeString(v.Text)
		}
	case "/screen":
		res, err := s.Screener.Screen(ctx, s.Opts.Universe, s.Opts.TopN)
		if err != nil {
			return "❌ Screen failed: " + html.EscapeString(err.Error())
		}
		return notifier.FormatScreenReport(res)
	case "/watchlist":
		return s.watchlistStatus()
	default:
		return helpText
	}
}

func (s *Scheduler) watchlistStatus() string {
	if len(s.Opts.Watchlist) == 0 {
		return "Watchlist is empty."
	}
	var b strings.Builder
	b.WriteString("👀 <b>Watchlist</b>\n\n")
	for _, raw := range s.Opts.Watchlist {
		ticker := risk.NormalizeTicker(raw)
		rec, err := s.Recorder.LatestAnalysis(ticker)
		if err != nil {
			b.WriteString(fmt.Sprintf("• %s: not analyzed yet\n", html.EscapeString(ticker)))
			continue
		}
		b.WriteString(fmt.Sprintf("• %s: %s (vol %.1f%%, %s)\n", html.EscapeString(ticker),
			rec.Metrics.RiskLevel, rec.Metrics.Volatility*100, rec.Timestamp.Format("2006-01-02")))
	}
	return strings.TrimRight(b.String(), "\n")
}

func (s *Scheduler) recordAnalysis(m *model.RiskMetrics) {
	if err := s.Recorder.RecordAnalysis(&recorder.AnalysisRecord{
		Timestamp: m.AnalyzedAt,
		Lookback:  s.Opts.Lookback,
		Source:    s.Opts.Source,
		Metrics:   *m,
	}); err != nil {
		log.Error().Str("ticker", m.Ticker).Err(err).Msg("record analysis")
	}
}

func (s *Scheduler) recordFailure(ticker string, cause error) {
	if err := s.Recorder.RecordFailure(&recorder.FailureRecord{
		Timestamp: time.Now(),
		Ticker:    ticker,
		Lookback:  s.Opts.Lookback,
		Source:    s.Opts.Source,
		Kind:      risk.Kind(cause),
		Message:   cause.Error(),
	}); err != nil {
		log.Error().Str("ticker", ticker).Err(err).Msg("record failure")
	}
}

func (s *Scheduler) trySend(ctx context.Context, text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendWithRetry(ctx, text, 3); err != nil {
		log.Error().Err(err).Msg("send notification")
	}
}
