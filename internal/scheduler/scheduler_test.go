package scheduler

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FinAlpha/internal/collector"
	"FinAlpha/internal/model"
	"FinAlpha/internal/recorder"
	"FinAlpha/internal/risk"
	"FinAlpha/internal/screener"
)

type captureSender struct {
	mu   sync.Mutex
	msgs []string
}

func (c *captureSender) SendWithRetry(_ context.Context, text string, _ int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, text)
	return nil
}

func (c *captureSender) all() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.msgs...)
}

func bars(closes ...float64) []model.OHLCV {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]model.OHLCV, len(closes))
	for i, c := range closes {
		out[i] = model.OHLCV{Time: start.AddDate(0, 0, i), Close: c}
	}
	return out
}

func flat(n int) []model.OHLCV {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = 50
	}
	return bars(closes...)
}

func choppy(n int) []model.OHLCV {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = 100
		if i%2 == 1 {
			closes[i] = 110
		}
	}
	return bars(closes...)
}

type fixture struct {
	sched  *Scheduler
	source *collector.MockFetcher
	sender *captureSender
	rec    *recorder.SQLiteRecorder
}

func newFixture(t *testing.T, watchlist ...string) *fixture {
	t.Helper()
	src := &collector.MockFetcher{Bars: map[string][]model.OHLCV{
		"KO":   flat(60),
		"TSLA": choppy(60),
	}}
	an, err := risk.NewAnalyzer(risk.DefaultConfig(), src)
	require.NoError(t, err)
	rec, err := recorder.NewSQLiteRecorder(filepath.Join(t.TempDir(), "h.db"))
	require.NoError(t, err)
	t.Cleanup(func() { rec.Close() })

	sender := &captureSender{}
	sc := screener.New(an, 2, model.Lookback1y, nil)
	s := NewScheduler(context.Background(), an, sc, sender, rec, Options{
		Watchlist: watchlist,
		Universe:  []string{"KO", "TSLA", "NOPE"},
		TopN:      5,
		Source:    "mock",
	})
	return &fixture{sched: s, source: src, sender: sender, rec: rec}
}

func TestRunDaily_RecordsAndAlertsOnChange(t *testing.T) {
	f := newFixture(t, "ko", "TSLA", "NOPE")

	sum := f.sched.RunDaily(context.Background())
	assert.Equal(t, 2, sum.Analyzed)
	assert.Empty(t, sum.Changed, "first run has nothing to compare with")
	assert.Equal(t, []string{"NOPE"}, sum.Failed)

	latest, err := f.rec.LatestAnalysis("KO")
	require.NoError(t, err)
	assert.Equal(t, model.RiskLow, latest.Metrics.RiskLevel)
	n, err := f.rec.FailureCount("NOPE")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	msgs := f.sender.all()
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "Daily check failed for: NOPE")

	f.source.Bars["KO"] = choppy(60)
	sum = f.sched.RunDaily(context.Background())
	assert.Equal(t, []string{"KO"}, sum.Changed)

	msgs = f.sender.all()
	require.Len(t, msgs, 3)
	assert.Contains(t, msgs[1], "KO risk level changed")
	assert.Contains(t, msgs[1], "LOW → 🔴 HIGH")
}

func TestRunWeekly(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.sched.RunWeekly(context.Background()))

	msgs := f.sender.all()
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "Top 1 Low-Risk Stocks")
	assert.Contains(t, msgs[0], "1. <b>KO</b>")
	assert.Contains(t, msgs[0], "1 failed (NOPE)")
}

type failingScreener struct{}

func (failingScreener) Screen(context.Context, []string, int) (*screener.Result, error) {
	return nil, errors.New("upstream down")
}

func TestRunWeekly_Error(t *testing.T) {
	f := newFixture(t)
	f.sched.Screener = failingScreener{}
	assert.Error(t, f.sched.RunWeekly(context.Background()))
	assert.Contains(t, f.sender.all()[0], "Weekly screen failed: upstream down")
}

func TestHandleCommand(t *testing.T) {
	f := newFixture(t, "KO", "TSLA")
	ctx := context.Background()

	reply := f.sched.HandleCommand(ctx, "/analyze ko")
	assert.Contains(t, reply, "<b>KO</b>")
	assert.Contains(t, reply, "Risk Level: LOW")
	_, err := f.rec.LatestAnalysis("KO")
	assert.NoError(t, err, "chat analyses are recorded")

	reply = f.sched.HandleCommand(ctx, "/analyze@FinAlphaBot nope")
	assert.Contains(t, reply, "<b>NOPE</b>")
	assert.Contains(t, reply, "no data found")

	assert.Equal(t, "Please enter a ticker symbol", f.sched.HandleCommand(ctx, "/analyze"))

	reply = f.sched.HandleCommand(ctx, "/watchlist")
	assert.Contains(t, reply, "• KO: LOW")
	assert.Contains(t, reply, "• TSLA: not analyzed yet")

	assert.Contains(t, f.sched.HandleCommand(ctx, "/screen"), "Low-Risk Stocks")
	assert.True(t, strings.HasPrefix(f.sched.HandleCommand(ctx, "hello"), "Commands:"))
	assert.True(t, strings.HasPrefix(f.sched.HandleCommand(ctx, ""), "Commands:"))
}

func TestRegisterAll(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.sched.RegisterAll("0 30 22 * * 1-5", "0 0 8 * * 1"))
	assert.Len(t, f.sched.Cron.Entries(), 2)
	assert.Error(t, f.sched.RegisterAll("not a cron", "0 0 8 * * 1"))
}
