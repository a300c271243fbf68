package collector

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FinAlpha/internal/metrics"
	"FinAlpha/internal/model"
)

const yahooBody = `{"chart":{"result":[{"timestamp":[1735948800,1735776000,1735862400,1736121600],
"indicators":{"quote":[{"open":[3,1,2,null],"high":[3,1,2,null],"low":[3,1,2,null],
"close":[103,101,102,null],"volume":[10,10,10,null]}],
"adjclose":[{"adjclose":[51.5,50.5,51,null]}]}}],"error":null}}`

func TestYahooFetcher_ParsesAndSorts(t *testing.T) {
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		fmt.Fprint(w, yahooBody)
	}))
	defer srv.Close()

	f := NewYahooFetcher("")
	f.BaseURL = srv.URL
	bars, err := f.FetchDailyBars(context.Background(), "SPX500", model.Lookback6mo)
	require.NoError(t, err)

	assert.Equal(t, "/v8/finance/chart/^GSPC", gotPath)
	assert.Contains(t, gotQuery, "interval=1d")
	assert.Contains(t, gotQuery, "range=6mo")
	require.Len(t, bars, 3, "null bar must be skipped")
	assert.Equal(t, []float64{50.5, 51, 51.5}, model.ExtractCloses(bars))
	assert.True(t, bars[0].Time.Before(bars[1].Time))
}

func TestYahooFetcher_PartialAdjCloseUsesRawSeries(t *testing.T) {
	body := `{"chart":{"result":[{"timestamp":[1735776000,1735862400,1735948800],
"indicators":{"quote":[{"close":[101,102,103]}],
"adjclose":[{"adjclose":[50.5,null,51.5]}]}}],"error":null}}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, body)
	}))
	defer srv.Close()

	f := NewYahooFetcher("")
	f.BaseURL = srv.URL
	bars, err := f.FetchDailyBars(context.Background(), "AAPL", model.Lookback1mo)
	require.NoError(t, err)
	assert.Equal(t, []float64{101, 102, 103}, model.ExtractCloses(bars))
}

func TestYahooFetcher_ShareClassSymbol(t *testing.T) {
	f := NewYahooFetcher("")
	assert.Equal(t, "BRK-B", f.yahooSymbol("BRK.B"))
	assert.Equal(t, "AAPL", f.yahooSymbol("AAPL"))
}

func TestYahooFetcher_NotFoundIsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`)
	}))
	defer srv.Close()

	f := NewYahooFetcher("")
	f.BaseURL = srv.URL
	bars, err := f.FetchDailyBars(context.Background(), "ZZZZ", model.Lookback1y)
	require.NoError(t, err)
	assert.Empty(t, bars)
}

func TestYahooFetcher_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	f := NewYahooFetcher("")
	f.BaseURL = srv.URL
	_, err := f.FetchDailyBars(context.Background(), "AAPL", model.Lookback1y)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
	assert.Equal(t, "yahoo", apiErr.Source)
}

func TestEODHDFetcher(t *testing.T) {
	var gotPath string
	var gotFrom, gotToken string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotFrom = r.URL.Query().Get("from")
		gotToken = r.URL.Query().Get("api_token")
		if strings.Contains(r.URL.Path, "NOPE") {
			http.Error(w, "Ticker Not Found.", http.StatusNotFound)
			return
		}
		fmt.Fprint(w, `[
			{"date":"2025-01-03","open":1,"high":1,"low":1,"close":11,"adjusted_close":10.5,"volume":5},
			{"date":"2025-01-02","open":1,"high":1,"low":1,"close":10,"adjusted_close":0,"volume":5}
		]`)
	}))
	defer srv.Close()

	f := NewEODHDFetcher("secret", "", WithEODHDBaseURL(srv.URL+"/"), WithEODHDRateLimit(100))
	f.now = func() time.Time { return time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC) }

	bars, err := f.FetchDailyBars(context.Background(), "AAPL", model.Lookback3mo)
	require.NoError(t, err)
	assert.Equal(t, "/eod/AAPL.US", gotPath)
	assert.Equal(t, "2025-03-30", gotFrom)
	assert.Equal(t, "secret", gotToken)
	assert.Equal(t, []float64{10, 10.5}, model.ExtractCloses(bars))

	bars, err = f.FetchDailyBars(context.Background(), "NOPE", model.Lookback1y)
	require.NoError(t, err)
	assert.Empty(t, bars)

	_, err = f.FetchDailyBars(context.Background(), "VOD.LSE", model.LookbackMax)
	require.NoError(t, err)
	assert.Equal(t, "/eod/VOD.LSE", gotPath)
	assert.Empty(t, gotFrom)
}

func TestEODHDFetcher_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Unauthenticated", http.StatusUnauthorized)
	}))
	defer srv.Close()

	f := NewEODHDFetcher("bad", "", WithEODHDBaseURL(srv.URL))
	_, err := f.FetchDailyBars(context.Background(), "AAPL", model.Lookback1y)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
}

func TestMockFetcher_Deterministic(t *testing.T) {
	m := &MockFetcher{}
	a, err := m.FetchDailyBars(context.Background(), "AAPL", model.Lookback1y)
	require.NoError(t, err)
	b, err := m.FetchDailyBars(context.Background(), "AAPL", model.Lookback1y)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Len(t, a, 253)
	for i := 1; i < len(a); i++ {
		require.True(t, a[i-1].Time.Before(a[i].Time))
		require.Greater(t, a[i].Close, 0.0)
	}

	other, _ := m.FetchDailyBars(context.Background(), "MSFT", model.Lookback1y)
	assert.NotEqual(t, model.ExtractCloses(a), model.ExtractCloses(other))
}

func TestMockFetcher_FixedBarsAndError(t *testing.T) {
	m := &MockFetcher{Bars: map[string][]model.OHLCV{"A": {{Close: 1}}}}
	bars, err := m.FetchDailyBars(context.Background(), "A", model.Lookback1y)
	require.NoError(t, err)
	assert.Len(t, bars, 1)
	bars, err = m.FetchDailyBars(context.Background(), "B", model.Lookback1y)
	require.NoError(t, err)
	assert.Empty(t, bars)

	m = &MockFetcher{Err: errors.New("down")}
	_, err = m.FetchDailyBars(context.Background(), "A", model.Lookback1y)
	assert.EqualError(t, err, "down")
}

func TestCollector_Collect(t *testing.T) {
	c := NewCollector(&MockFetcher{})
	series, err := c.Collect(context.Background(), "AAPL", "")
	require.NoError(t, err)
	assert.Equal(t, model.Lookback1y, series.Lookback)
	assert.Equal(t, "mock", series.Source)
	assert.Len(t, series.Closes(), 253)

	c = NewCollector(&MockFetcher{Err: errors.New("boom")})
	_, err = c.Collect(context.Background(), "AAPL", model.Lookback1y)
	assert.ErrorContains(t, err, "fetch daily bars")
}

type countingFetcher struct {
	calls atomic.Int32
	err   error
	bars  []model.OHLCV
}

func (c *countingFetcher) Name() string { return "counting" }

func (c *countingFetcher) FetchDailyBars(context.Context, string, model.Lookback) ([]model.OHLCV, error) {
	c.calls.Add(1)
	return c.bars, c.err
}

func TestGuardedFetcher_TripsBreaker(t *testing.T) {
	inner := &countingFetcher{err: errors.New("503")}
	cfg := GuardConfig{RequestsPerSecond: 1000, Burst: 10, ConsecutiveFailures: 3, OpenTimeout: time.Minute}
	m := metrics.New()
	g := NewGuardedFetcher(inner, cfg, m)

	for i := 0; i < 3; i++ {
		_, err := g.FetchDailyBars(context.Background(), "AAPL", model.Lookback1y)
		require.Error(t, err)
	}
	assert.Equal(t, gobreaker.StateOpen, g.State())

	_, err := g.FetchDailyBars(context.Background(), "AAPL", model.Lookback1y)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, int32(3), inner.calls.Load(), "open breaker must not call the source")
}

func TestGuardedFetcher_PassesThrough(t *testing.T) {
	inner := &countingFetcher{bars: []model.OHLCV{{Close: 1}, {Close: 2}}}
	g := NewGuardedFetcher(inner, DefaultGuardConfig(), nil)
	bars, err := g.FetchDailyBars(context.Background(), "AAPL", model.Lookback1y)
	require.NoError(t, err)
	assert.Len(t, bars, 2)
	assert.Equal(t, "counting", g.Name())
}

func TestGuardedFetcher_ContextCancelled(t *testing.T) {
	inner := &countingFetcher{}
	g := NewGuardedFetcher(inner, GuardConfig{RequestsPerSecond: 0.001, Burst: 1}, nil)
	_, _ = g.FetchDailyBars(context.Background(), "A", model.Lookback1y) // uses the only token

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := g.FetchDailyBars(ctx, "A", model.Lookback1y)
	assert.ErrorContains(t, err, "rate limit")
	assert.Equal(t, int32(1), inner.calls.Load())
}

func TestGuardedFetcher_CallerCancellationKeepsBreakerClosed(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"canceled", fmt.Errorf("yahoo request: %w", context.Canceled)},
		{"deadline", fmt.Errorf("yahoo request: %w", context.DeadlineExceeded)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inner := &countingFetcher{err: tt.err}
			cfg := GuardConfig{RequestsPerSecond: 1000, Burst: 10, ConsecutiveFailures: 3, OpenTimeout: time.Minute}
			g := NewGuardedFetcher(inner, cfg, nil)

			for i := 0; i < 5; i++ {
				_, err := g.FetchDailyBars(context.Background(), "AAPL", model.Lookback1y)
				require.ErrorIs(t, err, tt.err)
			}
			assert.Equal(t, gobreaker.StateClosed, g.State())

			inner.err = nil
			inner.bars = []model.OHLCV{{Close: 1}, {Close: 2}}
			bars, err := g.FetchDailyBars(context.Background(), "AAPL", model.Lookback1y)
			require.NoError(t, err)
			assert.Len(t, bars, 2)
			assert.Equal(t, int32(6), inner.calls.Load())
		})
	}
}

func TestCachedFetcher(t *testing.T) {
	inner := &countingFetcher{bars: []model.OHLCV{{Time: time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), Close: 10}}}
	c := NewCachedFetcher(inner, NewMemoryCache(), time.Hour, nil)

	first, err := c.FetchDailyBars(context.Background(), "AAPL", model.Lookback1y)
	require.NoError(t, err)
	second, err := c.FetchDailyBars(context.Background(), "AAPL", model.Lookback1y)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, model.ExtractCloses(first), model.ExtractCloses(second))
	assert.True(t, first[0].Time.Equal(second[0].Time))
	assert.Equal(t, int32(1), inner.calls.Load())

	_, _ = c.FetchDailyBars(context.Background(), "AAPL", model.Lookback6mo)
	assert.Equal(t, int32(2), inner.calls.Load(), "different window is a different key")
}

func TestCachedFetcher_DoesNotCacheEmpty(t *testing.T) {
	inner := &countingFetcher{}
	c := NewCachedFetcher(inner, NewMemoryCache(), time.Hour, nil)
	_, _ = c.FetchDailyBars(context.Background(), "X", model.Lookback1y)
	_, _ = c.FetchDailyBars(context.Background(), "X", model.Lookback1y)
	assert.Equal(t, int32(2), inner.calls.Load())
}

func TestMemoryCache_Expiry(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := &memoryCache{m: make(map[string]entry), now: func() time.Time { return now }}
	c.Set(context.Background(), "k", []byte("v"), time.Minute)

	v, ok := c.Get(context.Background(), "k")
	require.True(t, ok)
	assert.Equal(t, "v", string(v))

	now = now.Add(2 * time.Minute)
	_, ok = c.Get(context.Background(), "k")
	assert.False(t, ok)
}

func TestMemoryCache_SetSweepsExpired(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := &memoryCache{m: make(map[string]entry), now: func() time.Time { return now }}
	ctx := context.Background()
	c.Set(ctx, "yahoo:AAPL:1y", []byte("a"), time.Minute)
	c.Set(ctx, "yahoo:MSFT:1y", []byte("b"), time.Minute)
	c.Set(ctx, "yahoo:KO:1y", []byte("c"), time.Hour)
	require.Len(t, c.m, 3)

	now = now.Add(2 * time.Minute)
	c.Set(ctx, "yahoo:PG:1y", []byte("d"), time.Minute)
	assert.Len(t, c.m, 2)
	assert.Contains(t, c.m, "yahoo:KO:1y")
	assert.Contains(t, c.m, "yahoo:PG:1y")
}

func TestRedisCache(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	c := NewRedisCache(addr, "", 0)
	defer c.Close()
	require.NoError(t, c.Ping(context.Background()))

	key := fmt.Sprintf("finalpha:test:%d", time.Now().UnixNano())
	c.Set(context.Background(), key, []byte("bars"), time.Minute)
	v, ok := c.Get(context.Background(), key)
	require.True(t, ok)
	assert.Equal(t, "bars", string(v))
}
