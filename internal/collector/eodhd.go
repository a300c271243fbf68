package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"FinAlpha/internal/model"
)

const (
	// DefaultEODHDBaseURL is the base URL for the EODHD API.
	DefaultEODHDBaseURL = "https://eodhd.com/api"

	// DefaultEODHDExchange is appended to symbols without an exchange suffix.
	DefaultEODHDExchange = "US"

	defaultEODHDRateLimit = 10
)

// EODHDFetcher implements Fetcher using the EODHD end-of-day REST API.
type EODHDFetcher struct {
	baseURL  string
	apiKey   string
	exchange string
	client   *http.Client
	limiter  *rate.Limiter
	now      func() time.Time
}

// EODHDOption configures an EODHDFetcher.
type EODHDOption func(*EODHDFetcher)

// WithEODHDBaseURL overrides the API host.
func WithEODHDBaseURL(baseURL string) EODHDOption {
	return func(f *EODHDFetcher) {
		f.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithEODHDHTTPClient sets a custom HTTP client.
func WithEODHDHTTPClient(c *http.Client) EODHDOption {
	return func(f *EODHDFetcher) {
		f.client = c
	}
}

// WithEODHDExchange sets the default exchange suffix.
func WithEODHDExchange(exchange string) EODHDOption {
	return func(f *EODHDFetcher) {
		f.exchange = strings.ToUpper(exchange)
	}
}

// WithEODHDRateLimit sets requests per second.
func WithEODHDRateLimit(rps int) EODHDOption {
	return func(f *EODHDFetcher) {
		f.limiter = rate.NewLimiter(rate.Limit(rps), rps)
	}
}

// NewEODHDFetcher creates a fetcher authenticated with apiKey.
func NewEODHDFetcher(apiKey, proxyURL string, opts ...EODHDOption) *EODHDFetcher {
	f := &EODHDFetcher{
		baseURL:  DefaultEODHDBaseURL,
		apiKey:   apiKey,
		exchange: DefaultEODHDExchange,
		client:   newHTTPClient(proxyURL),
		limiter:  rate.NewLimiter(rate.Limit(defaultEODHDRateLimit), defaultEODHDRateLimit),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *EODHDFetcher) Name() string { return "eodhd" }

// eodBar is the JSON shape of one EODHD end-of-day row.
type eodBar struct {
	Date          string  `json:"date"`
	Open          float64 `json:"open"`
	High          float64 `json:"high"`
	Low           float64 `json:"low"`
	Close         float64 `json:"close"`
	AdjustedClose float64 `json:"adjusted_close"`
	Volume        float64 `json:"volume"`
}

func (f *EODHDFetcher) eodSymbol(symbol string) string {
	if strings.Contains(symbol, ".") {
		return symbol
	}
	return symbol + "." + f.exchange
}

// FetchDailyBars returns adjusted daily bars from the lookback start until today.
func (f *EODHDFetcher) FetchDailyBars(ctx context.Context, symbol string, lookback model.Lookback) ([]model.OHLCV, error) {
	if lookback == "" {
		lookback = model.DefaultLookback
	}
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("eodhd rate limit: %w", err)
	}

	params := url.Values{}
	params.Set("api_token", f.apiKey)
	params.Set("fmt", "json")
	params.Set("period", "d")
	params.Set("order", "a")
	if from := lookback.Start(f.now()); !from.IsZero() {
		params.Set("from", from.Format("2006-01-02"))
	}
	endpoint := fmt.Sprintf("%s/eod/%s?%s", f.baseURL, url.PathEscape(f.eodSymbol(symbol)), params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("eodhd fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return []model.OHLCV{}, nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &APIError{Source: "eodhd", StatusCode: resp.StatusCode, Body: string(body)}
	}

	var rows []eodBar
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("eodhd decode: %w", err)
	}

	bars := make([]model.OHLCV, 0, len(rows))
	for _, r := range rows {
		t, err := time.Parse("2006-01-02", r.Date)
		if err != nil {
			return nil, fmt.Errorf("eodhd date %q: %w", r.Date, err)
		}
		c := r.Close
		if r.AdjustedClose > 0 {
			c = r.AdjustedClose
		}
		if c == 0 {
			continue
		}
		bars = append(bars, model.OHLCV{
			Time:   t,
			Open:   r.Open,
			High:   r.High,
			Low:    r.Low,
			Close:  c,
			Volume: r.Volume,
		})
	}
	// Ensure chronological order
	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}
