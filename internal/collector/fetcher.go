package collector

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"FinAlpha/internal/model"
)

// Fetcher defines the interface for fetching daily price history.
// Bars are returned ascending by time. A symbol without data yields an
// empty slice and a nil error.
type Fetcher interface {
	FetchDailyBars(ctx context.Context, symbol string, lookback model.Lookback) ([]model.OHLCV, error)
	Name() string
}

// APIError is returned when a provider answers with a non-200 status.
type APIError struct {
	Source     string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: status %d, body: %s", e.Source, e.StatusCode, e.Body)
}

// newHTTPClient builds a client with a 30s timeout and optional proxy.
func newHTTPClient(proxyURL string) *http.Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &http.Client{
		Timeout:   30 * time.Second,
		Transport: transport,
	}
}
