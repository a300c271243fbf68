package collector

import (
	"context"
	"hash/fnv"
	"math"
	"math/rand/v2"
	"time"

	"FinAlpha/internal/model"
)

// MockFetcher returns controllable data for development and testing.
// With no Bars or Err set it generates a deterministic random walk per symbol.
type MockFetcher struct {
	Price float64
	Bars  map[string][]model.OHLCV
	Err   error
	End   time.Time
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchDailyBars(_ context.Context, symbol string, lookback model.Lookback) ([]model.OHLCV, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Bars != nil {
		bars, ok := m.Bars[symbol]
		if !ok {
			return []model.OHLCV{}, nil
		}
		return append([]model.OHLCV(nil), bars...), nil
	}
	price := m.Price
	if price <= 0 {
		price = 100
	}
	end := m.End
	if end.IsZero() {
		end = time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	}
	return generateMockBars(symbol, price, lookback.ApproxTradingDays()+1, end), nil
}

// generateMockBars walks from basePrice with a per-symbol daily volatility
// between 0.4% and 3%, so screens see a mix of risk levels.
func generateMockBars(symbol string, basePrice float64, count int, end time.Time) []model.OHLCV {
	h := fnv.New64a()
	h.Write([]byte(symbol))
	seed := h.Sum64()
	rng := rand.New(rand.NewPCG(seed, seed>>7))
	dailyVol := 0.004 + 0.026*float64(seed%1000)/1000

	bars := make([]model.OHLCV, count)
	p := basePrice
	for i := 0; i < count; i++ {
		if i > 0 {
			p *= math.Exp(0.0003 + dailyVol*rng.NormFloat64())
		}
		bars[i] = model.OHLCV{
			Time:   end.AddDate(0, 0, -(count - 1 - i)),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		}
	}
	return bars
}
