package model

import "time"

// OHLCV represents a single daily bar.
type OHLCV struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// PriceSeries holds the daily history fetched for one symbol, ascending by time.
type PriceSeries struct {
	Symbol    string
	Lookback  Lookback
	Source    string
	Bars      []OHLCV
	FetchedAt time.Time
}

// Closes returns the close of every bar in order.
func (s *PriceSeries) Closes() []float64 {
	return ExtractCloses(s.Bars)
}

// Last returns the most recent bar, or false when the series is empty.
func (s *PriceSeries) Last() (OHLCV, bool) {
	if len(s.Bars) == 0 {
		return OHLCV{}, false
	}
	return s.Bars[len(s.Bars)-1], true
}

// ExtractCloses copies the close prices out of bars.
func ExtractCloses(bars []OHLCV) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}
