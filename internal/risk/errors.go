package risk

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyTicker is returned when no symbol was supplied.
	ErrEmptyTicker = errors.New("ticker is required")
	// ErrInvalidPrice marks a close that is not a finite positive number.
	ErrInvalidPrice = errors.New("invalid price in series")
)

// NoDataError means the price source returned an empty series.
type NoDataError struct {
	Ticker string
}

func (e *NoDataError) Error() string {
	return fmt.Sprintf("no data found for this ticker (%s); it may not exist", e.Ticker)
}

// InsufficientDataError means fewer daily returns were available than required.
type InsufficientDataError struct {
	Ticker string
	Have   int
	Need   int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data for analysis of %s: need at least %d daily returns, have %d",
		e.Ticker, e.Need, e.Have)
}

// AnalysisError wraps any other failure, typically from the price source.
type AnalysisError struct {
	Ticker string
	Err    error
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("analysis failed for %s: %v", e.Ticker, e.Err)
}

func (e *AnalysisError) Unwrap() error { return e.Err }

// Kind names the error category for API responses and metrics labels.
func Kind(err error) string {
	var noData *NoDataError
	var insufficient *InsufficientDataError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &noData):
		return "no_data"
	case errors.As(err, &insufficient):
		return "insufficient_data"
	default:
		return "analysis"
	}
}
