package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Lookback is the history window requested from a price source.
type Lookback string

const (
	Lookback1mo Lookback = "1mo"
	Lookback3mo Lookback = "3mo"
	Lookback6mo Lookback = "6mo"
	Lookback1y  Lookback = "1y"
	Lookback2y  Lookback = "2y"
	Lookback5y  Lookback = "5y"
	Lookback10y Lookback = "10y"
	LookbackYTD Lookback = "ytd"
	LookbackMax Lookback = "max"
)

// DefaultLookback is one year of daily history.
const DefaultLookback = Lookback1y

// ErrInvalidLookback is returned by ParseLookback for unknown windows.
var ErrInvalidLookback = errors.New("invalid lookback")

var validLookbacks = []Lookback{
	Lookback1mo, Lookback3mo, Lookback6mo, Lookback1y, Lookback2y,
	Lookback5y, Lookback10y, LookbackYTD, LookbackMax,
}

// ParseLookback validates s. An empty string selects DefaultLookback.
func ParseLookback(s string) (Lookback, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return DefaultLookback, nil
	}
	for _, lb := range validLookbacks {
		if string(lb) == s {
			return lb, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidLookback, s)
}

// Start returns the first calendar day covered by the window ending at now.
// LookbackMax returns the zero time.
func (l Lookback) Start(now time.Time) time.Time {
	switch l {
	case Lookback1mo:
		return now.AddDate(0, -1, 0)
	case Lookback3mo:
		return now.AddDate(0, -3, 0)
	case Lookback6mo:
		return now.AddDate(0, -6, 0)
	case Lookback2y:
		return now.AddDate(-2, 0, 0)
	case Lookback5y:
		return now.AddDate(-5, 0, 0)
	case Lookback10y:
		return now.AddDate(-10, 0, 0)
	case LookbackYTD:
		return time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
	case LookbackMax:
		return time.Time{}
	default:
		return now.AddDate(-1, 0, 0)
	}
}

// ApproxTradingDays is a rough bar count for the window, used to size mock data.
func (l Lookback) ApproxTradingDays() int {
	switch l {
	case Lookback1mo:
		return 21
	case Lookback3mo:
		return 63
	case Lookback6mo:
		return 126
	case Lookback2y:
		return 504
	case Lookback5y:
		return 1260
	case Lookback10y, LookbackMax:
		return 2520
	case LookbackYTD:
		return 252 * time.Now().YearDay() / 365
	default:
		return 252
	}
}
