package model

import (
	"strings"
	"time"
)

// RiskLevel is the ordinal volatility bracket of a security.
type RiskLevel int

const (
	RiskLow RiskLevel = iota
	RiskMedium
	RiskHigh
)

// String returns the upper-case keyword used in reports ("LOW", "MEDIUM", "HIGH").
func (l RiskLevel) String() string {
	switch l {
	case RiskHigh:
		return "HIGH"
	case RiskMedium:
		return "MEDIUM"
	default:
		return "LOW"
	}
}

// Color returns the lower-case presentation tag mirroring the level.
func (l RiskLevel) Color() string {
	return strings.ToLower(l.String())
}

// ParseRiskLevel is the inverse of String.
func ParseRiskLevel(s string) (RiskLevel, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "LOW":
		return RiskLow, true
	case "MEDIUM":
		return RiskMedium, true
	case "HIGH":
		return RiskHigh, true
	}
	return RiskLow, false
}

// MarshalText encodes the level as its keyword.
func (l RiskLevel) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText accepts the keyword in any case.
func (l *RiskLevel) UnmarshalText(b []byte) error {
	lvl, ok := ParseRiskLevel(string(b))
	if !ok {
		return &UnknownRiskLevelError{Value: string(b)}
	}
	*l = lvl
	return nil
}

// UnknownRiskLevelError reports an unrecognised risk level keyword.
type UnknownRiskLevelError struct {
	Value string
}

func (e *UnknownRiskLevelError) Error() string {
	return "unknown risk level: " + e.Value
}

// RiskMetrics is the result of one successful analysis.
type RiskMetrics struct {
	Ticker       string    `json:"ticker"`
	CurrentPrice float64   `json:"current_price"`
	Volatility   float64   `json:"volatility"`
	VaR95        float64   `json:"var_95"`
	VaR99        float64   `json:"var_99"`
	MaxDrawdown  float64   `json:"max_drawdown"`
	SharpeRatio  float64   `json:"sharpe_ratio"`
	RiskLevel    RiskLevel `json:"risk_level"`
	RiskColor    string    `json:"risk_color"`

	Observations   int       `json:"observations"`
	PeriodHigh     float64   `json:"period_high"`
	PeriodLow      float64   `json:"period_low"`
	PeriodPosition float64   `json:"period_position"` // 0.0 ~ 1.0
	AnalyzedAt     time.Time `json:"analyzed_at,omitzero"`
}
