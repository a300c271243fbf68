package recorder

import (
	"errors"
	"time"

	"FinAlpha/internal/model"
)

// ErrNotFound is returned by LatestAnalysis when a ticker has no history.
var ErrNotFound = errors.New("no recorded analysis")

// AnalysisRecord is one successful analysis.
type AnalysisRecord struct {
	ID        int64
	Timestamp time.Time
	Lookback  model.Lookback
	Source    string
	Metrics   model.RiskMetrics
}

// FailureRecord is one analysis that ended in an error.
type FailureRecord struct {
	Timestamp time.Time
	Ticker    string
	Lookback  model.Lookback
	Source    string
	Kind      string // "no_data", "insufficient_data" or "analysis"
	Message   string
}

// Recorder persists analysis history.
type Recorder interface {
	RecordAnalysis(rec *AnalysisRecord) error
	RecordFailure(rec *FailureRecord) error
	LatestAnalysis(ticker string) (*AnalysisRecord, error)
	History(ticker string, limit int) ([]AnalysisRecord, error)
	Close() error
}
