package recorder

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"FinAlpha/internal/model"
)

const defaultHistoryLimit = 20

// SQLiteRecorder persists analysis history to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL so the HTTP API can read while the scheduler writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS analyses (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp       INTEGER NOT NULL,
			ticker          TEXT NOT NULL,
			lookback        TEXT,
			source          TEXT,
			current_price   REAL,
			volatility      REAL,
			var_95          REAL,
			var_99          REAL,
			max_drawdown    REAL,
			sharpe_ratio    REAL,
			risk_level      TEXT,
			observations    INTEGER,
			period_high     REAL,
			period_low      REAL,
			period_position REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_analyses_ticker_ts ON analyses(ticker, timestamp)`,

		`CREATE TABLE IF NOT EXISTS failures (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp INTEGER NOT NULL,
			ticker    TEXT NOT NULL,
			lookback  TEXT,
			source    TEXT,
			kind      TEXT,
			message   TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_failures_ts ON failures(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func stamp(t time.Time) int64 {
	if t.IsZero() {
		return time.Now().Unix()
	}
	return t.Unix()
}

func (r *SQLiteRecorder) RecordAnalysis(rec *AnalysisRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	m := rec.Metrics
	ts := rec.Timestamp
	if ts.IsZero() {
		ts = m.AnalyzedAt
	}
	res, err := r.db.Exec(`INSERT INTO analyses
		(timestamp, ticker, lookback, source, current_price, volatility,
		 var_95, var_99, max_drawdown, sharpe_ratio, risk_level, observations,
		 period_high, period_low, period_position)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		stamp(ts), strings.ToUpper(m.Ticker), string(rec.Lookback), rec.Source,
		m.CurrentPrice, m.Volatility, m.VaR95, m.VaR99, m.MaxDrawdown, m.SharpeRatio,
		m.RiskLevel.String(), m.Observations, m.PeriodHigh, m.PeriodLow, m.PeriodPosition,
	)
	if err != nil {
		return err
	}
	if id, err := res.LastInsertId(); err == nil {
		rec.ID = id
	}
	return nil
}

func (r *SQLiteRecorder) RecordFailure(rec *FailureRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO failures
		(timestamp, ticker, lookback, source, kind, message)
		VALUES (?,?,?,?,?,?)`,
		stamp(rec.Timestamp), strings.ToUpper(rec.Ticker), string(rec.Lookback),
		rec.Source, rec.Kind, rec.Message,
	)
	return err
}

const selectAnalyses = `SELECT id, timestamp, ticker, lookback, source, current_price, volatility,
	var_95, var_99, max_drawdown, sharpe_ratio, risk_level, observations,
	period_high, period_low, period_position
	FROM analyses WHERE ticker = ? ORDER BY timestamp DESC, id DESC LIMIT ?`

type scanner interface {
	Scan(dest ...any) error
}

func scanAnalysis(s scanner) (AnalysisRecord, error) {
	var (
		rec      AnalysisRecord
		ts       int64
		lookback string
		level    string
	)
	m := &rec.Metrics
	if err := s.Scan(&rec.ID, &ts, &m.Ticker, &lookback, &rec.Source, &m.CurrentPrice,
		&m.Volatility, &m.VaR95, &m.VaR99, &m.MaxDrawdown, &m.SharpeRatio, &level,
		&m.Observations, &m.PeriodHigh, &m.PeriodLow, &m.PeriodPosition); err != nil {
		return rec, err
	}
	rec.Timestamp = time.Unix(ts, 0).UTC()
	rec.Lookback = model.Lookback(lookback)
	m.AnalyzedAt = rec.Timestamp
	if lvl, ok := model.ParseRiskLevel(level); ok {
		m.RiskLevel = lvl
	}
	m.RiskColor = m.RiskLevel.Color()
	return rec, nil
}

// LatestAnalysis returns the most recent analysis for ticker, or ErrNotFound.
func (r *SQLiteRecorder) LatestAnalysis(ticker string) (*AnalysisRecord, error) {
	rec, err := scanAnalysis(r.db.QueryRow(selectAnalyses, strings.ToUpper(ticker), 1))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("latest analysis: %w", err)
	}
	return &rec, nil
}

// History returns up to limit analyses for ticker, newest first.
func (r *SQLiteRecorder) History(ticker string, limit int) ([]AnalysisRecord, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	rows, err := r.db.Query(selectAnalyses, strings.ToUpper(ticker), limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []AnalysisRecord
	for rows.Next() {
		rec, err := scanAnalysis(rows)
		if err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// FailureCount returns how many failures were recorded for ticker.
func (r *SQLiteRecorder) FailureCount(ticker string) (int, error) {
	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM failures WHERE ticker = ?`, strings.ToUpper(ticker)).Scan(&n)
	return n, err
}

func (r *SQLiteRecorder) Close() error {
	log.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}
