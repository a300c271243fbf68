package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"FinAlpha/internal/model"
	"FinAlpha/internal/recorder"
	"FinAlpha/internal/risk"
	"FinAlpha/internal/screener"
)

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// AnalyzeResponse is returned by /api/v1/analyze.
type AnalyzeResponse struct {
	model.RiskMetrics
	Period model.Lookback `json:"period"`
	Report string         `json:"report"`
}

// SeriesPoint is one close in a /api/v1/series response.
type SeriesPoint struct {
	Date  string  `json:"date"`
	Close float64 `json:"close"`
}

// SeriesResponse is returned by /api/v1/series.
type SeriesResponse struct {
	Ticker string         `json:"ticker"`
	Period model.Lookback `json:"period"`
	Source string         `json:"source"`
	Points []SeriesPoint  `json:"points"`
}

// HistoryEntry is one recorded analysis.
type HistoryEntry struct {
	model.RiskMetrics
	Period model.Lookback `json:"period"`
	Source string         `json:"source"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("encode response")
	}
}

func writeError(w http.ResponseWriter, status int, kind, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg, Kind: kind})
}

// statusFor maps analysis errors onto HTTP statuses.
func statusFor(err error) int {
	switch risk.Kind(err) {
	case "no_data":
		return http.StatusNotFound
	case "insufficient_data":
		return http.StatusUnprocessableEntity
	default:
		if errors.Is(err, risk.ErrEmptyTicker) || errors.Is(err, model.ErrInvalidLookback) {
			return http.StatusBadRequest
		}
		return http.StatusBadGateway
	}
}

func (s *Server) writeAnalysisError(w http.ResponseWriter, err error) {
	writeError(w, statusFor(err), risk.Kind(err), err.Error())
}

func (s *Server) lookback(r *http.Request) (model.Lookback, error) {
	p := r.URL.Query().Get("period")
	if p == "" {
		return s.deps.Lookback, nil
	}
	return model.ParseLookback(p)
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) analyze(w http.ResponseWriter, r *http.Request) {
	ticker := risk.NormalizeTicker(mux.Vars(r)["ticker"])
	lb, err := s.lookback(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	start := time.Now()
	m, err := s.deps.Analyzer.Analyze(r.Context(), ticker, lb)
	s.deps.Metrics.ObserveAnalysis(risk.Kind(err), time.Since(start))
	if err != nil {
		_ = s.deps.Recorder.RecordFailure(&recorder.FailureRecord{
			Timestamp: time.Now(), Ticker: ticker, Lookback: lb, Source: s.deps.Source,
			Kind: risk.Kind(err), Message: err.Error(),
		})
		s.writeAnalysisError(w, err)
		return
	}

	if err := s.deps.Recorder.RecordAnalysis(&recorder.AnalysisRecord{
		Timestamp: m.AnalyzedAt, Lookback: lb, Source: s.deps.Source, Metrics: *m,
	}); err != nil {
		log.Error().Err(err).Str("ticker", ticker).Msg("record analysis")
	}
	writeJSON(w, http.StatusOK, AnalyzeResponse{RiskMetrics: *m, Period: lb, Report: risk.FormatResults(m)})
}

func (s *Server) series(w http.ResponseWriter, r *http.Request) {
	ticker := risk.NormalizeTicker(mux.Vars(r)["ticker"])
	lb, err := s.lookback(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	if s.deps.Collector == nil {
		writeError(w, http.StatusServiceUnavailable, "analysis", "price series not available")
		return
	}

	ps, err := s.deps.Collector.Collect(r.Context(), ticker, lb)
	if err != nil {
		writeError(w, http.StatusBadGateway, "analysis", err.Error())
		return
	}
	if len(ps.Bars) == 0 {
		nd := &risk.NoDataError{Ticker: ticker}
		writeError(w, http.StatusNotFound, "no_data", nd.Error())
		return
	}

	resp := SeriesResponse{Ticker: ticker, Period: lb, Source: ps.Source, Points: make([]SeriesPoint, len(ps.Bars))}
	for i, b := range ps.Bars {
		resp.Points[i] = SeriesPoint{Date: b.Time.Format("2006-01-02"), Close: b.Close}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) screen(w http.ResponseWriter, r *http.Request) {
	if s.deps.Screener == nil {
		writeError(w, http.StatusServiceUnavailable, "analysis", "screener not configured")
		return
	}
	topN := s.deps.TopN
	if v := r.URL.Query().Get("top"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "bad_request", "top must be a positive integer")
			return
		}
		topN = n
	}
	universe := s.deps.Universe
	if v := r.URL.Query().Get("tickers"); v != "" {
		universe = strings.Split(v, ",")
	}

	res, err := s.deps.Screener.Screen(r.Context(), universe, topN)
	switch {
	case errors.Is(err, screener.ErrEmptyUniverse), errors.Is(err, screener.ErrInvalidTopN):
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	case err != nil:
		writeError(w, http.StatusGatewayTimeout, "analysis", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) history(w http.ResponseWriter, r *http.Request) {
	ticker := risk.NormalizeTicker(mux.Vars(r)["ticker"])
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 500 {
			writeError(w, http.StatusBadRequest, "bad_request", "limit must be between 1 and 500")
			return
		}
		limit = n
	}

	recs, err := s.deps.Recorder.History(ticker, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}
	out := make([]HistoryEntry, len(recs))
	for i, rec := range recs {
		out[i] = HistoryEntry{RiskMetrics: rec.Metrics, Period: rec.Lookback, Source: rec.Source}
	}
	writeJSON(w, http.StatusOK, out)
}
