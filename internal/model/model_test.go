package model

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestParseLookback(t *testing.T) {
	tests := []struct {
		in      string
		want    Lookback
		wantErr bool
	}{
		{"", Lookback1y, false},
		{"1y", Lookback1y, false},
		{" 6MO ", Lookback6mo, false},
		{"ytd", LookbackYTD, false},
		{"max", LookbackMax, false},
		{"3w", "", true},
		{"1d", "", true},
	}
	for _, tt := range tests {
		got, err := ParseLookback(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidLookback) {
				t.Errorf("ParseLookback(%q): expected ErrInvalidLookback, got %v", tt.in, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseLookback(%q): unexpected error %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseLookback(%q): expected %q, got %q", tt.in, tt.want, got)
		}
	}
}

func TestLookbackStart(t *testing.T) {
	now := time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC)
	if got := Lookback1y.Start(now); !got.Equal(time.Date(2025, time.March, 15, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("1y start: got %v", got)
	}
	if got := LookbackYTD.Start(now); !got.Equal(time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("ytd start: got %v", got)
	}
	if got := LookbackMax.Start(now); !got.IsZero() {
		t.Errorf("max start: expected zero time, got %v", got)
	}
}

func TestRiskLevelText(t *testing.T) {
	for _, lvl := range []RiskLevel{RiskLow, RiskMedium, RiskHigh} {
		b, err := json.Marshal(lvl)
		if err != nil {
			t.Fatalf("marshal %v: %v", lvl, err)
		}
		var back RiskLevel
		if err := json.Unmarshal(b, &back); err != nil {
			t.Fatalf("unmarshal %s: %v", b, err)
		}
		if back != lvl {
			t.Errorf("round trip: expected %v, got %v", lvl, back)
		}
	}
	if RiskMedium.Color() != "medium" {
		t.Errorf("expected color medium, got %s", RiskMedium.Color())
	}
	var l RiskLevel
	if err := l.UnmarshalText([]byte("EXTREME")); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestPriceSeriesCloses(t *testing.T) {
	s := &PriceSeries{Bars: []OHLCV{{Close: 1}, {Close: 2}, {Close: 3}}}
	closes := s.Closes()
	if len(closes) != 3 || closes[2] != 3 {
		t.Fatalf("unexpected closes %v", closes)
	}
	last, ok := s.Last()
	if !ok || last.Close != 3 {
		t.Errorf("expected last close 3, got %v (ok=%v)", last.Close, ok)
	}
	empty := &PriceSeries{}
	if _, ok := empty.Last(); ok {
		t.Error("expected no last bar for empty series")
	}
}
