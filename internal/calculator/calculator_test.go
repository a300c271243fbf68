package calculator

import (
	"math"
	"testing"
)

const eps = 1e-12

func near(a, b float64) bool { return math.Abs(a-b) < eps }

func TestSimpleReturns(t *testing.T) {
	got, err := SimpleReturns([]float64{100, 110, 99})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []float64{0.1, -0.1}
	if len(got) != len(want) {
		t.Fatalf("expected %d returns, got %d", len(want), len(got))
	}
	for i := range want {
		if !near(got[i], want[i]) {
			t.Errorf("return %d: expected %v, got %v", i, want[i], got[i])
		}
	}

	if _, err := SimpleReturns([]float64{100}); err == nil {
		t.Error("expected error for a single price")
	}
	if _, err := SimpleReturns([]float64{0, 1}); err == nil {
		t.Error("expected error for zero price")
	}
}

func TestMeanAndSampleStdDev(t *testing.T) {
	xs := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	m, err := Mean(xs)
	if err != nil || m != 5 {
		t.Fatalf("mean: expected 5, got %v (%v)", m, err)
	}
	sd, err := SampleStdDev(xs)
	if err != nil {
		t.Fatalf("stdev: %v", err)
	}
	// population stdev is 2; sample stdev is sqrt(32/7)
	if !near(sd, math.Sqrt(32.0/7.0)) {
		t.Errorf("expected %v, got %v", math.Sqrt(32.0/7.0), sd)
	}
	if _, err := SampleStdDev([]float64{1}); err == nil {
		t.Error("expected error for a single observation")
	}
	if _, err := Mean(nil); err == nil {
		t.Error("expected error for empty mean")
	}
}

func TestPercentile_LinearInterpolation(t *testing.T) {
	xs := []float64{5, 1, 4, 2, 3} // sorted: 1 2 3 4 5
	tests := []struct {
		p    float64
		want float64
	}{
		{0, 1},
		{100, 5},
		{50, 3},
		{25, 2},
		{5, 1.2},  // h = 0.2
		{1, 1.04}, // h = 0.04
		{90, 4.6}, // h = 3.6
	}
	for _, tt := range tests {
		got, err := Percentile(xs, tt.p)
		if err != nil {
			t.Fatalf("p=%v: %v", tt.p, err)
		}
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("p=%v: expected %v, got %v", tt.p, tt.want, got)
		}
	}
	if xs[0] != 5 {
		t.Error("percentile must not reorder the input")
	}
	if _, err := Percentile(nil, 5); err == nil {
		t.Error("expected error for empty input")
	}
	if _, err := Percentile(xs, 101); err == nil {
		t.Error("expected error for p > 100")
	}
}

func TestPercentile_SingleValue(t *testing.T) {
	got, err := Percentile([]float64{-0.02}, 5)
	if err != nil || got != -0.02 {
		t.Errorf("expected -0.02, got %v (%v)", got, err)
	}
}

func TestMaxDrawdown(t *testing.T) {
	tests := []struct {
		name    string
		returns []float64
		want    float64
	}{
		{"monotonic up", []float64{0.01, 0.02, 0.03}, 0},
		{"first return down is not a drawdown", []float64{-0.5}, 0},
		{"peak then trough", []float64{0.1, -0.5, 0.2}, 0.5},
		{"recovery beyond peak", []float64{0.25, -0.2, 0.5, -0.1}, 0.2},
	}
	for _, tt := range tests {
		got, err := MaxDrawdown(tt.returns)
		if err != nil {
			t.Fatalf("%s: %v", tt.name, err)
		}
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.want, got)
		}
	}
	if _, err := MaxDrawdown(nil); err == nil {
		t.Error("expected error for empty returns")
	}
}

func TestMaxDrawdown_Bounded(t *testing.T) {
	returns := []float64{0.05, -0.3, -0.4, 0.1, -0.6, 0.9, -0.99}
	dd, err := MaxDrawdown(returns)
	if err != nil {
		t.Fatal(err)
	}
	if dd < 0 || dd >= 1 {
		t.Errorf("drawdown out of [0,1): %v", dd)
	}
}

func TestAnnualization(t *testing.T) {
	returns := []float64{0.01, -0.01, 0.01, -0.01}
	vol, err := AnnualizedVolatility(returns, 252)
	if err != nil {
		t.Fatal(err)
	}
	sd, _ := SampleStdDev(returns)
	if !near(vol, sd*math.Sqrt(252)) {
		t.Errorf("expected %v, got %v", sd*math.Sqrt(252), vol)
	}
	ret, err := AnnualizedReturn([]float64{0.001, 0.003}, 252)
	if err != nil || !near(ret, 0.504) {
		t.Errorf("expected 0.504, got %v (%v)", ret, err)
	}
	if _, err := AnnualizedVolatility(returns, 0); err == nil {
		t.Error("expected error for zero days")
	}
}

func TestSharpeRatio_ZeroVolatility(t *testing.T) {
	if got := SharpeRatio(0.2, 0); got != 0 {
		t.Errorf("expected 0, got %v", got)
	}
	if got := SharpeRatio(0.2, 0.4); !near(got, 0.5) {
		t.Errorf("expected 0.5, got %v", got)
	}
}

func TestPriceRangeAndPosition(t *testing.T) {
	high, low, err := PriceRange([]float64{10, 12, 8, 11})
	if err != nil || high != 12 || low != 8 {
		t.Fatalf("expected 12/8, got %v/%v (%v)", high, low, err)
	}
	pos, err := RangePosition(11, high, low)
	if err != nil || !near(pos, 0.75) {
		t.Errorf("expected 0.75, got %v (%v)", pos, err)
	}
	if pos, _ := RangePosition(5, 5, 5); pos != 0.5 {
		t.Errorf("flat range: expected 0.5, got %v", pos)
	}
	if pos, _ := RangePosition(20, 12, 8); pos != 1 {
		t.Errorf("expected clamp to 1, got %v", pos)
	}
	if _, err := RangePosition(1, 1, 2); err == nil {
		t.Error("expected error for inverted range")
	}
	if _, _, err := PriceRange(nil); err == nil {
		t.Error("expected error for empty closes")
	}
}
