package calculator

import (
	"errors"
	"math"
	"slices"
)

// Percentile returns the p-th percentile (0..100) of xs, interpolating linearly
// between the two closest ranks: h = (n-1)*p/100, result = x[lo] + (h-lo)*(x[lo+1]-x[lo]).
// xs is not modified.
func Percentile(xs []float64, p float64) (float64, error) {
	if len(xs) == 0 {
		return 0, errors.New("percentile of empty series")
	}
	if p < 0 || p > 100 || math.IsNaN(p) {
		return 0, errors.New("percentile must be within [0, 100]")
	}
	sorted := slices.Clone(xs)
	slices.Sort(sorted)

	h := float64(len(sorted)-1) * p / 100
	lo := int(math.Floor(h))
	if lo >= len(sorted)-1 {
		return sorted[len(sorted)-1], nil
	}
	frac := h - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo]), nil
}
