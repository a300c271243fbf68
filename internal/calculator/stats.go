package calculator

import (
	"errors"
	"math"
)

// Mean returns the arithmetic mean of xs.
func Mean(xs []float64) (float64, error) {
	if len(xs) == 0 {
		return 0, errors.New("mean of empty series")
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs)), nil
}

// SampleStdDev returns the standard deviation of xs with the n-1 denominator.
func SampleStdDev(xs []float64) (float64, error) {
	if len(xs) < 2 {
		return 0, errors.New("need at least two observations for sample stdev")
	}
	mean, _ := Mean(xs)
	ss := 0.0
	for _, x := range xs {
		d := x - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(xs)-1)), nil
}
