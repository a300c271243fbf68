package calculator

import (
	"errors"
	"math"
)

// AnnualizedVolatility scales the sample stdev of daily returns by sqrt(days).
func AnnualizedVolatility(returns []float64, days int) (float64, error) {
	if days <= 0 {
		return 0, errors.New("days per year must be positive")
	}
	sd, err := SampleStdDev(returns)
	if err != nil {
		return 0, err
	}
	return sd * math.Sqrt(float64(days)), nil
}

// AnnualizedReturn scales the mean daily return by days.
func AnnualizedReturn(returns []float64, days int) (float64, error) {
	if days <= 0 {
		return 0, errors.New("days per year must be positive")
	}
	m, err := Mean(returns)
	if err != nil {
		return 0, err
	}
	return m * float64(days), nil
}

// SharpeRatio divides annual return by annual volatility with a zero risk-free rate.
// Zero volatility yields 0.
func SharpeRatio(annualReturn, annualVolatility float64) float64 {
	if annualVolatility == 0 {
		return 0
	}
	return annualReturn / annualVolatility
}
