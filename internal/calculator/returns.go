package calculator

import (
	"errors"
	"fmt"
)

// SimpleReturns computes r[i] = prices[i]/prices[i-1] - 1 for consecutive prices.
// The result has len(prices)-1 elements.
func SimpleReturns(prices []float64) ([]float64, error) {
	if len(prices) < 2 {
		return nil, errors.New("need at least two prices for returns")
	}
	returns := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] == 0 {
			return nil, fmt.Errorf("zero price at index %d", i-1)
		}
		returns[i-1] = prices[i]/prices[i-1] - 1
	}
	return returns, nil
}
