package calculator

import "errors"

// MaxDrawdown returns the largest peak-to-trough decline of the cumulative
// growth factor g[i] = (1+r[0])*...*(1+r[i]). The peak starts at g[0], so the
// first return alone never counts as a drawdown.
func MaxDrawdown(returns []float64) (float64, error) {
	if len(returns) == 0 {
		return 0, errors.New("no returns provided")
	}
	growth := 1.0
	peak := 0.0
	maxDD := 0.0
	for i, r := range returns {
		growth *= 1 + r
		if i == 0 || growth > peak {
			peak = growth
		}
		if peak <= 0 {
			continue
		}
		if dd := (peak - growth) / peak; dd > maxDD {
			maxDD = dd
		}
	}
	return maxDD, nil
}
