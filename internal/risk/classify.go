package risk

import "FinAlpha/internal/model"

type bracket struct {
	above float64
	level model.RiskLevel
}

// brackets returns the classification table, evaluated top-down, first match wins.
// A volatility exactly on a threshold falls to the lower bracket.
func (c Config) brackets() []bracket {
	return []bracket{
		{c.HighThreshold, model.RiskHigh},
		{c.MediumThreshold, model.RiskMedium},
	}
}

// Classify maps annualized volatility to a risk level.
func (c Config) Classify(volatility float64) model.RiskLevel {
	for _, b := range c.brackets() {
		if volatility > b.above {
			return b.level
		}
	}
	return model.RiskLow
}

// Classify uses the default thresholds (0.30 / 0.15).
func Classify(volatility float64) model.RiskLevel {
	return DefaultConfig().Classify(volatility)
}
