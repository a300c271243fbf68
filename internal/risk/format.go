package risk

import (
	"fmt"
	"regexp"
	"strings"

	"FinAlpha/internal/model"
)

// riskLevelLine is the literal prefix downstream renderers match on.
const riskLevelLine = "Risk Level: "

// FormatResults renders metrics as a plain-text report. The final line is
// always "Risk Level: <LEVEL>".
func FormatResults(m *model.RiskMetrics) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("ANALYSIS RESULTS FOR %s\n\n", m.Ticker))
	b.WriteString(fmt.Sprintf("Current Price: $%.2f\n\n", m.CurrentPrice))
	b.WriteString("RISK METRICS:\n")
	b.WriteString(fmt.Sprintf("• Annual Volatility: %.1f%%\n", m.Volatility*100))
	b.WriteString(fmt.Sprintf("• Value at Risk (95%%): %.2f%% daily\n", m.VaR95*100))
	b.WriteString(fmt.Sprintf("• Value at Risk (99%%): %.2f%% daily\n", m.VaR99*100))
	b.WriteString(fmt.Sprintf("• Maximum Drawdown: %.1f%%\n", m.MaxDrawdown*100))
	b.WriteString(fmt.Sprintf("• Sharpe Ratio: %.2f\n\n", m.SharpeRatio))
	b.WriteString(riskLevelLine + m.RiskLevel.String())
	return b.String()
}

// FormatError renders a failed analysis for display.
func FormatError(ticker string, err error) string {
	return fmt.Sprintf("ERROR ANALYZING %s\n\n%v\n\nPlease check the ticker symbol and try again.",
		NormalizeTicker(ticker), err)
}

var riskLevelRe = regexp.MustCompile(`Risk Level: (HIGH|MEDIUM|LOW)\b`)

// RiskLevelFromText recovers the level from a FormatResults report.
func RiskLevelFromText(text string) (model.RiskLevel, bool) {
	match := riskLevelRe.FindStringSubmatch(text)
	if match == nil {
		return model.RiskLow, false
	}
	return model.ParseRiskLevel(match[1])
}
