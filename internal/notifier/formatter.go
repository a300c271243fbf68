package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"

	"FinAlpha/internal/model"
	"FinAlpha/internal/screener"
)

func levelIcon(l model.RiskLevel) string {
	switch l {
	case model.RiskHigh:
		return "🔴"
	case model.RiskMedium:
		return "🟡"
	default:
		return "🟢"
	}
}

// FormatAnalysisHTML formats one analysis as a Telegram message.
func FormatAnalysisHTML(m *model.RiskMetrics) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📊 <b>%s</b> | %s\n\n", html.EscapeString(m.Ticker), m.AnalyzedAt.Format("2006-01-02")))
	b.WriteString(fmt.Sprintf("Price: $%.2f\n", m.CurrentPrice))
	if m.PeriodHigh > 0 {
		b.WriteString(fmt.Sprintf("Range: $%.2f - $%.2f (%.0f%%)\n", m.PeriodLow, m.PeriodHigh, m.PeriodPosition*100))
	}
	b.WriteString("\n")

	b.WriteString(fmt.Sprintf("Volatility: %.1f%%\n", m.Volatility*100))
	b.WriteString(fmt.Sprintf("VaR 95%%: %.2f%% | VaR 99%%: %.2f%%\n", m.VaR95*100, m.VaR99*100))
	b.WriteString(fmt.Sprintf("Max drawdown: %.1f%%\n", m.MaxDrawdown*100))
	b.WriteString(fmt.Sprintf("Sharpe: %.2f\n\n", m.SharpeRatio))

	b.WriteString(fmt.Sprintf("%s <b>Risk Level: %s</b>", levelIcon(m.RiskLevel), m.RiskLevel))
	return b.String()
}

// FormatAnalysisError formats a failed analysis.
func FormatAnalysisError(ticker string, err error) string {
	return fmt.Sprintf("⚠️ <b>%s</b>\n%s", html.EscapeString(ticker), html.EscapeString(err.Error()))
}

// FormatScreenReport formats a low-risk screen.
func FormatScreenReport(res *screener.Result) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🛡 <b>Top %d Low-Risk Stocks</b> | %s\n\n", len(res.Top), res.StartedAt.Format("2006-01-02")))

	if len(res.Top) == 0 {
		b.WriteString("No low-risk stocks found.\n")
	}
	for i, m := range res.Top {
		b.WriteString(fmt.Sprintf("%d. <b>%s</b> $%.2f  vol %.1f%%  DD %.1f%%  Sharpe %.2f\n",
			i+1, html.EscapeString(m.Ticker), m.CurrentPrice, m.Volatility*100, m.MaxDrawdown*100, m.SharpeRatio))
	}

	b.WriteString(fmt.Sprintf("\nScreened %d, %d low risk", res.Screened, res.LowCount))
	if n := len(res.Failures); n > 0 {
		names := make([]string, 0, n)
		for _, f := range res.Failures {
			names = append(names, f.Ticker)
		}
		b.WriteString(fmt.Sprintf(", %d failed (%s)", n, html.EscapeString(strings.Join(names, ", "))))
	}
	return b.String()
}

// FormatRiskChange formats an alert for a ticker whose level moved.
func FormatRiskChange(prev model.RiskLevel, prevAt time.Time, m *model.RiskMetrics) string {
	arrow := "⬆️"
	if m.RiskLevel < prev {
		arrow = "⬇️"
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s <b>%s risk level changed</b>\n\n", arrow, html.EscapeString(m.Ticker)))
	b.WriteString(fmt.Sprintf("%s %s → %s %s\n", levelIcon(prev), prev, levelIcon(m.RiskLevel), m.RiskLevel))
	b.WriteString(fmt.Sprintf("Volatility now %.1f%% (last checked %s)", m.Volatility*100, prevAt.Format("2006-01-02")))
	return b.String()
}
