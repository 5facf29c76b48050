package report

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"SignalDesk/internal/model"
)

const rule = "═══════════════════════════════════"

// Format renders the report as plain text.
func Format(r *Report) string {
	var b strings.Builder

	b.WriteString(rule + "\n")
	b.WriteString(fmt.Sprintf("  SIGNALDESK - %s REPORT\n", strings.ToUpper(r.Session)))
	b.WriteString(fmt.Sprintf("  %s | %s (%s)\n", r.GeneratedAt.Format("2006-01-02 15:04"), r.Market, r.Timezone))
	b.WriteString(rule + "\n\n")

	b.WriteString(FormatMarket(r))

	if r.StrategyIncluded {
		b.WriteString("\n\n")
		b.WriteString(FormatStrategy(r))
		if len(r.History) > 0 {
			b.WriteString("\n\n")
			b.WriteString(FormatHistory(r.History))
		}
	}
	return b.String()
}

// FormatMarket renders the indicator section, market summary and errors.
func FormatMarket(r *Report) string {
	var b strings.Builder
	b.WriteString("=== MARKET INDICATORS ===\n")

	snap := r.Snapshot
	valid := snap.Valid()
	if len(valid) == 0 {
		b.WriteString("No market data available.\n")
	}
	for _, st := range valid {
		b.WriteString(fmt.Sprintf("%s %s: $%.2f | SMA20: $%.2f | SMA50: $%.2f | RSI: %.1f | Trend: %s\n",
			trendIcon(st.Trend), st.Symbol, st.Price, st.SMAFast, st.SMASlow, st.RSI, st.Trend))
		b.WriteString(fmt.Sprintf("   MACD: %+.4f | ATR: $%.2f | Vol: %s (avg %s)\n",
			st.MACDHist, st.ATR, thousands(st.Volume), thousands(st.VolumeSMA)))
	}

	if len(snap.Summary) > 0 {
		b.WriteString("\n=== MARKET SUMMARY ===\n")
		for _, e := range snap.Summary {
			b.WriteString(fmt.Sprintf("  %s: %s\n", e.Key, e.Value))
		}
	}

	if len(snap.Errors) > 0 {
		b.WriteString("\n⚠️ Errors:\n")
		for _, e := range snap.Errors {
			b.WriteString(fmt.Sprintf("  - %s\n", e))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatStrategy renders the crossover section of the owner report.
func FormatStrategy(r *Report) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("=== SMA CROSSOVER STRATEGY (%s: SMA%d/SMA%d) ===\n",
		r.Profile.Name, r.Profile.Fast, r.Profile.Slow))
	if len(r.Strategy) == 0 {
		b.WriteString("No strategy results.\n")
	}
	for _, res := range r.Strategy {
		b.WriteString(fmt.Sprintf("%s: %s | Price: $%.2f | Pos: %d\n",
			res.Symbol, signalLabel(res.Signal), res.Price, res.CurrentPosition))
		b.WriteString(fmt.Sprintf("   %s\n", res.Message))
	}
	if r.StrategyError != "" {
		b.WriteString(fmt.Sprintf("(Strategy evaluation incomplete: %s)\n", r.StrategyError))
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatHistory renders recorded signals, newest first.
func FormatHistory(history []model.StrategyResult) string {
	var b strings.Builder
	b.WriteString("=== RECENT SIGNALS ===\n")
	for _, h := range history {
		b.WriteString(fmt.Sprintf("  %s %s %s @ $%.2f\n",
			h.EvaluatedAt.Format("2006-01-02 15:04"), h.Symbol, h.Signal, h.Price))
	}
	return strings.TrimRight(b.String(), "\n")
}

func trendIcon(t model.Trend) string {
	switch t {
	case model.TrendBullish:
		return "🟢"
	case model.TrendBearish:
		return "🔴"
	}
	return "⚪"
}

func signalLabel(s model.Signal) string {
	switch s {
	case model.SignalBuy:
		return "🟢 BUY"
	case model.SignalSell:
		return "🔴 SELL"
	}
	return "⚪ HOLD"
}

// thousands formats v rounded to an integer with comma separators.
func thousands(v float64) string {
	n := int64(math.Round(v))
	s := strconv.FormatInt(n, 10)
	neg := n < 0
	if neg {
		s = s[1:]
	}
	var out []byte
	for i := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, s[i])
	}
	if neg {
		return "-" + string(out)
	}
	return string(out)
}
