package calculator

import "SignalDesk/internal/model"

// ClassifyTrend labels a symbol from its fast/slow SMA and RSI.
// Crosses inside overbought (>=70) or oversold (<=30) territory stay neutral.
func ClassifyTrend(smaFast, smaSlow, rsi float64) model.Trend {
	if smaFast > smaSlow && rsi < 70 {
		return model.TrendBullish
	}
	if smaFast < smaSlow && rsi > 30 {
		return model.TrendBearish
	}
	return model.TrendNeutral
}
