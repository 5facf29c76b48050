package model

// Trend is the qualitative label derived from SMAs and RSI.
type Trend string

const (
	TrendBullish Trend = "bullish"
	TrendBearish Trend = "bearish"
	TrendNeutral Trend = "neutral"
)

// IndicatorSnapshot holds the indicators computed for the latest bar of a symbol.
// When Error is set every numeric field carries its fallback value.
type IndicatorSnapshot struct {
	Symbol     string
	Price      float64
	SMAFast    float64
	SMASlow    float64
	RSI        float64
	MACDLine   float64
	MACDSignal float64
	MACDHist   float64
	ATR        float64
	Volume     float64
	VolumeSMA  float64
	Trend      Trend
	Error      string
}

// FailedSnapshot returns the fallback snapshot for a symbol that could not be evaluated.
func FailedSnapshot(symbol, reason string) IndicatorSnapshot {
	return IndicatorSnapshot{
		Symbol: symbol,
		RSI:    50,
		Trend:  TrendNeutral,
		Error:  reason,
	}
}
