package calculator

import (
	"github.com/markcheno/go-talib"

	"SignalDesk/internal/model"
)

// TrueRange returns the true range of every bar. The first bar has no
// previous close, so its range is high-low.
func TrueRange(bars []model.Bar) []float64 {
	if len(bars) == 0 {
		return nil
	}
	highs := make([]float64, len(bars))
	lows := make([]float64, len(bars))
	closes := make([]float64, len(bars))
	for i, b := range bars {
		highs[i], lows[i], closes[i] = b.High, b.Low, b.Close
	}
	tr := talib.TRange(highs, lows, closes)
	tr[0] = highs[0] - lows[0]
	return tr
}

// CalculateATR returns the rolling mean of the true range over period bars, or 0 without enough bars.
func CalculateATR(bars []model.Bar, period int) float64 {
	if period <= 0 || len(bars) < period {
		return 0
	}
	return SMA(TrueRange(bars), period)
}
