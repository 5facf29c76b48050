package calculator

import (
	"math"

	"github.com/markcheno/go-talib"
)

// SMA returns the simple moving average of the last period values.
// With fewer than period values it averages everything available; an empty input yields 0.
func SMA(values []float64, period int) float64 {
	if len(values) == 0 {
		return 0
	}
	if period <= 0 || period > len(values) {
		period = len(values)
	}
	sum := 0.0
	for i := len(values) - period; i < len(values); i++ {
		sum += values[i]
	}
	return sum / float64(period)
}

// SMASeries returns the rolling simple moving average aligned with values.
// Positions without a full window are NaN.
func SMASeries(values []float64, period int) []float64 {
	out := make([]float64, len(values))
	if period <= 0 || len(values) < period {
		for i := range out {
			out[i] = math.NaN()
		}
		return out
	}
	if period == 1 {
		copy(out, values)
		return out
	}
	sma := talib.Sma(values, period)
	for i := range out {
		if i < period-1 {
			out[i] = math.NaN()
			continue
		}
		out[i] = sma[i]
	}
	return out
}
