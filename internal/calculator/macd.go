package calculator

// EMA returns the recursive exponential moving average of values with
// smoothing factor 2/(span+1), seeded by the first value.
func EMA(values []float64, span int) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}
	if span < 1 {
		span = 1
	}
	alpha := 2.0 / float64(span+1)
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = alpha*values[i] + (1-alpha)*out[i-1]
	}
	return out
}

// MACD holds the latest MACD line, signal line and histogram.
type MACD struct {
	Line   float64
	Signal float64
	Hist   float64
}

// CalculateMACD computes MACD(fast, slow, signal) for the latest close. Empty input yields zeros.
func CalculateMACD(closes []float64, fast, slow, signal int) MACD {
	if len(closes) == 0 {
		return MACD{}
	}
	emaFast := EMA(closes, fast)
	emaSlow := EMA(closes, slow)
	line := make([]float64, len(closes))
	for i := range closes {
		line[i] = emaFast[i] - emaSlow[i]
	}
	sig := EMA(line, signal)

	last := len(closes) - 1
	return MACD{
		Line:   line[last],
		Signal: sig[last],
		Hist:   line[last] - sig[last],
	}
}
