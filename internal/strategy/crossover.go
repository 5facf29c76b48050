package strategy

import (
	"math"

	"SignalDesk/internal/calculator"
	"SignalDesk/internal/model"
)

// SMAPair is the fast and slow SMA at one bar. NaN marks a missing value.
type SMAPair struct {
	Fast float64
	Slow float64
}

func (p SMAPair) defined() bool {
	return !math.IsNaN(p.Fast) && !math.IsNaN(p.Slow)
}

// Classify turns two consecutive SMA pairs into a signal.
func Classify(prev, curr SMAPair) model.Signal {
	if !prev.defined() || !curr.defined() {
		return model.SignalHold
	}
	if prev.Fast <= prev.Slow && curr.Fast > curr.Slow {
		return model.SignalBuy
	}
	if prev.Fast >= prev.Slow && curr.Fast < curr.Slow {
		return model.SignalSell
	}
	return model.SignalHold
}

// DetectCrossover compares the SMA pairs of the third- and second-to-last bars.
// The latest bar is ignored so that a still-forming bar cannot trigger a signal.
func DetectCrossover(series model.BarSeries, fast, slow int) model.Signal {
	n := series.Len()
	if n < 3 {
		return model.SignalHold
	}
	closes := series.Closes()
	fastSeries := calculator.SMASeries(closes, fast)
	slowSeries := calculator.SMASeries(closes, slow)

	prev := SMAPair{Fast: fastSeries[n-3], Slow: slowSeries[n-3]}
	curr := SMAPair{Fast: fastSeries[n-2], Slow: slowSeries[n-2]}
	return Classify(prev, curr)
}
