package model

import (
	"sort"
	"time"
)

// Bar represents a single OHLCV candlestick.
type Bar struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// BarSeries holds the bars fetched for one symbol, oldest first.
type BarSeries struct {
	Symbol string
	Bars   []Bar
}

// NewBarSeries copies bars into a series with strictly increasing timestamps.
// When two bars share a timestamp the later one in the input wins.
func NewBarSeries(symbol string, bars []Bar) BarSeries {
	cp := make([]Bar, len(bars))
	copy(cp, bars)
	sort.SliceStable(cp, func(i, j int) bool { return cp[i].Time.Before(cp[j].Time) })

	out := cp[:0]
	for _, b := range cp {
		if n := len(out); n > 0 && out[n-1].Time.Equal(b.Time) {
			out[n-1] = b
			continue
		}
		out = append(out, b)
	}
	return BarSeries{Symbol: symbol, Bars: out}
}

func (s BarSeries) Len() int { return len(s.Bars) }

// Last returns the most recent bar. ok is false for an empty series.
func (s BarSeries) Last() (b Bar, ok bool) {
	if len(s.Bars) == 0 {
		return Bar{}, false
	}
	return s.Bars[len(s.Bars)-1], true
}

func (s BarSeries) Closes() []float64 {
	return s.extract(func(b Bar) float64 { return b.Close })
}

func (s BarSeries) Highs() []float64 {
	return s.extract(func(b Bar) float64 { return b.High })
}

func (s BarSeries) Lows() []float64 {
	return s.extract(func(b Bar) float64 { return b.Low })
}

func (s BarSeries) Volumes() []float64 {
	return s.extract(func(b Bar) float64 { return b.Volume })
}

func (s BarSeries) extract(field func(Bar) float64) []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = field(b)
	}
	return out
}
