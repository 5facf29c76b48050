package model

import "time"

// Signal is the crossover verdict for one symbol.
type Signal string

const (
	SignalBuy  Signal = "BUY"
	SignalSell Signal = "SELL"
	SignalHold Signal = "HOLD"
)

// OrderSide is the direction of an order sent to the broker.
type OrderSide string

const (
	SideBuy  OrderSide = "BUY"
	SideSell OrderSide = "SELL"
)

// StrategyResult is the outcome of evaluating the crossover strategy for one symbol.
type StrategyResult struct {
	Symbol          string
	Signal          Signal
	Price           float64
	FastSMA         float64
	SlowSMA         float64
	CurrentPosition int64
	Message         string
	EvaluatedAt     time.Time
	// SignalBar is the time of the bar that confirmed Signal.
	SignalBar time.Time
}
