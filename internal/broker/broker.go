// Package broker defines the market-data and order collaborators used during a
// dispatch cycle. A Session is acquired once per cycle and closed when it ends.
package broker

import (
	"context"
	"errors"

	"SignalDesk/internal/model"
)

var (
	ErrNotConnected    = errors.New("broker: not connected")
	ErrDataUnavailable = errors.New("broker: data unavailable")
	ErrOrderRejected   = errors.New("broker: order rejected")
)

// BarRequest describes a historical bar query.
type BarRequest struct {
	Symbol           string
	Duration         string // lookback, e.g. "2 D", "30 D", "12 M"
	BarSize          string // granularity, e.g. "5 mins", "1 hour", "1 day"
	RegularHoursOnly bool
}

// OrderAck is the broker's answer to an accepted order.
type OrderAck struct {
	OrderID string
	Status  string
}

// Session is a live connection to the broker or data source.
type Session interface {
	// FetchBars returns bars oldest first. Failures wrap ErrDataUnavailable.
	FetchBars(ctx context.Context, req BarRequest) (model.BarSeries, error)
	// Position returns the signed share count held for symbol.
	Position(ctx context.Context, symbol string) (int64, error)
	// PlaceOrder sends a market order. Rejections wrap ErrOrderRejected.
	PlaceOrder(ctx context.Context, symbol string, side model.OrderSide, qty int64) (OrderAck, error)
	Close() error
}

// Connector opens sessions.
type Connector interface {
	Name() string
	Connect(ctx context.Context) (Session, error)
}
