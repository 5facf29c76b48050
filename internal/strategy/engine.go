package strategy

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"SignalDesk/internal/broker"
	"SignalDesk/internal/calculator"
	"SignalDesk/internal/model"
	"SignalDesk/pkg/logger"
)

// ErrInsufficientHistory is returned when a series is shorter than the slow period.
var ErrInsufficientHistory = errors.New("insufficient history for slow SMA")

// Engine evaluates the SMA crossover strategy and acts on its signals.
type Engine struct {
	Profile          Profile
	SharesPerTrade   int64
	RegularHoursOnly bool
	Now              func() time.Time

	mu    sync.Mutex
	acted map[string]actedSignal
}

type actedSignal struct {
	signal model.Signal
	bar    time.Time
}

// NewEngine creates an Engine for the given profile.
func NewEngine(profile Profile, sharesPerTrade int64, regularHoursOnly bool) *Engine {
	return &Engine{
		Profile:          profile,
		SharesPerTrade:   sharesPerTrade,
		RegularHoursOnly: regularHoursOnly,
		Now:              time.Now,
	}
}

// Evaluate fetches bars for symbol and computes its crossover signal.
func (e *Engine) Evaluate(ctx context.Context, sess broker.Session, symbol string) (*model.StrategyResult, error) {
	series, err := sess.FetchBars(ctx, broker.BarRequest{
		Symbol:           symbol,
		Duration:         e.Profile.Duration,
		BarSize:          e.Profile.BarSize,
		RegularHoursOnly: e.RegularHoursOnly,
	})
	if err != nil {
		return nil, err
	}
	if series.Len() < e.Profile.Slow {
		return nil, fmt.Errorf("%s: %w (%d < %d bars)", symbol, ErrInsufficientHistory, series.Len(), e.Profile.Slow)
	}

	signal := DetectCrossover(series, e.Profile.Fast, e.Profile.Slow)
	closes := series.Closes()
	latest, _ := series.Last()
	var confirmed time.Time
	if n := series.Len(); n >= 2 {
		confirmed = series.Bars[n-2].Time
	}

	position, err := sess.Position(ctx, symbol)
	if err != nil {
		logger.Warn("position lookup failed, assuming flat", zap.String("symbol", symbol), zap.Error(err))
		position = 0
	}

	return &model.StrategyResult{
		Symbol:          symbol,
		Signal:          signal,
		Price:           latest.Close,
		FastSMA:         calculator.SMA(closes, e.Profile.Fast),
		SlowSMA:         calculator.SMA(closes, e.Profile.Slow),
		CurrentPosition: position,
		Message:         e.message(signal),
		EvaluatedAt:     e.Now(),
		SignalBar:       confirmed,
	}, nil
}

// Run evaluates every symbol and places orders: BUY buys SharesPerTrade,
// SELL closes an existing long position. A signal is acted on once per
// confirming bar, however often Run is called while it stays current.
// Symbols without enough history are skipped; other per-symbol failures are
// returned combined.
func (e *Engine) Run(ctx context.Context, sess broker.Session, symbols []string) ([]model.StrategyResult, error) {
	var (
		results []model.StrategyResult
		errs    error
	)
	for _, symbol := range symbols {
		res, err := e.Evaluate(ctx, sess, symbol)
		if err != nil {
			if errors.Is(err, ErrInsufficientHistory) {
				logger.Debug("strategy skipped symbol", zap.String("symbol", symbol), zap.Error(err))
				continue
			}
			logger.Warn("strategy evaluation failed", zap.String("symbol", symbol), zap.Error(err))
			errs = multierr.Append(errs, err)
			continue
		}
		results = append(results, *res)

		if res.Signal == model.SignalHold || e.alreadyActed(res) {
			continue
		}
		switch {
		case res.Signal == model.SignalBuy:
			err = e.place(ctx, sess, symbol, model.SideBuy, e.SharesPerTrade)
		case res.Signal == model.SignalSell && res.CurrentPosition > 0:
			err = e.place(ctx, sess, symbol, model.SideSell, res.CurrentPosition)
		}
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		e.markActed(res)
	}
	return results, errs
}

// alreadyActed reports whether res repeats the signal last acted on for its symbol.
func (e *Engine) alreadyActed(res *model.StrategyResult) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	prev, ok := e.acted[res.Symbol]
	if !ok || prev.signal != res.Signal || !prev.bar.Equal(res.SignalBar) {
		return false
	}
	logger.Debug("signal already acted on",
		zap.String("symbol", res.Symbol),
		zap.String("signal", string(res.Signal)),
		zap.Time("bar", res.SignalBar),
	)
	return true
}

func (e *Engine) markActed(res *model.StrategyResult) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.acted == nil {
		e.acted = make(map[string]actedSignal)
	}
	e.acted[res.Symbol] = actedSignal{signal: res.Signal, bar: res.SignalBar}
}

func (e *Engine) place(ctx context.Context, sess broker.Session, symbol string, side model.OrderSide, qty int64) error {
	if qty <= 0 {
		return nil
	}
	ack, err := sess.PlaceOrder(ctx, symbol, side, qty)
	if err != nil {
		logger.Error("order failed", zap.String("symbol", symbol), zap.String("side", string(side)), zap.Int64("qty", qty), zap.Error(err))
		return err
	}
	logger.Info("order placed",
		zap.String("symbol", symbol),
		zap.String("side", string(side)),
		zap.Int64("qty", qty),
		zap.String("order_id", ack.OrderID),
		zap.String("status", ack.Status),
	)
	return nil
}

func (e *Engine) message(signal model.Signal) string {
	switch signal {
	case model.SignalBuy:
		return fmt.Sprintf("Golden cross: SMA%d crossed above SMA%d", e.Profile.Fast, e.Profile.Slow)
	case model.SignalSell:
		return fmt.Sprintf("Death cross: SMA%d crossed below SMA%d", e.Profile.Fast, e.Profile.Slow)
	}
	return "No crossover signal"
}
