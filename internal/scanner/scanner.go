// Package scanner evaluates indicator snapshots for a symbol universe.
package scanner

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"SignalDesk/internal/broker"
	"SignalDesk/internal/calculator"
	"SignalDesk/internal/model"
	"SignalDesk/internal/strategy"
	"SignalDesk/pkg/logger"
)

// ErrConnectFailed is the error line reported when no broker session is available.
const ErrConnectFailed = "Failed to connect to broker"

// SummaryEntry is one key/value line of the market summary.
type SummaryEntry struct {
	Key   string
	Value string
}

// MarketSnapshot is the result of one scan.
type MarketSnapshot struct {
	Timestamp time.Time
	Stocks    []model.IndicatorSnapshot
	Summary   []SummaryEntry
	Errors    []string
}

// Scanner fetches bars with the active profile's timeframe and computes snapshots.
type Scanner struct {
	Profile          strategy.Profile
	MarketIndicators []string
	RegularHoursOnly bool
	Now              func() time.Time
}

// New creates a Scanner.
func New(profile strategy.Profile, marketIndicators []string, regularHoursOnly bool) *Scanner {
	return &Scanner{
		Profile:          profile,
		MarketIndicators: marketIndicators,
		RegularHoursOnly: regularHoursOnly,
		Now:              time.Now,
	}
}

// Universe returns symbols followed by the market indicators, deduplicated in order.
func (s *Scanner) Universe(symbols []string) []string {
	seen := make(map[string]bool, len(symbols)+len(s.MarketIndicators))
	var out []string
	for _, list := range [][]string{symbols, s.MarketIndicators} {
		for _, sym := range list {
			if sym == "" || seen[sym] {
				continue
			}
			seen[sym] = true
			out = append(out, sym)
		}
	}
	return out
}

// Scan evaluates every symbol of the universe on sess. A nil session yields a
// snapshot carrying only the connection error.
func (s *Scanner) Scan(ctx context.Context, sess broker.Session, symbols []string) *MarketSnapshot {
	snap := &MarketSnapshot{Timestamp: s.Now()}
	if sess == nil {
		snap.Errors = append(snap.Errors, ErrConnectFailed)
		return snap
	}

	for _, sym := range s.Universe(symbols) {
		if err := ctx.Err(); err != nil {
			snap.Errors = append(snap.Errors, fmt.Sprintf("%s: %v", sym, err))
			continue
		}
		ind := s.scanSymbol(ctx, sess, sym)
		snap.Stocks = append(snap.Stocks, ind)
		if ind.Error != "" {
			snap.Errors = append(snap.Errors, fmt.Sprintf("%s: %s", sym, ind.Error))
		}
	}
	snap.Summary = summarize(snap.Stocks, s.MarketIndicators)
	return snap
}

func (s *Scanner) scanSymbol(ctx context.Context, sess broker.Session, symbol string) model.IndicatorSnapshot {
	series, err := sess.FetchBars(ctx, broker.BarRequest{
		Symbol:           symbol,
		Duration:         s.Profile.Duration,
		BarSize:          s.Profile.BarSize,
		RegularHoursOnly: s.RegularHoursOnly,
	})
	if err != nil {
		logger.Warn("scanner fetch failed", zap.String("symbol", symbol), zap.Error(err))
		return model.FailedSnapshot(symbol, calculator.ErrFetchFailed)
	}
	series.Symbol = symbol
	return calculator.Snapshot(series)
}

// Valid returns the snapshots that carry no error.
func (m *MarketSnapshot) Valid() []model.IndicatorSnapshot {
	var out []model.IndicatorSnapshot
	for _, st := range m.Stocks {
		if st.Error == "" {
			out = append(out, st)
		}
	}
	return out
}

func summarize(stocks []model.IndicatorSnapshot, indicators []string) []SummaryEntry {
	var out []SummaryEntry
	for _, sym := range indicators {
		for _, st := range stocks {
			if st.Symbol != sym || st.Error != "" {
				continue
			}
			out = append(out,
				SummaryEntry{Key: sym + "_price", Value: fmt.Sprintf("%.2f", st.Price)},
				SummaryEntry{Key: sym + "_trend", Value: string(st.Trend)},
			)
			break
		}
	}
	return out
}
