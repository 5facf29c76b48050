// Package report builds, renders and delivers per-recipient reports.
package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"SignalDesk/internal/broker"
	"SignalDesk/internal/model"
	"SignalDesk/internal/notifier"
	"SignalDesk/internal/recipient"
	"SignalDesk/internal/recorder"
	"SignalDesk/internal/scanner"
	"SignalDesk/internal/strategy"
	"SignalDesk/pkg/logger"
)

// Session labels.
const (
	SessionPreMarket  = "pre-market"
	SessionPostMarket = "post-market"
	SessionManual     = "manual"
)

// Report is the payload built for one dispatch decision.
type Report struct {
	GeneratedAt      time.Time
	Session          string
	Recipient        model.Recipient
	Reason           model.TriggerReason
	Market           string
	Timezone         string
	Snapshot         *scanner.MarketSnapshot
	Profile          strategy.Profile
	StrategyIncluded bool
	Strategy         []model.StrategyResult
	StrategyError    string
	History          []model.StrategyResult
}

// Deliverer sends a rendered message to a recipient.
type Deliverer interface {
	Notify(ctx context.Context, r model.Recipient, msg notifier.Message) (int, error)
}

// Outcome summarises one orchestrated report.
type Outcome struct {
	Report    *Report
	Text      string
	Path      string
	Delivered int
}

// Orchestrator turns dispatch decisions into delivered reports.
type Orchestrator struct {
	Scanner       *scanner.Scanner
	Engine        *strategy.Engine
	Defaults      recipient.Defaults
	Recorder      recorder.Recorder
	Notifier      Deliverer
	Archive       *Archive
	HistoryLength int
}

// SessionLabel names the report session for a trigger at t.
func SessionLabel(t time.Time, reason model.TriggerReason) string {
	if reason == model.TriggerManual {
		return SessionManual
	}
	if t.Hour() < 12 {
		return SessionPreMarket
	}
	return SessionPostMarket
}

// Build evaluates the recipient's universe on sess. sess may be nil when the
// broker is unreachable; the report then carries the connection error.
func (o *Orchestrator) Build(ctx context.Context, sess broker.Session, d model.DispatchDecision) *Report {
	symbols := o.Defaults.Symbols(d.Recipient)
	market, tz := InferMarket(symbols)
	rep := &Report{
		GeneratedAt: d.At,
		Session:     SessionLabel(d.At, d.Reason),
		Recipient:   d.Recipient,
		Reason:      d.Reason,
		Market:      market,
		Timezone:    tz,
		Snapshot:    o.Scanner.Scan(ctx, sess, symbols),
		Profile:     o.Engine.Profile,
	}
	if !d.IncludeStrategy {
		return rep
	}

	rep.StrategyIncluded = true
	if sess == nil {
		rep.StrategyError = scanner.ErrConnectFailed
		return rep
	}
	results, err := o.Engine.Run(ctx, sess, o.Defaults.StrategySymbols(d.Recipient))
	rep.Strategy = results
	if err != nil {
		rep.StrategyError = err.Error()
	}
	for i := range results {
		if err := o.Recorder.RecordSignal(&results[i]); err != nil {
			logger.Error("record signal", zap.String("symbol", results[i].Symbol), zap.Error(err))
		}
	}
	if o.HistoryLength > 0 {
		history, err := o.Recorder.RecentSignals(o.HistoryLength)
		if err != nil {
			logger.Error("load signal history", zap.Error(err))
		}
		rep.History = history
	}
	return rep
}

// Run builds, renders, archives and delivers the report for d.
func (o *Orchestrator) Run(ctx context.Context, sess broker.Session, d model.DispatchDecision) (*Outcome, error) {
	rep := o.Build(ctx, sess, d)
	out := &Outcome{Report: rep, Text: Format(rep)}

	if o.Archive != nil {
		path, err := o.Archive.Save(out.Text, d.Recipient.ID, d.At)
		if err != nil {
			logger.Warn("archive report", zap.String("recipient", d.Recipient.ID), zap.Error(err))
		}
		out.Path = path
	}

	if o.Notifier == nil {
		return out, errors.New("no notifier configured")
	}
	msg := notifier.Message{
		Subject: fmt.Sprintf("SignalDesk - %s Report", rep.Session),
		Text:    out.Text,
	}
	n, err := o.Notifier.Notify(ctx, d.Recipient, msg)
	out.Delivered = n
	if err != nil {
		return out, fmt.Errorf("deliver report to %s: %w", d.Recipient.ID, err)
	}
	return out, nil
}
