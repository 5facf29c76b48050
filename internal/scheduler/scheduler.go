// Package scheduler runs the minute tick that dispatches recipient reports.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"SignalDesk/internal/broker"
	"SignalDesk/internal/metrics"
	"SignalDesk/internal/model"
	"SignalDesk/internal/recorder"
	"SignalDesk/internal/report"
	"SignalDesk/pkg/logger"
)

// TickSpec fires at second 0 of every minute.
const TickSpec = "0 * * * * *"

// RecipientLister is the read side of the recipient registry.
type RecipientLister interface {
	List() ([]model.Recipient, error)
}

// ReportRunner builds and delivers the report for one decision.
type ReportRunner interface {
	Run(ctx context.Context, sess broker.Session, d model.DispatchDecision) (*report.Outcome, error)
}

// Scheduler manages the dispatch tick.
type Scheduler struct {
	Cron       *cron.Cron
	Location   *time.Location
	Registry   RecipientLister
	Dispatcher *Dispatcher
	Connector  broker.Connector
	Reports    ReportRunner
	Recorder   recorder.Recorder
	Metrics    *metrics.Metrics
	Ctx        context.Context
	Now        func() time.Time
}

// NewScheduler creates a Scheduler whose cron runs in loc. A tick that is
// still running when the next one fires causes the next one to be skipped.
func NewScheduler(ctx context.Context, loc *time.Location, reg RecipientLister, disp *Dispatcher,
	conn broker.Connector, reports ReportRunner, rec recorder.Recorder, m *metrics.Metrics) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	cronLog := cron.PrintfLogger(zap.NewStdLog(logger.GetLogger()))
	return &Scheduler{
		Cron: cron.New(
			cron.WithSeconds(),
			cron.WithLocation(loc),
			cron.WithLogger(cronLog),
			cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
		),
		Location:   loc,
		Registry:   reg,
		Dispatcher: disp,
		Connector:  conn,
		Reports:    reports,
		Recorder:   rec,
		Metrics:    m,
		Ctx:        ctx,
		Now:        time.Now,
	}
}

// Register adds the dispatch tick. An empty spec uses TickSpec.
func (s *Scheduler) Register(spec string) error {
	if spec == "" {
		spec = TickSpec
	}
	if _, err := s.Cron.AddFunc(spec, s.tick); err != nil {
		return fmt.Errorf("register dispatch tick: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	logger.Info("scheduler started", zap.String("timezone", s.Location.String()))
}

// Stop stops the cron scheduler and waits for a running tick.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	logger.Info("scheduler stopped")
}

func (s *Scheduler) tick() {
	if err := s.RunCycle(s.Ctx, s.Now().In(s.Location)); err != nil {
		logger.Warn("dispatch cycle finished with errors", zap.Error(err))
	}
}

// RunCycle dispatches every recipient due at now. The registry is read once;
// one broker session serves the whole cycle and is closed on every path.
// Per-recipient failures are isolated and returned combined.
func (s *Scheduler) RunCycle(ctx context.Context, now time.Time) error {
	if s.Metrics != nil {
		s.Metrics.Ticks.Inc()
	}
	recipients, err := s.Registry.List()
	if err != nil {
		logger.Error("load recipients", zap.Error(err))
		return fmt.Errorf("load recipients: %w", err)
	}
	decisions := s.Dispatcher.Due(now, recipients)
	if len(decisions) == 0 {
		return nil
	}

	start := time.Now()
	logger.Info("dispatch cycle", zap.Time("at", now), zap.Int("due", len(decisions)))

	sess, err := s.Connector.Connect(ctx)
	if err != nil {
		logger.Error("broker unavailable for cycle, sending degraded reports",
			zap.String("broker", s.Connector.Name()),
			zap.Bool("escalated", true),
			zap.Error(err),
		)
		if s.Metrics != nil {
			s.Metrics.BrokerConnectFailures.Inc()
		}
		sess = nil
	} else {
		defer func() {
			if cerr := sess.Close(); cerr != nil {
				logger.Warn("close broker session", zap.Error(cerr))
			}
		}()
	}

	var errs error
	for _, d := range decisions {
		errs = multierr.Append(errs, s.dispatch(ctx, sess, d))
	}
	if s.Metrics != nil {
		s.Metrics.CycleDuration.Observe(time.Since(start).Seconds())
	}
	return errs
}

// RunManual builds and delivers a report for r immediately, outside the tick.
func (s *Scheduler) RunManual(ctx context.Context, r model.Recipient) (*report.Outcome, error) {
	d := model.DispatchDecision{
		Recipient:       r,
		Reason:          model.TriggerManual,
		IncludeStrategy: r.IsOwner(s.Dispatcher.OwnerID),
		At:              s.Now().In(s.Location),
	}
	sess, err := s.Connector.Connect(ctx)
	if err != nil {
		logger.Error("broker unavailable for manual report", zap.Bool("escalated", true), zap.Error(err))
		sess = nil
	} else {
		defer sess.Close()
	}
	return s.Reports.Run(ctx, sess, d)
}

func (s *Scheduler) dispatch(ctx context.Context, sess broker.Session, d model.DispatchDecision) (err error) {
	start := time.Now()
	var out *report.Outcome
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("report for %s panicked: %v", d.Recipient.ID, p)
		}
		s.observe(d, out, err, time.Since(start))
	}()

	if s.Metrics != nil {
		s.Metrics.DueRecipients.WithLabelValues(string(d.Reason)).Inc()
	}
	out, err = s.Reports.Run(ctx, sess, d)
	return err
}

func (s *Scheduler) observe(d model.DispatchDecision, out *report.Outcome, err error, elapsed time.Duration) {
	evt := &recorder.DeliveryEvent{
		RecipientID: d.Recipient.ID,
		Reason:      d.Reason,
		Delivered:   err == nil,
		Duration:    elapsed,
	}
	if out != nil {
		evt.Channels = out.Delivered
		if out.Report != nil {
			evt.Session = out.Report.Session
			if s.Metrics != nil {
				s.Metrics.SymbolErrors.Add(float64(len(out.Report.Snapshot.Errors)))
				for _, res := range out.Report.Strategy {
					s.Metrics.Signals.WithLabelValues(string(res.Signal)).Inc()
				}
			}
		}
	}

	result := "delivered"
	if err != nil {
		result = "failed"
		evt.Error = err.Error()
		logger.Error("report failed",
			zap.String("recipient", d.Recipient.ID),
			zap.String("reason", string(d.Reason)),
			zap.Error(err),
		)
	} else {
		logger.Info("report delivered",
			zap.String("recipient", d.Recipient.ID),
			zap.String("reason", string(d.Reason)),
			zap.Bool("strategy", d.IncludeStrategy),
			zap.Int("channels", evt.Channels),
			zap.Duration("elapsed", elapsed),
		)
	}
	if s.Metrics != nil {
		s.Metrics.Deliveries.WithLabelValues(result).Inc()
		s.Metrics.ReportDuration.Observe(elapsed.Seconds())
	}
	if s.Recorder != nil {
		if rerr := s.Recorder.RecordDelivery(evt); rerr != nil {
			logger.Error("record delivery", zap.Error(rerr))
		}
	}
}
