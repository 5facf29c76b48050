package main

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"SignalDesk/internal/broker"
	"SignalDesk/internal/config"
	"SignalDesk/internal/metrics"
	"SignalDesk/internal/notifier"
	"SignalDesk/internal/recipient"
	"SignalDesk/internal/recorder"
	"SignalDesk/internal/report"
	"SignalDesk/internal/scanner"
	"SignalDesk/internal/scheduler"
	"SignalDesk/internal/strategy"
	"SignalDesk/pkg/logger"
)

// app holds the wired components.
type app struct {
	cfg       *config.Config
	connector broker.Connector
	registry  *recipient.Registry
	defaults  recipient.Defaults
	scanner   *scanner.Scanner
	engine    *strategy.Engine
	recorder  recorder.Recorder
	metrics   *metrics.Metrics
	sched     *scheduler.Scheduler
}

func newConnector(cfg *config.Config) broker.Connector {
	var conn broker.Connector
	switch cfg.Broker.Kind {
	case "rest":
		conn = broker.NewRESTConnector(cfg.Broker.BaseURL, cfg.Broker.APIKey, cfg.Proxy)
	case "mock":
		conn = &broker.MockConnector{Price: 100}
	default:
		conn = broker.NewYahooConnector(cfg.Proxy)
	}
	if cfg.Broker.PaperTrading {
		conn = broker.NewPaperConnector(conn)
	}
	return conn
}

func newRecorder(cfg *config.Config) recorder.Recorder {
	if cfg.Database.SQLitePath == "" {
		return recorder.NewNoopRecorder()
	}
	sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
	if err != nil {
		logger.Warn("init sqlite recorder failed, using noop", zap.Error(err))
		return recorder.NewNoopRecorder()
	}
	return sr
}

func newNotifier(cfg *config.Config) *notifier.Notifier {
	var channels []notifier.Channel
	n := cfg.Notifications
	if cfg.HasMethod("telegram") {
		tg, err := notifier.NewTelegramChannel(n.Telegram.BotToken, cfg.Proxy, "")
		if err != nil {
			logger.Warn("telegram channel disabled", zap.Error(err))
		} else {
			channels = append(channels, tg)
		}
	}
	if cfg.HasMethod("email") {
		channels = append(channels, notifier.NewEmailChannel(n.Email.SMTPHost, n.Email.SMTPPort, n.Email.From, n.Email.Password, cfg.Recipients.OwnerID, n.Email.To))
	}
	if cfg.HasMethod("whatsapp") {
		channels = append(channels, notifier.NewWhatsAppChannel(n.WhatsApp.AccountSID, n.WhatsApp.AuthToken, n.WhatsApp.From, cfg.Recipients.OwnerID, n.WhatsApp.To))
	}
	if cfg.HasMethod("log") || len(channels) == 0 {
		channels = append(channels, notifier.LogChannel{})
	}
	names := make([]string, len(channels))
	for i, c := range channels {
		names[i] = c.Name()
	}
	logger.Info("notification channels", zap.Strings("channels", names))
	return notifier.New(channels...)
}

// newApp wires everything except delivery channels and the scheduler.
func newApp(cfg *config.Config) *app {
	profile := strategy.ProfileFor(cfg.Strategy.Type)
	store := recipient.NewFileStore(cfg.Recipients.StoreFile)
	return &app{
		cfg:       cfg,
		connector: newConnector(cfg),
		registry:  recipient.NewRegistry(store, cfg.Recipients.OwnerID, cfg.Recipients.MinFrequencyMinutes),
		defaults: recipient.Defaults{
			ScanSymbols:  cfg.Scanner.Symbols,
			TradeSymbols: cfg.Strategy.TradeSymbols,
			ReportTimes:  cfg.Schedule.ReportTimes,
		},
		scanner: scanner.New(profile, cfg.Scanner.MarketIndicators, cfg.Broker.RegularHoursOnly),
		engine:  strategy.NewEngine(profile, cfg.Strategy.SharesPerTrade, cfg.Broker.RegularHoursOnly),
	}
}

// withDelivery adds the recorder, metrics, notifier and scheduler.
func (a *app) withDelivery(ctx context.Context) error {
	loc, err := a.cfg.Location()
	if err != nil {
		return fmt.Errorf("schedule timezone: %w", err)
	}
	a.recorder = newRecorder(a.cfg)
	a.metrics = metrics.New(prometheus.NewRegistry())

	orch := &report.Orchestrator{
		Scanner:       a.scanner,
		Engine:        a.engine,
		Defaults:      a.defaults,
		Recorder:      a.recorder,
		Notifier:      newNotifier(a.cfg),
		Archive:       &report.Archive{Dir: a.cfg.Reports.Dir},
		HistoryLength: a.cfg.History.Length,
	}
	disp := &scheduler.Dispatcher{Defaults: a.defaults, OwnerID: a.cfg.Recipients.OwnerID}
	a.sched = scheduler.NewScheduler(ctx, loc, a.registry, disp, a.connector, orch, a.recorder, a.metrics)
	return nil
}

func (a *app) close() {
	if a.recorder != nil {
		if err := a.recorder.Close(); err != nil {
			logger.Warn("close recorder", zap.Error(err))
		}
	}
}
