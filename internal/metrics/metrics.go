// Package metrics exposes dispatch and delivery metrics for Prometheus.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"SignalDesk/pkg/logger"
)

// Metrics holds all Prometheus metrics for the dispatcher.
type Metrics struct {
	Ticks                 prometheus.Counter
	DueRecipients         *prometheus.CounterVec // labels: reason
	Deliveries            *prometheus.CounterVec // labels: result=delivered|failed
	CycleDuration         prometheus.Histogram
	ReportDuration        prometheus.Histogram
	BrokerConnectFailures prometheus.Counter
	Signals               *prometheus.CounterVec // labels: signal
	SymbolErrors          prometheus.Counter

	gatherer prometheus.Gatherer
}

// New creates the metrics and registers them with reg. A nil reg uses a fresh registry.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		Ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "signaldesk_ticks_total",
			Help: "Scheduler ticks processed",
		}),
		DueRecipients: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "signaldesk_due_recipients_total",
			Help: "Dispatch decisions by trigger reason",
		}, []string{"reason"}),
		Deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "signaldesk_deliveries_total",
			Help: "Report deliveries by result",
		}, []string{"result"}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "signaldesk_cycle_duration_seconds",
			Help:    "Duration of a dispatch cycle with at least one due recipient",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 30, 45, 60},
		}),
		ReportDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "signaldesk_report_duration_seconds",
			Help:    "Time to build and deliver one recipient report",
			Buckets: prometheus.DefBuckets,
		}),
		BrokerConnectFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "signaldesk_broker_connect_failures_total",
			Help: "Cycles that could not open a broker session",
		}),
		Signals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "signaldesk_strategy_signals_total",
			Help: "Crossover signals produced",
		}, []string{"signal"}),
		SymbolErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "signaldesk_symbol_errors_total",
			Help: "Symbols whose snapshot carried an error",
		}),
		gatherer: reg,
	}
	reg.MustRegister(
		m.Ticks,
		m.DueRecipients,
		m.Deliveries,
		m.CycleDuration,
		m.ReportDuration,
		m.BrokerConnectFailures,
		m.Signals,
		m.SymbolErrors,
	)
	return m
}

// Handler serves the registered metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logger.Info("metrics server listening", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
