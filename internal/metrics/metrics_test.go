package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestMetricsExposed(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.Ticks.Inc()
	m.Deliveries.WithLabelValues("delivered").Add(2)
	m.Signals.WithLabelValues("BUY").Inc()

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	found := map[string]bool{}
	for _, f := range families {
		found[f.GetName()] = true
	}
	for _, name := range []string{"signaldesk_ticks_total", "signaldesk_deliveries_total", "signaldesk_strategy_signals_total"} {
		if !found[name] {
			t.Errorf("metric %s not gathered", name)
		}
	}

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()
	resp, err := srv.Client().Get(srv.URL)
	if err != nil {
		t.Fatalf("scrape: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `signaldesk_deliveries_total{result="delivered"} 2`) {
		t.Errorf("unexpected scrape body:\n%s", body)
	}
}
