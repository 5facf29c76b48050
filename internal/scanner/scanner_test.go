package scanner

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"SignalDesk/internal/broker"
	"SignalDesk/internal/model"
	"SignalDesk/internal/strategy"
)

func TestUniverse(t *testing.T) {
	s := New(strategy.ProfileFor("swing"), []string{"SPY", "QQQ"}, true)
	got := s.Universe([]string{"AAPL", "SPY", "MSFT", "AAPL", ""})
	want := []string{"AAPL", "SPY", "MSFT", "QQQ"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestScan(t *testing.T) {
	end := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	mock := &broker.MockConnector{
		Bars: map[string][]model.Bar{
			"AAPL": broker.GenerateMockBars(180, 120, end),
			"SPY":  broker.GenerateMockBars(500, 120, end),
			"TINY": broker.GenerateMockBars(10, 20, end),
		},
		FetchErr: map[string]error{"DOWN": errors.New("timeout")},
	}
	sess, _ := mock.Connect(context.Background())
	defer sess.Close()

	s := New(strategy.ProfileFor("swing"), []string{"SPY", "QQQ"}, true)
	snap := s.Scan(context.Background(), sess, []string{"AAPL", "TINY", "DOWN"})

	if len(snap.Stocks) != 5 {
		t.Fatalf("expected 5 snapshots, got %d", len(snap.Stocks))
	}
	if valid := snap.Valid(); len(valid) != 2 || valid[0].Symbol != "AAPL" || valid[1].Symbol != "SPY" {
		t.Errorf("unexpected valid snapshots %+v", valid)
	}

	wantErrs := []string{"TINY: Insufficient data", "DOWN: Failed to fetch data", "QQQ: Failed to fetch data"}
	if strings.Join(snap.Errors, "|") != strings.Join(wantErrs, "|") {
		t.Errorf("errors: got %v, want %v", snap.Errors, wantErrs)
	}

	if len(snap.Summary) != 2 || snap.Summary[0].Key != "SPY_price" || snap.Summary[1].Key != "SPY_trend" {
		t.Errorf("unexpected summary %+v", snap.Summary)
	}

	for _, req := range mock.Requests() {
		if req.Duration != "30 D" || req.BarSize != "1 hour" {
			t.Errorf("request did not use the swing timeframe: %+v", req)
		}
	}
}

func TestScan_NoSession(t *testing.T) {
	s := New(strategy.ProfileFor(""), nil, true)
	snap := s.Scan(context.Background(), nil, []string{"AAPL"})
	if len(snap.Stocks) != 0 || len(snap.Errors) != 1 || snap.Errors[0] != ErrConnectFailed {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
}
