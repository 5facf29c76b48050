package recorder

import (
	"path/filepath"
	"testing"
	"time"

	"SignalDesk/internal/model"
)

func TestSQLiteRecorder(t *testing.T) {
	rec, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer rec.Close()

	if err := rec.RecordDelivery(&DeliveryEvent{
		RecipientID: "42", Reason: model.TriggerTime, Session: "pre-market",
		Delivered: true, Channels: 1, Duration: 1500 * time.Millisecond,
	}); err != nil {
		t.Fatalf("record delivery: %v", err)
	}

	base := time.Date(2024, 6, 3, 8, 0, 0, 0, time.UTC)
	for i, sig := range []model.Signal{model.SignalBuy, model.SignalHold, model.SignalSell} {
		if err := rec.RecordSignal(&model.StrategyResult{
			Symbol: "AAPL", Signal: sig, Price: 190 + float64(i),
			CurrentPosition: int64(i), EvaluatedAt: base.Add(time.Duration(i) * time.Hour),
		}); err != nil {
			t.Fatalf("record signal: %v", err)
		}
	}

	got, err := rec.RecentSignals(2)
	if err != nil {
		t.Fatalf("recent signals: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 signals, got %d", len(got))
	}
	if got[0].Signal != model.SignalSell || got[1].Signal != model.SignalHold {
		t.Errorf("expected newest first, got %s, %s", got[0].Signal, got[1].Signal)
	}
	if got[0].Price != 192 || got[0].CurrentPosition != 2 || !got[0].EvaluatedAt.Equal(base.Add(2*time.Hour)) {
		t.Errorf("unexpected row %+v", got[0])
	}

	if none, _ := rec.RecentSignals(0); len(none) != 0 {
		t.Errorf("limit 0 should return nothing")
	}
}

func TestNoopRecorder(t *testing.T) {
	var rec Recorder = NewNoopRecorder()
	if err := rec.RecordSignal(&model.StrategyResult{}); err != nil {
		t.Fatal(err)
	}
	if got, err := rec.RecentSignals(5); err != nil || got != nil {
		t.Fatalf("unexpected %v %v", got, err)
	}
}
