package recipient

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"SignalDesk/internal/model"
)

func TestIsValidHHMM(t *testing.T) {
	valid := []string{"00:00", "08:00", "23:59", "12:30"}
	invalid := []string{"", "8:00", "24:00", "12:60", "12-30", "ab:cd", "+1:00", "08:00 ", "123:00"}
	for _, v := range valid {
		if !IsValidHHMM(v) {
			t.Errorf("%q should be valid", v)
		}
	}
	for _, v := range invalid {
		if IsValidHHMM(v) {
			t.Errorf("%q should be invalid", v)
		}
	}
}

func TestNormalizeTimes(t *testing.T) {
	got, err := NormalizeTimes([]string{" 08:00", "20:00", "08:00", ""})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Join(got, ",") != "08:00,20:00" {
		t.Errorf("got %v", got)
	}
	if _, err := NormalizeTimes([]string{"08:00", "25:00"}); !errors.Is(err, ErrInvalidTime) {
		t.Errorf("expected ErrInvalidTime, got %v", err)
	}
	if _, err := NormalizeTimes(nil); !errors.Is(err, ErrInvalidTime) {
		t.Errorf("expected ErrInvalidTime for empty list, got %v", err)
	}
}

func TestValidateFrequency(t *testing.T) {
	if err := ValidateFrequency(60, 5); err != nil {
		t.Errorf("60 should be valid: %v", err)
	}
	if err := ValidateFrequency(0, 5); !errors.Is(err, ErrInvalidFrequency) {
		t.Errorf("expected ErrInvalidFrequency, got %v", err)
	}
	if err := ValidateFrequency(-10, 5); !errors.Is(err, ErrInvalidFrequency) {
		t.Errorf("expected ErrInvalidFrequency, got %v", err)
	}
	if err := ValidateFrequency(3, 5); !errors.Is(err, ErrFrequencyTooLow) {
		t.Errorf("expected ErrFrequencyTooLow, got %v", err)
	}
}

func TestParseList(t *testing.T) {
	got := ParseList("aapl, msft  tsla,,")
	if strings.Join(got, ",") != "AAPL,MSFT,TSLA" {
		t.Errorf("got %v", got)
	}
}

func TestDefaults(t *testing.T) {
	d := Defaults{
		ScanSymbols:  []string{"SPY"},
		TradeSymbols: []string{"AAPL"},
		ReportTimes:  []string{"09:30", "bad"},
	}
	r := model.Recipient{ID: "1"}
	if got := d.Symbols(r); len(got) != 1 || got[0] != "SPY" {
		t.Errorf("symbols fallback: %v", got)
	}
	if got := d.StrategySymbols(r); len(got) != 1 || got[0] != "AAPL" {
		t.Errorf("strategy symbols fallback: %v", got)
	}
	if got := d.Times(r); strings.Join(got, ",") != "09:30" {
		t.Errorf("times fallback: %v", got)
	}

	r.Symbols = []string{"NVDA"}
	r.Times = []string{"7:00", "07:15"}
	if got := d.StrategySymbols(r); got[0] != "NVDA" {
		t.Errorf("override ignored: %v", got)
	}
	if got := d.Times(r); strings.Join(got, ",") != "07:15" {
		t.Errorf("own times: %v", got)
	}

	r.Times = []string{"nope"}
	d.ReportTimes = nil
	if got := d.Times(r); strings.Join(got, ",") != "08:00,20:00" {
		t.Errorf("final fallback: %v", got)
	}
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "recipients.json")
	s := NewFileStore(path)

	list, err := s.List()
	if err != nil || len(list) != 0 {
		t.Fatalf("expected empty registry, got %v, %v", list, err)
	}
	if _, ok, err := s.Get("42"); ok || err != nil {
		t.Fatalf("expected missing recipient, got ok=%v err=%v", ok, err)
	}

	for _, id := range []string{"b", "a"} {
		if err := s.Upsert(model.Recipient{ID: id, Subscribed: true}); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}
	if err := s.Upsert(model.Recipient{ID: "a", Subscribed: false}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	list, _ = s.List()
	if len(list) != 2 || list[0].ID != "a" || list[1].ID != "b" {
		t.Fatalf("unexpected list %+v", list)
	}
	if list[0].Subscribed {
		t.Errorf("last write should win")
	}

	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Errorf("temporary file left behind")
	}
	if err := s.Upsert(model.Recipient{}); err == nil {
		t.Errorf("expected error for empty id")
	}
}

func TestFileStore_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recipients.json")
	os.WriteFile(path, []byte("{not json"), 0644)
	if _, err := NewFileStore(path).List(); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestRegistry(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "recipients.json"))
	reg := NewRegistry(store, "owner", 0)

	r, err := reg.Subscribe("owner", "boss")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if r.Role != model.RoleOwner || !r.Subscribed || r.Username != "boss" {
		t.Errorf("unexpected owner %+v", r)
	}

	if _, err := reg.SetFrequency("u1", 30); err != nil {
		t.Fatalf("set frequency: %v", err)
	}
	r, err = reg.SetTimes("u1", []string{"08:00", "12:00"})
	if err != nil {
		t.Fatalf("set times: %v", err)
	}
	if r.FrequencyMinutes != 0 || len(r.Times) != 2 {
		t.Errorf("times should clear frequency: %+v", r)
	}

	r, err = reg.SetFrequency("u1", 15)
	if err != nil {
		t.Fatalf("set frequency: %v", err)
	}
	if r.FrequencyMinutes != 15 || len(r.Times) != 2 {
		t.Errorf("frequency should keep times: %+v", r)
	}
	if _, err := reg.SetFrequency("u1", 2); !errors.Is(err, ErrFrequencyTooLow) {
		t.Errorf("expected ErrFrequencyTooLow, got %v", err)
	}
	if _, err := reg.SetTimes("u1", []string{"99:99"}); !errors.Is(err, ErrInvalidTime) {
		t.Errorf("expected ErrInvalidTime, got %v", err)
	}

	if _, err := reg.SetSymbols("u1", "aapl,msft"); err != nil {
		t.Fatalf("set symbols: %v", err)
	}
	if _, err := reg.SetSymbols("u1", " , "); err == nil {
		t.Errorf("expected error for empty symbol list")
	}
	if _, err := reg.Unsubscribe("u1"); err != nil {
		t.Fatalf("unsubscribe: %v", err)
	}

	r, ok, err := reg.Get("u1")
	if err != nil || !ok {
		t.Fatalf("get: %v %v", ok, err)
	}
	if r.Subscribed || r.Role != model.RoleStandard || strings.Join(r.Symbols, ",") != "AAPL,MSFT" || r.FrequencyMinutes != 15 {
		t.Errorf("unexpected stored recipient %+v", r)
	}

	list, _ := reg.List()
	if len(list) != 2 {
		t.Errorf("unsubscribed recipients must be kept, got %d", len(list))
	}
}

func TestRegistry_OwnerFollowsConfiguredID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recipients.json")
	if _, err := NewRegistry(NewFileStore(path), "old", 0).Subscribe("old", ""); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	reg := NewRegistry(NewFileStore(path), "new", 0)
	r, ok, err := reg.Get("old")
	if err != nil || !ok {
		t.Fatalf("get: %v %v", ok, err)
	}
	if r.Role != model.RoleStandard || r.IsOwner(reg.OwnerID()) {
		t.Errorf("previous owner must be standard after owner change: %+v", r)
	}

	r, err = reg.GetOrCreate("new", "")
	if err != nil {
		t.Fatalf("get or create: %v", err)
	}
	if r.Role != model.RoleOwner {
		t.Errorf("configured owner must have owner role: %+v", r)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read store: %v", err)
	}
	if strings.Contains(string(raw), "role") {
		t.Errorf("role must not be persisted:\n%s", raw)
	}
}
