package notifier

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/smtp"
	"strings"
	"sync"
	"testing"
	"time"

	"SignalDesk/internal/model"
)

type fakeChannel struct {
	name     string
	failures int // number of leading attempts that fail
	noAddr   bool

	mu    sync.Mutex
	calls []string
}

func (f *fakeChannel) Name() string { return f.name }

func (f *fakeChannel) Address(r model.Recipient) string {
	if f.noAddr {
		return ""
	}
	return r.ID
}

func (f *fakeChannel) Deliver(_ context.Context, msg Message, address string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, address+":"+msg.Text)
	if len(f.calls) <= f.failures {
		return errors.New("boom")
	}
	return nil
}

func fastNotifier(channels ...Channel) *Notifier {
	n := New(channels...)
	n.MaxRetries = 2
	n.Backoff = time.Millisecond
	return n
}

func TestNotify_OneChannelIsEnough(t *testing.T) {
	broken := &fakeChannel{name: "broken", failures: 100}
	ok := &fakeChannel{name: "ok"}
	skipped := &fakeChannel{name: "skipped", noAddr: true}

	n, err := fastNotifier(broken, skipped, ok).Notify(context.Background(), model.Recipient{ID: "7"}, Message{Text: "hi"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 delivered channel, got %d", n)
	}
	if len(broken.calls) != 3 {
		t.Errorf("expected 3 attempts on the broken channel, got %d", len(broken.calls))
	}
	if len(skipped.calls) != 0 {
		t.Errorf("channel without address should not be called")
	}
	if ok.calls[0] != "7:hi" {
		t.Errorf("unexpected call %q", ok.calls[0])
	}
}

func TestNotify_RetryRecovers(t *testing.T) {
	flaky := &fakeChannel{name: "flaky", failures: 1}
	n, err := fastNotifier(flaky).Notify(context.Background(), model.Recipient{ID: "7"}, Message{Text: "hi"})
	if err != nil || n != 1 {
		t.Fatalf("expected recovery, got %d, %v", n, err)
	}
	if len(flaky.calls) != 2 {
		t.Errorf("expected 2 attempts, got %d", len(flaky.calls))
	}
}

func TestNotify_AllFail(t *testing.T) {
	_, err := fastNotifier(&fakeChannel{name: "a", failures: 100}).Notify(context.Background(), model.Recipient{ID: "7"}, Message{Text: "hi"})
	if !errors.Is(err, ErrNotDelivered) {
		t.Fatalf("expected ErrNotDelivered, got %v", err)
	}

	_, err = fastNotifier(&fakeChannel{name: "a", noAddr: true}).Notify(context.Background(), model.Recipient{ID: "7"}, Message{Text: "hi"})
	if !errors.Is(err, ErrNoAddress) {
		t.Fatalf("expected ErrNoAddress, got %v", err)
	}
}

func TestNotify_ContextCancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	n := New(&fakeChannel{name: "a", failures: 100})
	if _, err := n.Notify(ctx, model.Recipient{ID: "7"}, Message{Text: "hi"}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestSplitMessage(t *testing.T) {
	if got := SplitMessage("short", 10); len(got) != 1 || got[0] != "short" {
		t.Errorf("unexpected %v", got)
	}
	got := SplitMessage("aaaa\nbbbb\ncccc", 10)
	if len(got) != 2 || got[0] != "aaaa\nbbbb" || got[1] != "cccc" {
		t.Errorf("unexpected line split %q", got)
	}
	got = SplitMessage(strings.Repeat("x", 25), 10)
	if len(got) != 3 || len(got[2]) != 5 {
		t.Errorf("unexpected hard split %q", got)
	}
	if got := Truncate("héllo", 2); got != "hé" {
		t.Errorf("truncate: %q", got)
	}
}

func TestTelegramChannel(t *testing.T) {
	var (
		mu    sync.Mutex
		texts []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/getMe"):
			w.Write([]byte(`{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"bot","username":"signal_bot"}}`))
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			r.ParseForm()
			mu.Lock()
			texts = append(texts, r.FormValue("chat_id")+"|"+r.FormValue("text"))
			mu.Unlock()
			w.Write([]byte(`{"ok":true,"result":{"message_id":1,"date":0,"chat":{"id":42,"type":"private"}}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	ch, err := NewTelegramChannel("TOKEN", "", srv.URL+"/bot%s/%s")
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if addr := ch.Address(model.Recipient{ID: "42"}); addr != "42" {
		t.Fatalf("unexpected address %q", addr)
	}

	long := strings.Repeat("a", TelegramMaxLen) + "tail"
	if err := ch.Deliver(context.Background(), Message{Text: long}, "42"); err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if len(texts) != 2 || texts[1] != "42|tail" {
		t.Fatalf("expected 2 chunks, got %d", len(texts))
	}
}

func TestWhatsAppChannel(t *testing.T) {
	var gotBody, gotUser string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/2010-04-01/Accounts/AC1/Messages.json" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		gotUser, _, _ = r.BasicAuth()
		r.ParseForm()
		gotBody = r.FormValue("Body")
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	ch := NewWhatsAppChannel("AC1", "secret", "whatsapp:+1000", "1", "whatsapp:+2000")
	ch.BaseURL = srv.URL
	if addr := ch.Address(model.Recipient{ID: "1"}); addr != "whatsapp:+2000" {
		t.Errorf("expected owner address, got %q", addr)
	}
	if addr := ch.Address(model.Recipient{ID: "2"}); addr != "" {
		t.Errorf("standard recipient without a number must be skipped, got %q", addr)
	}
	if addr := ch.Address(model.Recipient{ID: "1", WhatsApp: "whatsapp:+3000"}); addr != "whatsapp:+3000" {
		t.Errorf("expected recipient address, got %q", addr)
	}

	if err := ch.Deliver(context.Background(), Message{Text: strings.Repeat("b", 2000)}, "whatsapp:+3000"); err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if gotUser != "AC1" || len(gotBody) != WhatsAppMaxLen {
		t.Errorf("unexpected request user=%q len=%d", gotUser, len(gotBody))
	}

	ch.AccountSID = "missing"
	if err := ch.Deliver(context.Background(), Message{Text: "x"}, "whatsapp:+3000"); err == nil {
		t.Error("expected error for non-2xx response")
	}
}

func TestEmailChannel(t *testing.T) {
	ch := NewEmailChannel("smtp.example.com", 587, "bot@example.com", "pw", "1", "ops@example.com")
	var (
		gotAddr string
		gotTo   []string
		gotMsg  string
	)
	ch.send = func(addr string, _ smtp.Auth, _ string, to []string, msg []byte) error {
		gotAddr, gotTo, gotMsg = addr, to, string(msg)
		return nil
	}

	addr := ch.Address(model.Recipient{ID: "1"})
	if addr != "ops@example.com" {
		t.Fatalf("expected owner address, got %q", addr)
	}
	if err := ch.Deliver(context.Background(), Message{Subject: "Report", Text: "line1\nline2"}, addr); err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if gotAddr != "smtp.example.com:587" || len(gotTo) != 1 || gotTo[0] != "ops@example.com" {
		t.Errorf("unexpected envelope %s %v", gotAddr, gotTo)
	}
	if !strings.Contains(gotMsg, "Subject: Report\r\n") || !strings.HasSuffix(gotMsg, "line1\r\nline2") {
		t.Errorf("unexpected message %q", gotMsg)
	}

	ch.send = func(string, smtp.Auth, string, []string, []byte) error { return errors.New("refused") }
	if err := ch.Deliver(context.Background(), Message{Text: "x"}, addr); err == nil {
		t.Error("expected smtp error")
	}
}

func TestNotify_StandardRecipientWithoutEmailSkipsEmail(t *testing.T) {
	email := NewEmailChannel("smtp.example.com", 587, "bot@example.com", "pw", "owner", "ops@example.com")
	var sentTo []string
	email.send = func(_ string, _ smtp.Auth, _ string, to []string, _ []byte) error {
		sentTo = append(sentTo, to...)
		return nil
	}
	tg := &fakeChannel{name: "telegram"}

	n, err := fastNotifier(email, tg).Notify(context.Background(), model.Recipient{ID: "u1"}, Message{Text: "hi"})
	if err != nil || n != 1 {
		t.Fatalf("expected telegram only, got %d, %v", n, err)
	}
	if len(sentTo) != 0 {
		t.Errorf("owner mailbox must not receive standard reports, got %v", sentTo)
	}

	n, err = fastNotifier(email).Notify(context.Background(), model.Recipient{ID: "u2"}, Message{Text: "hi"})
	if !errors.Is(err, ErrNotDelivered) || n != 0 {
		t.Errorf("recipient without any address must not count as delivered, got %d, %v", n, err)
	}

	if _, err := fastNotifier(email).Notify(context.Background(), model.Recipient{ID: "owner"}, Message{Text: "hi"}); err != nil {
		t.Fatalf("owner delivery: %v", err)
	}
	if len(sentTo) != 1 || sentTo[0] != "ops@example.com" {
		t.Errorf("owner should use the configured address, got %v", sentTo)
	}
}

type splitChannel struct {
	fakeChannel
	failPart string
	failed   bool
}

func (s *splitChannel) Split(msg Message) []Message {
	var parts []Message
	for _, line := range strings.Split(msg.Text, "\n") {
		parts = append(parts, Message{Subject: msg.Subject, Text: line})
	}
	return parts
}

func (s *splitChannel) Deliver(ctx context.Context, msg Message, address string) error {
	s.mu.Lock()
	fail := msg.Text == s.failPart && !s.failed
	if fail {
		s.failed = true
	}
	s.mu.Unlock()
	if fail {
		return errors.New("flood wait")
	}
	return s.fakeChannel.Deliver(ctx, msg, address)
}

func TestNotify_RetriesOnlyFailedPart(t *testing.T) {
	ch := &splitChannel{fakeChannel: fakeChannel{name: "split"}, failPart: "two"}

	n, err := fastNotifier(ch).Notify(context.Background(), model.Recipient{ID: "7"}, Message{Text: "one\ntwo\nthree"})
	if err != nil || n != 1 {
		t.Fatalf("expected delivery after retry, got %d, %v", n, err)
	}
	want := []string{"7:one", "7:two", "7:three"}
	if strings.Join(ch.calls, ",") != strings.Join(want, ",") {
		t.Errorf("each part must arrive once, got %v", ch.calls)
	}
}

func TestTelegramChannel_Split(t *testing.T) {
	ch := &TelegramChannel{}
	parts := ch.Split(Message{Subject: "s", Text: strings.Repeat("a", TelegramMaxLen+10)})
	if len(parts) != 2 || len(parts[0].Text) != TelegramMaxLen || parts[1].Subject != "s" {
		t.Fatalf("unexpected parts %d", len(parts))
	}
}
