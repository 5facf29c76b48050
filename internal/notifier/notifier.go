// Package notifier delivers rendered reports over the configured channels.
package notifier

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"SignalDesk/internal/model"
	"SignalDesk/pkg/logger"
)

// ErrNoAddress is returned by a channel that has no destination for a recipient.
var ErrNoAddress = errors.New("no address for recipient")

// ErrNotDelivered is returned when every channel failed.
var ErrNotDelivered = errors.New("report not delivered on any channel")

// Message is a rendered report ready to send.
type Message struct {
	Subject string
	Text    string
}

// Channel is a single delivery method.
type Channel interface {
	Name() string
	// Address returns the destination for r, or "" when the channel cannot reach r.
	Address(r model.Recipient) string
	Deliver(ctx context.Context, msg Message, address string) error
}

// Splitter is implemented by channels that send long messages in parts.
// Each part is delivered and retried on its own.
type Splitter interface {
	Split(msg Message) []Message
}

// Notifier fans a message out over every channel.
type Notifier struct {
	Channels   []Channel
	MaxRetries int
	Backoff    time.Duration
}

// New creates a Notifier that retries each channel 3 times, backing off from 1s.
func New(channels ...Channel) *Notifier {
	return &Notifier{Channels: channels, MaxRetries: 3, Backoff: time.Second}
}

// Notify delivers msg to r on all channels. It returns the number of channels
// that accepted the message; the report counts as delivered when that is > 0.
func (n *Notifier) Notify(ctx context.Context, r model.Recipient, msg Message) (int, error) {
	var (
		delivered int
		errs      error
	)
	for _, ch := range n.Channels {
		addr := ch.Address(r)
		if addr == "" {
			logger.Debug("channel skipped", zap.String("channel", ch.Name()), zap.String("recipient", r.ID))
			continue
		}
		if err := n.deliverParts(ctx, ch, msg, addr); err != nil {
			logger.Error("delivery failed",
				zap.String("channel", ch.Name()),
				zap.String("recipient", r.ID),
				zap.Error(err),
			)
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", ch.Name(), err))
			continue
		}
		delivered++
	}
	if delivered == 0 {
		if errs == nil {
			errs = ErrNoAddress
		}
		return 0, fmt.Errorf("%w: %w", ErrNotDelivered, errs)
	}
	return delivered, nil
}

// deliverParts sends msg part by part so a retry never repeats a part that
// was already accepted.
func (n *Notifier) deliverParts(ctx context.Context, ch Channel, msg Message, addr string) error {
	parts := []Message{msg}
	if s, ok := ch.(Splitter); ok {
		parts = s.Split(msg)
	}
	for i, part := range parts {
		if err := n.deliverWithRetry(ctx, ch, part, addr); err != nil {
			if len(parts) > 1 {
				return fmt.Errorf("part %d/%d: %w", i+1, len(parts), err)
			}
			return err
		}
	}
	return nil
}

// deliverWithRetry sends with exponential backoff.
func (n *Notifier) deliverWithRetry(ctx context.Context, ch Channel, msg Message, addr string) error {
	var lastErr error
	for i := 0; i <= n.MaxRetries; i++ {
		err := ch.Deliver(ctx, msg, addr)
		if err == nil {
			return nil
		}
		lastErr = err
		if i == n.MaxRetries {
			break
		}
		backoff := n.Backoff * time.Duration(1<<uint(i))
		logger.Warn("send failed, retrying",
			zap.String("channel", ch.Name()),
			zap.Int("attempt", i+1),
			zap.Int("max_attempts", n.MaxRetries+1),
			zap.Duration("backoff", backoff),
			zap.Error(err),
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
	return fmt.Errorf("all %d attempts failed: %w", n.MaxRetries+1, lastErr)
}

// SplitMessage cuts text into chunks of at most max runes, preferring line breaks.
func SplitMessage(text string, max int) []string {
	if max <= 0 || utf8.RuneCountInString(text) <= max {
		return []string{text}
	}
	var chunks []string
	runes := []rune(text)
	for len(runes) > max {
		cut := max
		if i := lastNewline(runes[:max]); i > 0 {
			cut = i + 1
		}
		chunks = append(chunks, strings.TrimRight(string(runes[:cut]), "\n"))
		runes = runes[cut:]
	}
	if len(runes) > 0 {
		chunks = append(chunks, string(runes))
	}
	return chunks
}

// Truncate shortens text to at most max runes.
func Truncate(text string, max int) string {
	if max <= 0 || utf8.RuneCountInString(text) <= max {
		return text
	}
	return string([]rune(text)[:max])
}

func lastNewline(runes []rune) int {
	for i := len(runes) - 1; i >= 0; i-- {
		if runes[i] == '\n' {
			return i
		}
	}
	return -1
}
