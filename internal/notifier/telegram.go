package notifier

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"SignalDesk/internal/model"
)

// TelegramMaxLen is the chunk size used to stay under the Bot API message limit.
const TelegramMaxLen = 4000

type messageSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramChannel sends reports through the Telegram Bot API. The recipient
// id is the chat id.
type TelegramChannel struct {
	bot messageSender
}

// NewTelegramChannel connects to the Bot API with optional proxy support.
// An empty endpoint uses the public API.
func NewTelegramChannel(botToken, proxyURL, endpoint string) (*TelegramChannel, error) {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	client := &http.Client{Timeout: 30 * time.Second, Transport: transport}
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	bot, err := tgbotapi.NewBotAPIWithClient(botToken, endpoint, client)
	if err != nil {
		return nil, fmt.Errorf("telegram login: %w", err)
	}
	return &TelegramChannel{bot: bot}, nil
}

func (t *TelegramChannel) Name() string { return "telegram" }

func (t *TelegramChannel) Address(r model.Recipient) string { return r.ID }

// Split cuts msg into TelegramMaxLen chunks.
func (t *TelegramChannel) Split(msg Message) []Message {
	chunks := SplitMessage(msg.Text, TelegramMaxLen)
	parts := make([]Message, len(chunks))
	for i, c := range chunks {
		parts[i] = Message{Subject: msg.Subject, Text: c}
	}
	return parts
}

// Deliver sends msg as plain text, split into TelegramMaxLen chunks.
func (t *TelegramChannel) Deliver(ctx context.Context, msg Message, address string) error {
	for _, chunk := range SplitMessage(msg.Text, TelegramMaxLen) {
		if err := ctx.Err(); err != nil {
			return err
		}
		var cfg tgbotapi.MessageConfig
		if chatID, err := strconv.ParseInt(address, 10, 64); err == nil {
			cfg = tgbotapi.NewMessage(chatID, chunk)
		} else {
			cfg = tgbotapi.NewMessageToChannel(address, chunk)
		}
		if _, err := t.bot.Send(cfg); err != nil {
			return fmt.Errorf("send message: %w", err)
		}
	}
	return nil
}
