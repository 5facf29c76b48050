package notifier

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"SignalDesk/internal/model"
)

// WhatsAppMaxLen is the body limit applied before sending through Twilio.
const WhatsAppMaxLen = 1500

const twilioBaseURL = "https://api.twilio.com"

// WhatsAppChannel sends reports through the Twilio Messages API.
type WhatsAppChannel struct {
	BaseURL    string
	AccountSID string
	AuthToken  string
	From       string
	// OwnerTo is the owner's number when the owner has no WhatsApp of their own.
	// Other recipients without a number are skipped.
	OwnerID string
	OwnerTo string
	Client  *http.Client
}

// NewWhatsAppChannel creates a Twilio channel.
func NewWhatsAppChannel(accountSID, authToken, from, ownerID, ownerTo string) *WhatsAppChannel {
	return &WhatsAppChannel{
		BaseURL:    twilioBaseURL,
		AccountSID: accountSID,
		AuthToken:  authToken,
		From:       from,
		OwnerID:    ownerID,
		OwnerTo:    ownerTo,
		Client:     &http.Client{Timeout: 10 * time.Second},
	}
}

func (w *WhatsAppChannel) Name() string { return "whatsapp" }

func (w *WhatsAppChannel) Address(r model.Recipient) string {
	if r.WhatsApp != "" {
		return r.WhatsApp
	}
	if r.IsOwner(w.OwnerID) {
		return w.OwnerTo
	}
	return ""
}

func (w *WhatsAppChannel) Deliver(ctx context.Context, msg Message, address string) error {
	apiURL := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", w.BaseURL, w.AccountSID)
	form := url.Values{
		"From": {w.From},
		"To":   {address},
		"Body": {Truncate(msg.Text, WhatsAppMaxLen)},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(w.AccountSID, w.AuthToken)

	resp, err := w.Client.Do(req)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("twilio API error: status %d, body: %s", resp.StatusCode, string(respBody))
	}
	return nil
}
