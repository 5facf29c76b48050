package notifier

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"SignalDesk/internal/model"
)

// EmailChannel sends reports over SMTP. smtp.SendMail upgrades with STARTTLS
// when the server offers it.
type EmailChannel struct {
	Host     string
	Port     int
	From     string
	Password string
	// OwnerTo is the owner's address when the owner has no email of their own.
	// Other recipients without an email are skipped.
	OwnerID string
	OwnerTo string

	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewEmailChannel creates an SMTP channel.
func NewEmailChannel(host string, port int, from, password, ownerID, ownerTo string) *EmailChannel {
	return &EmailChannel{Host: host, Port: port, From: from, Password: password, OwnerID: ownerID, OwnerTo: ownerTo, send: smtp.SendMail}
}

func (e *EmailChannel) Name() string { return "email" }

func (e *EmailChannel) Address(r model.Recipient) string {
	if r.Email != "" {
		return r.Email
	}
	if r.IsOwner(e.OwnerID) {
		return e.OwnerTo
	}
	return ""
}

func (e *EmailChannel) Deliver(ctx context.Context, msg Message, address string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	addr := net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
	auth := smtp.PlainAuth("", e.From, e.Password, e.Host)
	body := buildEmail(e.From, address, msg, time.Now())
	if err := e.send(addr, auth, e.From, []string{address}, body); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

func buildEmail(from, to string, msg Message, date time.Time) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + msg.Subject + "\r\n")
	b.WriteString("Date: " + date.Format(time.RFC1123Z) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(msg.Text, "\n", "\r\n"))
	return []byte(b.String())
}
