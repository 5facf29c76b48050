package notifier

import (
	"context"

	"go.uber.org/zap"

	"SignalDesk/internal/model"
	"SignalDesk/pkg/logger"
)

// LogChannel writes reports to the application log. Useful without any messaging credentials.
type LogChannel struct{}

func (LogChannel) Name() string { return "log" }

func (LogChannel) Address(r model.Recipient) string { return r.ID }

func (LogChannel) Deliver(_ context.Context, msg Message, address string) error {
	logger.Info("report", zap.String("to", address), zap.String("subject", msg.Subject), zap.String("text", msg.Text))
	return nil
}
