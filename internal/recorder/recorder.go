package recorder

import (
	"time"

	"SignalDesk/internal/model"
)

// DeliveryEvent records the outcome of one report dispatch.
type DeliveryEvent struct {
	RecipientID string
	Reason      model.TriggerReason
	Session     string
	Delivered   bool
	Channels    int // channels that accepted the report
	Error       string
	Duration    time.Duration
}

// Recorder persists run history for analysis.
type Recorder interface {
	RecordDelivery(evt *DeliveryEvent) error
	RecordSignal(res *model.StrategyResult) error
	// RecentSignals returns up to limit signals, newest first.
	RecentSignals(limit int) ([]model.StrategyResult, error)
	Close() error
}
