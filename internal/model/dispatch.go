package model

import "time"

// TriggerReason indicates why a recipient is due.
type TriggerReason string

const (
	TriggerTime      TriggerReason = "time-match"
	TriggerFrequency TriggerReason = "frequency-match"
	TriggerManual    TriggerReason = "manual"
)

// DispatchDecision says a report is due for a recipient at one tick.
type DispatchDecision struct {
	Recipient       Recipient
	Reason          TriggerReason
	IncludeStrategy bool
	At              time.Time
}
