package scheduler

import (
	"time"

	"SignalDesk/internal/model"
	"SignalDesk/internal/recipient"
)

// Dispatcher decides which recipients are due at a tick.
type Dispatcher struct {
	Defaults recipient.Defaults
	OwnerID  string
}

// Due returns at most one decision per subscribed recipient for the minute
// containing now. An explicit time match takes precedence over a frequency
// match as the reported reason. Missed minutes are never backfilled.
func (d *Dispatcher) Due(now time.Time, recipients []model.Recipient) []model.DispatchDecision {
	minuteOfDay := now.Hour()*60 + now.Minute()
	current := now.Format("15:04")
	at := now.Truncate(time.Minute)

	var out []model.DispatchDecision
	for _, r := range recipients {
		if !r.Subscribed {
			continue
		}
		reason, ok := d.trigger(r, minuteOfDay, current)
		if !ok {
			continue
		}
		out = append(out, model.DispatchDecision{
			Recipient:       r,
			Reason:          reason,
			IncludeStrategy: r.IsOwner(d.OwnerID),
			At:              at,
		})
	}
	return out
}

func (d *Dispatcher) trigger(r model.Recipient, minuteOfDay int, current string) (model.TriggerReason, bool) {
	for _, t := range d.Defaults.Times(r) {
		if t == current {
			return model.TriggerTime, true
		}
	}
	if r.FrequencyMinutes > 0 && minuteOfDay%r.FrequencyMinutes == 0 {
		return model.TriggerFrequency, true
	}
	return "", false
}
