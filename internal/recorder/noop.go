package recorder

import "SignalDesk/internal/model"

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordDelivery(_ *DeliveryEvent) error                { return nil }
func (n *NoopRecorder) RecordSignal(_ *model.StrategyResult) error           { return nil }
func (n *NoopRecorder) RecentSignals(_ int) ([]model.StrategyResult, error) { return nil, nil }
func (n *NoopRecorder) Close() error                                         { return nil }
