package broker

import (
	"context"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"

	"SignalDesk/internal/model"
	"SignalDesk/pkg/logger"
)

// PaperConnector wraps another connector so that orders are only logged.
type PaperConnector struct {
	Inner Connector
	seq   atomic.Int64
}

func NewPaperConnector(inner Connector) *PaperConnector {
	return &PaperConnector{Inner: inner}
}

func (p *PaperConnector) Name() string { return "paper+" + p.Inner.Name() }

func (p *PaperConnector) Connect(ctx context.Context) (Session, error) {
	sess, err := p.Inner.Connect(ctx)
	if err != nil {
		return nil, err
	}
	return &paperSession{Session: sess, seq: &p.seq}, nil
}

type paperSession struct {
	Session
	seq *atomic.Int64
}

func (s *paperSession) PlaceOrder(_ context.Context, symbol string, side model.OrderSide, qty int64) (OrderAck, error) {
	id := fmt.Sprintf("PAPER-%d", s.seq.Add(1))
	logger.Info("[PAPER] Would place order",
		zap.String("side", string(side)),
		zap.Int64("qty", qty),
		zap.String("symbol", symbol),
		zap.String("order_id", id),
	)
	return OrderAck{OrderID: id, Status: "paper"}, nil
}
