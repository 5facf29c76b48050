package broker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"SignalDesk/internal/model"
)

// MockConnector returns controllable fixed data for development and testing.
// Symbols without explicit bars get a generated series around Price.
type MockConnector struct {
	Price      float64
	Bars       map[string][]model.Bar
	FetchErr   map[string]error
	Positions  map[string]int64
	ConnectErr error
	OrderErr   error

	mu       sync.Mutex
	orders   []MockOrder
	connects int
	closes   int
	requests []BarRequest
}

// MockOrder records an order received by a mock session.
type MockOrder struct {
	Symbol string
	Side   model.OrderSide
	Qty    int64
}

func (m *MockConnector) Name() string { return "mock" }

func (m *MockConnector) Connect(_ context.Context) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ConnectErr != nil {
		return nil, m.ConnectErr
	}
	m.connects++
	return &mockSession{m: m}, nil
}

// Orders returns the orders placed so far.
func (m *MockConnector) Orders() []MockOrder {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]MockOrder, len(m.orders))
	copy(cp, m.orders)
	return cp
}

// Requests returns the bar requests received so far.
func (m *MockConnector) Requests() []BarRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]BarRequest, len(m.requests))
	copy(cp, m.requests)
	return cp
}

// Sessions reports how many sessions were opened and closed.
func (m *MockConnector) Sessions() (opened, closed int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connects, m.closes
}

type mockSession struct {
	m      *MockConnector
	closed bool
}

func (s *mockSession) FetchBars(_ context.Context, req BarRequest) (model.BarSeries, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if s.closed {
		return model.BarSeries{}, ErrNotConnected
	}
	s.m.requests = append(s.m.requests, req)
	if err, ok := s.m.FetchErr[req.Symbol]; ok {
		return model.BarSeries{}, fmt.Errorf("mock %s: %w: %v", req.Symbol, ErrDataUnavailable, err)
	}
	if bars, ok := s.m.Bars[req.Symbol]; ok {
		if len(bars) == 0 {
			return model.BarSeries{}, fmt.Errorf("mock %s: %w: no bars", req.Symbol, ErrDataUnavailable)
		}
		return model.NewBarSeries(req.Symbol, bars), nil
	}
	if s.m.Price <= 0 {
		return model.BarSeries{}, fmt.Errorf("mock %s: %w: unknown symbol", req.Symbol, ErrDataUnavailable)
	}
	return model.NewBarSeries(req.Symbol, GenerateMockBars(s.m.Price, 300, time.Now())), nil
}

func (s *mockSession) Position(_ context.Context, symbol string) (int64, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if s.closed {
		return 0, ErrNotConnected
	}
	return s.m.Positions[symbol], nil
}

func (s *mockSession) PlaceOrder(_ context.Context, symbol string, side model.OrderSide, qty int64) (OrderAck, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if s.closed {
		return OrderAck{}, ErrNotConnected
	}
	if s.m.OrderErr != nil {
		return OrderAck{}, fmt.Errorf("mock order: %w: %v", ErrOrderRejected, s.m.OrderErr)
	}
	s.m.orders = append(s.m.orders, MockOrder{Symbol: symbol, Side: side, Qty: qty})
	return OrderAck{OrderID: fmt.Sprintf("MOCK-%d", len(s.m.orders)), Status: "filled"}, nil
}

func (s *mockSession) Close() error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if !s.closed {
		s.closed = true
		s.m.closes++
	}
	return nil
}

// GenerateMockBars builds count daily bars drifting slowly upward around basePrice, ending at end.
func GenerateMockBars(basePrice float64, count int, end time.Time) []model.Bar {
	bars := make([]model.Bar, count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.001)
		bars[i] = model.Bar{
			Time:   end.AddDate(0, 0, -(count - i)),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		}
	}
	return bars
}
