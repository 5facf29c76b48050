package broker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"SignalDesk/internal/model"
)

// RESTConnector talks to a broker gateway exposing sessions, bars, positions
// and orders over HTTP.
type RESTConnector struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// NewRESTConnector creates a connector with optional proxy support.
func NewRESTConnector(baseURL, apiKey, proxyURL string) *RESTConnector {
	return &RESTConnector{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		Client:  newHTTPClient(proxyURL),
	}
}

func (c *RESTConnector) Name() string { return "rest" }

// Connect opens a gateway session. The returned session must be closed.
func (c *RESTConnector) Connect(ctx context.Context) (Session, error) {
	var out struct {
		SessionID string `json:"session_id"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/v1/session", "", nil, &out); err != nil {
		return nil, fmt.Errorf("connect gateway: %w: %v", ErrNotConnected, err)
	}
	if out.SessionID == "" {
		return nil, fmt.Errorf("connect gateway: %w: empty session id", ErrNotConnected)
	}
	return &restSession{conn: c, id: out.SessionID}, nil
}

type restSession struct {
	conn   *RESTConnector
	id     string
	closed bool
}

// restBar is the expected JSON shape of a gateway bar.
type restBar struct {
	Timestamp int64   `json:"timestamp"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

func (s *restSession) FetchBars(ctx context.Context, req BarRequest) (model.BarSeries, error) {
	if s.closed {
		return model.BarSeries{}, ErrNotConnected
	}
	q := url.Values{}
	q.Set("symbol", req.Symbol)
	q.Set("duration", req.Duration)
	q.Set("bar_size", req.BarSize)
	q.Set("rth", fmt.Sprintf("%t", req.RegularHoursOnly))

	var raw []restBar
	if err := s.conn.do(ctx, http.MethodGet, "/api/v1/bars?"+q.Encode(), s.id, nil, &raw); err != nil {
		return model.BarSeries{}, fmt.Errorf("fetch bars %s: %w: %v", req.Symbol, ErrDataUnavailable, err)
	}
	if len(raw) == 0 {
		return model.BarSeries{}, fmt.Errorf("fetch bars %s: %w: empty response", req.Symbol, ErrDataUnavailable)
	}
	bars := make([]model.Bar, len(raw))
	for i, rb := range raw {
		bars[i] = model.Bar{
			Time:   time.Unix(rb.Timestamp, 0),
			Open:   rb.Open,
			High:   rb.High,
			Low:    rb.Low,
			Close:  rb.Close,
			Volume: rb.Volume,
		}
	}
	return model.NewBarSeries(req.Symbol, bars), nil
}

func (s *restSession) Position(ctx context.Context, symbol string) (int64, error) {
	if s.closed {
		return 0, ErrNotConnected
	}
	var out struct {
		Position int64 `json:"position"`
	}
	if err := s.conn.do(ctx, http.MethodGet, "/api/v1/positions/"+url.PathEscape(symbol), s.id, nil, &out); err != nil {
		return 0, fmt.Errorf("position %s: %w", symbol, err)
	}
	return out.Position, nil
}

func (s *restSession) PlaceOrder(ctx context.Context, symbol string, side model.OrderSide, qty int64) (OrderAck, error) {
	if s.closed {
		return OrderAck{}, ErrNotConnected
	}
	payload := map[string]any{
		"symbol":   symbol,
		"side":     side,
		"quantity": qty,
		"type":     "MKT",
	}
	var out struct {
		OrderID string `json:"order_id"`
		Status  string `json:"status"`
		Reason  string `json:"reason"`
	}
	if err := s.conn.do(ctx, http.MethodPost, "/api/v1/orders", s.id, payload, &out); err != nil {
		return OrderAck{}, fmt.Errorf("place order %s %d %s: %w: %v", side, qty, symbol, ErrOrderRejected, err)
	}
	if strings.EqualFold(out.Status, "rejected") {
		return OrderAck{}, fmt.Errorf("place order %s %d %s: %w: %s", side, qty, symbol, ErrOrderRejected, out.Reason)
	}
	return OrderAck{OrderID: out.OrderID, Status: out.Status}, nil
}

func (s *restSession) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.conn.do(ctx, http.MethodDelete, "/api/v1/session", s.id, nil, nil)
}

func (c *RESTConnector) do(ctx context.Context, method, path, sessionID string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal payload: %w", err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}
	if sessionID != "" {
		req.Header.Set("X-Session-ID", sessionID)
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("status %d, body: %s", resp.StatusCode, string(respBody))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
