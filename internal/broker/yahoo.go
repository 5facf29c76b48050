package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"SignalDesk/internal/model"
)

const yahooChartURL = "https://query1.finance.yahoo.com/v8/finance/chart/"

// YahooConnector serves bars from the Yahoo Finance chart API. It is a
// data-only source: it holds no positions and rejects orders.
type YahooConnector struct {
	BaseURL   string
	Client    *http.Client
	SymbolMap map[string]string // maps internal symbol to Yahoo ticker
}

// NewYahooConnector creates a connector with optional proxy support.
func NewYahooConnector(proxyURL string) *YahooConnector {
	return &YahooConnector{
		BaseURL: yahooChartURL,
		Client:  newHTTPClient(proxyURL),
		SymbolMap: map[string]string{
			"VIX":   "^VIX",
			"SPX":   "^GSPC",
			"SP500": "^GSPC",
		},
	}
}

func (c *YahooConnector) Name() string { return "yahoo" }

func (c *YahooConnector) Connect(_ context.Context) (Session, error) {
	return &yahooSession{conn: c}, nil
}

type yahooSession struct {
	conn *YahooConnector
}

// yahooChart is the response structure from Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func (s *yahooSession) FetchBars(ctx context.Context, req BarRequest) (model.BarSeries, error) {
	interval, err := yahooInterval(req.BarSize)
	if err != nil {
		return model.BarSeries{}, err
	}
	days, err := LookbackDays(req.Duration)
	if err != nil {
		return model.BarSeries{}, err
	}

	ticker := req.Symbol
	if mapped, ok := s.conn.SymbolMap[req.Symbol]; ok {
		ticker = mapped
	}
	u := fmt.Sprintf("%s%s?interval=%s&range=%s&includePrePost=%t",
		s.conn.BaseURL, url.PathEscape(ticker), interval, yahooRange(days), !req.RegularHoursOnly)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return model.BarSeries{}, err
	}
	httpReq.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := s.conn.Client.Do(httpReq)
	if err != nil {
		return model.BarSeries{}, fmt.Errorf("yahoo fetch %s: %w: %v", req.Symbol, ErrDataUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.BarSeries{}, fmt.Errorf("yahoo read body: %w: %v", ErrDataUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return model.BarSeries{}, fmt.Errorf("yahoo %s: %w: status %d", req.Symbol, ErrDataUnavailable, resp.StatusCode)
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return model.BarSeries{}, fmt.Errorf("yahoo decode: %w: %v", ErrDataUnavailable, err)
	}
	if chart.Chart.Error != nil {
		return model.BarSeries{}, fmt.Errorf("yahoo api error: %w: %s", ErrDataUnavailable, chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 ||
		len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return model.BarSeries{}, fmt.Errorf("yahoo %s: %w: no data returned", req.Symbol, ErrDataUnavailable)
	}

	result := chart.Chart.Result[0]
	quote := result.Indicators.Quote[0]
	bars := make([]model.Bar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		c := valueAt(quote.Close, i)
		if c == nil {
			continue // null bars (holidays, halts)
		}
		bars = append(bars, model.Bar{
			Time:   time.Unix(ts, 0),
			Open:   deref(valueAt(quote.Open, i)),
			High:   deref(valueAt(quote.High, i)),
			Low:    deref(valueAt(quote.Low, i)),
			Close:  *c,
			Volume: deref(valueAt(quote.Volume, i)),
		})
	}
	if len(bars) == 0 {
		return model.BarSeries{}, fmt.Errorf("yahoo %s: %w: all bars empty", req.Symbol, ErrDataUnavailable)
	}
	return model.NewBarSeries(req.Symbol, bars), nil
}

func (s *yahooSession) Position(_ context.Context, _ string) (int64, error) {
	return 0, nil
}

func (s *yahooSession) PlaceOrder(_ context.Context, symbol string, side model.OrderSide, qty int64) (OrderAck, error) {
	return OrderAck{}, fmt.Errorf("%s %d %s: %w: yahoo is a data-only source", side, qty, symbol, ErrOrderRejected)
}

func (s *yahooSession) Close() error { return nil }

func valueAt(vals []*float64, i int) *float64 {
	if i >= len(vals) {
		return nil
	}
	return vals[i]
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func yahooInterval(barSize string) (string, error) {
	d, err := BarSizeDuration(barSize)
	if err != nil {
		return "", err
	}
	switch {
	case d <= time.Minute:
		return "1m", nil
	case d <= 5*time.Minute:
		return "5m", nil
	case d <= 15*time.Minute:
		return "15m", nil
	case d <= 30*time.Minute:
		return "30m", nil
	case d <= time.Hour:
		return "60m", nil
	case d <= 24*time.Hour:
		return "1d", nil
	}
	return "1wk", nil
}

func yahooRange(days int) string {
	switch {
	case days <= 1:
		return "1d"
	case days <= 5:
		return "5d"
	case days <= 30:
		return "1mo"
	case days <= 90:
		return "3mo"
	case days <= 180:
		return "6mo"
	case days <= 365:
		return "1y"
	case days <= 730:
		return "2y"
	}
	return "5y"
}

func newHTTPClient(proxyURL string) *http.Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &http.Client{
		Timeout:   30 * time.Second,
		Transport: transport,
	}
}
