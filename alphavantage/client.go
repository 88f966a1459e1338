// Package alphavantage is the AlphaVantage market data vendor. It fetches
// daily price, FX, split, dividend and statement data and persists them as
// Date-indexed CSV series into the data directory, rate-limited to the free
// tier's quota.
package alphavantage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/webclinic017/portlib"
	"github.com/webclinic017/portlib/date"
)

var log = logrus.StandardLogger()

const defaultBaseURL = "https://www.alphavantage.co/query"

// Client talks to the AlphaVantage HTTP API. It implements portlib.Source:
// every Get persists the fetched series into the data directory.
//
// Two limiters guard the free tier: a smoothing per-second limiter and a
// rolling requests-per-minute window that blocks until a slot frees.
type Client struct {
	apiKey  string
	dir     string
	baseURL string
	http    *http.Client

	limiter    *rate.Limiter
	window     *RequestWindow
	maxRetries int
	backoff    time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint.
func WithBaseURL(u string) Option { return func(c *Client) { c.baseURL = u } }

// WithHTTPClient overrides the HTTP client, disabling the default daily
// response cache.
func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.http = h } }

// WithRequestsPerMinute sets the rolling quota.
func WithRequestsPerMinute(n int) Option {
	return func(c *Client) { c.window = NewRequestWindow(n, time.Minute) }
}

// WithMaxRetries bounds the retry loop.
func WithMaxRetries(n int) Option { return func(c *Client) { c.maxRetries = n } }

// WithBackoff sets the base retry backoff.
func WithBackoff(d time.Duration) Option { return func(c *Client) { c.backoff = d } }

// New returns a client persisting into the given data directory.
func New(apiKey, dir string, opts ...Option) *Client {
	c := &Client{
		apiKey:     apiKey,
		dir:        dir,
		baseURL:    defaultBaseURL,
		http:       newDailyCachingClient(30 * time.Second),
		limiter:    rate.NewLimiter(rate.Every(time.Second), 1),
		window:     NewRequestWindow(5, time.Minute),
		maxRetries: 3,
		backoff:    time.Second,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// GetPrices fetches the full daily close series of the ticker and persists
// it under prices/.
func (c *Client) GetPrices(ctx context.Context, ticker string) error {
	jobj, err := c.getJSON(ctx, url.Values{
		"function":   {"TIME_SERIES_DAILY"},
		"symbol":     {ticker},
		"outputsize": {"full"},
	})
	if err != nil {
		return fmt.Errorf("could not fetch prices for %s: %w", ticker, err)
	}
	h, err := dailySeries(jobj, `$["Time Series (Daily)"]`, "4. close")
	if err != nil {
		return fmt.Errorf("could not parse prices for %s: %w", ticker, err)
	}
	return portlib.WriteSeries(filepath.Join(c.dir, "prices", ticker+".csv"), "Close", h)
}

// GetFx fetches the daily closing rate of the 6-character pair and persists
// it under fx/.
func (c *Client) GetFx(ctx context.Context, pair string) error {
	if len(pair) != 6 {
		return fmt.Errorf("invalid currency pair %q", pair)
	}
	jobj, err := c.getJSON(ctx, url.Values{
		"function":    {"FX_DAILY"},
		"from_symbol": {pair[:3]},
		"to_symbol":   {pair[3:]},
		"outputsize":  {"full"},
	})
	if err != nil {
		return fmt.Errorf("could not fetch fx for %s: %w", pair, err)
	}
	h, err := dailySeries(jobj, `$["Time Series FX (Daily)"]`, "4. close")
	if err != nil {
		return fmt.Errorf("could not parse fx for %s: %w", pair, err)
	}
	return portlib.WriteSeries(filepath.Join(c.dir, "fx", pair+".csv"), "Rate", h)
}

// GetSplits returns the ticker's split factors by effective date.
func (c *Client) GetSplits(ctx context.Context, ticker string) (*date.History[float64], error) {
	jobj, err := c.getJSON(ctx, url.Values{
		"function": {"SPLITS"},
		"symbol":   {ticker},
	})
	if err != nil {
		return nil, fmt.Errorf("could not fetch splits for %s: %w", ticker, err)
	}
	return eventSeries(jobj, "effective_date", "split_factor", date.Date{}, date.Date{})
}

// GetDividends fetches the per-share dividends paid in [from, to] and
// persists them under dividends/.
func (c *Client) GetDividends(ctx context.Context, ticker string, from, to date.Date) error {
	jobj, err := c.getJSON(ctx, url.Values{
		"function": {"DIVIDENDS"},
		"symbol":   {ticker},
	})
	if err != nil {
		return fmt.Errorf("could not fetch dividends for %s: %w", ticker, err)
	}
	h, err := eventSeries(jobj, "ex_dividend_date", "amount", from, to)
	if err != nil {
		return fmt.Errorf("could not parse dividends for %s: %w", ticker, err)
	}
	return portlib.WriteSeries(filepath.Join(c.dir, "dividends", ticker+".csv"), "Dividend", h)
}

// GetBalanceSheet persists the ticker's balance sheet reports under
// statements/.
func (c *Client) GetBalanceSheet(ctx context.Context, ticker string) error {
	return c.getStatement(ctx, "BALANCE_SHEET", ticker, "balance_sheet")
}

// GetCashFlow persists the ticker's cash flow reports under statements/.
func (c *Client) GetCashFlow(ctx context.Context, ticker string) error {
	return c.getStatement(ctx, "CASH_FLOW", ticker, "cash_flow")
}

// GetIncomeStatement persists the ticker's income statements under
// statements/.
func (c *Client) GetIncomeStatement(ctx context.Context, ticker string) error {
	return c.getStatement(ctx, "INCOME_STATEMENT", ticker, "income_statement")
}

func (c *Client) getStatement(ctx context.Context, function, ticker, name string) error {
	body, err := c.get(ctx, url.Values{
		"function": {function},
		"symbol":   {ticker},
	})
	if err != nil {
		return fmt.Errorf("could not fetch %s for %s: %w", name, ticker, err)
	}
	dir := filepath.Join(c.dir, "statements")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, ticker+"_"+name+".json"), body, 0644)
}

// getJSON performs a rate-limited GET and decodes the JSON payload.
func (c *Client) getJSON(ctx context.Context, params url.Values) (any, error) {
	body, err := c.get(ctx, params)
	if err != nil {
		return nil, err
	}
	var jobj any
	if err := json.Unmarshal(body, &jobj); err != nil {
		return nil, err
	}
	return jobj, nil
}

// get performs a rate-limited GET with bounded retry and exponential backoff.
// The vendor signals throttling inside a 200 response, so those payloads are
// retried like transport errors.
func (c *Client) get(ctx context.Context, params url.Values) ([]byte, error) {
	params.Set("apikey", c.apiKey)
	addr := c.baseURL + "?" + params.Encode()

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			wait := c.backoff << (attempt - 1)
			log.Debugf("retrying in %s (attempt %d/%d)", wait, attempt, c.maxRetries)
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		c.window.Take()

		body, err := c.fetch(ctx, addr)
		if err == nil {
			return body, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("gave up after %d attempts: %w", c.maxRetries+1, lastErr)
}

func (c *Client) fetch(ctx context.Context, addr string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("cannot http GET %v%v: %v", req.URL.Host, req.URL.Path, resp.Status)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, resp.Body); err != nil {
		return nil, err
	}
	if msg, ok := throttleMessage(buf.Bytes()); ok {
		return nil, fmt.Errorf("vendor throttled: %s", msg)
	}
	return buf.Bytes(), nil
}

// throttleMessage detects the quota notes the vendor hides in 200 responses.
func throttleMessage(body []byte) (string, bool) {
	var probe map[string]any
	if err := json.Unmarshal(body, &probe); err != nil {
		return "", false
	}
	for _, key := range []string{"Note", "Information", "Error Message"} {
		if msg, ok := probe[key].(string); ok {
			return msg, true
		}
	}
	return "", false
}

// dailySeries extracts a date-keyed object of per-day field maps into a
// History, e.g. the "Time Series (Daily)" payload.
func dailySeries(jobj any, path, field string) (*date.History[float64], error) {
	jval, err := jsonpath.Get(path, jobj)
	if err != nil {
		return nil, fmt.Errorf("error parsing %q: %w", path, err)
	}
	days, ok := jval.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("error parsing %q: not an object", path)
	}
	h := &date.History[float64]{}
	for day, fields := range days {
		on, err := date.Parse(day)
		if err != nil {
			return nil, err
		}
		v, err := jsonField(fields, field)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", day, err)
		}
		h.Append(on, v)
	}
	return h, nil
}

// eventSeries extracts a "data" array of dated events into a History,
// keeping only events inside [from, to] when the bounds are set.
func eventSeries(jobj any, dateField, valueField string, from, to date.Date) (*date.History[float64], error) {
	jval, err := jsonpath.Get("$.data", jobj)
	if err != nil {
		return nil, fmt.Errorf("error parsing $.data: %w", err)
	}
	events, ok := jval.([]any)
	if !ok {
		return nil, fmt.Errorf("error parsing $.data: not a list")
	}
	h := &date.History[float64]{}
	for _, ev := range events {
		fields, ok := ev.(map[string]any)
		if !ok {
			continue
		}
		day, _ := fields[dateField].(string)
		on, err := date.Parse(day)
		if err != nil {
			continue
		}
		if !from.IsZero() && on.Before(from) {
			continue
		}
		if !to.IsZero() && on.After(to) {
			continue
		}
		v, err := jsonField(fields, valueField)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", day, err)
		}
		h.AppendAdd(on, v)
	}
	return h, nil
}

// jsonField reads a numeric field the vendor encodes either as a number or
// as a string.
func jsonField(fields any, name string) (float64, error) {
	obj, ok := fields.(map[string]any)
	if !ok {
		return 0, fmt.Errorf("field %q: not an object", name)
	}
	switch v := obj[name].(type) {
	case float64:
		return v, nil
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, fmt.Errorf("field %q: invalid value %q: %w", name, v, err)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("field %q: missing", name)
	}
}

var _ portlib.Source = (*Client)(nil)
