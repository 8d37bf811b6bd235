package fetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/dnldd/mac/shared"
	"github.com/tidwall/gjson"
)

const (
	// BaseURL is the FMP service base url.
	BaseURL = "https://financialmodelingprep.com/stable"
)

// FMPConfig represents the configuration for the FMP client.
type FMPConfig struct {
	// APIkey is the FMP API Key.
	APIKey string
	// BaseURL is the base url of the FMP service.
	BaseURL string
}

// FMPClient represents the Financial Modeling Preparation (FMP) API client.
type FMPClient struct {
	cfg   *FMPConfig
	httpc http.Client
	buf   *bytes.Buffer
}

// Ensure the FMPClient implements the MarketFetcher interface.
var _ shared.MarketFetcher = (*FMPClient)(nil)

// NewFMPClient instantiates a new FMP client.
func NewFMPClient(cfg *FMPConfig) *FMPClient {
	return &FMPClient{
		cfg:   cfg,
		httpc: http.Client{Timeout: time.Second * 5},
		buf:   bytes.NewBuffer(make([]byte, 0, 512)),
	}
}

// formURL creates full urls including parameters for the api.
func (c *FMPClient) formURL(path string, params string) string {
	c.buf.WriteString(c.cfg.BaseURL)
	c.buf.WriteString(path)
	c.buf.WriteString("?")
	c.buf.WriteString(params)
	url := c.buf.String()
	c.buf.Reset()

	return url
}

// fetch issues the provided request and parses the response body as json.
func (c *FMPClient) fetch(ctx context.Context, formedURL string) (gjson.Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, formedURL, nil)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("issuing request: %w", err)
	}

	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return gjson.Result{}, fmt.Errorf("unexpected response status %d: %s", resp.StatusCode, string(body))
	}

	return gjson.ParseBytes(body), nil
}

// FetchCandles fetches the most recent historical candles for the provided
// instrument. The service returns candles most recent first, they are
// reversed into chronological order and trimmed to the provided window.
func (c *FMPClient) FetchCandles(ctx context.Context, instrument string, interval shared.Interval, window uint32) ([]gjson.Result, error) {
	const fiveMinuteHistoricalPath = "/historical-chart/5min"
	const oneHourHistoricalPath = "/historical-chart/1hour"

	params := url.Values{}
	params.Add("symbol", instrument)
	params.Add("apikey", c.cfg.APIKey)

	var formedURL string

	switch interval {
	case shared.FiveMinute:
		formedURL = c.formURL(fiveMinuteHistoricalPath, params.Encode())
	case shared.OneHour:
		formedURL = c.formURL(oneHourHistoricalPath, params.Encode())
	default:
		return nil, fmt.Errorf("unknown interval provided: %s", interval.String())
	}

	resp, err := c.fetch(ctx, formedURL)
	if err != nil {
		return nil, fmt.Errorf("fetching candles (%s) for %s: %w", interval.String(), instrument, err)
	}

	data := resp.Array()

	return chronologicalWindow(data, window), nil
}

// chronologicalWindow reverses most-recent-first candle data into
// chronological order, keeping only the most recent window candles.
func chronologicalWindow(data []gjson.Result, window uint32) []gjson.Result {
	size := len(data)
	if window > 0 && int(window) < size {
		size = int(window)
	}

	candles := make([]gjson.Result, 0, size)
	for idx := size - 1; idx >= 0; idx-- {
		candles = append(candles, data[idx])
	}

	return candles
}

// FetchQuote fetches the current quote for the provided instrument.
func (c *FMPClient) FetchQuote(ctx context.Context, instrument string) (gjson.Result, error) {
	const quotePath = "/quote"

	params := url.Values{}
	params.Add("symbol", instrument)
	params.Add("apikey", c.cfg.APIKey)

	formedURL := c.formURL(quotePath, params.Encode())

	resp, err := c.fetch(ctx, formedURL)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("fetching quote for %s: %w", instrument, err)
	}

	// The quote endpoint responds with a single element collection.
	if resp.IsArray() {
		quotes := resp.Array()
		if len(quotes) == 0 {
			return gjson.Result{}, fmt.Errorf("no quote returned for %s", instrument)
		}

		return quotes[0], nil
	}

	return resp, nil
}
