// Package twelvedata calls the Twelve Data REST API for OHLC candle series
// and quotes backing the stock detail charts.
package twelvedata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/pkg/errors"
)

const defaultBaseURL = "https://api.twelvedata.com"

// candleOutputSize is how many bars one chart request returns.
const candleOutputSize = 100

// APIError is a provider-reported request error (bad symbol, bad interval).
// Handlers map it to a client error instead of a gateway failure.
type APIError struct {
	Message string
}

func (e *APIError) Error() string {
	return "twelvedata: " + e.Message
}

// ErrMissingAPIKey is returned when the client has no credential configured.
var ErrMissingAPIKey = errors.New("twelvedata: missing API key")

// Candle is one OHLC bar with its open time as a unix timestamp, matching
// what the charting frontend consumes.
type Candle struct {
	Time  int64   `json:"time"`
	Open  float64 `json:"open"`
	High  float64 `json:"high"`
	Low   float64 `json:"low"`
	Close float64 `json:"close"`
}

// Quote is the normalized Twelve Data quote for one symbol.
type Quote struct {
	Price         *float64 `json:"price"`
	Change        *float64 `json:"change"`
	ChangePercent *float64 `json:"changePercent"`
	Open          *float64 `json:"open"`
	High          *float64 `json:"high"`
	Low           *float64 `json:"low"`
	Updated       string   `json:"updated"`
}

type rawSeriesValue struct {
	Datetime string `json:"datetime"`
	Open     string `json:"open"`
	High     string `json:"high"`
	Low      string `json:"low"`
	Close    string `json:"close"`
}

type rawSeriesResponse struct {
	Status  string           `json:"status"`
	Message string           `json:"message"`
	Values  []rawSeriesValue `json:"values"`
}

type rawQuote struct {
	Status        string `json:"status"`
	Message       string `json:"message"`
	Price         string `json:"price"`
	Change        string `json:"change"`
	PercentChange string `json:"percent_change"`
	Open          string `json:"open"`
	High          string `json:"high"`
	Low           string `json:"low"`
	Datetime      string `json:"datetime"`
}

// Client calls the Twelve Data REST API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	if c.apiKey == "" {
		return ErrMissingAPIKey
	}
	params.Set("apikey", c.apiKey)

	endpoint := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrapf(err, "twelvedata request %s", path)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return errors.Errorf("twelvedata %s: HTTP %d: %s", path, resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrapf(err, "decode twelvedata %s", path)
	}
	return nil
}

// TimeSeries fetches up to 100 OHLC candles for the symbol and interval,
// returned in ascending time order.
func (c *Client) TimeSeries(ctx context.Context, symbol, interval string) ([]*Candle, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("interval", interval)
	params.Set("outputsize", strconv.Itoa(candleOutputSize))

	var raw rawSeriesResponse
	if err := c.get(ctx, "/time_series", params, &raw); err != nil {
		return nil, err
	}
	if raw.Status == "error" {
		return nil, &APIError{Message: raw.Message}
	}

	// The provider returns newest-first; the chart wants ascending time.
	candles := make([]*Candle, 0, len(raw.Values))
	for i := len(raw.Values) - 1; i >= 0; i-- {
		candle, err := parseCandle(&raw.Values[i])
		if err != nil {
			return nil, err
		}
		candles = append(candles, candle)
	}
	return candles, nil
}

// candleTimeLayouts covers intraday and daily datetime formats.
var candleTimeLayouts = []string{"2006-01-02 15:04:05", "2006-01-02"}

func parseCandle(value *rawSeriesValue) (*Candle, error) {
	var ts time.Time
	var err error
	for _, layout := range candleTimeLayouts {
		if ts, err = time.Parse(layout, value.Datetime); err == nil {
			break
		}
	}
	if err != nil {
		return nil, errors.Wrapf(err, "parse candle datetime %q", value.Datetime)
	}

	candle := &Candle{Time: ts.Unix()}
	for _, field := range []struct {
		raw string
		dst *float64
	}{
		{value.Open, &candle.Open},
		{value.High, &candle.High},
		{value.Low, &candle.Low},
		{value.Close, &candle.Close},
	} {
		v, err := strconv.ParseFloat(field.raw, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "parse candle value %q", field.raw)
		}
		*field.dst = v
	}
	return candle, nil
}

// Quote fetches the current quote for one symbol.
func (c *Client) Quote(ctx context.Context, symbol string) (*Quote, error) {
	params := url.Values{}
	params.Set("symbol", symbol)

	var raw rawQuote
	if err := c.get(ctx, "/quote", params, &raw); err != nil {
		return nil, err
	}
	if raw.Status == "error" {
		return nil, &APIError{Message: raw.Message}
	}

	return &Quote{
		Price:         parseOptionalFloat(raw.Price),
		Change:        parseOptionalFloat(raw.Change),
		ChangePercent: parseOptionalFloat(raw.PercentChange),
		Open:          parseOptionalFloat(raw.Open),
		High:          parseOptionalFloat(raw.High),
		Low:           parseOptionalFloat(raw.Low),
		Updated:       raw.Datetime,
	}, nil
}

func parseOptionalFloat(raw string) *float64 {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &v
}
