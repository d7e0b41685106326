// Package finnhub is a thin client for the Finnhub quote API with free-tier
// quota protection.
package finnhub

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://finnhub.io/api/v1"

// Quote is the normalized view of Finnhub's /quote response.
// Finnhub fields: c=current, d=change, dp=change %, pc=prev close, v=volume.
type Quote struct {
	Symbol               string   `json:"symbol"`
	Price                *float64 `json:"price"`
	Change               *float64 `json:"change"`
	ChangePercent        *string  `json:"changePercent"`
	ChangePercentNumeric *float64 `json:"changePercentNumeric,omitempty"`
	PreviousClose        *float64 `json:"previousClose"`
	Volume               *float64 `json:"volume"`
}

type rawQuote struct {
	C  *float64 `json:"c"`
	D  *float64 `json:"d"`
	DP *float64 `json:"dp"`
	PC *float64 `json:"pc"`
	V  *float64 `json:"v"`
}

// Client calls the Finnhub REST API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a Finnhub client. The limiter stays under the free-tier
// 60 calls/minute allowance.
func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		limiter:    rate.NewLimiter(rate.Every(time.Second), 10),
	}
}

// ErrMissingAPIKey is returned when the client has no credential configured.
var ErrMissingAPIKey = errors.New("finnhub: missing API key")

// Quote fetches and normalizes the quote for one symbol. A response without a
// current price yields nil rather than an error, matching the lenient
// handling the dashboard expects for unknown symbols.
func (c *Client) Quote(ctx context.Context, symbol string) (*Quote, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/quote?symbol=%s&token=%s",
		c.baseURL, url.QueryEscape(symbol), url.QueryEscape(c.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "finnhub quote request for %s", symbol)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, errors.Errorf("finnhub quote for %s: HTTP %d: %s", symbol, resp.StatusCode, body)
	}

	var raw rawQuote
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, errors.Wrap(err, "decode finnhub quote")
	}

	return normalizeQuote(&raw, symbol), nil
}

// normalizeQuote reshapes the raw payload into the UI-friendly quote. Returns
// nil when the payload has no current price.
func normalizeQuote(raw *rawQuote, symbol string) *Quote {
	if raw == nil || raw.C == nil {
		return nil
	}

	q := &Quote{
		Symbol:        symbol,
		Price:         raw.C,
		Change:        raw.D,
		PreviousClose: raw.PC,
		Volume:        raw.V,
	}
	if raw.DP != nil {
		formatted := fmt.Sprintf("%.2f%%", *raw.DP)
		q.ChangePercent = &formatted
		q.ChangePercentNumeric = raw.DP
	}
	return q
}

// CompanyProfile is the subset of Finnhub /stock/profile2 the dashboard uses.
type CompanyProfile struct {
	Name          string   `json:"name"`
	Industry      string   `json:"finnhubIndustry"`
	Sector        string   `json:"gsector"`
	MarketCap     *float64 `json:"marketCapitalization"`
	DividendYield *float64 `json:"dividendYield"`
}

// Profile fetches the company profile for one symbol. Finnhub returns an
// empty object for unknown symbols, which surfaces as a zero-value profile.
func (c *Client) Profile(ctx context.Context, symbol string) (*CompanyProfile, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/stock/profile2?symbol=%s&token=%s",
		c.baseURL, url.QueryEscape(symbol), url.QueryEscape(c.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "finnhub profile request for %s", symbol)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, errors.Errorf("finnhub profile for %s: HTTP %d: %s", symbol, resp.StatusCode, body)
	}

	var profile CompanyProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, errors.Wrap(err, "decode finnhub profile")
	}
	return &profile, nil
}

// NewsItem is one company-news headline from Finnhub.
type NewsItem struct {
	ID       int64  `json:"id"`
	Datetime int64  `json:"datetime"`
	Headline string `json:"headline"`
	Source   string `json:"source"`
	URL      string `json:"url"`
	Summary  string `json:"summary"`
}

// CompanyNews fetches headlines for one symbol between two YYYY-MM-DD dates.
func (c *Client) CompanyNews(ctx context.Context, symbol, from, to string) ([]*NewsItem, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/company-news?symbol=%s&from=%s&to=%s&token=%s",
		c.baseURL, url.QueryEscape(symbol), url.QueryEscape(from), url.QueryEscape(to), url.QueryEscape(c.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "finnhub company news request for %s", symbol)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, errors.Errorf("finnhub company news for %s: HTTP %d: %s", symbol, resp.StatusCode, body)
	}

	var items []*NewsItem
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, errors.Wrap(err, "decode finnhub company news")
	}
	return items, nil
}
