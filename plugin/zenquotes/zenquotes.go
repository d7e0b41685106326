// Package zenquotes is a thin client for the ZenQuotes random-quote API.
package zenquotes

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

const defaultBaseURL = "https://zenquotes.io/api"

// Quote is one motivational quote.
type Quote struct {
	Text   string `json:"text"`
	Author string `json:"author"`
}

type rawQuote struct {
	Q string `json:"q"`
	A string `json:"a"`
}

// Client calls the ZenQuotes API. No key is required.
type Client struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
}

func NewClient() *Client {
	return &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		userAgent:  "ObelDashboard/1.0",
	}
}

// Random fetches one random quote. ZenQuotes returns an array; only the
// first element is used.
func (c *Client) Random(ctx context.Context) (*Quote, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/random", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "zenquotes request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("zenquotes: HTTP %d", resp.StatusCode)
	}

	var raw []rawQuote
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, errors.Wrap(err, "decode zenquotes response")
	}
	if len(raw) == 0 {
		return &Quote{}, nil
	}

	return &Quote{Text: raw[0].Q, Author: raw[0].A}, nil
}
