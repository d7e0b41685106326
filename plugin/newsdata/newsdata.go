// Package newsdata is a thin client for the NewsData.io latest-news API.
package newsdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"
)

const defaultBaseURL = "https://newsdata.io/api/1"

// CategoryMap translates the dashboard's category tabs into NewsData.io
// category filters. An empty value means "everything".
var CategoryMap = map[string]string{
	"all":           "",
	"politics":      "politics",
	"sports":        "sports",
	"entertainment": "entertainment",
	"sci-tech":      "science,technology",
}

// Article is the normalized view of one NewsData.io result.
type Article struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	URL         string   `json:"url"`
	ImageURL    string   `json:"imageUrl,omitempty"`
	PublishedAt string   `json:"publishedAt,omitempty"`
	SourceName  string   `json:"sourceName"`
	Categories  []string `json:"categories"`
	Country     []string `json:"country"`
	Language    string   `json:"language"`
}

// Feed is a normalized page of articles for one category.
type Feed struct {
	Category     string     `json:"category"`
	TotalResults int        `json:"totalResults"`
	Articles     []*Article `json:"articles"`
}

type rawResult struct {
	ArticleID string   `json:"article_id"`
	Title     string   `json:"title"`
	Desc      string   `json:"description"`
	Content   string   `json:"content"`
	Link      string   `json:"link"`
	ImageURL  string   `json:"image_url"`
	PubDate   string   `json:"pubDate"`
	SourceID  string   `json:"source_id"`
	Creator   []string `json:"creator"`
	Category  []string `json:"category"`
	Country   []string `json:"country"`
	Language  string   `json:"language"`
}

type rawResponse struct {
	TotalResults int          `json:"totalResults"`
	Results      []*rawResult `json:"results"`
}

// Client calls the NewsData.io REST API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// ErrMissingAPIKey is returned when the client has no credential configured.
var ErrMissingAPIKey = errors.New("newsdata: missing API key")

func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// Latest fetches and normalizes US/English headlines for the given UI
// category. Unknown categories fall back to "everything".
func (c *Client) Latest(ctx context.Context, uiCategory string) (*Feed, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	params := url.Values{}
	params.Set("apikey", c.apiKey)
	params.Set("language", "en")
	params.Set("country", "us")
	if mapped := CategoryMap[uiCategory]; mapped != "" {
		params.Set("category", mapped)
	}

	endpoint := c.baseURL + "/news?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "newsdata request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, errors.Errorf("newsdata: HTTP %d: %s", resp.StatusCode, body)
	}

	var raw rawResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, errors.Wrap(err, "decode newsdata response")
	}

	return normalizeFeed(&raw, uiCategory), nil
}

func normalizeFeed(raw *rawResponse, uiCategory string) *Feed {
	cacheKey := CategoryMap[uiCategory]
	if cacheKey == "" {
		cacheKey = "all"
	}

	articles := make([]*Article, 0, len(raw.Results))
	for i, item := range raw.Results {
		if item == nil {
			continue
		}
		articles = append(articles, normalizeArticle(item, cacheKey, i))
	}

	total := raw.TotalResults
	if total == 0 {
		total = len(articles)
	}
	return &Feed{
		Category:     uiCategory,
		TotalResults: total,
		Articles:     articles,
	}
}

func normalizeArticle(item *rawResult, cacheKey string, index int) *Article {
	id := item.ArticleID
	if id == "" {
		id = item.Link
	}
	if id == "" {
		id = fmt.Sprintf("%s-%d", cacheKey, index)
	}

	description := item.Desc
	if description == "" {
		description = item.Content
	}

	source := item.SourceID
	if source == "" && len(item.Creator) > 0 {
		source = item.Creator[0]
	}
	if source == "" {
		source = "Unknown source"
	}

	language := item.Language
	if language == "" {
		language = "en"
	}

	return &Article{
		ID:          id,
		Title:       item.Title,
		Description: description,
		URL:         item.Link,
		ImageURL:    item.ImageURL,
		PublishedAt: item.PubDate,
		SourceName:  source,
		Categories:  item.Category,
		Country:     item.Country,
		Language:    language,
	}
}
