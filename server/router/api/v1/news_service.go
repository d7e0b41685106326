package v1

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/feeds"
	"github.com/labstack/echo/v4"

	"github.com/jonathanprogram2/obel/plugin/newsdata"
	"github.com/jonathanprogram2/obel/server/metrics"
	"github.com/jonathanprogram2/obel/store/cache"
)

const newsCacheTTL = 5 * time.Minute

// NewsService serves headline feeds per category with a short-lived cache so
// the dashboard does not burn through the NewsData request quota.
type NewsService struct {
	Client *newsdata.Client
	cache  *cache.Cache[string, *newsdata.Feed]
}

func (s *NewsService) RegisterRoutes(g *echo.Group) {
	g.GET("/news", s.Latest)
	g.GET("/news/rss", s.RSS)
}

func (s *NewsService) feedFor(c echo.Context, category string) (*newsdata.Feed, error) {
	if category == "" {
		category = "all"
	}
	if feed, ok := s.cache.Get(category); ok {
		return feed, nil
	}

	feed, err := s.Client.Latest(c.Request().Context(), category)
	metrics.ObserveUpstream("newsdata", err)
	if err != nil {
		return nil, err
	}
	s.cache.Set(category, feed, newsCacheTTL)
	return feed, nil
}

// Latest returns the normalized article feed for one category.
func (s *NewsService) Latest(c echo.Context) error {
	category := c.QueryParam("category")
	feed, err := s.feedFor(c, category)
	if err != nil {
		slog.Error("news fetch failed", "category", category, "error", err)
		return c.JSON(http.StatusBadGateway, &errorResponse{Error: "News provider unavailable"})
	}
	return c.JSON(http.StatusOK, feed)
}

// RSS renders the same feed as RSS 2.0 for external readers.
func (s *NewsService) RSS(c echo.Context) error {
	category := c.QueryParam("category")
	feed, err := s.feedFor(c, category)
	if err != nil {
		slog.Error("news fetch failed", "category", category, "error", err)
		return c.JSON(http.StatusBadGateway, &errorResponse{Error: "News provider unavailable"})
	}

	rss := &feeds.Feed{
		Title:       "Obel Headlines: " + feed.Category,
		Link:        &feeds.Link{Href: "https://newsdata.io"},
		Description: "Latest headlines from the Obel dashboard news card.",
		Created:     time.Now(),
	}
	for _, article := range feed.Articles {
		item := &feeds.Item{
			Id:          article.ID,
			Title:       article.Title,
			Link:        &feeds.Link{Href: article.URL},
			Description: article.Description,
			Author:      &feeds.Author{Name: article.SourceName},
		}
		if t, err := time.Parse("2006-01-02 15:04:05", article.PublishedAt); err == nil {
			item.Created = t
		}
		rss.Items = append(rss.Items, item)
	}

	out, err := rss.ToRss()
	if err != nil {
		slog.Error("rss render failed", "category", category, "error", err)
		return c.JSON(http.StatusInternalServerError, &errorResponse{Error: "Failed to render feed"})
	}
	return c.Blob(http.StatusOK, "application/rss+xml; charset=utf-8", []byte(out))
}
