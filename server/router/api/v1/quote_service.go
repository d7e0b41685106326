package v1

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/jonathanprogram2/obel/plugin/zenquotes"
	"github.com/jonathanprogram2/obel/server/metrics"
)

// QuoteService proxies the daily-inspiration card.
type QuoteService struct {
	Client *zenquotes.Client
}

func (s *QuoteService) RegisterRoutes(g *echo.Group) {
	g.GET("/quotes/random", s.Random)
}

func (s *QuoteService) Random(c echo.Context) error {
	quote, err := s.Client.Random(c.Request().Context())
	metrics.ObserveUpstream("zenquotes", err)
	if err != nil {
		slog.Error("quote fetch failed", "error", err)
		return c.JSON(http.StatusBadGateway, &errorResponse{Error: "Quote provider unavailable"})
	}
	return c.JSON(http.StatusOK, quote)
}
