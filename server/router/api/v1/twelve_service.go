package v1

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/jonathanprogram2/obel/plugin/twelvedata"
	"github.com/jonathanprogram2/obel/server/metrics"
)

// TwelveService serves OHLC candle series and quotes from Twelve Data,
// backing the stock detail charts.
type TwelveService struct {
	Client *twelvedata.Client
}

func (s *TwelveService) RegisterRoutes(g *echo.Group) {
	g.GET("/twelve/ohlc", s.OHLC)
	g.GET("/twelve/quote", s.Quote)
}

// OHLC returns candle bars for one symbol and interval in ascending time
// order. Provider-reported errors (unknown symbol, bad interval) map to 400.
func (s *TwelveService) OHLC(c echo.Context) error {
	symbol := strings.ToUpper(strings.TrimSpace(c.QueryParam("symbol")))
	interval := strings.TrimSpace(c.QueryParam("interval"))
	if symbol == "" || interval == "" {
		return c.JSON(http.StatusBadRequest, &errorResponse{Error: "Missing required fields: symbol, interval"})
	}

	candles, err := s.Client.TimeSeries(c.Request().Context(), symbol, interval)
	metrics.ObserveUpstream("twelvedata", err)
	if err != nil {
		var apiErr *twelvedata.APIError
		if errors.As(err, &apiErr) {
			return c.JSON(http.StatusBadRequest, &errorResponse{Error: apiErr.Message})
		}
		slog.Error("ohlc fetch failed", "symbol", symbol, "interval", interval, "error", err)
		return c.JSON(http.StatusBadGateway, &errorResponse{Error: "Failed to fetch OHLC data"})
	}
	return c.JSON(http.StatusOK, candles)
}

// Quote returns the current Twelve Data quote for one symbol.
func (s *TwelveService) Quote(c echo.Context) error {
	symbol := strings.ToUpper(strings.TrimSpace(c.QueryParam("symbol")))
	if symbol == "" {
		return c.JSON(http.StatusBadRequest, &errorResponse{Error: "Missing symbol"})
	}

	quote, err := s.Client.Quote(c.Request().Context(), symbol)
	metrics.ObserveUpstream("twelvedata", err)
	if err != nil {
		var apiErr *twelvedata.APIError
		if errors.As(err, &apiErr) {
			return c.JSON(http.StatusBadRequest, &errorResponse{Error: apiErr.Message})
		}
		slog.Error("twelvedata quote fetch failed", "symbol", symbol, "error", err)
		return c.JSON(http.StatusBadGateway, &errorResponse{Error: "Failed to fetch stock quote"})
	}
	return c.JSON(http.StatusOK, quote)
}
