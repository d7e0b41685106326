package v1

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/jonathanprogram2/obel/plugin/openmeteo"
	"github.com/jonathanprogram2/obel/server/metrics"
)

// WeatherService serves the current-conditions card.
type WeatherService struct {
	Client *openmeteo.Client
}

func (s *WeatherService) RegisterRoutes(g *echo.Group) {
	g.GET("/weather/today", s.Today)
	g.GET("/flows/weather-brief", s.Brief)
}

// Today returns current conditions. Without lat/lon query params it falls
// back to the dashboard's home city.
func (s *WeatherService) Today(c echo.Context) error {
	latitude := openmeteo.DefaultLatitude
	longitude := openmeteo.DefaultLongitude
	city := openmeteo.DefaultCity

	rawLat, rawLon := c.QueryParam("lat"), c.QueryParam("lon")
	if rawLat != "" && rawLon != "" {
		lat, errLat := strconv.ParseFloat(rawLat, 64)
		lon, errLon := strconv.ParseFloat(rawLon, 64)
		if errLat != nil || errLon != nil {
			return c.JSON(http.StatusBadRequest, &errorResponse{Error: "Invalid lat/lon"})
		}
		latitude, longitude = lat, lon
		city = c.QueryParam("city")
	}

	weather, err := s.Client.Current(c.Request().Context(), latitude, longitude, city)
	metrics.ObserveUpstream("openmeteo", err)
	if err != nil {
		slog.Error("weather fetch failed", "lat", latitude, "lon", longitude, "error", err)
		return c.JSON(http.StatusBadGateway, &errorResponse{Error: "Weather provider unavailable"})
	}
	return c.JSON(http.StatusOK, weather)
}

type weatherBrief struct {
	AsOf      string   `json:"asOf"`
	City      string   `json:"city"`
	TempF     *float64 `json:"tempF"`
	Summary   string   `json:"summary"`
	NextHours []any    `json:"nextHours"`
	Events    []any    `json:"events"`
}

// Brief is the flows-card digest of current conditions for the home city.
// The hourly forecast and events slots are reserved for later.
func (s *WeatherService) Brief(c echo.Context) error {
	weather, err := s.Client.Current(c.Request().Context(),
		openmeteo.DefaultLatitude, openmeteo.DefaultLongitude, openmeteo.DefaultCity)
	metrics.ObserveUpstream("openmeteo", err)
	if err != nil {
		slog.Error("weather fetch failed", "error", err)
		return c.JSON(http.StatusBadGateway, &errorResponse{Error: "Failed to fetch weather brief. Try again later."})
	}

	city := weather.City
	if city == "" {
		city = openmeteo.DefaultCity
	}
	return c.JSON(http.StatusOK, &weatherBrief{
		AsOf:      time.Now().UTC().Format(time.RFC3339),
		City:      city,
		TempF:     weather.TempF,
		Summary:   fmt.Sprintf("Current temperature in %s.", city),
		NextHours: []any{},
		Events:    []any{},
	})
}
