// Package openmeteo is a thin client for the Open-Meteo current-weather API.
package openmeteo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

const defaultBaseURL = "https://api.open-meteo.com/v1"

// Default coordinates: Cleveland, OH.
const (
	DefaultLatitude  = 41.4993
	DefaultLongitude = -81.6944
	DefaultCity      = "Cleveland"
)

// Condition maps a WMO weather code to display text and the OpenWeather icon
// code the frontend uses for its icon CDN URLs.
type Condition struct {
	Text     string `json:"condition"`
	IconCode string `json:"iconCode"`
}

// wmoConditions maps Open-Meteo WMO weather codes to conditions.
var wmoConditions = map[int]Condition{
	0:  {"Clear sky", "01d"},
	1:  {"Mainly clear", "02d"},
	2:  {"Partly cloudy", "03d"},
	3:  {"Overcast", "04d"},
	45: {"Fog", "50d"},
	48: {"Freezing fog", "50d"},
	51: {"Light drizzle", "09d"},
	53: {"Moderate drizzle", "09d"},
	55: {"Dense drizzle", "09d"},
	56: {"Light freezing drizzle", "13d"},
	57: {"Dense freezing drizzle", "13d"},
	61: {"Slight rain", "10d"},
	63: {"Moderate rain", "10d"},
	65: {"Heavy rain", "10d"},
	66: {"Light freezing rain", "13d"},
	67: {"Heavy freezing rain", "13d"},
	71: {"Slight snow fall", "13d"},
	73: {"Moderate snow fall", "13d"},
	75: {"Heavy snow fall", "13d"},
	77: {"Snow grains", "13d"},
	80: {"Slight rain showers", "09d"},
	81: {"Moderate rain showers", "09d"},
	82: {"Violent rain showers", "09d"},
	85: {"Slight snow showers", "13d"},
	86: {"Heavy snow showers", "13d"},
	95: {"Thunderstorm", "11d"},
	96: {"Thunderstorm with slight hail", "11d"},
	97: {"Thunderstorm with heavy hail", "11d"},
}

// MapWeatherCode resolves a WMO code to a condition, with a calm default for
// unknown codes.
func MapWeatherCode(code *int) Condition {
	if code == nil {
		return Condition{"Unknown", "01d"}
	}
	if c, ok := wmoConditions[*code]; ok {
		return c
	}
	return Condition{"Unknown", "01d"}
}

// CurrentWeather is the normalized current-weather report.
type CurrentWeather struct {
	City        string   `json:"city"`
	TempF       *float64 `json:"tempF"`
	WindSpeed   *float64 `json:"windSpeed"`
	WeatherCode *int     `json:"weatherCode"`
	Condition   string   `json:"condition"`
	IconCode    string   `json:"iconCode"`
}

type rawResponse struct {
	CurrentWeather *struct {
		Temperature *float64 `json:"temperature"`
		WindSpeed   *float64 `json:"windspeed"`
		WeatherCode *int     `json:"weathercode"`
	} `json:"current_weather"`
}

// Client calls the Open-Meteo forecast API. No API key is required.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient() *Client {
	return &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Current fetches the current weather for the given coordinates, in
// Fahrenheit.
func (c *Client) Current(ctx context.Context, latitude, longitude float64, city string) (*CurrentWeather, error) {
	endpoint := fmt.Sprintf("%s/forecast?latitude=%f&longitude=%f&current_weather=true&temperature_unit=fahrenheit",
		c.baseURL, latitude, longitude)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "open-meteo request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, errors.Errorf("open-meteo: HTTP %d: %s", resp.StatusCode, body)
	}

	var raw rawResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, errors.Wrap(err, "decode open-meteo response")
	}

	report := &CurrentWeather{City: city}
	if current := raw.CurrentWeather; current != nil {
		report.TempF = current.Temperature
		report.WindSpeed = current.WindSpeed
		report.WeatherCode = current.WeatherCode
	}
	condition := MapWeatherCode(report.WeatherCode)
	report.Condition = condition.Text
	report.IconCode = condition.IconCode
	return report, nil
}
