package twelvedata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_TimeSeries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/time_series", r.URL.Path)
		assert.Equal(t, "AAPL", r.URL.Query().Get("symbol"))
		assert.Equal(t, "1day", r.URL.Query().Get("interval"))
		assert.Equal(t, "100", r.URL.Query().Get("outputsize"))
		assert.Equal(t, "test-key", r.URL.Query().Get("apikey"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"status": "ok",
			"values": [
				{"datetime": "2026-08-28", "open": "230.1", "high": "232.5", "low": "229.0", "close": "231.7"},
				{"datetime": "2026-08-27", "open": "228.0", "high": "230.9", "low": "227.2", "close": "230.2"}
			]
		}`))
	}))
	defer srv.Close()

	client := NewClient("test-key")
	client.baseURL = srv.URL

	candles, err := client.TimeSeries(context.Background(), "AAPL", "1day")
	require.NoError(t, err)
	require.Len(t, candles, 2)

	// Provider sends newest-first; the client returns ascending time.
	assert.Less(t, candles[0].Time, candles[1].Time)
	assert.Equal(t, 228.0, candles[0].Open)
	assert.Equal(t, 231.7, candles[1].Close)
}

func TestClient_TimeSeriesIntradayDatetime(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"status": "ok",
			"values": [
				{"datetime": "2026-08-28 15:30:00", "open": "1", "high": "2", "low": "0.5", "close": "1.5"}
			]
		}`))
	}))
	defer srv.Close()

	client := NewClient("test-key")
	client.baseURL = srv.URL

	candles, err := client.TimeSeries(context.Background(), "AAPL", "5min")
	require.NoError(t, err)
	require.Len(t, candles, 1)
	assert.NotZero(t, candles[0].Time)
}

func TestClient_TimeSeriesProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status": "error", "message": "symbol not found"}`))
	}))
	defer srv.Close()

	client := NewClient("test-key")
	client.baseURL = srv.URL

	_, err := client.TimeSeries(context.Background(), "NOPE", "1day")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "symbol not found", apiErr.Message)
}

func TestClient_TimeSeriesMissingKey(t *testing.T) {
	client := NewClient("")

	_, err := client.TimeSeries(context.Background(), "AAPL", "1day")
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestClient_Quote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/quote", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"price": "231.70", "change": "1.50", "percent_change": "0.65",
			"open": "230.10", "high": "232.50", "low": "229.00",
			"datetime": "2026-08-28"
		}`))
	}))
	defer srv.Close()

	client := NewClient("test-key")
	client.baseURL = srv.URL

	q, err := client.Quote(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 231.70, *q.Price)
	assert.Equal(t, 0.65, *q.ChangePercent)
	assert.Equal(t, "2026-08-28", q.Updated)
}

func TestClient_QuoteUnparsableFieldsStayNil(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"price": "231.70", "change": ""}`))
	}))
	defer srv.Close()

	client := NewClient("test-key")
	client.baseURL = srv.URL

	q, err := client.Quote(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 231.70, *q.Price)
	assert.Nil(t, q.Change)
	assert.Nil(t, q.ChangePercent)
}
