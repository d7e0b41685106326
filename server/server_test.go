package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathanprogram2/obel/internal/util"
	"github.com/jonathanprogram2/obel/server/metrics"
)

func newMiddlewareEcho() *echo.Echo {
	e := echo.New()
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: util.GenUUID}))
	e.Use(requestMetrics())
	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "Service ready.")
	})
	e.GET("/api/ping", func(c echo.Context) error {
		return c.String(http.StatusOK, "pong")
	})
	return e
}

func TestRequestIDAssigned(t *testing.T) {
	e := newMiddlewareEcho()
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/ping", nil))

	id := rec.Header().Get(echo.HeaderXRequestID)
	require.NotEmpty(t, id)
	_, err := uuid.Parse(id)
	assert.NoError(t, err)
}

func TestRequestMetricsSkipsHealthAndMetrics(t *testing.T) {
	e := newMiddlewareEcho()

	before := testutil.ToFloat64(metrics.HTTPRequests.WithLabelValues("/api/ping", "200"))
	healthBefore := testutil.ToFloat64(metrics.HTTPRequests.WithLabelValues("/healthz", "200"))

	e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/ping", nil))

	assert.Equal(t, before+1, testutil.ToFloat64(metrics.HTTPRequests.WithLabelValues("/api/ping", "200")))
	assert.Equal(t, healthBefore, testutil.ToFloat64(metrics.HTTPRequests.WithLabelValues("/healthz", "200")))
}
