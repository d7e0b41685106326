// Package server assembles the HTTP surface of the dashboard backend.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jonathanprogram2/obel/assistant"
	"github.com/jonathanprogram2/obel/internal/profile"
	"github.com/jonathanprogram2/obel/internal/util"
	"github.com/jonathanprogram2/obel/server/metrics"
	apiv1 "github.com/jonathanprogram2/obel/server/router/api/v1"
	"github.com/jonathanprogram2/obel/store"
)

type Server struct {
	Profile *profile.Profile
	Store   *store.Store

	echoServer *echo.Echo
	apiService *apiv1.APIV1Service
}

func NewServer(profile *profile.Profile, st *store.Store, bot *assistant.Assistant) (*Server, error) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomw.Recover())
	e.Use(echomw.CORS())
	e.Use(echomw.BodyLimit("32M"))
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: util.GenUUID}))
	e.Use(requestMetrics())

	s := &Server{
		Profile:    profile,
		Store:      st,
		echoServer: e,
	}

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "Service ready.")
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	s.apiService = apiv1.NewAPIV1Service(profile, st, bot)
	s.apiService.RegisterRoutes(e)

	return s, nil
}

// requestMetrics counts inbound requests by route template and status class.
// Health checks and scrapes are excluded so they do not inflate the counters.
func requestMetrics() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if util.HasPrefixes(c.Request().URL.Path, "/healthz", "/metrics") {
				return next(c)
			}
			err := next(c)
			status := c.Response().Status
			if httpErr, ok := err.(*echo.HTTPError); ok {
				status = httpErr.Code
			}
			metrics.HTTPRequests.WithLabelValues(c.Path(), strconv.Itoa(status/100*100)).Inc()
			return err
		}
	}
}

func (s *Server) Start(ctx context.Context) error {
	address := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
	slog.Info("server started", "address", address, "mode", s.Profile.Mode, "version", s.Profile.Version)
	if err := s.echoServer.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "failed to start echo server")
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := s.echoServer.Shutdown(ctx); err != nil {
		slog.Error("failed to shutdown server", "error", err)
	}
	if err := s.Store.Close(); err != nil {
		slog.Error("failed to close store", "error", err)
	}
	slog.Info("server shutdown")
}
