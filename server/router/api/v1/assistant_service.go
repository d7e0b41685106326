package v1

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/jonathanprogram2/obel/assistant"
	"github.com/jonathanprogram2/obel/server/metrics"
)

// AssistantService exposes the workspace assistant over REST.
type AssistantService struct {
	Assistant *assistant.Assistant
}

func (s *AssistantService) RegisterRoutes(g *echo.Group) {
	g.POST("/assistant/chat", s.Chat)
}

type errorResponse struct {
	Error string `json:"error"`
}

// Chat runs one assistant turn. Validation failures map to 400 with the
// field list; everything upstream is collapsed into a generic 500 so the
// client never sees provider internals.
func (s *AssistantService) Chat(c echo.Context) error {
	if s.Assistant == nil {
		return c.JSON(http.StatusServiceUnavailable, &errorResponse{Error: "Assistant is not configured"})
	}

	var req assistant.ChatRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, &errorResponse{Error: "Invalid request body"})
	}

	start := time.Now()
	resp, err := s.Assistant.Chat(c.Request().Context(), &req)
	metrics.AssistantTurnDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		if errors.Is(err, assistant.ErrMissingFields) {
			metrics.AssistantTurns.WithLabelValues("validation_error").Inc()
			return c.JSON(http.StatusBadRequest, &errorResponse{Error: "Missing required fields: message, tasks"})
		}
		metrics.AssistantTurns.WithLabelValues("upstream_error").Inc()
		slog.Error("assistant turn failed", "user", req.UserID, "error", err)
		return c.JSON(http.StatusInternalServerError, &errorResponse{Error: "Assistant backend error"})
	}

	metrics.AssistantTurns.WithLabelValues("ok").Inc()
	return c.JSON(http.StatusOK, resp)
}
