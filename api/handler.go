// Package api provides HTTP handlers for the debate service.
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/arbiterhq/arbiter/config"
	"github.com/arbiterhq/arbiter/engine"
)

// Handler handles HTTP requests.
type Handler struct {
	engine *engine.Engine
	config *config.Config
	log    zerolog.Logger
}

// NewHandler creates a new handler.
func NewHandler(eng *engine.Engine, cfg *config.Config, log zerolog.Logger) *Handler {
	return &Handler{
		engine: eng,
		config: cfg,
		log:    log.With().Str("component", "api").Logger(),
	}
}

// RegisterRoutes registers routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.POST("/v1/debates", h.StartDebate)
	e.GET("/v1/debates/:session_id", h.GetDebate)
	e.GET("/v1/debates/:session_id/events", h.GetDebateEvents)
	e.GET("/v1/debates/:session_id/stream", h.StreamDebate)
	e.GET("/v1/debates/:session_id/ws", h.WatchDebateWS)
	e.POST("/v1/debates/:session_id/resume", h.ResumeDebate)

	e.GET("/v1/verifiers", h.ListVerifiers)

	e.GET("/health", h.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// Health returns health status.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": "0.1.0",
	})
}

// ListVerifiers lists the registered capability names.
func (h *Handler) ListVerifiers(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"verifiers": h.engine.Registry().Names(),
	})
}
