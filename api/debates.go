package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/arbiterhq/arbiter/domain"
	"github.com/arbiterhq/arbiter/engine"
)

// StartRequest is the body of POST /v1/debates.
type StartRequest struct {
	Goal        string            `json:"goal"`
	PrincipalID string            `json:"principal_id,omitempty"`
	MaxRounds   int               `json:"max_rounds,omitempty"`
	MaxWallMS   int64             `json:"max_wall_ms,omitempty"`
	Verifiers   []string          `json:"verifiers,omitempty"`
	Context     map[string]string `json:"context,omitempty"`
}

// StartResponse is the body returned by POST /v1/debates.
type StartResponse struct {
	SessionID string `json:"session_id"`
}

// StartDebate validates the request and schedules a new debate session.
func (h *Handler) StartDebate(c echo.Context) error {
	var req StartRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	cfg := domain.DebateConfig{
		Goal:        req.Goal,
		PrincipalID: req.PrincipalID,
		MaxRounds:   req.MaxRounds,
		MaxWallMS:   req.MaxWallMS,
		Verifiers:   req.Verifiers,
		Context:     req.Context,
	}
	if cfg.MaxRounds == 0 {
		cfg.MaxRounds = h.config.DefaultMaxRounds
	}
	if cfg.MaxWallMS == 0 {
		cfg.MaxWallMS = h.config.DefaultMaxWall.Milliseconds()
	}

	sessionID, err := h.engine.Start(cfg)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusAccepted, StartResponse{SessionID: sessionID})
}

// GetDebate returns a point-in-time snapshot of a session.
func (h *Handler) GetDebate(c echo.Context) error {
	snap, err := h.engine.Snapshot(c.Param("session_id"))
	if err != nil {
		if errors.Is(err, engine.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "session not found"})
		}
		h.log.Error().Err(err).Msg("failed to snapshot session")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to get session"})
	}
	return c.JSON(http.StatusOK, snap)
}

// GetDebateEvents replays buffered journal events after the given cursor.
func (h *Handler) GetDebateEvents(c echo.Context) error {
	sessionID := c.Param("session_id")
	if _, err := h.engine.Snapshot(sessionID); err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "session not found"})
	}

	var since uint64
	if raw := c.QueryParam("since"); raw != "" {
		v, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid since cursor"})
		}
		since = v
	}

	events := h.engine.Journal().Replay(sessionID, since)
	resp := map[string]interface{}{"events": events}
	if oldest, ok := h.engine.Journal().OldestSeq(sessionID); ok {
		resp["oldest_seq"] = oldest
	}
	return c.JSON(http.StatusOK, resp)
}

// ResumeDebate is an idempotent wake-up hint.
func (h *Handler) ResumeDebate(c echo.Context) error {
	err := h.engine.Resume(c.Param("session_id"))
	if err != nil {
		if errors.Is(err, engine.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "session not found"})
		}
		h.log.Error().Err(err).Msg("failed to resume session")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to resume session"})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
