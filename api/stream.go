package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/arbiterhq/arbiter/domain"
)

// StreamDebate streams a session's journal via SSE.
// GET /v1/debates/:session_id/stream?last_seen_seq=N
//
// The client first receives the buffered replay after its cursor, then live
// events as they are appended, with a keep-alive comment every 25s. Each
// event carries its sequence number in the SSE id field so clients can
// reconnect with last_seen_seq (or the standard Last-Event-ID header).
func (h *Handler) StreamDebate(c echo.Context) error {
	ctx := c.Request().Context()
	sessionID := c.Param("session_id")

	if _, err := h.engine.Snapshot(sessionID); err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "session not found"})
	}

	lastSeen := parseCursor(c)

	c.Response().Header().Set("Content-Type", "text/event-stream")
	c.Response().Header().Set("Cache-Control", "no-cache")
	c.Response().Header().Set("Connection", "keep-alive")
	c.Response().Header().Set("X-Accel-Buffering", "no")
	c.Response().WriteHeader(http.StatusOK)
	c.Response().Flush()

	// Subscribe before replaying so nothing appended in between is lost;
	// duplicates are filtered by sequence number below.
	live := make(chan domain.StreamEvent, 64)
	unsubscribe := h.engine.Journal().Subscribe(sessionID, func(ev domain.StreamEvent) {
		select {
		case live <- ev:
		default:
			// Slow consumer; it can recover via last_seen_seq on reconnect.
		}
	})
	defer unsubscribe()

	// Every (re)subscribe doubles as a wake-up hint.
	if err := h.engine.Resume(sessionID); err != nil {
		return nil
	}

	for _, ev := range h.engine.Journal().Replay(sessionID, lastSeen) {
		if err := h.sendSSEEvent(c, ev); err != nil {
			return nil
		}
		lastSeen = ev.Seq
	}

	keepAlive := time.NewTicker(h.config.KeepAliveInterval)
	defer keepAlive.Stop()

	for {
		select {
		case <-ctx.Done():
			// Client disconnected.
			return nil

		case ev := <-live:
			if ev.Seq <= lastSeen {
				continue
			}
			if err := h.sendSSEEvent(c, ev); err != nil {
				return nil
			}
			lastSeen = ev.Seq

		case <-keepAlive.C:
			// Comment line: carries no id and is not a stream event.
			if _, err := fmt.Fprint(c.Response().Writer, ": keep-alive\n\n"); err != nil {
				return nil
			}
			c.Response().Flush()
		}
	}
}

func parseCursor(c echo.Context) uint64 {
	raw := c.QueryParam("last_seen_seq")
	if raw == "" {
		raw = c.Request().Header.Get("Last-Event-ID")
	}
	if raw == "" {
		return 0
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0
	}
	return v
}

// sendSSEEvent writes a single event in SSE format.
func (h *Handler) sendSSEEvent(c echo.Context, ev domain.StreamEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if _, err := fmt.Fprintf(c.Response().Writer, "id: %d\nevent: %s\ndata: %s\n\n", ev.Seq, ev.Type, data); err != nil {
		return err
	}
	c.Response().Flush()
	return nil
}
