package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/arbiterhq/arbiter/domain"
)

const (
	wsWriteTimeout = 10 * time.Second
	wsReadTimeout  = 60 * time.Second
	wsSendBuffer   = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WatchDebateWS mirrors the SSE stream over a WebSocket: buffered replay
// after the client's cursor, then live events, with ping keep-alives. Any
// text message from the client is treated as a wake-up hint.
func (h *Handler) WatchDebateWS(c echo.Context) error {
	sessionID := c.Param("session_id")
	if _, err := h.engine.Snapshot(sessionID); err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "session not found"})
	}
	cursor := parseCursor(c)

	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("failed to upgrade websocket")
		return err
	}

	// Subscribe before replaying so nothing appended in between is lost;
	// the write pump filters duplicates by sequence number.
	live := make(chan domain.StreamEvent, wsSendBuffer)
	unsubscribe := h.engine.Journal().Subscribe(sessionID, func(ev domain.StreamEvent) {
		select {
		case live <- ev:
		default:
			// Slow consumer; it can recover via last_seen_seq on reconnect.
		}
	})
	defer unsubscribe()

	_ = h.engine.Resume(sessionID)

	done := make(chan struct{})
	go h.wsWritePump(ws, sessionID, cursor, live, done)
	h.wsReadPump(ws, sessionID, done)
	return nil
}

// wsReadPump consumes client messages until the connection drops. Each
// message doubles as a resume hint.
func (h *Handler) wsReadPump(ws *websocket.Conn, sessionID string, done chan struct{}) {
	defer close(done)
	defer ws.Close()

	ws.SetReadDeadline(time.Now().Add(wsReadTimeout))
	ws.SetPongHandler(func(string) error {
		ws.SetReadDeadline(time.Now().Add(wsReadTimeout))
		return nil
	})

	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.log.Debug().Err(err).Msg("websocket closed")
			}
			return
		}
		_ = h.engine.Resume(sessionID)
	}
}

// wsWritePump owns the cursor: it replays the buffer past it, then forwards
// live events with higher sequence numbers, interleaving ping keep-alives.
func (h *Handler) wsWritePump(ws *websocket.Conn, sessionID string, lastSeen uint64, live chan domain.StreamEvent, done chan struct{}) {
	ticker := time.NewTicker(h.config.KeepAliveInterval)
	defer func() {
		ticker.Stop()
		ws.Close()
	}()

	for _, ev := range h.engine.Journal().Replay(sessionID, lastSeen) {
		if err := h.wsWriteEvent(ws, ev); err != nil {
			return
		}
		lastSeen = ev.Seq
	}

	for {
		select {
		case <-done:
			return

		case ev := <-live:
			if ev.Seq <= lastSeen {
				continue
			}
			if err := h.wsWriteEvent(ws, ev); err != nil {
				return
			}
			lastSeen = ev.Seq

		case <-ticker.C:
			ws.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Handler) wsWriteEvent(ws *websocket.Conn, ev domain.StreamEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	ws.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return ws.WriteMessage(websocket.TextMessage, data)
}
