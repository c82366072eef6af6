package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

// streamOnce runs the SSE handler against a cancelable request and returns
// the recorded wire output once the handler has exited.
func streamOnce(t *testing.T, h *Handler, id, target string) string {
	t.Helper()

	e := echo.New()
	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, target, nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("session_id")
	c.SetParamValues(id)

	done := make(chan error, 1)
	go func() {
		done <- h.StreamDebate(c)
	}()

	// Give the handler time to replay the buffer, then disconnect.
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("stream handler error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("stream handler did not exit after disconnect")
	}
	return rec.Body.String()
}

func TestStreamReplaysFromCursor(t *testing.T) {
	h := newTestHandler(t)

	id := startDebate(t, h, `{"goal":"G","max_rounds":1,"max_wall_ms":5000}`)
	waitTerminal(t, h, id)

	total := len(h.engine.Journal().Replay(id, 0))
	if total < 5 {
		t.Fatalf("expected at least 5 journal events, got %d", total)
	}

	body := streamOnce(t, h, id, "/v1/debates/"+id+"/stream?last_seen_seq=3")

	if strings.Contains(body, "id: 1\n") || strings.Contains(body, "id: 3\n") {
		t.Fatalf("events at or before the cursor must not be replayed:\n%s", body)
	}
	for seq := 4; seq <= total; seq++ {
		if !strings.Contains(body, "id: "+strconv.Itoa(seq)+"\n") {
			t.Fatalf("missing event %d in stream:\n%s", seq, body)
		}
	}
	if !strings.Contains(body, "event: status") {
		t.Fatalf("expected status events in stream:\n%s", body)
	}
}

func TestStreamFullReplayIncludesOutcome(t *testing.T) {
	h := newTestHandler(t)

	id := startDebate(t, h, `{"goal":"G","max_rounds":1,"max_wall_ms":5000}`)
	waitTerminal(t, h, id)

	body := streamOnce(t, h, id, "/v1/debates/"+id+"/stream")

	if !strings.Contains(body, "id: 1\n") {
		t.Fatalf("expected replay from the beginning:\n%s", body)
	}
	if !strings.Contains(body, "event: outcome") {
		t.Fatalf("expected the outcome event:\n%s", body)
	}
	if !strings.Contains(body, "event: turn") {
		t.Fatalf("expected turn events:\n%s", body)
	}
}

func TestStreamUnknownSession(t *testing.T) {
	h := newTestHandler(t)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/debates/deb_missing/stream", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("session_id")
	c.SetParamValues("deb_missing")

	if err := h.StreamDebate(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
