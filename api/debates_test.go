package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/arbiterhq/arbiter/capability"
	"github.com/arbiterhq/arbiter/config"
	"github.com/arbiterhq/arbiter/domain"
	"github.com/arbiterhq/arbiter/engine"
	"github.com/arbiterhq/arbiter/journal"
	"github.com/arbiterhq/arbiter/metrics"
	"github.com/arbiterhq/arbiter/store"
)

func newTestHandler(t *testing.T) *Handler {
	t.Helper()

	cfg := &config.Config{
		JournalCapacity:   journal.DefaultCapacity,
		DefaultMaxRounds:  2,
		DefaultMaxWall:    5 * time.Second,
		YieldInterval:     time.Millisecond,
		KeepAliveInterval: 25 * time.Second,
	}
	reg := capability.NewRegistry()
	for _, h := range capability.Defaults() {
		reg.Register(h)
	}
	eng := engine.New(
		store.New(),
		journal.New(cfg.JournalCapacity, zerolog.Nop()),
		reg,
		engine.TemplateProvider{},
		nil,
		metrics.New(prometheus.NewRegistry()),
		cfg,
		zerolog.Nop(),
	)
	return NewHandler(eng, cfg, zerolog.Nop())
}

func doJSON(t *testing.T, h func(echo.Context) error, method, path, body string, setup func(echo.Context)) *httptest.ResponseRecorder {
	t.Helper()

	e := echo.New()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if setup != nil {
		setup(c)
	}
	if err := h(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	return rec
}

func withSessionParam(id string) func(echo.Context) {
	return func(c echo.Context) {
		c.SetParamNames("session_id")
		c.SetParamValues(id)
	}
}

func startDebate(t *testing.T, h *Handler, body string) string {
	t.Helper()

	rec := doJSON(t, h.StartDebate, http.MethodPost, "/v1/debates", body, nil)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp StartResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.SessionID == "" {
		t.Fatal("expected a session id")
	}
	return resp.SessionID
}

func waitTerminal(t *testing.T, h *Handler, id string) domain.Snapshot {
	t.Helper()

	deadline := time.Now().Add(4 * time.Second)
	for time.Now().Before(deadline) {
		snap, err := h.engine.Snapshot(id)
		if err != nil {
			t.Fatalf("snapshot failed: %v", err)
		}
		if snap.Status.Terminal() {
			return snap
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("session %s did not terminate", id)
	return domain.Snapshot{}
}

func TestStartDebateValidation(t *testing.T) {
	h := newTestHandler(t)

	rec := doJSON(t, h.StartDebate, http.MethodPost, "/v1/debates", `{"goal":""}`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	rec = doJSON(t, h.StartDebate, http.MethodPost, "/v1/debates", `{"goal":"G","max_rounds":-1}`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestStartDebateAppliesDefaults(t *testing.T) {
	h := newTestHandler(t)

	id := startDebate(t, h, `{"goal":"defaults"}`)
	snap := waitTerminal(t, h, id)

	if snap.Config.MaxRounds != 2 {
		t.Fatalf("expected default max_rounds 2, got %d", snap.Config.MaxRounds)
	}
	if snap.Config.MaxWallMS != 5000 {
		t.Fatalf("expected default max_wall_ms 5000, got %d", snap.Config.MaxWallMS)
	}
}

func TestGetDebateSnapshot(t *testing.T) {
	h := newTestHandler(t)

	id := startDebate(t, h, `{"goal":"G","max_rounds":1,"max_wall_ms":5000}`)
	waitTerminal(t, h, id)

	rec := doJSON(t, h.GetDebate, http.MethodGet, "/v1/debates/"+id, "", withSessionParam(id))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var snap domain.Snapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("failed to decode snapshot: %v", err)
	}
	if snap.Status != domain.StatusCompleted {
		t.Fatalf("expected completed, got %s", snap.Status)
	}
	if len(snap.Turns) != 3 {
		t.Fatalf("expected 3 turns, got %d", len(snap.Turns))
	}
	if snap.Outcome == nil {
		t.Fatal("expected an outcome")
	}
}

func TestGetDebateNotFound(t *testing.T) {
	h := newTestHandler(t)

	rec := doJSON(t, h.GetDebate, http.MethodGet, "/v1/debates/deb_missing", "", withSessionParam("deb_missing"))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestGetDebateEventsReplay(t *testing.T) {
	h := newTestHandler(t)

	id := startDebate(t, h, `{"goal":"G","max_rounds":1,"max_wall_ms":5000}`)
	waitTerminal(t, h, id)

	rec := doJSON(t, h.GetDebateEvents, http.MethodGet, "/v1/debates/"+id+"/events", "", withSessionParam(id))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		Events []domain.StreamEvent `json:"events"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode events: %v", err)
	}
	if len(resp.Events) == 0 {
		t.Fatal("expected events")
	}
	for i, ev := range resp.Events {
		if ev.Seq != uint64(i+1) {
			t.Fatalf("expected seq %d, got %d", i+1, ev.Seq)
		}
	}

	total := len(resp.Events)

	// Cursor replay returns exactly the tail.
	rec = doJSON(t, h.GetDebateEvents, http.MethodGet, "/v1/debates/"+id+"/events?since=3", "", withSessionParam(id))
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode events: %v", err)
	}
	if len(resp.Events) != total-3 {
		t.Fatalf("expected %d events after cursor 3, got %d", total-3, len(resp.Events))
	}
	if resp.Events[0].Seq != 4 {
		t.Fatalf("expected first seq 4, got %d", resp.Events[0].Seq)
	}
}

func TestResumeDebate(t *testing.T) {
	h := newTestHandler(t)

	id := startDebate(t, h, `{"goal":"G","max_rounds":1,"max_wall_ms":5000}`)
	waitTerminal(t, h, id)

	rec := doJSON(t, h.ResumeDebate, http.MethodPost, "/v1/debates/"+id+"/resume", "", withSessionParam(id))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec = doJSON(t, h.ResumeDebate, http.MethodPost, "/v1/debates/deb_missing/resume", "", withSessionParam("deb_missing"))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestListVerifiers(t *testing.T) {
	h := newTestHandler(t)

	rec := doJSON(t, h.ListVerifiers, http.MethodGet, "/v1/verifiers", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		Verifiers []string `json:"verifiers"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Verifiers) != 2 {
		t.Fatalf("expected 2 verifiers, got %v", resp.Verifiers)
	}
}
