package archive

import (
	"context"
	"testing"
	"time"

	"github.com/arbiterhq/arbiter/domain"
)

func newTestArchive(t *testing.T) *SQLiteArchive {
	t.Helper()

	a, err := NewSQLiteArchive(":memory:")
	if err != nil {
		t.Fatalf("failed to create archive: %v", err)
	}
	t.Cleanup(func() {
		_ = a.Close()
	})
	return a
}

func TestStoreAndGet(t *testing.T) {
	a := newTestArchive(t)
	ctx := context.Background()

	turn := domain.Turn{
		TurnID:    "trn_1",
		SessionID: "deb_1",
		Round:     1,
		Role:      domain.RoleProponent,
		Text:      "opening argument",
		CreatedAt: time.Now().UTC(),
	}

	id, err := a.Store(ctx, turn)
	if err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	if id == "" {
		t.Fatal("expected non-empty archive id")
	}

	env, err := a.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if env == nil || env.Text != "opening argument" || env.SessionID != "deb_1" {
		t.Fatalf("unexpected envelope: %+v", env)
	}
}

func TestStoreIsContentAddressed(t *testing.T) {
	a := newTestArchive(t)
	ctx := context.Background()

	first, err := a.Store(ctx, domain.Turn{TurnID: "trn_1", SessionID: "deb_1", Text: "same text"})
	if err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	second, err := a.Store(ctx, domain.Turn{TurnID: "trn_2", SessionID: "deb_1", Text: "same text"})
	if err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	if first != second {
		t.Fatalf("identical content should map to one envelope: %s vs %s", first, second)
	}

	other, err := a.Store(ctx, domain.Turn{TurnID: "trn_3", SessionID: "deb_1", Text: "different text"})
	if err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	if other == first {
		t.Fatal("different content should get a different envelope")
	}
}

func TestGetUnknownID(t *testing.T) {
	a := newTestArchive(t)

	env, err := a.Get(context.Background(), "art_missing")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if env != nil {
		t.Fatalf("expected nil for unknown id, got %+v", env)
	}
}
