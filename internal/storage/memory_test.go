package storage

import (
	"context"
	"testing"

	"codextuner/internal/profile"
)

func testRecord(id, createdAt string) SessionRecord {
	return SessionRecord{
		ID:              id,
		CreatedAtUTC:    createdAt,
		SessionDir:      "/tmp/runs/" + id,
		Bot:             "codex-potential-adaptive",
		Iterations:      6,
		Candidates:      6,
		SelectionMetric: "score",
		AnchorMode:      "core",
		InstallMode:     "champion",
		Champion:        profile.Normalize(nil),
	}
}

func TestMemoryStoreSaveAndGet(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	record := testRecord("session-a", "2025-11-03T10:00:00Z")
	if err := store.SaveSession(ctx, record); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, ok, err := store.GetSession(ctx, "session-a")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !ok {
		t.Fatal("record not found")
	}
	if got.SchemaVersion != CurrentSchemaVersion {
		t.Fatalf("schema version = %d, want %d", got.SchemaVersion, CurrentSchemaVersion)
	}
	if got.Bot != record.Bot || got.SessionDir != record.SessionDir {
		t.Fatalf("record mismatch: %+v", got)
	}

	if _, ok, err := store.GetSession(ctx, "session-missing"); err != nil || ok {
		t.Fatalf("missing record: ok=%v err=%v", ok, err)
	}
}

func TestMemoryStoreListNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	for _, record := range []SessionRecord{
		testRecord("session-old", "2025-11-01T10:00:00Z"),
		testRecord("session-new", "2025-11-03T10:00:00Z"),
		testRecord("session-mid", "2025-11-02T10:00:00Z"),
	} {
		if err := store.SaveSession(ctx, record); err != nil {
			t.Fatalf("save %s: %v", record.ID, err)
		}
	}

	records, err := store.ListSessions(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("record count = %d", len(records))
	}
	wantOrder := []string{"session-new", "session-mid", "session-old"}
	for i, want := range wantOrder {
		if records[i].ID != want {
			t.Fatalf("records[%d].ID = %s, want %s", i, records[i].ID, want)
		}
	}
}

func TestMemoryStoreInitIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := store.SaveSession(ctx, testRecord("session-a", "2025-11-03T10:00:00Z")); err != nil {
		t.Fatalf("save: %v", err)
	}

	// Re-initializing must not discard already indexed sessions.
	if err := store.Init(ctx); err != nil {
		t.Fatalf("second init: %v", err)
	}
	if _, ok, err := store.GetSession(ctx, "session-a"); err != nil || !ok {
		t.Fatalf("record lost after re-init: ok=%v err=%v", ok, err)
	}
}

func TestMemoryStoreSaveOverwrites(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	record := testRecord("session-a", "2025-11-03T10:00:00Z")
	if err := store.SaveSession(ctx, record); err != nil {
		t.Fatalf("save: %v", err)
	}
	record.Iterations = 12
	if err := store.SaveSession(ctx, record); err != nil {
		t.Fatalf("save again: %v", err)
	}

	got, _, err := store.GetSession(ctx, "session-a")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Iterations != 12 {
		t.Fatalf("iterations = %d after overwrite", got.Iterations)
	}
}
