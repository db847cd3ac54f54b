package docstore

import (
	"context"
	"errors"
	"fmt"
	"testing"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func openTestStore(t *testing.T, name string) *LocalStore {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&DocumentRow{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	store, err := NewLocalStore(db)
	if err != nil {
		t.Fatalf("failed to build store: %v", err)
	}
	return store
}

func TestLocalStoreSetGetRoundTrip(t *testing.T) {
	store := openTestStore(t, "docstore_roundtrip")
	ctx := context.Background()

	fields := map[string]any{"name": "Roads", "status": "ACTIVE"}
	if err := store.Set(ctx, "services", "svc-1", fields); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	document, err := store.Get(ctx, "services", "svc-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if document.ID != "svc-1" {
		t.Fatalf("expected document id svc-1, got %q", document.ID)
	}
	if String(document.Fields, "name") != "Roads" {
		t.Fatalf("expected name field to survive, got %v", document.Fields["name"])
	}
}

func TestLocalStoreGetMissingReturnsNotFound(t *testing.T) {
	store := openTestStore(t, "docstore_missing")

	_, err := store.Get(context.Background(), "services", "absent")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLocalStoreUpdateMergesFields(t *testing.T) {
	store := openTestStore(t, "docstore_merge")
	ctx := context.Background()

	if err := store.Set(ctx, "services", "svc-1", map[string]any{"name": "Roads", "address": "Main 1"}); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if err := store.Update(ctx, "services", "svc-1", map[string]any{"address": "Main 2"}); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	document, err := store.Get(ctx, "services", "svc-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if String(document.Fields, "name") != "Roads" {
		t.Fatalf("expected untouched field to survive the patch, got %v", document.Fields["name"])
	}
	if String(document.Fields, "address") != "Main 2" {
		t.Fatalf("expected patched field to change, got %v", document.Fields["address"])
	}
}

func TestLocalStoreUpdateMissingReturnsNotFound(t *testing.T) {
	store := openTestStore(t, "docstore_update_missing")

	err := store.Update(context.Background(), "services", "absent", map[string]any{"name": "x"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLocalStoreQueryFiltersSortsAndPages(t *testing.T) {
	store := openTestStore(t, "docstore_query")
	ctx := context.Background()

	seed := []struct {
		id     string
		name   string
		status string
	}{
		{"svc-1", "Water", "ACTIVE"},
		{"svc-2", "Roads", "ACTIVE"},
		{"svc-3", "Parks", "BANNED"},
		{"svc-4", "Energy", "ACTIVE"},
	}
	for _, doc := range seed {
		if err := store.Set(ctx, "services", doc.id, map[string]any{"name": doc.name, "status": doc.status}); err != nil {
			t.Fatalf("set %s failed: %v", doc.id, err)
		}
	}

	filter := Filter{In("status", "ACTIVE")}
	documents, err := store.Query(ctx, "services", filter, &Sort{Field: "name"}, 0, 2)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(documents) != 2 {
		t.Fatalf("expected a page of 2, got %d", len(documents))
	}
	if String(documents[0].Fields, "name") != "Energy" || String(documents[1].Fields, "name") != "Roads" {
		t.Fatalf("expected ascending name order Energy, Roads, got %v, %v",
			documents[0].Fields["name"], documents[1].Fields["name"])
	}

	documents, err = store.Query(ctx, "services", filter, &Sort{Field: "name"}, 2, 2)
	if err != nil {
		t.Fatalf("second page query failed: %v", err)
	}
	if len(documents) != 1 || String(documents[0].Fields, "name") != "Water" {
		t.Fatalf("expected second page to hold Water, got %v", documents)
	}

	documents, err = store.Query(ctx, "services", filter, nil, 10, 2)
	if err != nil {
		t.Fatalf("out-of-range query failed: %v", err)
	}
	if len(documents) != 0 {
		t.Fatalf("expected empty page past the end, got %d documents", len(documents))
	}
}

func TestLocalStoreCountHonorsFilter(t *testing.T) {
	store := openTestStore(t, "docstore_count")
	ctx := context.Background()

	for i, status := range []string{"ACTIVE", "ACTIVE", "DELETED"} {
		id := fmt.Sprintf("svc-%d", i)
		if err := store.Set(ctx, "services", id, map[string]any{"status": status}); err != nil {
			t.Fatalf("set failed: %v", err)
		}
	}

	count, err := store.Count(ctx, "services", Filter{Eq("status", "ACTIVE")})
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 active documents, got %d", count)
	}
}

func TestLocalStoreDeleteRemovesDocument(t *testing.T) {
	store := openTestStore(t, "docstore_delete")
	ctx := context.Background()

	if err := store.Set(ctx, "services", "svc-1", map[string]any{"name": "Roads"}); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if err := store.Delete(ctx, "services", "svc-1"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := store.Get(ctx, "services", "svc-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}
