package storage

import (
	"context"
	"errors"
	"testing"
)

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	exerciseStore(t, store)
}

func TestMemoryStoreRequiresInit(t *testing.T) {
	store := NewMemoryStore()
	err := store.SaveRun(context.Background(), testRun("r1", "", 0, -1, "2026-01-01T00:00:00Z"))
	if !errors.Is(err, errNotInitialized) {
		t.Fatalf("expected not initialized error, got %v", err)
	}
}

func TestMemoryStoreCopiesRunIDs(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}
	ids := []string{"a", "b"}
	batch := testBatch("b1", ids)
	if err := store.SaveBatch(ctx, batch); err != nil {
		t.Fatalf("save batch: %v", err)
	}
	ids[0] = "mutated"
	loaded, _, err := store.GetBatch(ctx, "b1")
	if err != nil {
		t.Fatalf("get batch: %v", err)
	}
	if loaded.RunIDs[0] != "a" {
		t.Fatalf("stored batch aliased caller slice: %v", loaded.RunIDs)
	}
}
