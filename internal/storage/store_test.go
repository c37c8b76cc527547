package storage

import (
	"context"
	"fmt"
	"testing"

	"wumpus/internal/model"
)

func testRun(id, batchID string, index, score int, created string) model.RunRecord {
	return model.RunRecord{
		VersionedRecord: CurrentVersion(),
		ID:              id,
		BatchID:         batchID,
		Index:           index,
		Scape:           "wumpus",
		Agent:           "random",
		Seed:            int64(index),
		Width:           4,
		Height:          4,
		Score:           score,
		Turns:           -score,
		Outcome:         "TURN_LIMIT",
		CreatedAtUTC:    created,
	}
}

// exerciseStore runs the behaviour every backend must share.
func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	if _, ok, err := store.GetRun(ctx, "missing"); err != nil || ok {
		t.Fatalf("expected missing run, ok=%t err=%v", ok, err)
	}

	created := "2026-01-02T03:04:05Z"
	for i := 2; i >= 0; i-- {
		run := testRun(fmt.Sprintf("b1-r%d", i), "b1", i, -10*(i+1), created)
		if err := store.SaveRun(ctx, run); err != nil {
			t.Fatalf("save run %d: %v", i, err)
		}
	}
	loose := testRun("solo", "", 0, 994, "2026-01-01T00:00:00Z")
	loose.Outcome = "EXITED_SAFELY"
	loose.HoldsGold = true
	if err := store.SaveRun(ctx, loose); err != nil {
		t.Fatalf("save solo run: %v", err)
	}

	got, ok, err := store.GetRun(ctx, "solo")
	if err != nil || !ok {
		t.Fatalf("get solo: ok=%t err=%v", ok, err)
	}
	if got.Score != 994 || !got.HoldsGold || got.Outcome != "EXITED_SAFELY" {
		t.Fatalf("unexpected run loaded: %+v", got)
	}

	batchRuns, err := store.ListRuns(ctx, "b1")
	if err != nil {
		t.Fatalf("list batch runs: %v", err)
	}
	if len(batchRuns) != 3 {
		t.Fatalf("expected 3 batch runs, got %d", len(batchRuns))
	}
	for i, run := range batchRuns {
		if run.Index != i {
			t.Fatalf("expected index order, got %d at %d", run.Index, i)
		}
	}
	all, err := store.ListRuns(ctx, "")
	if err != nil {
		t.Fatalf("list all runs: %v", err)
	}
	if len(all) != 4 || all[0].ID != "solo" {
		t.Fatalf("expected oldest first across all runs, got %d runs starting %q", len(all), all[0].ID)
	}

	updated := loose
	updated.Score = 993
	if err := store.SaveRun(ctx, updated); err != nil {
		t.Fatalf("overwrite run: %v", err)
	}
	if got, _, _ := store.GetRun(ctx, "solo"); got.Score != 993 {
		t.Fatalf("expected overwrite to stick, got %d", got.Score)
	}

	batch := model.BatchRecord{
		VersionedRecord: CurrentVersion(),
		ID:              "b1",
		Agent:           "random",
		Scape:           "wumpus",
		Seed:            7,
		Runs:            3,
		Mean:            -20,
		StdDev:          8.16496580927726,
		Min:             -30,
		Max:             -10,
		RunIDs:          []string{"b1-r0", "b1-r1", "b1-r2"},
		CreatedAtUTC:    created,
	}
	if err := store.SaveBatch(ctx, batch); err != nil {
		t.Fatalf("save batch: %v", err)
	}
	older := batch
	older.ID = "b0"
	older.CreatedAtUTC = "2025-12-31T00:00:00Z"
	older.RunIDs = nil
	if err := store.SaveBatch(ctx, older); err != nil {
		t.Fatalf("save older batch: %v", err)
	}

	loadedBatch, ok, err := store.GetBatch(ctx, "b1")
	if err != nil || !ok {
		t.Fatalf("get batch: ok=%t err=%v", ok, err)
	}
	if loadedBatch.Mean != -20 || len(loadedBatch.RunIDs) != 3 {
		t.Fatalf("unexpected batch: %+v", loadedBatch)
	}
	batches, err := store.ListBatches(ctx)
	if err != nil {
		t.Fatalf("list batches: %v", err)
	}
	if len(batches) != 2 || batches[0].ID != "b0" || batches[1].ID != "b1" {
		t.Fatalf("unexpected batch order: %+v", batches)
	}

	stale := testRun("stale", "", 0, 0, created)
	stale.SchemaVersion = 99
	if err := store.SaveRun(ctx, stale); err == nil {
		t.Fatal("expected version error for stale record")
	}

	if resetter, ok := store.(Resetter); ok {
		if err := resetter.Reset(ctx); err != nil {
			t.Fatalf("reset: %v", err)
		}
		runs, err := store.ListRuns(ctx, "")
		if err != nil {
			t.Fatalf("list after reset: %v", err)
		}
		if len(runs) != 0 {
			t.Fatalf("expected empty store after reset, got %d runs", len(runs))
		}
	}
}
