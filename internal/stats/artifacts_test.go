package stats

import (
	"os"
	"path/filepath"
	"testing"
)

func sampleArtifacts(id string) RunArtifacts {
	rows := []ScoreRow{
		{Index: 0, RunID: id + "-0", World: "worlds/w_0.txt", Score: -1001, Turns: 1, Outcome: "DEAD_BY_HAZARD"},
		{Index: 1, RunID: id + "-1", World: "worlds/w_1.txt", Score: 994, Turns: 6, Outcome: "EXITED_SAFELY"},
		{Index: 2, RunID: id + "-2", World: "worlds/w_2.txt", Score: -1000, Turns: 1000, Outcome: "TURN_LIMIT"},
	}
	return RunArtifacts{
		Config: RunConfig{ID: id, Kind: "batch", Agent: "random", Scape: "world-file", Source: "worlds", Count: 3},
		Scores: rows,
		Summary: RunSummary{
			Summary: Summarize([]float64{-1001, 994, -1000}),
		},
	}
}

func TestWriteAndReadRunArtifacts(t *testing.T) {
	base := t.TempDir()
	dir, err := WriteRunArtifacts(base, sampleArtifacts("b1"))
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if dir != filepath.Join(base, "b1") {
		t.Fatalf("unexpected dir %s", dir)
	}

	cfg, ok, err := ReadRunConfig(base, "b1")
	if err != nil || !ok || cfg.Agent != "random" || cfg.Count != 3 {
		t.Fatalf("config: %+v ok=%t err=%v", cfg, ok, err)
	}
	rows, ok, err := ReadScores(base, "b1")
	if err != nil || !ok || len(rows) != 3 {
		t.Fatalf("scores: %+v ok=%t err=%v", rows, ok, err)
	}
	if rows[1].Score != 994 || rows[1].Outcome != "EXITED_SAFELY" || rows[1].World != "worlds/w_1.txt" {
		t.Fatalf("unexpected row: %+v", rows[1])
	}
	summary, ok, err := ReadRunSummary(base, "b1")
	if err != nil || !ok {
		t.Fatalf("summary: ok=%t err=%v", ok, err)
	}
	if summary.Count != 3 || summary.Outcomes["TURN_LIMIT"] != 1 || summary.Outcomes["EXITED_SAFELY"] != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}

	if _, ok, err := ReadScores(base, "missing"); err != nil || ok {
		t.Fatalf("expected missing scores, ok=%t err=%v", ok, err)
	}
}

func TestWriteRunArtifactsRequiresID(t *testing.T) {
	if _, err := WriteRunArtifacts(t.TempDir(), RunArtifacts{}); err == nil {
		t.Fatal("expected error for missing id")
	}
}

func TestRunIndexNewestFirst(t *testing.T) {
	base := t.TempDir()
	entries := []RunIndexEntry{
		{ID: "a", Kind: "run", CreatedAtUTC: "2026-01-01T00:00:00Z"},
		{ID: "b", Kind: "batch", CreatedAtUTC: "2026-01-03T00:00:00Z"},
		{ID: "c", Kind: "run", CreatedAtUTC: "2026-01-02T00:00:00Z"},
	}
	for _, e := range entries {
		if err := AppendRunIndex(base, e); err != nil {
			t.Fatalf("append %s: %v", e.ID, err)
		}
	}
	updated := entries[0]
	updated.Mean = 12
	if err := AppendRunIndex(base, updated); err != nil {
		t.Fatalf("update: %v", err)
	}

	index, err := ListRunIndex(base)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(index) != 3 || index[0].ID != "b" || index[1].ID != "c" || index[2].ID != "a" {
		t.Fatalf("unexpected order: %+v", index)
	}
	if index[2].Mean != 12 {
		t.Fatalf("expected replaced entry, got %+v", index[2])
	}

	empty, err := ListRunIndex(t.TempDir())
	if err != nil || len(empty) != 0 {
		t.Fatalf("expected empty index, got %v err=%v", empty, err)
	}
}

func TestExportRunArtifactsCopiesTurnLogs(t *testing.T) {
	base := t.TempDir()
	logPath := filepath.Join(t.TempDir(), "b1-0.jsonl.zst")
	if err := os.WriteFile(logPath, []byte("compressed"), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
	artifacts := sampleArtifacts("b1")
	artifacts.TurnLogs = []string{logPath}
	if _, err := WriteRunArtifacts(base, artifacts); err != nil {
		t.Fatalf("write: %v", err)
	}

	out := t.TempDir()
	dst, err := ExportRunArtifacts(base, "b1", out)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	for _, name := range []string{"config.json", "scores.csv", "summary.json", filepath.Join("turns", "b1-0.jsonl.zst")} {
		if _, err := os.Stat(filepath.Join(dst, name)); err != nil {
			t.Fatalf("expected exported %s: %v", name, err)
		}
	}

	if _, err := ExportRunArtifacts(base, "missing", out); err == nil {
		t.Fatal("expected error exporting missing run")
	}
}
