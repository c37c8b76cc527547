package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"wumpus/internal/eventlog"
	"wumpus/internal/platform"
	"wumpus/internal/stats"
	"wumpus/internal/storage"
	"wumpus/internal/transport/ws"
	"wumpus/internal/world"
	"wumpus/internal/worldfile"
	"wumpus/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.Silence()
	os.Exit(m.Run())
}

func chdirTemp(t *testing.T) string {
	t.Helper()
	workdir := t.TempDir()
	origWD, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(workdir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() {
		_ = os.Chdir(origWD)
	})
	return workdir
}

func writeGoldWorld(t *testing.T, path string) {
	t.Helper()
	err := worldfile.WriteFile(path, world.Layout{
		Width:  4,
		Height: 4,
		Wumpus: world.Position{X: 3, Y: 3},
		Gold:   world.Position{X: 1, Y: 0},
		Pits:   []world.Position{{X: 2, Y: 2}},
	})
	if err != nil {
		t.Fatalf("write world: %v", err)
	}
}

func TestRunCommandWritesScoreReport(t *testing.T) {
	chdirTemp(t)
	writeGoldWorld(t, "gold.txt")

	out, err := captureStdout(func() error {
		return run(context.Background(), []string{
			"run",
			"--store", "memory",
			"--world", "gold.txt",
			"--agent", "scripted",
			"--script", "Forward,Grab,TurnLeft,TurnLeft,Forward,Climb",
			"--output", "score.txt",
		})
	})
	if err != nil {
		t.Fatalf("run command: %v", err)
	}
	if !strings.Contains(out, "run completed") || !strings.Contains(out, "outcome=EXITED_SAFELY") {
		t.Fatalf("unexpected output: %s", out)
	}

	score, _, hasStdDev, err := stats.ReadScoreReport("score.txt")
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	if score != 994 || hasStdDev {
		t.Fatalf("unexpected report score=%v stdev=%t", score, hasStdDev)
	}
	raw, err := os.ReadFile("score.txt")
	if err != nil {
		t.Fatalf("read report file: %v", err)
	}
	if string(raw) != "SCORE: 994\n" {
		t.Fatalf("unexpected report contents: %q", raw)
	}
}

func TestGenerateBatchAndRunsCommands(t *testing.T) {
	chdirTemp(t)

	out, err := captureStdout(func() error {
		return run(context.Background(), []string{"generate", "--out", "worlds", "--count", "4", "--seed", "2"})
	})
	if err != nil {
		t.Fatalf("generate command: %v", err)
	}
	if !strings.Contains(out, "generated worlds=4") {
		t.Fatalf("unexpected generate output: %s", out)
	}

	out, err = captureStdout(func() error {
		return run(context.Background(), []string{
			"batch",
			"--store", "memory",
			"--worlds", "worlds",
			"--agent", "random",
			"--seed", "11",
			"--workers", "2",
			"--output", "batch.txt",
		})
	})
	if err != nil {
		t.Fatalf("batch command: %v", err)
	}
	if !strings.Contains(out, "batch completed") || !strings.Contains(out, "worlds=4") {
		t.Fatalf("unexpected batch output: %s", out)
	}
	if _, _, hasStdDev, err := stats.ReadScoreReport("batch.txt"); err != nil || !hasStdDev {
		t.Fatalf("expected batch report with STDEV: hasStdDev=%t err=%v", hasStdDev, err)
	}

	out, err = captureStdout(func() error {
		return run(context.Background(), []string{"runs", "--json"})
	})
	if err != nil {
		t.Fatalf("runs command: %v", err)
	}
	var items []struct {
		ID    string `json:"id"`
		Kind  string `json:"kind"`
		Count int    `json:"count"`
	}
	if err := json.Unmarshal([]byte(out), &items); err != nil {
		t.Fatalf("decode runs json: %v\n%s", err, out)
	}
	if len(items) != 1 || items[0].Kind != "batch" || items[0].Count != 4 {
		t.Fatalf("unexpected runs listing: %+v", items)
	}
}

func TestBatchCommandRandomWorldsJSON(t *testing.T) {
	chdirTemp(t)

	out, err := captureStdout(func() error {
		return run(context.Background(), []string{
			"batch",
			"--store", "memory",
			"--agent", "scripted",
			"--script", "climb",
			"--count", "3",
			"--json",
		})
	})
	if err != nil {
		t.Fatalf("batch command: %v", err)
	}
	var summary struct {
		BatchID  string         `json:"batch_id"`
		Summary  stats.Summary  `json:"summary"`
		Outcomes map[string]int `json:"outcomes"`
	}
	if err := json.Unmarshal([]byte(out), &summary); err != nil {
		t.Fatalf("decode batch json: %v\n%s", err, out)
	}
	if summary.Summary.Count != 3 || summary.Summary.Mean != -1 || summary.Outcomes["EXITED_SAFELY"] != 3 {
		t.Fatalf("unexpected batch summary: %+v", summary)
	}
}

func TestRunCommandUsesConfigWithFlagOverrides(t *testing.T) {
	chdirTemp(t)
	config := strings.Join([]string{
		"agent: scripted",
		"script: [Climb]",
		"seed: 4",
		"store: memory",
		"output: from-config.txt",
	}, "\n")
	if err := os.WriteFile("wumpus.yaml", []byte(config), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	_, err := captureStdout(func() error {
		return run(context.Background(), []string{"run", "--config", "wumpus.yaml", "--output", "override.txt"})
	})
	if err != nil {
		t.Fatalf("run with config: %v", err)
	}
	if _, err := os.Stat("from-config.txt"); !os.IsNotExist(err) {
		t.Fatalf("expected flag to override config output, stat err=%v", err)
	}
	score, _, _, err := stats.ReadScoreReport("override.txt")
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	if score != -1 {
		t.Fatalf("expected climb-at-start score -1, got %v", score)
	}
}

func TestRunCommandRejectsInvalidConfig(t *testing.T) {
	chdirTemp(t)
	if err := os.WriteFile("bad.yaml", []byte("workers: 0\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if err := run(context.Background(), []string{"run", "--config", "bad.yaml"}); err == nil {
		t.Fatal("expected config validation error")
	}
}

func TestReplayAndExportCommands(t *testing.T) {
	chdirTemp(t)
	writeGoldWorld(t, "gold.txt")

	_, err := captureStdout(func() error {
		return run(context.Background(), []string{
			"run",
			"--store", "memory",
			"--world", "gold.txt",
			"--agent", "scripted",
			"--script", "Forward,Grab,TurnLeft,TurnLeft,Forward,Climb",
			"--turn-log-dir", "turns",
		})
	})
	if err != nil {
		t.Fatalf("run command: %v", err)
	}
	logs, err := filepath.Glob(filepath.Join("turns", "*"+eventlog.Extension))
	if err != nil || len(logs) != 1 {
		t.Fatalf("expected one turn log, got %v (err=%v)", logs, err)
	}

	out, err := captureStdout(func() error {
		return run(context.Background(), []string{"replay", "--log", logs[0]})
	})
	if err != nil {
		t.Fatalf("replay command: %v", err)
	}
	if !strings.Contains(out, "replay ok") || !strings.Contains(out, "score=994") || !strings.Contains(out, "@") {
		t.Fatalf("unexpected replay output: %s", out)
	}

	out, err = captureStdout(func() error {
		return run(context.Background(), []string{"export", "--latest", "--out", "exports"})
	})
	if err != nil {
		t.Fatalf("export command: %v", err)
	}
	if !strings.Contains(out, "exported run_id=") || !strings.Contains(out, "kind=run agent=scripted count=1 mean=994") {
		t.Fatalf("unexpected export output: %s", out)
	}
	exported, err := filepath.Glob(filepath.Join("exports", "*", "turns", "*"+eventlog.Extension))
	if err != nil || len(exported) != 1 {
		t.Fatalf("expected exported turn log, got %v (err=%v)", exported, err)
	}
}

func TestReplayRequiresLog(t *testing.T) {
	if err := run(context.Background(), []string{"replay"}); err == nil {
		t.Fatal("expected missing log error")
	}
}

func TestBotCommandPlaysRemoteEpisode(t *testing.T) {
	store := storage.NewMemoryStore()
	p := platform.NewPlatform(platform.Config{Store: store})
	if err := p.Init(context.Background()); err != nil {
		t.Fatalf("init platform: %v", err)
	}
	ts := httptest.NewServer(ws.NewServer(p, ws.ServerOptions{Seed: 1}))
	defer ts.Close()
	url := "ws" + strings.TrimPrefix(ts.URL, "http")

	out, err := captureStdout(func() error {
		return run(context.Background(), []string{"bot", "--url", url, "--agent", "scripted", "--script", "Climb"})
	})
	if err != nil {
		t.Fatalf("bot command: %v", err)
	}
	if !strings.Contains(out, "score=-1") || !strings.Contains(out, "outcome=EXITED_SAFELY") {
		t.Fatalf("unexpected bot output: %s", out)
	}

	runs, err := store.ListRuns(context.Background(), "")
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 1 || runs[0].Agent != "remote:scripted" {
		t.Fatalf("unexpected stored runs: %+v", runs)
	}
}

func TestRunRejectsUnknownAndMissingCommand(t *testing.T) {
	if err := run(context.Background(), nil); err == nil || !strings.Contains(err.Error(), "missing command") {
		t.Fatalf("expected missing command error, got %v", err)
	}
	if err := run(context.Background(), []string{"evolve"}); err == nil || !strings.Contains(err.Error(), "unknown command") {
		t.Fatalf("expected unknown command error, got %v", err)
	}
}

func TestRunCommandRejectsBadScript(t *testing.T) {
	chdirTemp(t)
	if err := run(context.Background(), []string{"run", "--store", "memory", "--agent", "scripted", "--script", "Forward,Jump"}); err == nil {
		t.Fatal("expected script parse error")
	}
}

func captureStdout(fn func() error) (string, error) {
	origStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		return "", err
	}

	os.Stdout = w
	runErr := fn()
	_ = w.Close()
	os.Stdout = origStdout

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		_ = r.Close()
		return "", err
	}
	_ = r.Close()
	return buf.String(), runErr
}
