package eventlog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"wumpus/internal/engine"
	"wumpus/internal/world"
	"wumpus/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.Silence()
	os.Exit(m.Run())
}

func goldLayout() world.Layout {
	return world.Layout{
		Width:  4,
		Height: 4,
		Wumpus: world.Position{X: 2, Y: 0},
		Gold:   world.Position{X: 1, Y: 1},
		Pits:   []world.Position{{X: 3, Y: 3}},
	}
}

func recordRun(t *testing.T, dir string, actions ...engine.Action) (string, engine.Result) {
	t.Helper()
	layout := goldLayout()
	log, err := Create(dir, Header{RunID: "run-1", Agent: "scripted", MaxTurns: engine.MaxTurns, Layout: layout})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	grid, err := world.FromLayout(layout)
	if err != nil {
		t.Fatalf("grid: %v", err)
	}
	e, err := engine.New(grid, engine.WithObserver(log.Observe))
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	script := append([]engine.Action(nil), actions...)
	agent := engine.AgentFunc(func(context.Context, world.Percepts) (engine.Action, error) {
		a := script[0]
		script = script[1:]
		return a, nil
	})
	result, err := e.Run(context.Background(), agent)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if err := log.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	return log.Path(), result
}

func TestTurnLogRoundTripAndReplay(t *testing.T) {
	dir := t.TempDir()
	// Shoot along the bottom row, then fetch the gold and climb out.
	path, result := recordRun(t, dir,
		engine.Shoot,
		engine.TurnLeft, engine.Forward, engine.TurnRight, engine.Forward,
		engine.Grab,
		engine.TurnRight, engine.Forward, engine.TurnRight, engine.Forward,
		engine.Climb,
	)
	if path != filepath.Join(dir, "run-1.jsonl.zst") {
		t.Fatalf("unexpected path %s", path)
	}
	if result.Outcome != engine.ExitedSafely || !result.WumpusKilled || !result.HoldsGold {
		t.Fatalf("unexpected recorded result: %+v", result)
	}

	header, records, err := ReadTurnLog(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if header.RunID != "run-1" || header.Layout.Gold != (world.Position{X: 1, Y: 1}) || len(header.Layout.Pits) != 1 {
		t.Fatalf("unexpected header: %+v", header)
	}
	if len(records) != result.Turns {
		t.Fatalf("expected %d records, got %d", result.Turns, len(records))
	}
	if !records[0].Percepts.Scream || records[0].ScoreDelta != -11 {
		t.Fatalf("first record should be the killing shot: %+v", records[0])
	}
	last := records[len(records)-1]
	if last.Outcome != engine.ExitedSafely || last.Score != result.Score {
		t.Fatalf("unexpected last record: %+v", last)
	}

	replayed, err := Replay(header, records)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if replayed.Result != result {
		t.Fatalf("replay result %+v differs from %+v", replayed.Result, result)
	}
	if !strings.Contains(replayed.Board, "@") {
		t.Fatalf("expected the agent on the final board:\n%s", replayed.Board)
	}
}

func TestReplayDetectsDivergence(t *testing.T) {
	path, _ := recordRun(t, t.TempDir(), engine.Forward, engine.TurnLeft, engine.Climb, engine.TurnLeft, engine.Forward, engine.Climb)
	header, records, err := ReadTurnLog(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	tampered := append([]engine.TurnRecord(nil), records...)
	tampered[1].Score += 5
	if _, err := Replay(header, tampered); !errors.Is(err, ErrDivergence) {
		t.Fatalf("expected divergence, got %v", err)
	}

	moved := append([]engine.TurnRecord(nil), records...)
	moved[0].Position = world.Position{X: 0, Y: 1}
	if _, err := Replay(header, moved); !errors.Is(err, ErrDivergence) {
		t.Fatalf("expected divergence on position, got %v", err)
	}

	header.Layout.Pits = append(header.Layout.Pits, world.Position{X: 1, Y: 0})
	if _, err := Replay(header, records); !errors.Is(err, ErrDivergence) {
		t.Fatalf("expected divergence on a different world, got %v", err)
	}
}

func TestReadTurnLogErrors(t *testing.T) {
	if _, _, err := ReadTurnLog(filepath.Join(t.TempDir(), "missing.jsonl.zst")); err == nil {
		t.Fatal("expected error for missing log")
	}
	if _, err := Create(t.TempDir(), Header{}); err == nil {
		t.Fatal("expected error for missing run id")
	}

	log, err := Create(t.TempDir(), Header{RunID: "closed", Layout: goldLayout()})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := log.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := log.Write(engine.TurnRecord{Turn: 1}); err == nil {
		t.Fatal("expected error writing to closed log")
	}
	header, records, err := ReadTurnLog(log.Path())
	if err != nil || header.RunID != "closed" || len(records) != 0 {
		t.Fatalf("header-only log: %+v %v %v", header, records, err)
	}
}
