package scape

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"wumpus/internal/engine"
	"wumpus/internal/world"
	"wumpus/internal/worldfile"
	"wumpus/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.Silence()
	os.Exit(m.Run())
}

func script(actions ...engine.Action) engine.Agent {
	return engine.AgentFunc(func(context.Context, world.Percepts) (engine.Action, error) {
		if len(actions) == 0 {
			return 0, errors.New("out of actions")
		}
		a := actions[0]
		actions = actions[1:]
		return a, nil
	})
}

func TestFileScapeEvaluate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "world_0.txt")
	err := worldfile.WriteFile(path, world.Layout{
		Width:  4,
		Height: 4,
		Wumpus: world.Position{X: 3, Y: 3},
		Gold:   world.Position{X: 1, Y: 0},
	})
	if err != nil {
		t.Fatalf("write world: %v", err)
	}

	s := FileScape{Path: path}
	if s.Name() != "world-file" {
		t.Fatalf("unexpected name %s", s.Name())
	}
	var turns int
	fitness, trace, err := s.EvaluateWithObserver(context.Background(),
		script(engine.Forward, engine.Grab, engine.TurnLeft, engine.TurnLeft, engine.Forward, engine.Climb),
		func(engine.TurnRecord) { turns++ },
	)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if fitness != 994 {
		t.Fatalf("expected fitness 994, got %v", fitness)
	}
	if trace["outcome"] != "EXITED_SAFELY" || trace["turns"] != 6 || trace["holds_gold"] != true || trace["world"] != path {
		t.Fatalf("unexpected trace: %+v", trace)
	}
	if turns != 6 {
		t.Fatalf("observer saw %d turns", turns)
	}
}

func TestFileScapeMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.txt")
	if err := os.WriteFile(path, []byte("4 4 x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, _, err := FileScape{Path: path}.Evaluate(context.Background(), script(engine.Climb))
	if !errors.Is(err, world.ErrMalformedLayout) {
		t.Fatalf("expected ErrMalformedLayout, got %v", err)
	}
}

func TestWumpusScapeIsSeeded(t *testing.T) {
	a, err := WumpusScape{Seed: 17}.Layout()
	if err != nil {
		t.Fatalf("layout: %v", err)
	}
	b, err := WumpusScape{Seed: 17}.Layout()
	if err != nil {
		t.Fatalf("layout: %v", err)
	}
	if a.Width != world.DefaultWidth || a.Height != world.DefaultHeight {
		t.Fatalf("expected default size, got %dx%d", a.Width, a.Height)
	}
	if a.Wumpus != b.Wumpus || a.Gold != b.Gold || len(a.Pits) != len(b.Pits) {
		t.Fatalf("same seed produced different worlds: %+v vs %+v", a, b)
	}
}

func TestWumpusScapeEvaluate(t *testing.T) {
	s := WumpusScape{Width: 5, Height: 3, Seed: 4, MaxTurns: 7}
	spin := engine.AgentFunc(func(context.Context, world.Percepts) (engine.Action, error) {
		return engine.TurnLeft, nil
	})
	fitness, trace, err := s.Evaluate(context.Background(), spin)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if fitness != -7 || trace["outcome"] != "TURN_LIMIT" || trace["world"] != "random:4" {
		t.Fatalf("unexpected result %v %+v", fitness, trace)
	}
}

func TestEvaluateSurfacesAgentError(t *testing.T) {
	fitness, trace, err := WumpusScape{Seed: 1}.Evaluate(context.Background(), script(engine.TurnLeft))
	if err == nil {
		t.Fatal("expected agent error")
	}
	if fitness != -1 || trace["turns"] != 1 {
		t.Fatalf("expected partial result, got %v %+v", fitness, trace)
	}
	if _, _, err := (WumpusScape{}).Evaluate(context.Background(), nil); err == nil {
		t.Fatal("expected error for nil agent")
	}
}

func TestTurnCapDefaults(t *testing.T) {
	if got := (WumpusScape{}).TurnCap(); got != engine.MaxTurns {
		t.Fatalf("expected default cap %d, got %d", engine.MaxTurns, got)
	}
	if got := (FileScape{MaxTurns: 12}).TurnCap(); got != 12 {
		t.Fatalf("expected cap 12, got %d", got)
	}
}
