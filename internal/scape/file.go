package scape

import (
	"context"

	"wumpus/internal/engine"
	"wumpus/internal/scapeid"
	"wumpus/internal/world"
	"wumpus/internal/worldfile"
)

// FileScape plays on the world described by a world file.
type FileScape struct {
	Path     string
	MaxTurns int
}

func (FileScape) Name() string {
	return scapeid.WorldFile
}

func (s FileScape) Layout() (world.Layout, error) {
	return worldfile.ReadFile(s.Path)
}

func (s FileScape) TurnCap() int {
	return turnCap(s.MaxTurns)
}

func (s FileScape) Evaluate(ctx context.Context, agent engine.Agent) (Fitness, Trace, error) {
	return s.EvaluateWithObserver(ctx, agent, nil)
}

func (s FileScape) EvaluateWithObserver(ctx context.Context, agent engine.Agent, observer Observer) (Fitness, Trace, error) {
	layout, err := s.Layout()
	if err != nil {
		return 0, nil, err
	}
	return play(ctx, layout, s.Path, s.MaxTurns, agent, observer)
}
