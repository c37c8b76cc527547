package scape

import (
	"context"
	"fmt"
	"math/rand"

	"wumpus/internal/engine"
	"wumpus/internal/scapeid"
	"wumpus/internal/world"
)

// WumpusScape plays on a random world drawn from Seed. Zero dimensions fall
// back to the default 4x4 board.
type WumpusScape struct {
	Width    int
	Height   int
	Seed     int64
	MaxTurns int
}

func (WumpusScape) Name() string {
	return scapeid.Wumpus
}

func (s WumpusScape) Layout() (world.Layout, error) {
	width, height := s.Width, s.Height
	if width == 0 {
		width = world.DefaultWidth
	}
	if height == 0 {
		height = world.DefaultHeight
	}
	return world.RandomLayout(width, height, rand.New(rand.NewSource(s.Seed)))
}

func (s WumpusScape) TurnCap() int {
	return turnCap(s.MaxTurns)
}

func (s WumpusScape) Evaluate(ctx context.Context, agent engine.Agent) (Fitness, Trace, error) {
	return s.EvaluateWithObserver(ctx, agent, nil)
}

func (s WumpusScape) EvaluateWithObserver(ctx context.Context, agent engine.Agent, observer Observer) (Fitness, Trace, error) {
	layout, err := s.Layout()
	if err != nil {
		return 0, nil, err
	}
	return play(ctx, layout, fmt.Sprintf("random:%d", s.Seed), s.MaxTurns, agent, observer)
}
