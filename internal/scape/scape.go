package scape

import (
	"context"
	"errors"

	"wumpus/internal/engine"
	"wumpus/internal/world"
)

// Fitness is the final score of an episode.
type Fitness float64

type Trace map[string]any

// Observer receives every resolved turn of an episode.
type Observer func(engine.TurnRecord)

type Scape interface {
	Name() string
	Evaluate(ctx context.Context, agent engine.Agent) (Fitness, Trace, error)
}

// ObservableScape lets callers watch an episode turn by turn.
type ObservableScape interface {
	Scape
	EvaluateWithObserver(ctx context.Context, agent engine.Agent, observer Observer) (Fitness, Trace, error)
}

// LayoutScape exposes the world an episode will be played on and the turn cap
// it is played under.
type LayoutScape interface {
	Scape
	Layout() (world.Layout, error)
	TurnCap() int
}

func turnCap(maxTurns int) int {
	if maxTurns > 0 {
		return maxTurns
	}
	return engine.MaxTurns
}

// play runs one episode on layout and folds the result into a trace.
func play(ctx context.Context, layout world.Layout, source string, maxTurns int, agent engine.Agent, observer Observer) (Fitness, Trace, error) {
	if agent == nil {
		return 0, nil, errors.New("agent is required")
	}
	grid, err := world.FromLayout(layout)
	if err != nil {
		return 0, nil, err
	}
	opts := []engine.Option{engine.WithMaxTurns(maxTurns)}
	if observer != nil {
		opts = append(opts, engine.WithObserver(observer))
	}
	e, err := engine.New(grid, opts...)
	if err != nil {
		return 0, nil, err
	}

	result, err := e.Run(ctx, agent)
	trace := Trace{
		"score":         result.Score,
		"outcome":       result.Outcome.String(),
		"turns":         result.Turns,
		"holds_gold":    result.HoldsGold,
		"has_arrow":     result.HasArrow,
		"wumpus_killed": result.WumpusKilled,
		"hazard":        result.Hazard.String(),
		"world":         source,
	}
	return Fitness(result.Score), trace, err
}
