package eventlog

import (
	"errors"
	"fmt"

	"wumpus/internal/engine"
	"wumpus/internal/world"
)

var ErrDivergence = errors.New("replay diverged from log")

// Replayed is the end state of a replay. Board is the final board with the
// agent marked.
type Replayed struct {
	engine.Result
	Board string
}

// Replay drives a fresh engine on the logged layout with the logged actions
// and checks every resolved turn against its record.
func Replay(header Header, records []engine.TurnRecord) (Replayed, error) {
	grid, err := world.FromLayout(header.Layout)
	if err != nil {
		return Replayed{}, err
	}
	var got engine.TurnRecord
	capture := func(rec engine.TurnRecord) { got = rec }
	e, err := engine.New(grid, engine.WithMaxTurns(header.MaxTurns), engine.WithObserver(capture))
	if err != nil {
		return Replayed{}, err
	}
	done := func() Replayed {
		return Replayed{Result: e.Result(), Board: e.Board()}
	}

	for i, want := range records {
		if _, err := e.Step(want.Action); err != nil {
			return done(), fmt.Errorf("turn %d: %w", i+1, err)
		}
		if diff := compare(got, want); diff != "" {
			return done(), fmt.Errorf("%w at turn %d: %s", ErrDivergence, want.Turn, diff)
		}
	}
	return done(), nil
}

func compare(got, want engine.TurnRecord) string {
	switch {
	case got.Turn != want.Turn:
		return fmt.Sprintf("turn %d, logged %d", got.Turn, want.Turn)
	case got.Position != want.Position:
		return fmt.Sprintf("position %s, logged %s", got.Position, want.Position)
	case got.Orientation != want.Orientation:
		return fmt.Sprintf("orientation %s, logged %s", got.Orientation, want.Orientation)
	case got.Score != want.Score:
		return fmt.Sprintf("score %d, logged %d", got.Score, want.Score)
	case got.Percepts != want.Percepts:
		return fmt.Sprintf("percepts %s, logged %s", got.Percepts, want.Percepts)
	case got.Outcome != want.Outcome:
		return fmt.Sprintf("outcome %s, logged %s", got.Outcome, want.Outcome)
	case got.Hazard != want.Hazard:
		return fmt.Sprintf("hazard %s, logged %s", got.Hazard, want.Hazard)
	}
	return ""
}
