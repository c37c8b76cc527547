package agent

import (
	"context"
	"math/rand"
	"sync"

	"wumpus/internal/engine"
	"wumpus/internal/world"
)

// RandomAgent grabs whenever it sees glitter and otherwise picks uniformly
// among the six actions.
type RandomAgent struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewRandom(rng *rand.Rand) *RandomAgent {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	return &RandomAgent{rng: rng}
}

func (a *RandomAgent) Decide(_ context.Context, percepts world.Percepts) (engine.Action, error) {
	if percepts.Glitter {
		return engine.Grab, nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return engine.Actions[a.rng.Intn(len(engine.Actions))], nil
}
