package agent

import (
	"context"
	"fmt"

	"wumpus/internal/engine"
	"wumpus/internal/world"
)

// ScriptedAgent replays a fixed action list and fails once it runs out.
type ScriptedAgent struct {
	script []engine.Action
	next   int
}

func NewScripted(actions ...engine.Action) *ScriptedAgent {
	return &ScriptedAgent{script: append([]engine.Action(nil), actions...)}
}

// ParseScript reads action names such as "forward,turn_left,grab".
func ParseScript(names []string) ([]engine.Action, error) {
	out := make([]engine.Action, 0, len(names))
	for _, name := range names {
		a, err := engine.ParseAction(name)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

func (a *ScriptedAgent) Decide(context.Context, world.Percepts) (engine.Action, error) {
	if a.next >= len(a.script) {
		return 0, fmt.Errorf("%w after %d actions", ErrScriptExhausted, len(a.script))
	}
	action := a.script[a.next]
	a.next++
	return action, nil
}

func (a *ScriptedAgent) Remaining() int {
	return len(a.script) - a.next
}
