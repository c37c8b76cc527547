package agent

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"wumpus/internal/engine"
	"wumpus/internal/world"
)

// ManualAgent prompts on Out and reads one command line per turn from In.
type ManualAgent struct {
	in  *bufio.Reader
	out io.Writer
}

// NewManual reads commands from in. Agents that take turns on one input, such
// as the worlds of a batch, must share a single *bufio.Reader so that read-ahead
// buffered by one agent is not lost to the next.
func NewManual(in io.Reader, out io.Writer) *ManualAgent {
	r, ok := in.(*bufio.Reader)
	if !ok {
		r = bufio.NewReader(in)
	}
	return &ManualAgent{in: r, out: out}
}

func (a *ManualAgent) Decide(_ context.Context, percepts world.Percepts) (engine.Action, error) {
	fmt.Fprintf(a.out, "percepts: %s\n%s\n> ", percepts, keyMenu)

	line, err := a.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return 0, fmt.Errorf("read command: %w", err)
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return engine.Climb, nil
	}
	return ActionForKey(rune(line[0])), nil
}
