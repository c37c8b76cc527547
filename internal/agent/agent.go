// Package agent holds the decision strategies the engine can drive. Each one
// sees only the percept bundle and returns an action.
package agent

import (
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"

	"github.com/gdamore/tcell"

	"wumpus/internal/engine"
	"wumpus/internal/scapeid"
)

var (
	ErrUnknownKind     = errors.New("unknown agent kind")
	ErrScriptExhausted = errors.New("script exhausted")
	ErrAborted         = errors.New("play aborted")
)

// Options carries what the different agent kinds need. Fields a kind does not
// use are ignored.
type Options struct {
	// Seed feeds the random agent when Rand is nil.
	Seed int64
	Rand *rand.Rand

	// In and Out default to stdin and stdout for the manual agent. A
	// *bufio.Reader given as In is used as is.
	In  io.Reader
	Out io.Writer

	Script []engine.Action

	// Screen is used by the terminal agent; a real terminal is opened when nil.
	Screen tcell.Screen
}

// Kinds lists the agent kinds New can build.
func Kinds() []string {
	return []string{scapeid.AgentRandom, scapeid.AgentManual, scapeid.AgentScripted, scapeid.AgentTerminal}
}

// New builds an agent by kind name. Aliases are accepted.
func New(kind string, opts Options) (engine.Agent, error) {
	switch scapeid.NormalizeAgent(kind) {
	case scapeid.AgentRandom:
		rng := opts.Rand
		if rng == nil {
			rng = rand.New(rand.NewSource(opts.Seed))
		}
		return NewRandom(rng), nil
	case scapeid.AgentManual:
		in, out := opts.In, opts.Out
		if in == nil {
			in = os.Stdin
		}
		if out == nil {
			out = os.Stdout
		}
		return NewManual(in, out), nil
	case scapeid.AgentScripted:
		return NewScripted(opts.Script...), nil
	case scapeid.AgentTerminal:
		screen := opts.Screen
		if screen == nil {
			var err error
			screen, err = tcell.NewScreen()
			if err != nil {
				return nil, fmt.Errorf("open terminal: %w", err)
			}
		}
		return NewTerminal(screen)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

// ActionForKey maps a manual-play key to an action: w forward, a left,
// d right, s shoot, g grab. Every other key climbs.
func ActionForKey(r rune) engine.Action {
	switch r {
	case 'w', 'W':
		return engine.Forward
	case 'a', 'A':
		return engine.TurnLeft
	case 'd', 'D':
		return engine.TurnRight
	case 's', 'S':
		return engine.Shoot
	case 'g', 'G':
		return engine.Grab
	default:
		return engine.Climb
	}
}

const keyMenu = "w) Forward  a) Turn left  d) Turn right  s) Shoot  g) Grab  other) Climb"
