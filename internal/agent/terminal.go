package agent

import (
	"context"
	"fmt"

	"github.com/gdamore/tcell"

	"wumpus/internal/engine"
	"wumpus/internal/world"
)

// TerminalAgent reads single key presses from a tcell screen. Esc and Ctrl-C
// abort the run with ErrAborted.
type TerminalAgent struct {
	screen tcell.Screen
	turn   int
}

func NewTerminal(screen tcell.Screen) (*TerminalAgent, error) {
	if screen == nil {
		return nil, fmt.Errorf("screen is required")
	}
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("init screen: %w", err)
	}
	return &TerminalAgent{screen: screen}, nil
}

func (a *TerminalAgent) Decide(ctx context.Context, percepts world.Percepts) (engine.Action, error) {
	a.turn++
	a.draw(percepts)
	for {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		switch ev := a.screen.PollEvent().(type) {
		case nil:
			return 0, fmt.Errorf("%w: screen closed", ErrAborted)
		case *tcell.EventResize:
			a.screen.Sync()
			a.draw(percepts)
		case *tcell.EventKey:
			switch ev.Key() {
			case tcell.KeyEscape, tcell.KeyCtrlC:
				return 0, ErrAborted
			case tcell.KeyRune:
				return ActionForKey(ev.Rune()), nil
			case tcell.KeyEnter:
				return engine.Climb, nil
			}
		}
	}
}

// Close restores the terminal.
func (a *TerminalAgent) Close() {
	a.screen.Fini()
}

func (a *TerminalAgent) draw(percepts world.Percepts) {
	a.screen.Clear()
	style := tcell.StyleDefault
	lines := []string{
		fmt.Sprintf("Turn %d", a.turn),
		"Percepts: " + percepts.String(),
		"",
		keyMenu,
		"Esc) Quit",
	}
	for y, line := range lines {
		for x, r := range line {
			a.screen.SetContent(x, y, r, nil, style)
		}
	}
	a.screen.Show()
}
