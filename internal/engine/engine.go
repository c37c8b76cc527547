package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"wumpus/internal/world"
	"wumpus/pkg/logger"
)

const (
	ActionCost    = 1
	ArrowCost     = 10
	HazardPenalty = 1000
	GoldReward    = 1000

	// ScoreFloor bounds runaway runs. Base costs alone reach it after MaxTurns
	// turns, so the guard is a turn cap rather than a score test.
	ScoreFloor = -1000
	MaxTurns   = -ScoreFloor / ActionCost
)

var (
	ErrTerminated    = errors.New("run already terminated")
	ErrUnknownAction = errors.New("unknown action")
)

// Agent picks the next action from the current percepts. It never sees the grid.
type Agent interface {
	Decide(ctx context.Context, percepts world.Percepts) (Action, error)
}

// AgentFunc adapts a plain function to Agent.
type AgentFunc func(ctx context.Context, percepts world.Percepts) (Action, error)

func (f AgentFunc) Decide(ctx context.Context, percepts world.Percepts) (Action, error) {
	return f(ctx, percepts)
}

type StepResult struct {
	Action     Action
	ScoreDelta int
	Score      int
	Outcome    Outcome
	Hazard     Hazard
	// Percepts is zero once the run has terminated.
	Percepts world.Percepts
}

// TurnRecord is what observers see after every resolved turn.
type TurnRecord struct {
	Turn        int            `json:"turn"`
	Action      Action         `json:"action"`
	Position    world.Position `json:"position"`
	Orientation Orientation    `json:"orientation"`
	Score       int            `json:"score"`
	ScoreDelta  int            `json:"score_delta"`
	Percepts    world.Percepts `json:"percepts"`
	Outcome     Outcome        `json:"outcome"`
	Hazard      Hazard         `json:"hazard,omitempty"`
}

type Result struct {
	Score        int            `json:"score"`
	Turns        int            `json:"turns"`
	Outcome      Outcome        `json:"outcome"`
	Hazard       Hazard         `json:"hazard,omitempty"`
	Position     world.Position `json:"position"`
	HoldsGold    bool           `json:"holds_gold"`
	HasArrow     bool           `json:"has_arrow"`
	WumpusKilled bool           `json:"wumpus_killed"`
}

type Option func(*Engine)

// WithMaxTurns overrides the runaway turn cap. Values <= 0 keep MaxTurns.
func WithMaxTurns(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxTurns = n
		}
	}
}

func WithObserver(fn func(TurnRecord)) Option {
	return func(e *Engine) {
		if fn != nil {
			e.observers = append(e.observers, fn)
		}
	}
}

func WithLogger(entry *logrus.Entry) Option {
	return func(e *Engine) {
		if entry != nil {
			e.log = entry
		}
	}
}

// Engine owns the agent and run state for one episode on one grid.
type Engine struct {
	grid *world.Grid

	pos          world.Position
	facing       Orientation
	hasArrow     bool
	holdsGold    bool
	wumpusKilled bool
	bump         bool
	scream       bool

	score   int
	turns   int
	outcome Outcome
	hazard  Hazard

	maxTurns  int
	observers []func(TurnRecord)
	log       *logrus.Entry
}

// New starts a run at the origin facing East with the arrow in hand.
func New(grid *world.Grid, opts ...Option) (*Engine, error) {
	if grid == nil {
		return nil, errors.New("grid is required")
	}
	e := &Engine{
		grid:     grid,
		pos:      world.Origin,
		facing:   East,
		hasArrow: true,
		outcome:  Running,
		maxTurns: MaxTurns,
		log:      logger.Log.WithField("component", "engine"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

func (e *Engine) Position() world.Position { return e.pos }
func (e *Engine) Orientation() Orientation { return e.facing }
func (e *Engine) Score() int               { return e.score }
func (e *Engine) Turns() int               { return e.turns }
func (e *Engine) HasArrow() bool           { return e.hasArrow }
func (e *Engine) HoldsGold() bool          { return e.holdsGold }
func (e *Engine) Outcome() Outcome         { return e.outcome }
func (e *Engine) Hazard() Hazard           { return e.hazard }
func (e *Engine) Terminated() bool         { return e.outcome != Running }
func (e *Engine) MaxTurns() int            { return e.maxTurns }
func (e *Engine) Board() string            { return e.grid.Render(e.pos) }
func (e *Engine) WumpusKilled() bool       { return e.wumpusKilled }
func (e *Engine) Grid() *world.Grid        { return e.grid }

// Percepts is the bundle for the agent's current cell plus the one-shot
// flags left by the last action.
func (e *Engine) Percepts() world.Percepts {
	p, err := e.grid.Sense(e.pos)
	if err != nil {
		// The engine never moves the agent off the board.
		panic(err)
	}
	p.Bump = e.bump
	p.Scream = e.scream
	return p
}

// Step resolves one action. Invalid actions are rejected without consuming a
// turn; any action after termination returns ErrTerminated.
func (e *Engine) Step(a Action) (StepResult, error) {
	if e.Terminated() {
		return StepResult{}, ErrTerminated
	}
	if !a.Valid() {
		return StepResult{}, fmt.Errorf("%w: %d", ErrUnknownAction, uint8(a))
	}

	before := e.score
	e.turns++
	e.score -= ActionCost
	e.bump = false
	e.scream = false

	switch a {
	case TurnLeft:
		e.facing = e.facing.Left()
	case TurnRight:
		e.facing = e.facing.Right()
	case Forward:
		e.forward()
	case Shoot:
		e.shoot()
	case Grab:
		if e.grid.TakeGold(e.pos) {
			e.holdsGold = true
		}
	case Climb:
		if e.pos == world.Origin {
			if e.holdsGold {
				e.score += GoldReward
			}
			e.outcome = ExitedSafely
		}
	}

	if e.outcome == Running && e.turns >= e.maxTurns {
		e.outcome = TurnLimit
	}

	res := StepResult{
		Action:     a,
		ScoreDelta: e.score - before,
		Score:      e.score,
		Outcome:    e.outcome,
		Hazard:     e.hazard,
	}
	if !e.Terminated() {
		res.Percepts = e.Percepts()
	}
	e.emit(res)
	return res, nil
}

// Run drives the agent until the run terminates. The engine imposes no
// deadline of its own; ctx is handed to the agent untouched.
func (e *Engine) Run(ctx context.Context, agent Agent) (Result, error) {
	if agent == nil {
		return e.Result(), errors.New("agent is required")
	}
	for !e.Terminated() {
		action, err := agent.Decide(ctx, e.Percepts())
		if err != nil {
			return e.Result(), fmt.Errorf("agent decision on turn %d: %w", e.turns+1, err)
		}
		if _, err := e.Step(action); err != nil {
			return e.Result(), fmt.Errorf("turn %d: %w", e.turns+1, err)
		}
	}
	return e.Result(), nil
}

func (e *Engine) Result() Result {
	return Result{
		Score:        e.score,
		Turns:        e.turns,
		Outcome:      e.outcome,
		Hazard:       e.hazard,
		Position:     e.pos,
		HoldsGold:    e.holdsGold,
		HasArrow:     e.hasArrow,
		WumpusKilled: e.wumpusKilled,
	}
}

func (e *Engine) forward() {
	dx, dy := e.facing.Delta()
	target := e.pos.Shift(dx, dy)
	if !e.grid.InBounds(target.X, target.Y) {
		e.bump = true
		return
	}
	e.pos = target

	tile, err := e.grid.TileAt(target.X, target.Y)
	if err != nil {
		panic(err)
	}
	switch {
	case tile.Pit:
		e.hazard = HazardPit
	case tile.Wumpus:
		e.hazard = HazardWumpus
	default:
		return
	}
	e.score -= HazardPenalty
	e.outcome = DeadByHazard
}

func (e *Engine) shoot() {
	if !e.hasArrow {
		return
	}
	e.hasArrow = false
	e.score -= ArrowCost

	target, ok := e.grid.WumpusAt()
	if !ok || !onRay(e.pos, e.facing, target) {
		return
	}
	if e.grid.KillWumpus(target) {
		e.scream = true
		e.wumpusKilled = true
	}
}

// onRay reports whether target lies on the line from origin (inclusive) to the
// board edge in the facing direction. Callers only pass in-bounds targets.
func onRay(origin world.Position, facing Orientation, target world.Position) bool {
	dx, dy := facing.Delta()
	if dx != 0 {
		return target.Y == origin.Y && (target.X-origin.X)*dx >= 0
	}
	return target.X == origin.X && (target.Y-origin.Y)*dy >= 0
}

func (e *Engine) emit(res StepResult) {
	record := TurnRecord{
		Turn:        e.turns,
		Action:      res.Action,
		Position:    e.pos,
		Orientation: e.facing,
		Score:       e.score,
		ScoreDelta:  res.ScoreDelta,
		Percepts:    res.Percepts,
		Outcome:     e.outcome,
		Hazard:      e.hazard,
	}

	if e.log.Logger.IsLevelEnabled(logrus.DebugLevel) {
		fields := logrus.Fields{
			"turn":        record.Turn,
			"action":      record.Action.String(),
			"x":           record.Position.X,
			"y":           record.Position.Y,
			"orientation": record.Orientation.String(),
			"score":       record.Score,
			"percepts":    record.Percepts.String(),
		}
		if e.Terminated() {
			fields["outcome"] = e.outcome.String()
			if e.hazard != HazardNone {
				fields["hazard"] = e.hazard.String()
			}
		}
		e.log.WithFields(fields).Debug("turn resolved\n" + e.Board())
	}

	for _, fn := range e.observers {
		fn(record)
	}
}
