package engine

import (
	"encoding/json"
	"fmt"
	"strings"
)

type Action uint8

const (
	TurnLeft Action = iota
	TurnRight
	Forward
	Shoot
	Grab
	Climb
)

// Actions lists every action in declaration order.
var Actions = [...]Action{TurnLeft, TurnRight, Forward, Shoot, Grab, Climb}

var actionNames = map[Action]string{
	TurnLeft:  "TURN_LEFT",
	TurnRight: "TURN_RIGHT",
	Forward:   "FORWARD",
	Shoot:     "SHOOT",
	Grab:      "GRAB",
	Climb:     "CLIMB",
}

var actionByName = map[string]Action{
	"TURN_LEFT":  TurnLeft,
	"TURNLEFT":   TurnLeft,
	"LEFT":       TurnLeft,
	"TURN_RIGHT": TurnRight,
	"TURNRIGHT":  TurnRight,
	"RIGHT":      TurnRight,
	"FORWARD":    Forward,
	"SHOOT":      Shoot,
	"GRAB":       Grab,
	"CLIMB":      Climb,
}

// ParseAction accepts action names in any case, with '-' or '_' separators.
func ParseAction(s string) (Action, error) {
	key := strings.ToUpper(strings.TrimSpace(s))
	key = strings.ReplaceAll(key, "-", "_")
	if a, ok := actionByName[key]; ok {
		return a, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownAction, s)
}

func (a Action) Valid() bool {
	_, ok := actionNames[a]
	return ok
}

func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return "UNKNOWN"
}

func (a Action) MarshalText() ([]byte, error) {
	if !a.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownAction, uint8(a))
	}
	return []byte(a.String()), nil
}

func (a *Action) UnmarshalText(text []byte) error {
	parsed, err := ParseAction(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Orientation is the facing direction, ordered clockwise from East.
type Orientation uint8

const (
	East Orientation = iota
	South
	West
	North
)

var orientationNames = [...]string{"EAST", "SOUTH", "WEST", "NORTH"}

// Left is a quarter turn counter-clockwise.
func (o Orientation) Left() Orientation {
	return (o + 3) % 4
}

// Right is a quarter turn clockwise.
func (o Orientation) Right() Orientation {
	return (o + 1) % 4
}

// Delta is the unit step for the facing direction. North is +y.
func (o Orientation) Delta() (dx, dy int) {
	switch o % 4 {
	case East:
		return 1, 0
	case South:
		return 0, -1
	case West:
		return -1, 0
	default:
		return 0, 1
	}
}

func (o Orientation) String() string {
	return orientationNames[o%4]
}

func (o Orientation) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.String())
}

func (o *Orientation) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	for i, candidate := range orientationNames {
		if strings.EqualFold(candidate, name) {
			*o = Orientation(i)
			return nil
		}
	}
	return fmt.Errorf("unknown orientation %q", name)
}
