package engine

import (
	"fmt"
	"strings"
)

type Outcome uint8

const (
	Running Outcome = iota
	DeadByHazard
	ExitedSafely
	// TurnLimit ends a run that hit the runaway cap. No bonus or penalty applies.
	TurnLimit
)

var outcomeNames = [...]string{"RUNNING", "DEAD_BY_HAZARD", "EXITED_SAFELY", "TURN_LIMIT"}

func (o Outcome) String() string {
	if int(o) < len(outcomeNames) {
		return outcomeNames[o]
	}
	return "UNKNOWN"
}

func ParseOutcome(s string) (Outcome, error) {
	key := strings.ToUpper(strings.TrimSpace(s))
	for i, name := range outcomeNames {
		if name == key {
			return Outcome(i), nil
		}
	}
	return 0, fmt.Errorf("unknown outcome %q", s)
}

func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

func (o *Outcome) UnmarshalText(text []byte) error {
	parsed, err := ParseOutcome(string(text))
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}

// Hazard names what killed the agent.
type Hazard uint8

const (
	HazardNone Hazard = iota
	HazardPit
	HazardWumpus
)

var hazardNames = [...]string{"", "PIT", "WUMPUS"}

func (h Hazard) String() string {
	if int(h) < len(hazardNames) {
		return hazardNames[h]
	}
	return "UNKNOWN"
}

func (h Hazard) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

func (h *Hazard) UnmarshalText(text []byte) error {
	key := strings.ToUpper(strings.TrimSpace(string(text)))
	for i, name := range hazardNames {
		if name == key {
			*h = Hazard(i)
			return nil
		}
	}
	return fmt.Errorf("unknown hazard %q", string(text))
}
