package world

import (
	"fmt"
	"math/rand"
)

const (
	DefaultWidth  = 4
	DefaultHeight = 4

	// pitOdds is the 2-in-10 chance of a pit on each non-origin cell.
	pitOdds  = 2
	pitTrial = 10
)

// Layout is the declarative feature list a grid is built from. A feature at
// the origin means "not placed".
type Layout struct {
	Width  int        `json:"width"`
	Height int        `json:"height"`
	Wumpus Position   `json:"wumpus"`
	Gold   Position   `json:"gold"`
	Pits   []Position `json:"pits"`
}

// FromLayout builds a grid and propagates stench and breeze.
//
// Placement is best effort: features outside the board, or on the origin, are
// skipped rather than rejected. Only unusable dimensions are an error.
func FromLayout(layout Layout) (*Grid, error) {
	g, err := newGrid(layout.Width, layout.Height)
	if err != nil {
		return nil, err
	}
	if layout.Wumpus != Origin {
		g.addWumpus(layout.Wumpus)
	}
	if layout.Gold != Origin {
		g.addGold(layout.Gold)
	}
	for _, pit := range layout.Pits {
		if pit == Origin {
			continue
		}
		g.addPit(pit)
	}
	return g, nil
}

// RandomLayout draws a layout from rng: each non-origin cell gets a pit with
// probability 0.2 (row by row, bottom row first), then the wumpus and the gold
// are drawn independently and uniformly among non-origin cells. A 1x1 board has
// no room for either and gets neither.
func RandomLayout(width, height int, rng *rand.Rand) (Layout, error) {
	if width < 1 || height < 1 {
		return Layout{}, fmt.Errorf("%w: dimensions must be >= 1, got %dx%d", ErrMalformedLayout, width, height)
	}
	if rng == nil {
		return Layout{}, fmt.Errorf("random source is required")
	}

	layout := Layout{Width: width, Height: height}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if x == 0 && y == 0 {
				continue
			}
			if rng.Intn(pitTrial) < pitOdds {
				layout.Pits = append(layout.Pits, Position{X: x, Y: y})
			}
		}
	}
	if width*height > 1 {
		layout.Wumpus = randomNonOrigin(width, height, rng)
		layout.Gold = randomNonOrigin(width, height, rng)
	}
	return layout, nil
}

// Random builds a grid from RandomLayout.
func Random(width, height int, rng *rand.Rand) (*Grid, error) {
	layout, err := RandomLayout(width, height, rng)
	if err != nil {
		return nil, err
	}
	return FromLayout(layout)
}

func randomNonOrigin(width, height int, rng *rand.Rand) Position {
	for {
		p := Position{X: rng.Intn(width), Y: rng.Intn(height)}
		if p != Origin {
			return p
		}
	}
}
