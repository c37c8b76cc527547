package world

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMalformedLayout reports a world description that cannot be turned into a grid.
	ErrMalformedLayout = errors.New("malformed world layout")
	// ErrOutOfRange reports grid access outside the board. Engine code checks
	// bounds before touching tiles, so seeing it means a caller bug.
	ErrOutOfRange = errors.New("coordinates out of range")
)

// Origin is the entry cell; the agent starts and climbs out here.
var Origin = Position{}

type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (p Position) Shift(dx, dy int) Position {
	return Position{X: p.X + dx, Y: p.Y + dy}
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

type Tile struct {
	Pit    bool `json:"pit"`
	Wumpus bool `json:"wumpus"`
	Gold   bool `json:"gold"`
	Stench bool `json:"stench"`
	Breeze bool `json:"breeze"`
}

// Grid owns the board. Tiles live in one row-major slice indexed y*width+x.
type Grid struct {
	width  int
	height int
	tiles  []Tile

	wumpus    Position
	hasWumpus bool
	gold      Position
	hasGold   bool
}

func newGrid(width, height int) (*Grid, error) {
	if width < 1 || height < 1 {
		return nil, fmt.Errorf("%w: dimensions must be >= 1, got %dx%d", ErrMalformedLayout, width, height)
	}
	return &Grid{
		width:  width,
		height: height,
		tiles:  make([]Tile, width*height),
	}, nil
}

func (g *Grid) Width() int  { return g.width }
func (g *Grid) Height() int { return g.height }

func (g *Grid) InBounds(x, y int) bool {
	return x >= 0 && x < g.width && y >= 0 && y < g.height
}

func (g *Grid) TileAt(x, y int) (Tile, error) {
	if !g.InBounds(x, y) {
		return Tile{}, fmt.Errorf("%w: (%d,%d) on %dx%d grid", ErrOutOfRange, x, y, g.width, g.height)
	}
	return g.tiles[g.index(x, y)], nil
}

// WumpusAt reports the live wumpus cell, if any.
func (g *Grid) WumpusAt() (Position, bool) {
	return g.wumpus, g.hasWumpus
}

// GoldAt reports the cell still holding gold, if any.
func (g *Grid) GoldAt() (Position, bool) {
	return g.gold, g.hasGold
}

// KillWumpus removes a live wumpus at p and marks the carcass cell with a
// stench. Stench already propagated to neighbours is left as is.
func (g *Grid) KillWumpus(p Position) bool {
	if !g.hasWumpus || g.wumpus != p {
		return false
	}
	tile := g.tile(p.X, p.Y)
	tile.Wumpus = false
	tile.Stench = true
	g.hasWumpus = false
	return true
}

// TakeGold clears the gold at p. It succeeds at most once per grid.
func (g *Grid) TakeGold(p Position) bool {
	if !g.hasGold || g.gold != p {
		return false
	}
	g.tile(p.X, p.Y).Gold = false
	g.hasGold = false
	return true
}

// Layout reports the features currently on the board. Pits are listed row by
// row, bottom row first.
func (g *Grid) Layout() Layout {
	layout := Layout{Width: g.width, Height: g.height}
	if g.hasWumpus {
		layout.Wumpus = g.wumpus
	}
	if g.hasGold {
		layout.Gold = g.gold
	}
	for y := 0; y < g.height; y++ {
		for x := 0; x < g.width; x++ {
			if g.tiles[g.index(x, y)].Pit {
				layout.Pits = append(layout.Pits, Position{X: x, Y: y})
			}
		}
	}
	return layout
}

func (g *Grid) String() string {
	return g.render(nil)
}

// Render draws the board with the agent marked, top row first.
func (g *Grid) Render(agent Position) string {
	return g.render(&agent)
}

func (g *Grid) render(agent *Position) string {
	var b strings.Builder
	for y := g.height - 1; y >= 0; y-- {
		for x := 0; x < g.width; x++ {
			tile := g.tiles[g.index(x, y)]
			var cell strings.Builder
			if tile.Pit {
				cell.WriteByte('P')
			}
			if tile.Wumpus {
				cell.WriteByte('W')
			}
			if tile.Gold {
				cell.WriteByte('G')
			}
			if tile.Breeze {
				cell.WriteByte('B')
			}
			if tile.Stench {
				cell.WriteByte('S')
			}
			if agent != nil && agent.X == x && agent.Y == y {
				cell.WriteByte('@')
			}
			cell.WriteByte('.')
			fmt.Fprintf(&b, "%8s", cell.String())
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func (g *Grid) index(x, y int) int {
	return y*g.width + x
}

func (g *Grid) tile(x, y int) *Tile {
	return &g.tiles[g.index(x, y)]
}
