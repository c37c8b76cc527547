package world

import "strings"

// Percepts is everything the agent is told about the world on one turn.
type Percepts struct {
	Stench  bool `json:"stench"`
	Breeze  bool `json:"breeze"`
	Glitter bool `json:"glitter"`
	Bump    bool `json:"bump"`
	Scream  bool `json:"scream"`
}

func (p Percepts) String() string {
	names := make([]string, 0, 5)
	if p.Stench {
		names = append(names, "Stench")
	}
	if p.Breeze {
		names = append(names, "Breeze")
	}
	if p.Glitter {
		names = append(names, "Glitter")
	}
	if p.Bump {
		names = append(names, "Bump")
	}
	if p.Scream {
		names = append(names, "Scream")
	}
	if len(names) == 0 {
		return "None"
	}
	return strings.Join(names, ", ")
}

// Sense returns the cell-bound percepts at p. Bump and scream come from the
// previous action and are filled in by the engine.
func (g *Grid) Sense(p Position) (Percepts, error) {
	tile, err := g.TileAt(p.X, p.Y)
	if err != nil {
		return Percepts{}, err
	}
	return Percepts{
		Stench:  tile.Stench,
		Breeze:  tile.Breeze,
		Glitter: tile.Gold,
	}, nil
}

var orthogonal = [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}

func (g *Grid) addPit(p Position) {
	if !g.InBounds(p.X, p.Y) {
		return
	}
	g.tile(p.X, p.Y).Pit = true
	for _, d := range orthogonal {
		g.addBreeze(p.Shift(d[0], d[1]))
	}
}

func (g *Grid) addWumpus(p Position) {
	if !g.InBounds(p.X, p.Y) {
		return
	}
	if g.hasWumpus {
		g.tile(g.wumpus.X, g.wumpus.Y).Wumpus = false
	}
	g.tile(p.X, p.Y).Wumpus = true
	g.wumpus = p
	g.hasWumpus = true
	for _, d := range orthogonal {
		g.addStench(p.Shift(d[0], d[1]))
	}
}

func (g *Grid) addGold(p Position) {
	if !g.InBounds(p.X, p.Y) {
		return
	}
	if g.hasGold {
		g.tile(g.gold.X, g.gold.Y).Gold = false
	}
	g.tile(p.X, p.Y).Gold = true
	g.gold = p
	g.hasGold = true
}

func (g *Grid) addStench(p Position) {
	if g.InBounds(p.X, p.Y) {
		g.tile(p.X, p.Y).Stench = true
	}
}

func (g *Grid) addBreeze(p Position) {
	if g.InBounds(p.X, p.Y) {
		g.tile(p.X, p.Y).Breeze = true
	}
}
