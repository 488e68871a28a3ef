package world

import (
	"fmt"
	"math"
	"slices"

	"github.com/talgya/hexforge/internal/ruleset"
)

// Map holds the complete tile grid.
type Map struct {
	Params            Params             `json:"params"`
	Tiles             []*Tile            `json:"-"` // Ordered; iteration order is part of determinism
	ContinentSizes    map[int]int        `json:"continent_sizes"`
	StartingLocations []StartingLocation `json:"starting_locations"`

	radius, width, height int
	minCol                int
	index                 map[HexCoord]int
	translations          []HexCoord // wrap lattice vectors nearest the origin
	rules                 *ruleset.Ruleset
}

// New builds an empty map for params with every tile set to the base land
// terrain of rules.
func New(params Params, rules *ruleset.Ruleset) (*Map, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	m := newMap(params, rules)
	base, _ := rules.Terrain(ruleset.Grassland)

	switch params.Shape {
	case Hexagonal:
		// Cube coordinate constraint: max(|q|,|r|,|s|) <= radius
		for q := -m.radius; q <= m.radius; q++ {
			for r := -m.radius; r <= m.radius; r++ {
				c := HexCoord{Q: q, R: r}
				if c.Length() > m.radius {
					continue
				}
				m.add(c, base)
			}
		}
	case Rectangular:
		for row := -m.height / 2; row <= (m.height-1)/2; row++ {
			for col := m.minCol; col <= (m.width-1)/2; col++ {
				m.add(Offset{Col: col, Row: row}.ToAxial(), base)
			}
		}
	}
	return m, nil
}

// NewHexagonal builds a radial map of the given radius.
func NewHexagonal(radius int, wrap bool, rules *ruleset.Ruleset) (*Map, error) {
	return New(Params{Shape: Hexagonal, Radius: radius, Wrap: wrap}, rules)
}

// NewRectangular builds a width×height map. Wrapped maps need an even width.
func NewRectangular(width, height int, wrap bool, rules *ruleset.Ruleset) (*Map, error) {
	return New(Params{Shape: Rectangular, Width: width, Height: height, Wrap: wrap}, rules)
}

func newMap(params Params, rules *ruleset.Ruleset) *Map {
	radius, width, height := params.Dimensions()
	m := &Map{
		Params:         params,
		ContinentSizes: make(map[int]int),
		radius:         radius,
		width:          width,
		height:         height,
		minCol:         -width / 2,
		index:          make(map[HexCoord]int),
		rules:          rules,
	}
	if params.Wrap {
		m.translations = wrapTranslations(params.Shape, radius, width)
	}
	return m
}

func (m *Map) add(c HexCoord, base *ruleset.Terrain) *Tile {
	t := &Tile{Coord: c, ContinentID: NoContinent, idx: len(m.Tiles)}
	t.SetTerrain(base)
	m.index[c] = t.idx
	m.Tiles = append(m.Tiles, t)
	return t
}

// Rules returns the ruleset the map was built with.
func (m *Map) Rules() *ruleset.Ruleset { return m.rules }

// Radius, Width and Height return the resolved dimensions.
func (m *Map) Radius() int { return m.radius }
func (m *Map) Width() int  { return m.width }
func (m *Map) Height() int { return m.height }

// Len returns the number of tiles.
func (m *Map) Len() int { return len(m.Tiles) }

// Contains reports whether c is stored on the map without wrapping.
func (m *Map) Contains(c HexCoord) bool {
	_, ok := m.index[c]
	return ok
}

// Get returns the tile at c, following wrap when enabled. Positions that are
// neither stored nor reachable by wrap are absent.
func (m *Map) Get(c HexCoord) (*Tile, bool) {
	if i, ok := m.index[c]; ok {
		return m.Tiles[i], true
	}
	if !m.Params.Wrap {
		return nil, false
	}
	w, ok := m.wrap(c)
	if !ok {
		return nil, false
	}
	return m.Tiles[m.index[w]], true
}

// Neighbors returns the distinct adjacent tiles of c, never c itself.
func (m *Map) Neighbors(c HexCoord) []*Tile {
	self, _ := m.Get(c)
	out := make([]*Tile, 0, 6)
	for _, n := range c.Neighbors() {
		t, ok := m.Get(n)
		if !ok || t == self || slices.Contains(out, t) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// IsCoastal reports whether a land tile touches water.
func (m *Map) IsCoastal(t *Tile) bool {
	if t.IsWater() {
		return false
	}
	for _, n := range m.Neighbors(t.Coord) {
		if n.IsWater() {
			return true
		}
	}
	return false
}

// Latitude returns 0 on the equator row and 1 on the outermost row.
func (m *Map) Latitude(t *Tile) float64 {
	var half float64
	if m.Params.Shape == Rectangular {
		half = float64(m.height) / 2
	} else {
		half = float64(m.radius) + 0.5
	}
	if half <= 0 {
		return 0
	}
	return math.Min(1, math.Abs(float64(t.Coord.R))/half)
}

// TilesWhere returns tiles matching pred in map order.
func (m *Map) TilesWhere(pred func(*Tile) bool) []*Tile {
	var out []*Tile
	for _, t := range m.Tiles {
		if pred(t) {
			out = append(out, t)
		}
	}
	return out
}

// String returns a summary of the map.
func (m *Map) String() string {
	if m.Params.Shape == Rectangular {
		return fmt.Sprintf("Map(%dx%d, wrap=%v, tiles=%d)", m.width, m.height, m.Params.Wrap, m.Len())
	}
	return fmt.Sprintf("Map(radius=%d, wrap=%v, tiles=%d)", m.radius, m.Params.Wrap, m.Len())
}
