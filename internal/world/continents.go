package world

import (
	"fmt"
	"slices"
)

// ContinentMode selects how AssignContinents treats existing labels.
type ContinentMode uint8

const (
	// Assign labels a grid that carries no labels yet.
	Assign ContinentMode = iota
	// Reassign clears all labels and assigns again.
	Reassign
	// Ensure keeps an existing summary, rebuilds it from tile labels, or
	// assigns when neither exists.
	Ensure
	// Clear removes every label and the summary.
	Clear
)

var continentModeNames = []string{"assign", "reassign", "ensure", "clear"}

func (c ContinentMode) String() string { return enumName(continentModeNames, c) }

// AssignContinents labels connected land according to mode. Calling Assign
// on a grid that already has labels is an invariant violation.
func (m *Map) AssignContinents(mode ContinentMode) error {
	switch mode {
	case Clear:
		m.clearContinents()
		return nil
	case Reassign:
		m.clearContinents()
	case Ensure:
		if len(m.ContinentSizes) > 0 {
			return nil
		}
		m.rebuildContinentSizes()
		if len(m.ContinentSizes) > 0 {
			return nil
		}
	case Assign:
	default:
		return fmt.Errorf("assign continents: unknown mode %d", mode)
	}

	for _, t := range m.Tiles {
		if t.ContinentID != NoContinent {
			return &InvariantError{
				Op:     "assign continents",
				Detail: fmt.Sprintf("tile %v already has continent %d", t.Coord, t.ContinentID),
			}
		}
	}
	m.labelContinents()
	return nil
}

func (m *Map) clearContinents() {
	for _, t := range m.Tiles {
		t.ContinentID = NoContinent
	}
	m.ContinentSizes = make(map[int]int)
}

func (m *Map) rebuildContinentSizes() {
	sizes := make(map[int]int)
	for _, t := range m.Tiles {
		if t.ContinentID != NoContinent {
			sizes[t.ContinentID]++
		}
	}
	m.ContinentSizes = sizes
}

// labelContinents floods each unlabeled land tile with a breadth-first
// search, so stack depth does not grow with continent size.
func (m *Map) labelContinents() {
	sizes := make(map[int]int)
	for i, component := range m.Components((*Tile).IsContinentLand) {
		for _, t := range component {
			t.ContinentID = i
		}
		sizes[i] = len(component)
	}
	m.ContinentSizes = sizes
}

// Components returns the connected groups of tiles matching pred, in map
// order of their first tile. Each group lists tiles in BFS order.
func (m *Map) Components(pred func(*Tile) bool) [][]*Tile {
	visited := make([]bool, len(m.Tiles))
	var groups [][]*Tile
	for _, start := range m.Tiles {
		if visited[start.idx] || !pred(start) {
			continue
		}
		visited[start.idx] = true
		group := []*Tile{start}
		for head := 0; head < len(group); head++ {
			for _, n := range m.Neighbors(group[head].Coord) {
				if visited[n.idx] || !pred(n) {
					continue
				}
				visited[n.idx] = true
				group = append(group, n)
			}
		}
		groups = append(groups, group)
	}
	return groups
}

// ContinentIDs returns the labeled continent ids in ascending order.
func (m *Map) ContinentIDs() []int {
	ids := make([]int, 0, len(m.ContinentSizes))
	for id := range m.ContinentSizes {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// ContinentTiles returns the tiles labeled id in map order.
func (m *Map) ContinentTiles(id int) []*Tile {
	return m.TilesWhere(func(t *Tile) bool { return t.ContinentID == id })
}

// LargestContinent returns the id of the biggest continent, lowest id on
// ties, or NoContinent for a grid without land.
func (m *Map) LargestContinent() int {
	best, bestSize := NoContinent, 0
	for _, id := range m.ContinentIDs() {
		if m.ContinentSizes[id] > bestSize {
			best, bestSize = id, m.ContinentSizes[id]
		}
	}
	return best
}
