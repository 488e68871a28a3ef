package world

import "fmt"

// FindPlacementNear searches rings of growing radius around origin, up to
// maxRadius, for the first tile accept takes. It never searches further.
func (m *Map) FindPlacementNear(origin HexCoord, maxRadius int, accept func(*Tile) bool) (*Tile, error) {
	for r := 0; r <= maxRadius; r++ {
		for _, t := range m.TilesAtDistance(origin, r) {
			if accept(t) {
				return t, nil
			}
		}
	}
	return nil, fmt.Errorf("near %v within %d: %w", origin, maxRadius, ErrNoPlacement)
}
