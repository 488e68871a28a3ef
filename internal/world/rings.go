package world

// ringWalkHours lists the edge headings of a ring walked clockwise from its
// 6 o'clock corner.
var ringWalkHours = [6]int{10, 12, 2, 4, 6, 8}

// TilesAtDistance returns the tiles exactly k steps from origin in walk
// order. k = 0 yields the origin tile when it exists. On small wrapped maps
// a tile reachable along several edges is returned once.
func (m *Map) TilesAtDistance(origin HexCoord, k int) []*Tile {
	if k < 0 {
		return nil
	}
	if k == 0 {
		if t, ok := m.Get(origin); ok {
			return []*Tile{t}
		}
		return nil
	}
	out := make([]*Tile, 0, 6*k)
	seen := make(map[*Tile]bool, 6*k)
	south, _ := clockDirection(6)
	c := origin.Add(south.Scale(k))
	for _, hour := range ringWalkHours {
		dir, _ := clockDirection(hour)
		for i := 0; i < k; i++ {
			if t, ok := m.Get(c); ok && !seen[t] {
				seen[t] = true
				out = append(out, t)
			}
			c = c.Add(dir)
		}
	}
	return out
}

// TilesInDistance returns every tile within k steps of origin, nearest rings
// first, each tile once.
func (m *Map) TilesInDistance(origin HexCoord, k int) []*Tile {
	var out []*Tile
	seen := make(map[*Tile]bool)
	for d := 0; d <= k; d++ {
		for _, t := range m.TilesAtDistance(origin, d) {
			if seen[t] {
				continue
			}
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}

// Rect is an inclusive rectangle in offset coordinates.
type Rect struct {
	MinCol int `json:"min_col"`
	MinRow int `json:"min_row"`
	MaxCol int `json:"max_col"`
	MaxRow int `json:"max_row"`
}

func (r Rect) Width() int  { return r.MaxCol - r.MinCol + 1 }
func (r Rect) Height() int { return r.MaxRow - r.MinRow + 1 }

func (r Rect) Contains(o Offset) bool {
	return o.Col >= r.MinCol && o.Col <= r.MaxCol && o.Row >= r.MinRow && o.Row <= r.MaxRow
}

// Shrink returns the centered rectangle covering fraction of each side.
func (r Rect) Shrink(fraction float64) Rect {
	w := int(float64(r.Width())*fraction + 0.5)
	h := int(float64(r.Height())*fraction + 0.5)
	w, h = max(w, 1), max(h, 1)
	minCol := r.MinCol + (r.Width()-w)/2
	minRow := r.MinRow + (r.Height()-h)/2
	return Rect{MinCol: minCol, MinRow: minRow, MaxCol: minCol + w - 1, MaxRow: minRow + h - 1}
}

// BoundsOf returns the smallest rectangle containing the tiles.
func BoundsOf(tiles []*Tile) Rect {
	if len(tiles) == 0 {
		return Rect{MaxCol: -1, MaxRow: -1}
	}
	o := tiles[0].Coord.ToOffset()
	r := Rect{MinCol: o.Col, MinRow: o.Row, MaxCol: o.Col, MaxRow: o.Row}
	for _, t := range tiles[1:] {
		o := t.Coord.ToOffset()
		r.MinCol = min(r.MinCol, o.Col)
		r.MaxCol = max(r.MaxCol, o.Col)
		r.MinRow = min(r.MinRow, o.Row)
		r.MaxRow = max(r.MaxRow, o.Row)
	}
	return r
}

// Bounds returns the offset rectangle covering the whole map.
func (m *Map) Bounds() Rect {
	return BoundsOf(m.Tiles)
}

// TilesInRect returns the tiles inside r in map order.
func (m *Map) TilesInRect(r Rect) []*Tile {
	return m.TilesWhere(func(t *Tile) bool { return r.Contains(t.Coord.ToOffset()) })
}
