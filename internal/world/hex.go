// Package world provides the hex tile grid and its spatial queries.
// Uses axial coordinates (q, r) for every map shape; rectangular maps are laid
// out in odd-r offset rows on top of the same axial space.
package world

import "math"

// HexCoord represents a position on the hex grid using axial coordinates.
// The third cube coordinate s is derived: s = -q - r.
type HexCoord struct {
	Q int `json:"q"`
	R int `json:"r"`
}

// S returns the implicit third cube coordinate.
func (h HexCoord) S() int {
	return -h.Q - h.R
}

func (h HexCoord) Add(o HexCoord) HexCoord {
	return HexCoord{Q: h.Q + o.Q, R: h.R + o.R}
}

func (h HexCoord) Sub(o HexCoord) HexCoord {
	return HexCoord{Q: h.Q - o.Q, R: h.R - o.R}
}

func (h HexCoord) Scale(k int) HexCoord {
	return HexCoord{Q: h.Q * k, R: h.R * k}
}

// Length is the hex distance from the origin.
func (h HexCoord) Length() int {
	return max(abs(h.Q), abs(h.R), abs(h.S()))
}

// HexNeighborDirections defines the six neighbor offsets in axial coordinates.
var HexNeighborDirections = [6]HexCoord{
	{Q: 1, R: 0},
	{Q: 1, R: -1},
	{Q: 0, R: -1},
	{Q: -1, R: 0},
	{Q: -1, R: 1},
	{Q: 0, R: 1},
}

// clockDirections maps the even clock hours to neighbor offsets (pointy-top:
// 12 is north-east of 10, 6 is straight down the r axis).
var clockDirections = map[int]HexCoord{
	12: {Q: 0, R: -1},
	2:  {Q: 1, R: -1},
	4:  {Q: 1, R: 0},
	6:  {Q: 0, R: 1},
	8:  {Q: -1, R: 1},
	10: {Q: -1, R: 0},
}

// clockDirection returns the neighbor offset at the given clock hour. Only
// the even hours name a neighbor.
func clockDirection(hour int) (HexCoord, bool) {
	d, ok := clockDirections[hour]
	return d, ok
}

// clockPosition returns the clock hour at which b lies next to a, or -1.
func clockPosition(a, b HexCoord) int {
	d := b.Sub(a)
	for hour, dir := range clockDirections {
		if dir == d {
			return hour
		}
	}
	return -1
}

// Neighbors returns the six adjacent hex coordinates.
func (h HexCoord) Neighbors() [6]HexCoord {
	var result [6]HexCoord
	for i, dir := range HexNeighborDirections {
		result[i] = h.Add(dir)
	}
	return result
}

// Distance returns the hex distance between two coordinates, ignoring wrap.
func Distance(a, b HexCoord) int {
	return a.Sub(b).Length()
}

// ToPixel converts to continuous space: x = q + r/2, y = r·√3/2.
func (h HexCoord) ToPixel() (x, y float64) {
	x = float64(h.Q) + float64(h.R)*0.5
	y = float64(h.R) * math.Sqrt(3.0) / 2.0
	return x, y
}

// Offset is an odd-r offset position (col, row).
type Offset struct {
	Col int `json:"col"`
	Row int `json:"row"`
}

// ToOffset converts axial to odd-r offset coordinates.
func (h HexCoord) ToOffset() Offset {
	return Offset{Col: h.Q + (h.R-(h.R&1))/2, Row: h.R}
}

// ToAxial converts odd-r offset to axial coordinates.
func (o Offset) ToAxial() HexCoord {
	return HexCoord{Q: o.Col - (o.Row-(o.Row&1))/2, R: o.Row}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// Line returns the hexes on the straight segment from a to b, both included,
// by rounding evenly spaced cube samples.
func Line(a, b HexCoord) []HexCoord {
	n := Distance(a, b)
	out := make([]HexCoord, 0, n+1)
	for i := 0; i <= n; i++ {
		var f float64
		if n > 0 {
			f = float64(i) / float64(n)
		}
		// Nudge off exact midpoints so ties round the same way every time.
		q := float64(a.Q) + float64(b.Q-a.Q)*f + 1e-6
		r := float64(a.R) + float64(b.R-a.R)*f + 1e-6
		out = append(out, cubeRound(q, r, -q-r))
	}
	return out
}

func cubeRound(x, y, z float64) HexCoord {
	rx, ry, rz := math.Round(x), math.Round(y), math.Round(z)
	dx, dy, dz := math.Abs(rx-x), math.Abs(ry-y), math.Abs(rz-z)
	if dx > dy && dx > dz {
		rx = -ry - rz
	} else if dy > dz {
		ry = -rx - rz
	}
	return HexCoord{Q: int(rx), R: int(ry)}
}
