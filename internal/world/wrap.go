package world

import "math"

// wrapTranslations returns the lattice vectors that identify wrapped
// positions. A radius-R hexagon tiles the plane around the six rotations of
// (2R+1, -R); a rectangle wraps east-west by its width.
func wrapTranslations(shape Shape, radius, width int) []HexCoord {
	if shape == Rectangular {
		return []HexCoord{{Q: width, R: 0}, {Q: -width, R: 0}}
	}
	// Cube (x, y, z) rotates by 60° to (-z, -x, -y).
	x, y, z := 2*radius+1, -radius, -radius-1
	out := make([]HexCoord, 0, 6)
	for i := 0; i < 6; i++ {
		out = append(out, HexCoord{Q: x, R: y})
		x, y, z = -z, -x, -y
	}
	return out
}

// wrap maps c onto its stored representative. Rectangular maps wrap east-west
// only, so rows beyond the map stay absent. On a hex torus every position has
// a representative.
func (m *Map) wrap(c HexCoord) (HexCoord, bool) {
	if m.Contains(c) {
		return c, true
	}
	if m.Params.Shape == Rectangular {
		o := c.ToOffset()
		o.Col = mod(o.Col-m.minCol, m.width) + m.minCol
		w := o.ToAxial()
		return w, m.Contains(w)
	}
	// Write c in the lattice basis and round to the nearest lattice point.
	// The mirror center holding c is that point or one close around it.
	a, b := m.translations[0], m.translations[1]
	det := float64(a.Q*b.R - b.Q*a.R)
	x := int(math.Round(float64(c.Q*b.R-b.Q*c.R) / det))
	y := int(math.Round(float64(a.Q*c.R-c.Q*a.R) / det))
	base := c.Sub(a.Scale(x)).Sub(b.Scale(y))
	for i := -2; i <= 2; i++ {
		for j := -2; j <= 2; j++ {
			if w := base.Sub(a.Scale(i)).Sub(b.Scale(j)); m.Contains(w) {
				return w, true
			}
		}
	}
	return c, false
}

// Canonicalize returns the stored representative of c, which is also the
// wrap-equivalent with the smallest magnitude. Without wrap, or for rows
// beyond a wrapped rectangle, c is returned unchanged.
func (m *Map) Canonicalize(c HexCoord) HexCoord {
	if !m.Params.Wrap {
		return c
	}
	if w, ok := m.wrap(c); ok {
		return w
	}
	return c
}

// Distance returns the hex distance between a and b, taking the shortest way
// around a wrapped map.
func (m *Map) Distance(a, b HexCoord) int {
	d := Distance(a, b)
	for _, t := range m.translations {
		if dt := Distance(a, b.Add(t)); dt < d {
			d = dt
		}
	}
	return d
}

func mod(a, b int) int {
	return ((a % b) + b) % b
}
