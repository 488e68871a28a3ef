package world

import (
	"errors"
	"slices"
	"testing"

	"github.com/talgya/hexforge/internal/ruleset"
)

func testMaps(t *testing.T) map[string]*Map {
	t.Helper()
	rules := ruleset.Default()
	build := func(p Params) *Map {
		m, err := New(p, rules)
		if err != nil {
			t.Fatalf("New(%+v): %v", p, err)
		}
		return m
	}
	return map[string]*Map{
		"hex r0":          build(Params{Shape: Hexagonal, Radius: 0}),
		"hex r4":          build(Params{Shape: Hexagonal, Radius: 4}),
		"hex r1 wrapped":  build(Params{Shape: Hexagonal, Radius: 1, Wrap: true}),
		"hex r5 wrapped":  build(Params{Shape: Hexagonal, Radius: 5, Wrap: true}),
		"rect 7x5":        build(Params{Shape: Rectangular, Width: 7, Height: 5}),
		"rect 8x6 wrap":   build(Params{Shape: Rectangular, Width: 8, Height: 6, Wrap: true}),
		"rect 2x3 wrap":   build(Params{Shape: Rectangular, Width: 2, Height: 3, Wrap: true}),
		"tiny rect wrap":  build(Params{Shape: Rectangular, Size: SizeTiny, Wrap: true}),
	}
}

func TestTileCounts(t *testing.T) {
	tests := []struct {
		params Params
		want   int
	}{
		{Params{Shape: Hexagonal, Radius: 0}, 1},
		{Params{Shape: Hexagonal, Radius: 2}, 19},
		{Params{Shape: Hexagonal, Size: SizeTiny}, 331},
		{Params{Shape: Rectangular, Width: 7, Height: 5}, 35},
		{Params{Shape: Rectangular, Size: SizeTiny, Wrap: true}, 24 * 15},
	}
	for _, tt := range tests {
		m, err := New(tt.params, ruleset.Default())
		if err != nil {
			t.Fatal(err)
		}
		if m.Len() != tt.want {
			t.Errorf("%+v: %d tiles, want %d", tt.params, m.Len(), tt.want)
		}
		for _, tile := range m.Tiles {
			if tile.Terrain != ruleset.Grassland || tile.ContinentID != NoContinent {
				t.Fatalf("fresh tile %+v not base land", tile)
			}
		}
	}
}

func TestNewRejectsOddWrappedWidth(t *testing.T) {
	_, err := NewRectangular(7, 4, true, ruleset.Default())
	if !errors.Is(err, ErrInvalidParams) {
		t.Fatalf("err = %v, want ErrInvalidParams", err)
	}
}

func TestNeighborSymmetry(t *testing.T) {
	for name, m := range testMaps(t) {
		t.Run(name, func(t *testing.T) {
			for _, a := range m.Tiles {
				ns := m.Neighbors(a.Coord)
				if len(ns) > 6 {
					t.Fatalf("%v has %d neighbors", a.Coord, len(ns))
				}
				for _, b := range ns {
					if b == a {
						t.Fatalf("%v is its own neighbor", a.Coord)
					}
					if !slices.Contains(m.Neighbors(b.Coord), a) {
						t.Fatalf("%v lists %v but not the reverse", a.Coord, b.Coord)
					}
				}
			}
		})
	}
}

func TestWrappedMapsHaveSixNeighbors(t *testing.T) {
	for _, name := range []string{"hex r5 wrapped", "rect 8x6 wrap"} {
		m := testMaps(t)[name]
		for _, tile := range m.Tiles {
			n := len(m.Neighbors(tile.Coord))
			if name == "hex r5 wrapped" && n != 6 {
				t.Errorf("%s: %v has %d neighbors, want 6", name, tile.Coord, n)
			}
			// East-west wrap leaves the top and bottom rows open.
			o := tile.Coord.ToOffset()
			if name == "rect 8x6 wrap" && o.Row > -3 && o.Row < 2 && n != 6 {
				t.Errorf("%s: %v has %d neighbors, want 6", name, tile.Coord, n)
			}
		}
	}
}

func TestTilesAtDistance(t *testing.T) {
	m := testMaps(t)["hex r4"]
	origin := HexCoord{}

	if got := m.TilesAtDistance(origin, 0); len(got) != 1 || got[0].Coord != origin {
		t.Fatalf("k=0 returned %v", got)
	}
	for k := 1; k <= 4; k++ {
		ring := m.TilesAtDistance(origin, k)
		if len(ring) != 6*k {
			t.Errorf("ring %d has %d tiles, want %d", k, len(ring), 6*k)
		}
		for _, tile := range ring {
			if Distance(origin, tile.Coord) != k {
				t.Errorf("ring %d contains %v at distance %d", k, tile.Coord, Distance(origin, tile.Coord))
			}
		}
	}
	first := m.TilesAtDistance(origin, 2)[0].Coord
	if first != (HexCoord{Q: 0, R: 2}) {
		t.Errorf("ring walk starts at %v, want the 6 o'clock tile", first)
	}
	if second := m.TilesAtDistance(origin, 2)[1].Coord; clockPosition(first, second) != 10 {
		t.Errorf("ring walk heads toward %d o'clock first", clockPosition(first, second))
	}

	if got := len(m.TilesInDistance(origin, 4)); got != m.Len() {
		t.Errorf("TilesInDistance(4) = %d tiles, want %d", got, m.Len())
	}
	if got := m.TilesAtDistance(HexCoord{Q: 4}, 2); len(got) >= 12 {
		t.Errorf("ring near the edge should be clipped, got %d tiles", len(got))
	}
	if got := m.TilesAtDistance(HexCoord{Q: 40}, 0); got != nil {
		t.Errorf("k=0 off the map returned %v", got)
	}
}

func TestAbsentLookup(t *testing.T) {
	m := testMaps(t)["hex r4"]
	if tile, ok := m.Get(HexCoord{Q: 5}); ok {
		t.Fatalf("Get off the map returned %+v", tile)
	}
	m = testMaps(t)["rect 8x6 wrap"]
	if _, ok := m.Get(Offset{Col: 0, Row: 10}.ToAxial()); ok {
		t.Fatal("east-west wrap should not reach rows off the map")
	}
}

func TestWrapLookup(t *testing.T) {
	m := testMaps(t)["hex r5 wrapped"]
	for _, dir := range wrapTranslations(Hexagonal, 5, 0) {
		c := HexCoord{Q: 1, R: -2}
		tile, ok := m.Get(c.Add(dir))
		if !ok || tile.Coord != c {
			t.Errorf("Get(%v + %v) = %v, %v; want %v", c, dir, tile, ok, c)
		}
		if got := m.Canonicalize(c.Add(dir)); got != c {
			t.Errorf("Canonicalize(%v) = %v, want %v", c.Add(dir), got, c)
		}
	}

	r := testMaps(t)["rect 8x6 wrap"]
	east := Offset{Col: 3, Row: 0}.ToAxial()
	west := Offset{Col: -4, Row: 0}.ToAxial()
	if r.Distance(east, west) != 1 {
		t.Errorf("wrapped distance across the seam = %d, want 1", r.Distance(east, west))
	}
	if !slices.ContainsFunc(r.Neighbors(east), func(n *Tile) bool { return n.Coord == west }) {
		t.Error("east edge does not touch the west edge")
	}
}

func TestCanonicalizeIsMinimal(t *testing.T) {
	m := testMaps(t)["hex r5 wrapped"]
	for _, tile := range m.Tiles {
		if got := m.Canonicalize(tile.Coord); got != tile.Coord {
			t.Fatalf("Canonicalize(%v) = %v", tile.Coord, got)
		}
		for _, dir := range m.translations {
			if other := tile.Coord.Add(dir); other.Length() < tile.Coord.Length() {
				t.Fatalf("%v has a smaller equivalent %v", tile.Coord, other)
			}
		}
	}
}

func TestFarPositionsWrap(t *testing.T) {
	m, err := New(Params{Shape: Hexagonal, Radius: 3, Wrap: true}, ruleset.Default())
	if err != nil {
		t.Fatal(err)
	}
	for _, c := range []HexCoord{
		{Q: 500, R: 0},
		{Q: 5000, R: -1234},
		{Q: -777, R: 999},
		{Q: 123456, R: -654321},
	} {
		tile, ok := m.Get(c)
		if !ok {
			t.Errorf("Get(%v) found nothing on a wrapped map", c)
			continue
		}
		got := m.Canonicalize(c)
		if got != tile.Coord || !m.Contains(got) {
			t.Errorf("Canonicalize(%v) = %v, Get returned %v", c, got, tile.Coord)
		}
		if again := m.Canonicalize(got); again != got {
			t.Errorf("Canonicalize is not idempotent: %v -> %v", got, again)
		}
		shifted := c.Add(m.translations[0].Scale(9)).Sub(m.translations[1].Scale(4))
		if other := m.Canonicalize(shifted); other != got {
			t.Errorf("%v and %v are equivalent but reduce to %v and %v", c, shifted, got, other)
		}
	}

	r := testMaps(t)["rect 8x6 wrap"]
	far := Offset{Col: 1003, Row: 1}.ToAxial()
	if tile, ok := r.Get(far); !ok || tile.Coord.ToOffset() != (Offset{Col: 3, Row: 1}) {
		t.Errorf("Get(col 1003) = %v, %v", tile, ok)
	}
}

func TestWrappedGridInvariants(t *testing.T) {
	tests := []struct {
		params Params
		maxK   int
	}{
		{Params{Shape: Hexagonal, Radius: 2, Wrap: true}, 2},
		{Params{Shape: Hexagonal, Radius: 4, Wrap: true}, 4},
		{Params{Shape: Hexagonal, Radius: 7, Wrap: true}, 7},
		{Params{Shape: Rectangular, Width: 12, Height: 8, Wrap: true}, 3},
		{Params{Shape: Rectangular, Width: 24, Height: 16, Wrap: true}, 6},
	}
	for _, tt := range tests {
		m, err := New(tt.params, ruleset.Default())
		if err != nil {
			t.Fatal(err)
		}
		bounds := m.Bounds()
		for _, origin := range m.Tiles {
			for _, n := range m.Neighbors(origin.Coord) {
				if !slices.Contains(m.Neighbors(n.Coord), origin) {
					t.Fatalf("%+v: %v lists %v but not the reverse", tt.params, origin.Coord, n.Coord)
				}
			}
			o := origin.Coord.ToOffset()
			for k := 1; k <= tt.maxK; k++ {
				// Rows do not wrap, so rings must stay inside them.
				if tt.params.Shape == Rectangular && (o.Row-k < bounds.MinRow || o.Row+k > bounds.MaxRow) {
					break
				}
				ring := m.TilesAtDistance(origin.Coord, k)
				if len(ring) != 6*k {
					t.Fatalf("%+v: ring %d around %v has %d tiles, want %d", tt.params, k, origin.Coord, len(ring), 6*k)
				}
				for _, tile := range ring {
					if d := m.Distance(origin.Coord, tile.Coord); d != k {
						t.Fatalf("%+v: ring %d around %v holds %v at distance %d", tt.params, k, origin.Coord, tile.Coord, d)
					}
				}
			}
		}
	}
}

func TestOffsetRoundTrip(t *testing.T) {
	for q := -6; q <= 6; q++ {
		for r := -6; r <= 6; r++ {
			c := HexCoord{Q: q, R: r}
			if got := c.ToOffset().ToAxial(); got != c {
				t.Fatalf("%v -> %v -> %v", c, c.ToOffset(), got)
			}
		}
	}
}

func TestClockDirections(t *testing.T) {
	for _, hour := range []int{12, 2, 4, 6, 8, 10} {
		d, ok := clockDirection(hour)
		if !ok || d.Length() != 1 {
			t.Errorf("clockDirection(%d) = %v, %v", hour, d, ok)
		}
		if clockPosition(HexCoord{}, d) != hour {
			t.Errorf("clockPosition round trip for %d", hour)
		}
	}
	if _, ok := clockDirection(3); ok {
		t.Error("odd hours have no neighbor")
	}
}

func TestFindPlacementNear(t *testing.T) {
	m := testMaps(t)["hex r4"]
	target := HexCoord{Q: 2, R: 1}
	tile, err := m.FindPlacementNear(HexCoord{}, 3, func(t *Tile) bool { return t.Coord == target })
	if err != nil || tile.Coord != target {
		t.Fatalf("FindPlacementNear = %v, %v", tile, err)
	}
	_, err = m.FindPlacementNear(HexCoord{}, 2, func(t *Tile) bool { return t.Coord == target })
	if !errors.Is(err, ErrNoPlacement) {
		t.Fatalf("err = %v, want ErrNoPlacement", err)
	}
}

func TestRectShrink(t *testing.T) {
	r := Rect{MinCol: 0, MinRow: 0, MaxCol: 8, MaxRow: 5}
	c := r.Shrink(1.0 / 3)
	if c.Width() != 3 || c.Height() != 2 || c.MinCol != 3 || c.MinRow != 2 {
		t.Errorf("Shrink = %+v", c)
	}
}

func TestLineIsContiguous(t *testing.T) {
	for _, tc := range []struct{ a, b HexCoord }{
		{HexCoord{}, HexCoord{}},
		{HexCoord{Q: -3, R: 1}, HexCoord{Q: 4, R: -2}},
		{HexCoord{Q: 0, R: -5}, HexCoord{Q: 2, R: 5}},
	} {
		line := Line(tc.a, tc.b)
		if len(line) != Distance(tc.a, tc.b)+1 {
			t.Fatalf("Line(%v, %v) has %d hexes", tc.a, tc.b, len(line))
		}
		if line[0] != tc.a || line[len(line)-1] != tc.b {
			t.Errorf("Line(%v, %v) runs %v to %v", tc.a, tc.b, line[0], line[len(line)-1])
		}
		for i := 1; i < len(line); i++ {
			if Distance(line[i-1], line[i]) != 1 {
				t.Errorf("gap between %v and %v", line[i-1], line[i])
			}
		}
	}
}
