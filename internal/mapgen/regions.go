package mapgen

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/talgya/hexforge/internal/ruleset"
	"github.com/talgya/hexforge/internal/social"
	"github.com/talgya/hexforge/internal/world"
)

// RegionType is the dominant landscape of a region.
type RegionType uint8

const (
	RegionHybrid RegionType = iota
	RegionTundra
	RegionJungle
	RegionForest
	RegionDesert
	RegionHills
	RegionPlains
	RegionGrassland
)

var regionTypeNames = []string{"hybrid", "tundra", "jungle", "forest", "desert", "hills", "plains", "grassland"}

func (t RegionType) String() string {
	if int(t) < len(regionTypeNames) {
		return regionTypeNames[t]
	}
	return fmt.Sprintf("region(%d)", uint8(t))
}

// minHostContinent is the smallest continent that can host a region.
const minHostContinent = 4

// region is a set of land tiles handed to one faction, or left over for
// city states.
type region struct {
	id        int
	continent int // world.NoContinent for regions spanning landmasses
	tiles     []*world.Tile
	bounds    world.Rect
	fertility int
	kind      RegionType
	leftover  bool

	faction int // index into the major list, -1 when unassigned
	luxury  string
	start   *world.Tile
	minors  int
}

func (r *generation) newRegion(continent int, tiles []*world.Tile) *region {
	reg := &region{
		id:        len(r.regions),
		continent: continent,
		tiles:     tiles,
		bounds:    world.BoundsOf(tiles),
		faction:   -1,
	}
	for _, t := range tiles {
		reg.fertility += r.fertility(t)
	}
	reg.kind = r.classify(tiles)
	r.regions = append(r.regions, reg)
	return reg
}

func (r *generation) regionStage(majors []social.Faction) (string, error) {
	if r.params.NoRegions {
		return "regions disabled", nil
	}
	r.partition(len(majors))
	r.assignFactions(majors)
	leftovers := 0
	for _, reg := range r.regions {
		if reg.leftover {
			leftovers++
		}
	}
	return fmt.Sprintf("%d regions, %d leftover", len(r.regions)-leftovers, leftovers), nil
}

// partition divides continent land among n majors. Each continent large
// enough to host a region receives majors in proportion to its fertility;
// its land is then bisected into equal fertility shares. Continents nobody
// received become leftover regions.
func (r *generation) partition(n int) {
	var hosts []int
	for _, id := range r.m.ContinentIDs() {
		if r.m.ContinentSizes[id] >= minHostContinent {
			hosts = append(hosts, id)
		}
	}

	if r.params.Archetype == world.Archipelago || len(hosts) == 0 {
		land := r.m.TilesWhere(func(t *world.Tile) bool { return t.ContinentID != world.NoContinent })
		if len(land) == 0 || n == 0 {
			return
		}
		r.split(world.NoContinent, land, n)
		return
	}

	fertility := make(map[int]int, len(hosts))
	for _, id := range hosts {
		for _, t := range r.m.ContinentTiles(id) {
			fertility[id] += r.fertility(t)
		}
	}
	assigned := make(map[int]int, len(hosts))
	for i := 0; i < n; i++ {
		best := hosts[0]
		for _, id := range hosts[1:] {
			// Compare fertility/(1+assigned) without division.
			if fertility[id]*(1+assigned[best]) > fertility[best]*(1+assigned[id]) {
				best = id
			}
		}
		assigned[best]++
	}
	for _, id := range hosts {
		if assigned[id] > 0 {
			r.split(id, r.m.ContinentTiles(id), assigned[id])
		}
	}
	for _, id := range hosts {
		if assigned[id] == 0 {
			r.newRegion(id, r.m.ContinentTiles(id)).leftover = true
		}
	}
}

// split cuts tiles into n regions of about equal fertility, halving along
// the longer side of the bounding rectangle each time.
func (r *generation) split(continent int, tiles []*world.Tile, n int) {
	if n <= 1 || len(tiles) < 2 {
		r.newRegion(continent, tiles)
		for i := 1; i < n; i++ {
			r.newRegion(continent, nil)
		}
		return
	}
	bounds := world.BoundsOf(tiles)
	byCol := bounds.Width() >= bounds.Height()
	sorted := slices.Clone(tiles)
	slices.SortStableFunc(sorted, func(a, b *world.Tile) int {
		oa, ob := a.Coord.ToOffset(), b.Coord.ToOffset()
		if byCol {
			return cmp.Or(cmp.Compare(oa.Col, ob.Col), cmp.Compare(oa.Row, ob.Row))
		}
		return cmp.Or(cmp.Compare(oa.Row, ob.Row), cmp.Compare(oa.Col, ob.Col))
	})

	left := n / 2
	total := 0
	for _, t := range sorted {
		total += r.fertility(t)
	}
	target := total * left / n
	cut, sum := 0, 0
	for cut < len(sorted) && sum < target {
		sum += r.fertility(sorted[cut])
		cut++
	}
	if total == 0 {
		cut = len(sorted) * left / n
	}
	cut = max(1, min(cut, len(sorted)-1))

	r.split(continent, sorted[:cut], left)
	r.split(continent, sorted[cut:], n-left)
}

// classify names the landscape a region is dominated by.
func (r *generation) classify(tiles []*world.Tile) RegionType {
	if len(tiles) == 0 {
		return RegionHybrid
	}
	var tundra, jungle, forest, desert, hills, plains, grass int
	for _, t := range tiles {
		switch {
		case t.HasFeature(ruleset.Jungle):
			jungle++
		case t.HasFeature(ruleset.Forest):
			forest++
		case t.HasFeature(ruleset.Hills):
			hills++
		}
		switch t.Terrain {
		case ruleset.Tundra, ruleset.Snow:
			tundra++
		case ruleset.Desert:
			desert++
		case ruleset.Plains:
			plains++
		case ruleset.Grassland:
			grass++
		}
	}
	share := func(n int) float64 { return float64(n) / float64(len(tiles)) }
	switch {
	case share(tundra) >= 0.3:
		return RegionTundra
	case share(jungle) >= 0.3:
		return RegionJungle
	case share(forest) >= 0.3:
		return RegionForest
	case share(desert) >= 0.25:
		return RegionDesert
	case share(hills) >= 0.3:
		return RegionHills
	case share(plains) >= 0.3:
		return RegionPlains
	case share(grass) >= 0.3:
		return RegionGrassland
	}
	return RegionHybrid
}

// assignFactions hands major regions to factions: coastal-biased nations pick
// first, then terrain-biased ones, then everyone else at random.
func (r *generation) assignFactions(majors []social.Faction) {
	var open []*region
	for _, reg := range r.regions {
		if !reg.leftover {
			open = append(open, reg)
		}
	}
	order := make([]int, 0, len(majors))
	for pass := 0; pass < 3; pass++ {
		for i, f := range majors {
			switch {
			case pass == 0 && f.CoastalBias,
				pass == 1 && !f.CoastalBias && len(f.StartBias) > 0,
				pass == 2 && !f.HasBias():
				order = append(order, i)
			}
		}
	}

	for _, i := range order {
		if len(open) == 0 {
			return
		}
		f := majors[i]
		pick := -1
		if f.HasBias() {
			best := -1.0
			for j, reg := range open {
				var s float64
				if f.CoastalBias {
					s = r.coastalShare(reg)
				} else {
					s = biasShare(reg, f.StartBias)
				}
				if s > best {
					best, pick = s, j
				}
			}
		} else {
			pick = r.rng.Intn(len(open))
		}
		open[pick].faction = i
		open = slices.Delete(open, pick, pick+1)
	}
}

func (r *generation) coastalShare(reg *region) float64 {
	if len(reg.tiles) == 0 {
		return 0
	}
	n := 0
	for _, t := range reg.tiles {
		if r.m.IsCoastal(t) {
			n++
		}
	}
	return float64(n) / float64(len(reg.tiles))
}

func biasShare(reg *region, bias []string) float64 {
	if len(reg.tiles) == 0 {
		return 0
	}
	n := 0
	for _, t := range reg.tiles {
		if slices.Contains(bias, t.Terrain) || slices.ContainsFunc(t.Features, func(f string) bool { return slices.Contains(bias, f) }) {
			n++
		}
	}
	return float64(n) / float64(len(reg.tiles))
}
