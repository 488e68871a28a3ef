package mapgen

import (
	"math/rand"
	"testing"

	"github.com/talgya/hexforge/internal/ruleset"
	"github.com/talgya/hexforge/internal/social"
	"github.com/talgya/hexforge/internal/world"
)

// newRun builds the state of one generation over a fresh map without running
// any stage.
func newRun(t *testing.T, params world.Params) *generation {
	t.Helper()
	rules := ruleset.Default()
	m, err := world.New(params, rules)
	if err != nil {
		t.Fatal(err)
	}
	return &generation{
		Generator: New(rules, WithLogger(quiet)),
		m:         m,
		rules:     rules,
		params:    params,
		rng:       rand.New(rand.NewSource(1)),
		impact:    make([]int, m.Len()),
		isStart:   make([]bool, m.Len()),
	}
}

func fill(r *generation, terrain string) {
	for _, t := range r.m.Tiles {
		r.setTerrain(t, terrain)
	}
}

func TestCoastalPassIsIdempotent(t *testing.T) {
	r := newRun(t, hexParams(4, world.Fractal, 1))
	fill(r, ruleset.Ocean)
	center, _ := r.m.Get(world.HexCoord{})
	r.setTerrain(center, ruleset.Grassland)

	if n := coastalPass(r.m, r.rules); n != 6 {
		t.Fatalf("first pass changed %d tiles, want 6", n)
	}
	if n := coastalPass(r.m, r.rules); n != 0 {
		t.Fatalf("second pass changed %d tiles", n)
	}
	for _, n := range r.m.Neighbors(center.Coord) {
		if n.Terrain != ruleset.Coast {
			t.Errorf("%v is %s", n.Coord, n.Terrain)
		}
	}
}

func TestCorrectContinentsSplitsOneLandmass(t *testing.T) {
	r := newRun(t, hexParams(3, world.Continents, 1))
	fill(r, ruleset.Grassland)
	if err := r.m.AssignContinents(world.Assign); err != nil {
		t.Fatal(err)
	}
	if err := r.correctContinents(); err != nil {
		t.Fatal(err)
	}
	if got := len(r.m.ContinentSizes); got < 2 || got > continentTarget+1 {
		t.Fatalf("%d continents after correction", got)
	}
	for _, tile := range r.m.Tiles {
		if tile.Terrain != ruleset.Ocean {
			continue
		}
		for _, n := range r.m.Neighbors(tile.Coord) {
			if n.IsLand() {
				t.Fatalf("ocean %v touches land after correction", tile.Coord)
			}
		}
	}
}

func TestBisectorAlwaysSeparates(t *testing.T) {
	r := newRun(t, hexParams(3, world.Continents, 1))
	tiles := r.m.Tiles
	far, d := r.farthestPair(tiles)
	if d != 6 {
		t.Fatalf("diameter %d, want 6", d)
	}
	channel := r.bisector(tiles, far[0], far[1])
	if !r.separates(tiles, channel) {
		t.Fatal("bisector left the tiles connected")
	}
}

func TestMergeSmallestBridges(t *testing.T) {
	r := newRun(t, hexParams(6, world.Continents, 1))
	fill(r, ruleset.Ocean)
	// Five small islands in a row, one water tile apart.
	for _, q := range []int{-6, -3, 0, 3, 6} {
		for _, c := range []world.HexCoord{{Q: q, R: 0}, {Q: q, R: -1}, {Q: q + 1, R: -1}} {
			if tile, ok := r.m.Get(c); ok {
				r.setTerrain(tile, ruleset.Grassland)
			}
		}
	}
	coastalPass(r.m, r.rules)
	if err := r.m.AssignContinents(world.Assign); err != nil {
		t.Fatal(err)
	}
	if len(r.m.ContinentSizes) != 5 {
		t.Fatalf("setup has %d islands", len(r.m.ContinentSizes))
	}
	if err := r.correctContinents(); err != nil {
		t.Fatal(err)
	}
	if got := len(r.m.ContinentSizes); got > continentTarget+1 {
		t.Errorf("%d continents remain after merging", got)
	}
}

func TestSplitBalancesFertility(t *testing.T) {
	r := newRun(t, hexParams(6, world.Continents, 1))
	fill(r, ruleset.Grassland)
	r.split(world.NoContinent, r.m.Tiles, 4)
	if len(r.regions) != 4 {
		t.Fatalf("%d regions", len(r.regions))
	}
	mean := float64(r.m.Len()) / 4
	seen := make(map[*world.Tile]bool)
	for _, reg := range r.regions {
		if d := float64(len(reg.tiles)) - mean; d > 2 || d < -2 {
			t.Errorf("region %d has %d tiles, mean %.2f", reg.id, len(reg.tiles), mean)
		}
		for _, tile := range reg.tiles {
			if seen[tile] {
				t.Fatalf("%v in two regions", tile.Coord)
			}
			seen[tile] = true
		}
	}
}

func TestSplitMoreFactionsThanTiles(t *testing.T) {
	r := newRun(t, hexParams(1, world.Fractal, 1))
	fill(r, ruleset.Grassland)
	r.split(world.NoContinent, r.m.Tiles[:1], 3)
	if len(r.regions) != 3 {
		t.Fatalf("%d regions, want 3", len(r.regions))
	}
	if r.findStart(r.regions[1].tiles, r.regions[1].bounds, majorSpacing) != nil {
		t.Error("empty region produced a start")
	}
}

func TestNormalizeLeavesStartAlone(t *testing.T) {
	r := newRun(t, hexParams(4, world.Fractal, 1))
	fill(r, ruleset.Desert)
	start, _ := r.m.Get(world.HexCoord{})
	r.isStart[start.Index()] = true

	before := *start
	passable := make([]bool, r.m.Len())
	for i, tile := range r.m.Tiles {
		passable[i] = tile.IsContinentLand()
	}

	changes, err := r.normalize(start, false)
	if err != nil {
		t.Fatal(err)
	}
	if changes < 3 {
		t.Errorf("barren start got only %d adjustments", changes)
	}
	if start.Terrain != before.Terrain || len(start.Features) != 0 || start.Resource != "" {
		t.Errorf("start tile changed: %+v", start)
	}
	for i, tile := range r.m.Tiles {
		if tile.IsContinentLand() != passable[i] {
			t.Errorf("%v changed passability", tile.Coord)
		}
	}
	food := countWhere(r.m.TilesAtDistance(start.Coord, 1), func(t *world.Tile) bool { return r.yield(t).Food >= 2 })
	if food == 0 {
		t.Error("no 2-food tile next to the start")
	}
	if r.yield(start).Total() != 0 {
		t.Errorf("start yield %+v", r.yield(start))
	}
}

func TestFoodBonusTables(t *testing.T) {
	tests := []struct {
		score        float64
		major, minor int
	}{
		{0, 3, 2},
		{5, 2, 1},
		{9, 1, 0},
		{20, 0, 0},
	}
	for _, tt := range tests {
		if got := majorFoodBonuses.bonuses(tt.score); got != tt.major {
			t.Errorf("major(%v) = %d, want %d", tt.score, got, tt.major)
		}
		if got := minorFoodBonuses.bonuses(tt.score); got != tt.minor {
			t.Errorf("minor(%v) = %d, want %d", tt.score, got, tt.minor)
		}
	}
}

func TestLuxuryRegionLimits(t *testing.T) {
	for regions, want := range map[int]int{4: 1, 9: 2, 13: 3} {
		if got := maxRegionsPerLuxury(regions); got != want {
			t.Errorf("maxRegionsPerLuxury(%d) = %d, want %d", regions, got, want)
		}
	}
}

func TestStampImpactCaps(t *testing.T) {
	r := newRun(t, hexParams(6, world.Fractal, 1))
	a, _ := r.m.Get(world.HexCoord{})
	b, _ := r.m.Get(world.HexCoord{Q: 1})
	r.stampImpact(a)
	r.stampImpact(b)
	if got := r.impact[a.Index()]; got != impactCap {
		t.Errorf("impact at a doubled start = %d, want %d", got, impactCap)
	}
	for _, tile := range r.m.Tiles {
		if r.impact[tile.Index()] > impactCap {
			t.Fatalf("impact %d above cap", r.impact[tile.Index()])
		}
	}
}

func TestNormalizeKeepsWonders(t *testing.T) {
	r := newRun(t, hexParams(4, world.Fractal, 1))
	fill(r, ruleset.Plains)
	wonder, ok := r.rules.Feature("Cerro de Potosi")
	if !ok {
		t.Fatal("default ruleset lacks Cerro de Potosi")
	}
	start, _ := r.m.Get(world.HexCoord{})
	for _, n := range r.m.TilesAtDistance(start.Coord, 1) {
		n.AddFeature(wonder)
	}
	if err := r.m.AssignContinents(world.Assign); err != nil {
		t.Fatal(err)
	}
	r.isStart[start.Index()] = true

	if _, err := r.normalize(start, false); err != nil {
		t.Fatal(err)
	}
	for _, n := range r.m.TilesAtDistance(start.Coord, 1) {
		if n.Terrain != ruleset.Plains || !n.IsNaturalWonder() {
			t.Errorf("%v became %s %v", n.Coord, n.Terrain, n.Features)
		}
	}
	if r.staleContinents {
		t.Error("continent labels marked stale without a passability change")
	}
}

func TestNormalizeStageRelabelsContinents(t *testing.T) {
	r := newRun(t, hexParams(3, world.Fractal, 1))
	fill(r, ruleset.Plains)
	wonder, _ := r.rules.Feature("Cerro de Potosi")
	gap, _ := r.m.Get(world.HexCoord{Q: 1, R: 0})
	gap.AddFeature(wonder)
	if err := r.m.AssignContinents(world.Assign); err != nil {
		t.Fatal(err)
	}
	if gap.ContinentID != world.NoContinent {
		t.Fatalf("wonder tile labeled %d", gap.ContinentID)
	}

	gap.ClearFeatures()
	r.staleContinents = true
	if _, err := r.normalizeStage(); err != nil {
		t.Fatal(err)
	}
	if gap.ContinentID == world.NoContinent {
		t.Error("passable tile left unlabeled")
	}
	if len(r.m.ContinentSizes) != 1 || r.m.ContinentSizes[gap.ContinentID] != r.m.Len() {
		t.Errorf("continent sizes = %v", r.m.ContinentSizes)
	}
}

func TestCityStateSettlesNextToFullRegion(t *testing.T) {
	r := newRun(t, hexParams(5, world.Fractal, 1))
	fill(r, ruleset.Grassland)
	if err := r.m.AssignContinents(world.Assign); err != nil {
		t.Fatal(err)
	}
	middle := world.HexCoord{Q: 0, R: 4}
	tiles := r.m.TilesInDistance(middle, 1)
	for _, tile := range tiles {
		r.isStart[tile.Index()] = true
	}
	reg := r.newRegion(world.NoContinent, tiles)
	r.regions = []*region{reg}

	if _, err := r.cityStateStage([]social.Faction{{Name: "Ragusa"}}); err != nil {
		t.Fatal(err)
	}
	if len(r.minors) != 1 {
		t.Fatalf("placed %d city states, unplaced %v", len(r.minors), r.unplaced)
	}
	// A whole-map search starts in the center third, three or more steps out.
	if d := r.m.Distance(r.minors[0].tile.Coord, middle); d != 2 {
		t.Errorf("city state at %v, %d steps from the region", r.minors[0].tile.Coord, d)
	}
	if reg.minors != 1 {
		t.Errorf("region counts %d city states", reg.minors)
	}
}
