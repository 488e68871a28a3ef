package mapgen

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"github.com/dustin/go-humanize"

	"github.com/talgya/hexforge/internal/noise"
	"github.com/talgya/hexforge/internal/ruleset"
	"github.com/talgya/hexforge/internal/world"
)

const (
	waterThreshold   = -0.1
	waterLevelShift  = 0.3
	coastThreshold   = -0.1
	pangaeaBias      = 0.5
	continentSplit   = 0.3
	archipelagoKeep  = 1 - 0.2
	maxShapeRetries  = 25
	retryStep        = 0.1
	baseScale        = 30
	featureScale     = 20
	retrySaltStride  = 10_000
	minLandShare     = 0.3
	minIslandLand    = 0.1
	mountainShare    = 0.06
	hillShare        = 0.12
	wonderTileRatio  = 160
	wonderSpacing    = 5
	minIslandSize    = 3
	largeIsland      = 10
	islandErodeReach = 3.0
)

// Noise salts. Each purpose samples its own field.
const (
	saltPangaea     = 42
	saltContinents  = 123
	saltArchipelago = 456
	saltFractal     = 789

	saltPangaeaErode = 111
	saltContinentA   = 222
	saltContinentB   = 333
	saltIslands      = 444
	saltIslandErode  = 555
	saltTemperature  = 600
	saltHumidity     = 700
	saltElevation    = 800

	saltGrassland = 123
	saltPlains    = 456
	saltDesert    = 789
	saltTundra    = 321
	saltWater     = 789
	saltFallback  = 999
)

// field returns the noise sampler for salt at the current shaping retry.
func (r *generation) field(salt int64, scale float64) *noise.Field {
	return noise.New(r.params.Noise, r.params.Seed, salt+int64(r.retry)*retrySaltStride, noise.DefaultOctaves(scale))
}

func sample(f *noise.Field, t *world.Tile) float64 {
	x, y := t.Coord.ToPixel()
	return f.At(x, y)
}

func (r *generation) terrain(name string) (*ruleset.Terrain, bool) {
	return r.rules.Terrain(name)
}

// setTerrain changes a tile's base terrain, dropping features and resources
// the new terrain cannot carry.
func (r *generation) setTerrain(t *world.Tile, name string) bool {
	def, ok := r.terrain(name)
	if !ok {
		return false
	}
	t.SetTerrain(def)
	for _, f := range slices.Clone(t.Features) {
		if fd, ok := r.rules.Feature(f); ok && !fd.OccursOnTerrain(name) {
			t.RemoveFeature(f, r.rules)
		}
	}
	r.dropIncompatibleResource(t)
	return true
}

// addFeature adds a feature when the ruleset has it, it occurs on the
// tile's terrain and it does not conflict with a feature already present.
func (r *generation) addFeature(t *world.Tile, name string) bool {
	def, ok := r.rules.Feature(name)
	if !ok || !def.OccursOnTerrain(t.Terrain) || t.HasFeature(name) {
		return false
	}
	for _, existing := range t.Features {
		if other, ok := r.rules.Feature(existing); ok && def.ConflictsWith(other) {
			return false
		}
	}
	t.AddFeature(def)
	return true
}

func (r *generation) dropIncompatibleResource(t *world.Tile) {
	if t.Resource == "" {
		return
	}
	if res, ok := r.rules.Resource(t.Resource); !ok || !res.CompatibleWith(t.Terrain, t.Features) {
		t.ClearResource()
	}
}

// sink turns a tile into water.
func (r *generation) sink(t *world.Tile, name string) {
	t.ClearFeatures()
	t.ClearResource()
	r.setTerrain(t, name)
}

func (r *generation) terrainStage() (string, error) {
	landShare := minLandShare
	if r.params.Archetype == world.Archipelago {
		landShare = minIslandLand
	}

	var land int
	for r.retry = 0; r.retry <= maxShapeRetries; r.retry++ {
		offset := retryStep * float64(r.retry)
		r.basePass(offset)
		coastalPass(r.m, r.rules)
		r.archetypePass(offset)
		coastalPass(r.m, r.rules)

		land = countLand(r.m)
		if float64(land) >= landShare*float64(r.m.Len()) {
			break
		}
		r.log.Debug("too little land, lowering water", "retry", r.retry, "land", land, "tiles", r.m.Len())
	}
	r.retry = min(r.retry, maxShapeRetries)

	r.climatePass()
	r.reliefPass()
	r.featurePass()
	wonders := r.naturalWonderPass()
	if r.params.Archetype == world.Archipelago {
		// Relief and wonders may have cut islands apart.
		r.sinkSmallIslands((*world.Tile).IsContinentLand)
		coastalPass(r.m, r.rules)
	}

	return fmt.Sprintf("%s land tiles of %s, %d wonders, %d retries",
		humanize.Comma(int64(countLand(r.m))), humanize.Comma(int64(r.m.Len())), wonders, r.retry), nil
}

func countLand(m *world.Map) int {
	n := 0
	for _, t := range m.Tiles {
		if t.IsLand() {
			n++
		}
	}
	return n
}

// basePass thresholds the layered base field into land, coast and ocean.
func (r *generation) basePass(offset float64) {
	salt := int64(saltFractal)
	switch r.params.Archetype {
	case world.Pangaea:
		salt = saltPangaea
	case world.Continents:
		salt = saltContinents
	case world.Archipelago:
		salt = saltArchipelago
	}
	threshold := waterThreshold
	switch r.params.WaterLevel {
	case world.WaterHigh:
		threshold += waterLevelShift
	case world.WaterLow:
		threshold -= waterLevelShift
	}
	threshold -= offset

	f := r.field(salt, baseScale)
	for _, t := range r.m.Tiles {
		t.ClearFeatures()
		t.ClearResource()
		n := sample(f, t)
		switch {
		case n > threshold:
			r.setTerrain(t, ruleset.Grassland)
		case n > coastThreshold-offset:
			r.setTerrain(t, ruleset.Coast)
		default:
			r.setTerrain(t, ruleset.Ocean)
		}
	}
}

// coastalPass turns ocean next to land into coast. Running it twice changes
// nothing the second time.
func coastalPass(m *world.Map, rules *ruleset.Ruleset) int {
	coast, ok := rules.Terrain(ruleset.Coast)
	if !ok {
		return 0
	}
	var toCoast []*world.Tile
	for _, t := range m.Tiles {
		if t.Terrain != ruleset.Ocean {
			continue
		}
		for _, n := range m.Neighbors(t.Coord) {
			if n.IsLand() {
				toCoast = append(toCoast, t)
				break
			}
		}
	}
	for _, t := range toCoast {
		t.SetTerrain(coast)
	}
	return len(toCoast)
}

func (r *generation) archetypePass(offset float64) {
	switch r.params.Archetype {
	case world.Pangaea:
		erode := r.field(saltPangaeaErode, baseScale)
		bounds := r.m.Bounds()
		for _, t := range r.m.Tiles {
			if t.IsWater() {
				continue
			}
			d := r.centerDistance(t, bounds)
			if d > pangaeaBias && sample(erode, t) < (d-pangaeaBias)-offset {
				r.setTerrain(t, ruleset.Coast)
			}
		}
	case world.Continents:
		a := r.field(saltContinentA, 40)
		b := r.field(saltContinentB, 20)
		for _, t := range r.m.Tiles {
			if t.IsWater() {
				continue
			}
			if sample(a, t) > continentSplit-offset || sample(b, t) > continentSplit-offset {
				continue
			}
			r.setTerrain(t, ruleset.Ocean)
		}
	case world.Archipelago:
		keep := r.field(saltIslands, 10)
		for _, t := range r.m.Tiles {
			if t.IsWater() {
				continue
			}
			if sample(keep, t) <= archipelagoKeep-offset {
				r.setTerrain(t, ruleset.Ocean)
			}
		}
		r.sizeIslands()
	}
}

// centerDistance is 0 at the map center and about 1 at the rim.
func (r *generation) centerDistance(t *world.Tile, bounds world.Rect) float64 {
	if r.params.Shape == world.Hexagonal {
		if r.m.Radius() == 0 {
			return 0
		}
		return float64(t.Coord.Length()) / float64(r.m.Radius())
	}
	o := t.Coord.ToOffset()
	cx := float64(bounds.MinCol+bounds.MaxCol) / 2
	cy := float64(bounds.MinRow+bounds.MaxRow) / 2
	dx := math.Abs(float64(o.Col)-cx) / math.Max(1, float64(bounds.Width())/2)
	dy := math.Abs(float64(o.Row)-cy) / math.Max(1, float64(bounds.Height())/2)
	return math.Max(dx, dy)
}

// sizeIslands removes islands under three tiles, erodes large ones and trims
// any island reaching a tenth of the grid from its far side, until stable.
func (r *generation) sizeIslands() {
	erode := r.field(saltIslandErode, 10)
	total := r.m.Len()
	for pass := 0; ; pass++ {
		changed := false
		for _, island := range r.m.Components((*world.Tile).IsLand) {
			if len(island) < minIslandSize {
				for _, t := range island {
					r.sink(t, ruleset.Ocean)
				}
				changed = true
				continue
			}
			if len(island) <= largeIsland {
				continue
			}
			cx, cy := centroid(island)
			remaining := island[:0:0]
			for _, t := range island {
				if pass == 0 && pixelDistance(t, cx, cy) > islandErodeReach && sample(erode, t) < 0.3 {
					r.sink(t, ruleset.Ocean)
					changed = true
					continue
				}
				remaining = append(remaining, t)
			}
			if len(remaining)*10 < total {
				continue
			}
			slices.SortStableFunc(remaining, func(a, b *world.Tile) int {
				return cmp.Compare(pixelDistance(b, cx, cy), pixelDistance(a, cx, cy))
			})
			for len(remaining)*10 >= total {
				r.sink(remaining[0], ruleset.Ocean)
				remaining = remaining[1:]
				changed = true
			}
		}
		if !changed {
			return
		}
	}
}

// sinkSmallIslands drops land groups under three tiles.
func (r *generation) sinkSmallIslands(land func(*world.Tile) bool) {
	for _, island := range r.m.Components(land) {
		if len(island) >= minIslandSize {
			continue
		}
		for _, t := range island {
			r.sink(t, ruleset.Ocean)
		}
	}
}

func centroid(tiles []*world.Tile) (x, y float64) {
	for _, t := range tiles {
		px, py := t.Coord.ToPixel()
		x += px
		y += py
	}
	n := float64(max(len(tiles), 1))
	return x / n, y / n
}

func pixelDistance(t *world.Tile, x, y float64) float64 {
	px, py := t.Coord.ToPixel()
	return math.Hypot(px-x, py-y)
}

// climatePass turns base land into climate terrain from latitude, noise
// temperature and noise humidity.
func (r *generation) climatePass() {
	temperature := r.field(saltTemperature, 25)
	humidity := r.field(saltHumidity, 25)
	for _, t := range r.m.Tiles {
		if t.Terrain != ruleset.Grassland {
			continue
		}
		lat := r.m.Latitude(t)
		temp := 0.8 - 1.8*lat + 0.35*sample(temperature, t)
		hum := (sample(humidity, t) + 1) / 2
		var name string
		switch {
		case temp < -0.55:
			name = ruleset.Snow
		case temp < -0.2:
			name = ruleset.Tundra
		case temp > 0.5 && hum < 0.35:
			name = ruleset.Desert
		case hum < 0.5:
			name = ruleset.Plains
		default:
			continue
		}
		r.setTerrain(t, name)
	}
}

// reliefPass raises the highest land into mountains and the next band into
// hills.
func (r *generation) reliefPass() {
	elevation := r.field(saltElevation, featureScale)
	type scored struct {
		t    *world.Tile
		elev float64
	}
	var land []scored
	for _, t := range r.m.Tiles {
		if t.IsLand() && !t.IsImpassable() {
			land = append(land, scored{t, sample(elevation, t)})
		}
	}
	slices.SortStableFunc(land, func(a, b scored) int {
		return cmp.Compare(b.elev, a.elev)
	})

	mountains := int(float64(len(land)) * mountainShare)
	if _, ok := r.terrain(ruleset.Mountain); !ok {
		mountains = 0
	}
	for _, s := range land[:mountains] {
		s.t.ClearFeatures()
		r.setTerrain(s.t, ruleset.Mountain)
	}
	hills := int(float64(len(land)) * hillShare)
	for _, s := range land[mountains:min(len(land), mountains+hills)] {
		r.addFeature(s.t, ruleset.Hills)
	}
}

// featurePass scatters vegetation, wetlands, oases and ice.
func (r *generation) featurePass() {
	grass := r.field(saltGrassland, featureScale)
	plains := r.field(saltPlains, featureScale)
	desert := r.field(saltDesert, featureScale)
	tundra := r.field(saltTundra, featureScale)
	water := r.field(saltWater, featureScale)

	for _, t := range r.m.Tiles {
		switch t.Terrain {
		case ruleset.Coast, ruleset.Ocean:
			if sample(water, t) > 0.7 {
				r.addFeature(t, ruleset.Ice)
			}
		case ruleset.Grassland:
			n := sample(grass, t)
			switch {
			case n > 0.6 && r.m.Latitude(t) < 0.25:
				if !r.addFeature(t, ruleset.Jungle) {
					r.addFeature(t, ruleset.Forest)
				}
			case n > 0.6:
				r.addFeature(t, ruleset.Forest)
			case n < -0.6:
				r.addFeature(t, ruleset.Marsh)
			}
		case ruleset.Plains:
			if sample(plains, t) > 0.5 {
				r.addFeature(t, ruleset.Forest)
			}
		case ruleset.Desert:
			n := sample(desert, t)
			switch {
			case n > 0.7:
				r.addFeature(t, ruleset.Oasis)
			case n < -0.6:
				r.addFeature(t, ruleset.FloodPlains)
			}
		case ruleset.Tundra:
			if sample(tundra, t) > 0.5 {
				r.addFeature(t, ruleset.Forest)
			}
		}
	}
}

// naturalWonderPass places up to one wonder per 160 tiles on featureless
// passable land, keeping wonders five tiles apart.
func (r *generation) naturalWonderPass() int {
	if r.params.NoNaturalWonders {
		return 0
	}
	wonders := r.rules.NaturalWonders()
	want := min(r.m.Len()/wonderTileRatio, len(wonders))
	if want == 0 {
		return 0
	}
	candidates := r.m.TilesWhere(func(t *world.Tile) bool {
		return t.IsLand() && !t.IsImpassable() && len(t.Features) == 0
	})
	r.rng.Shuffle(len(candidates), func(i, j int) { candidates[i], candidates[j] = candidates[j], candidates[i] })
	order := r.rng.Perm(len(wonders))

	var placed []*world.Tile
	for _, wi := range order {
		if len(placed) == want {
			break
		}
		w := wonders[wi]
		for _, t := range candidates {
			if len(t.Features) > 0 || !w.OccursOnTerrain(t.Terrain) || r.near(t, placed, wonderSpacing) {
				continue
			}
			t.AddFeature(w)
			placed = append(placed, t)
			break
		}
	}
	return len(placed)
}

// near reports whether t lies closer than dist to any of others.
func (r *generation) near(t *world.Tile, others []*world.Tile, dist int) bool {
	for _, o := range others {
		if r.m.Distance(t.Coord, o.Coord) < dist {
			return true
		}
	}
	return false
}
