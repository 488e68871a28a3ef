package mapgen

import (
	"github.com/talgya/hexforge/internal/ruleset"
	"github.com/talgya/hexforge/internal/world"
)

// quality classifies a tile for start scoring.
type quality uint8

const (
	qualityFood quality = 1 << iota // 2+ food
	qualityProduction               // 2+ production
	qualityGood                     // 3+ total yield
	qualityJunk                     // nothing worth working
)

func (q quality) has(f quality) bool { return q&f != 0 }

const (
	impactRadius = 6
	impactCap    = 97
	impactGrowth = 1.2
)

func (r *generation) yield(t *world.Tile) ruleset.Yield {
	return r.rules.TileYield(t.Terrain, t.Features, t.Resource)
}

func (r *generation) quality(t *world.Tile) quality {
	if t.IsImpassable() {
		return qualityJunk
	}
	y := r.yield(t)
	var q quality
	if y.Food >= 2 {
		q |= qualityFood
	}
	if y.Production >= 2 {
		q |= qualityProduction
	}
	if y.Total() >= 3 {
		q |= qualityGood
	}
	if y.Total() == 0 || (t.IsLand() && y.Food == 0 && y.Production < 2) {
		q |= qualityJunk
	}
	return q
}

// fertility weighs a tile's yields for region partitioning.
func (r *generation) fertility(t *world.Tile) int {
	if t.IsWater() || t.IsImpassable() {
		return 0
	}
	y := r.rules.TileYield(t.Terrain, t.Features, "")
	f := y.Food*3 + y.Production*2 + y.Gold
	if r.m.IsCoastal(t) {
		f += 2
	}
	return max(f, 0)
}

// ringWeights scale tile contributions by distance from a candidate start.
var ringWeights = [4]float64{0, 1.0, 0.8, 0.5}

// startScore rates a candidate start from the qualities of rings 1 to 3,
// reduced by the proximity penalty left by earlier starts.
func (r *generation) startScore(t *world.Tile) float64 {
	score := 0.0
	for ring := 1; ring <= 3; ring++ {
		w := ringWeights[ring]
		for _, n := range r.m.TilesAtDistance(t.Coord, ring) {
			q := r.quality(n)
			if q.has(qualityFood) {
				score += 2 * w
			}
			if q.has(qualityProduction) {
				score += 1.5 * w
			}
			if q.has(qualityGood) {
				score += w
			}
			if q.has(qualityJunk) {
				score -= 1.5 * w
			}
		}
	}
	if r.m.IsCoastal(t) {
		score += 2
	}
	return score * float64(100-r.impact[t.Index()]) / 100
}

// stampImpact records the proximity penalty of a new start. Overlapping
// penalties grow by a fifth, capped at 97.
func (r *generation) stampImpact(center *world.Tile) {
	for _, t := range r.m.TilesInDistance(center.Coord, impactRadius) {
		d := r.m.Distance(center.Coord, t.Coord)
		v := (impactRadius + 1 - d) * 100 / (impactRadius + 1)
		if old := r.impact[t.Index()]; old > 0 {
			v = int(float64(max(old, v)) * impactGrowth)
		}
		r.impact[t.Index()] = min(v, impactCap)
	}
}

// tileEnv builds the view resource conditions are evaluated against.
func (r *generation) tileEnv(t *world.Tile) ruleset.TileEnv {
	env := ruleset.TileEnv{
		Terrain:  t.Terrain,
		Features: t.Features,
		Latitude: r.m.Latitude(t),
	}
	for _, n := range r.m.Neighbors(t.Coord) {
		env.Neighbors = append(env.Neighbors, n.Terrain)
		if n.IsWater() != t.IsWater() {
			env.Coastal = true
		}
	}
	return env
}

// canHold reports whether res may be placed on t.
func (r *generation) canHold(t *world.Tile, res *ruleset.Resource) (bool, error) {
	if t.Resource != "" || t.IsNaturalWonder() || r.isStart[t.Index()] {
		return false, nil
	}
	if !res.CompatibleWith(t.Terrain, t.Features) {
		return false, nil
	}
	return res.Allows(r.tileEnv(t))
}

func (r *generation) placeResource(t *world.Tile, res *ruleset.Resource, amount int) {
	t.Resource = res.Name
	t.ResourceAmount = amount
}
