package mapgen

import (
	"fmt"
	"math"

	"github.com/talgya/hexforge/internal/ruleset"
	"github.com/talgya/hexforge/internal/social"
	"github.com/talgya/hexforge/internal/world"
)

const (
	majorSpacing     = 3
	cityStateSpacing = 4
	spreadSparsity   = 1.0
)

// searchFractions are the centered rectangles searched in turn, as shares of
// the region's bounds.
var searchFractions = [3]float64{1.0 / 3, 2.0 / 3, 1}

func (r *generation) startStage(majors []social.Faction) (string, error) {
	if len(majors) == 0 {
		return "no majors requested", nil
	}
	placed := make([]bool, len(majors))
	regional := false
	for _, reg := range r.regions {
		if reg.faction < 0 {
			continue
		}
		regional = true
		f := majors[reg.faction]
		placed[reg.faction] = true
		t := r.findStart(reg.tiles, reg.bounds, majorSpacing)
		if t == nil {
			r.unplace(f, fmt.Sprintf("no suitable tile in region %d", reg.id))
			continue
		}
		if err := r.claim(t, f, reg); err != nil {
			return "", err
		}
	}

	if !regional {
		if err := r.spreadStarts(majors, majorSpacing); err != nil {
			return "", err
		}
	} else {
		for i, ok := range placed {
			if !ok {
				r.unplace(majors[i], "no region left")
			}
		}
	}
	return fmt.Sprintf("%d of %d majors placed", len(r.majors), len(majors)), nil
}

func (r *generation) unplace(f social.Faction, reason string) {
	r.log.Warn("faction not placed", "nation", f.Name, "kind", f.Kind, "reason", reason)
	r.unplaced = append(r.unplaced, Unplaced{Nation: f.Name, Kind: f.Kind, Reason: reason})
}

// claim records a start for f on t.
func (r *generation) claim(t *world.Tile, f social.Faction, reg *region) error {
	usage := world.UsageNormal
	if f.Kind == social.Major && f.Human {
		usage = world.UsagePlayer
	}
	if _, err := r.m.AddStartingLocation(t.Coord, f.Name, usage); err != nil {
		return err
	}
	r.isStart[t.Index()] = true
	r.stampImpact(t)
	ps := placedStart{faction: f, tile: t, region: reg}
	if f.Kind == social.CityState {
		t.CityStateStart = true
		r.minors = append(r.minors, ps)
		if reg != nil {
			reg.minors++
		}
		return nil
	}
	if reg != nil {
		reg.start = t
	}
	r.majors = append(r.majors, ps)
	return nil
}

// suitable is the start filter. The strict form keeps capitals off snow and
// bare desert; relaxed accepts any passable land.
func (r *generation) suitable(t *world.Tile, relaxed bool, minDist int) bool {
	if !t.IsContinentLand() || r.isStart[t.Index()] {
		return false
	}
	if !relaxed {
		if t.Terrain == ruleset.Snow {
			return false
		}
		if t.Terrain == ruleset.Desert && !t.HasFeature(ruleset.FloodPlains) && !t.HasFeature(ruleset.Oasis) {
			return false
		}
	}
	return minDist <= 1 || !r.nearStart(t, minDist)
}

// nearStart reports whether a start lies closer than dist to t.
func (r *generation) nearStart(t *world.Tile, dist int) bool {
	for _, group := range [][]placedStart{r.majors, r.minors} {
		for _, s := range group {
			if r.m.Distance(t.Coord, s.tile.Coord) < dist {
				return true
			}
		}
	}
	return false
}

// findStart picks the best start among tiles. It searches the center third
// of bounds, then the middle two thirds, then everything, preferring coastal
// tiles at each step. Spacing and terrain limits relax in stages; nil means
// no tile qualified.
func (r *generation) findStart(tiles []*world.Tile, bounds world.Rect, minDist int) *world.Tile {
	attempts := []struct {
		relaxed bool
		dist    int
	}{
		{false, minDist},
		{false, minDist / 2},
		{true, minDist / 2},
		{true, 0},
	}
	member := make([]bool, r.m.Len())
	for _, t := range tiles {
		member[t.Index()] = true
	}
	for _, a := range attempts {
		for _, frac := range searchFractions {
			rect := bounds
			if frac < 1 {
				rect = bounds.Shrink(frac)
			}
			var coastal, inland []*world.Tile
			for _, t := range r.m.TilesInRect(rect) {
				if !member[t.Index()] || !r.suitable(t, a.relaxed, a.dist) {
					continue
				}
				if r.m.IsCoastal(t) {
					coastal = append(coastal, t)
				} else {
					inland = append(inland, t)
				}
			}
			if best := r.bestStart(coastal); best != nil {
				return best
			}
			if best := r.bestStart(inland); best != nil {
				return best
			}
		}
	}
	return nil
}

// bestStart returns the highest scoring tile, lowest index on ties.
func (r *generation) bestStart(tiles []*world.Tile) *world.Tile {
	var best *world.Tile
	bestScore := math.Inf(-1)
	for _, t := range tiles {
		s := r.startScore(t)
		if s > bestScore || (s == bestScore && t.Index() < best.Index()) {
			best, bestScore = t, s
		}
	}
	return best
}

// spreadStarts places factions without regions: each takes the best tile at
// least d away from every start, with d shrinking from a size-derived value
// down to 1. Less used base terrains win over score to keep starts varied.
func (r *generation) spreadStarts(factions []social.Faction, floor int) error {
	candidates := r.m.TilesWhere(func(t *world.Tile) bool { return r.suitable(t, false, 0) })
	if len(candidates) == 0 {
		candidates = r.m.TilesWhere(func(t *world.Tile) bool { return r.suitable(t, true, 0) })
	}

	extent := float64(r.m.Radius())
	if r.params.Shape == world.Rectangular {
		extent = float64(max(r.m.Width(), r.m.Height())) / 2
	}
	spread := math.Max(1, hexRadiusForArea(len(factions)))
	initial := max(int(math.Round(extent*0.666/math.Pow(spread, 0.9)*spreadSparsity)), floor, 1)

	used := make(map[string]int)
	for _, f := range factions {
		var pick *world.Tile
		for d := initial; d >= 1 && pick == nil; d-- {
			bestScore := math.Inf(-1)
			for _, t := range candidates {
				if r.isStart[t.Index()] || (d > 1 && r.nearStart(t, d)) {
					continue
				}
				s := r.startScore(t)
				if pick == nil || used[t.Terrain] < used[pick.Terrain] ||
					(used[t.Terrain] == used[pick.Terrain] && s > bestScore) {
					pick, bestScore = t, s
				}
			}
		}
		if pick == nil {
			r.unplace(f, "no suitable tile on the map")
			continue
		}
		used[pick.Terrain]++
		if err := r.claim(pick, f, nil); err != nil {
			return err
		}
	}
	return nil
}

// hexRadiusForArea is the radius of a hexagon covering n tiles.
func hexRadiusForArea(n int) float64 {
	if n <= 1 {
		return 0
	}
	return (math.Sqrt(float64(12*n-3)) - 3) / 6
}
