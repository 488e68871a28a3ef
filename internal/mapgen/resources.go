package mapgen

import (
	"fmt"
	"math"

	"github.com/talgya/hexforge/internal/ruleset"
	"github.com/talgya/hexforge/internal/world"
)

const (
	resourceSpacing   = 2
	fallbackThreshold = 0.8
	balanceReach      = 3
)

// fallbackResources maps base terrains to the bonus resource the random
// fallback pass may put on them.
var fallbackResources = map[string]string{
	ruleset.Grassland: ruleset.Cattle,
	ruleset.Plains:    ruleset.Wheat,
	ruleset.Desert:    ruleset.Sheep,
	ruleset.Tundra:    ruleset.Deer,
}

func (r *generation) resourceScale() float64 {
	switch r.params.Resources {
	case world.ResourcesSparse:
		return 0.66
	case world.ResourcesAbundant:
		return 1.5
	}
	return 1
}

func (r *generation) resourceStage() (string, error) {
	before := r.countResources()
	if err := r.placeStrategicAndBonus(); err != nil {
		return "", err
	}
	if r.params.StrategicBalance {
		if err := r.balanceStrategics(); err != nil {
			return "", err
		}
	}
	if err := r.placeLuxuries(); err != nil {
		return "", err
	}
	fallback, err := r.placeFallback()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d resources placed, %d by fallback", r.countResources()-before, fallback), nil
}

func (r *generation) countResources() int {
	return countWhere(r.m.Tiles, func(t *world.Tile) bool { return t.Resource != "" })
}

// placeStrategicAndBonus places one deposit per Frequency compatible tiles
// for every strategic and bonus resource, in declaration order, keeping
// equal resources apart.
func (r *generation) placeStrategicAndBonus() error {
	for _, res := range r.rules.Resources {
		if res.Type == ruleset.Luxury || res.Frequency <= 0 {
			continue
		}
		var candidates []*world.Tile
		for _, t := range r.m.Tiles {
			ok, err := r.canHold(t, res)
			if err != nil {
				return err
			}
			if ok {
				candidates = append(candidates, t)
			}
		}
		want := int(math.Round(float64(len(candidates)) / float64(res.Frequency) * r.resourceScale()))
		if want == 0 {
			continue
		}
		r.rng.Shuffle(len(candidates), func(i, j int) { candidates[i], candidates[j] = candidates[j], candidates[i] })

		amount := 0
		if res.Type == ruleset.Strategic {
			amount = res.MajorAmount
		}
		var placed []*world.Tile
		for _, t := range candidates {
			if len(placed) == want {
				break
			}
			if t.Resource != "" || r.near(t, placed, resourceSpacing) {
				continue
			}
			r.placeResource(t, res, amount)
			placed = append(placed, t)
		}
		r.log.Debug("placed resource", "resource", res.Name, "count", len(placed), "candidates", len(candidates))
	}
	return nil
}

// balanceStrategics gives every major start at least one deposit of each of
// the first two strategic resources within reach.
func (r *generation) balanceStrategics() error {
	strategics := r.rules.ResourcesOfType(ruleset.Strategic)
	strategics = strategics[:min(2, len(strategics))]
	for _, s := range r.majors {
		around := r.m.TilesInDistance(s.tile.Coord, balanceReach)
		for _, res := range strategics {
			if countWhere(around, func(t *world.Tile) bool { return t.Resource == res.Name }) > 0 {
				continue
			}
			editable := func(t *world.Tile) bool { return r.m.Distance(t.Coord, s.tile.Coord) >= 2 }
			if _, err := r.placeNear(around, editable, []*ruleset.Resource{res}, true); err != nil {
				return err
			}
		}
	}
	return nil
}

// placeFallback puts a terrain-matched bonus resource on land whose fallback
// noise sample clears a high threshold.
func (r *generation) placeFallback() (int, error) {
	f := r.field(saltFallback, featureScale)
	placed := 0
	for _, t := range r.m.Tiles {
		if t.IsWater() || t.Resource != "" || t.Terrain == ruleset.Mountain ||
			t.HasFeature(ruleset.Oasis) || t.IsNaturalWonder() {
			continue
		}
		name, ok := fallbackResources[t.Terrain]
		if !ok || sample(f, t) <= fallbackThreshold {
			continue
		}
		res, ok := r.rules.Resource(name)
		if !ok || !res.CompatibleWith(t.Terrain, t.Features) {
			continue
		}
		allowed, err := res.Allows(r.tileEnv(t))
		if err != nil {
			return placed, err
		}
		if !allowed {
			continue
		}
		amount := 0
		if res.Type == ruleset.Strategic {
			amount = res.MajorAmount
		}
		r.placeResource(t, res, amount)
		placed++
	}
	return placed, nil
}
