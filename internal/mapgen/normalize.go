package mapgen

import (
	"fmt"

	"github.com/talgya/hexforge/internal/ruleset"
	"github.com/talgya/hexforge/internal/world"
)

// foodBonusTable maps a start's food score to the number of food bonuses it
// receives: the first threshold the score falls under wins.
type foodBonusTable []struct {
	below   float64
	bonuses int
}

var (
	majorFoodBonuses = foodBonusTable{{4, 3}, {8, 2}, {12, 1}}
	minorFoodBonuses = foodBonusTable{{4, 2}, {8, 1}}
)

func (tb foodBonusTable) bonuses(score float64) int {
	for _, row := range tb {
		if score < row.below {
			return row.bonuses
		}
	}
	return 0
}

func (r *generation) normalizeStage() (string, error) {
	added := 0
	for _, s := range r.majors {
		n, err := r.normalize(s.tile, false)
		if err != nil {
			return "", fmt.Errorf("normalize %s: %w", s.faction.Name, err)
		}
		added += n
	}
	if err := r.refreshContinents(); err != nil {
		return "", err
	}
	return fmt.Sprintf("%d starts, %d adjustments", len(r.majors), added), nil
}

// refreshContinents relabels the map when normalization changed which tiles
// count as continent land. Region continent ids follow their tiles.
func (r *generation) refreshContinents() error {
	if !r.staleContinents {
		return nil
	}
	r.staleContinents = false
	if err := r.m.AssignContinents(world.Reassign); err != nil {
		return err
	}
	for _, reg := range r.regions {
		if reg.continent != world.NoContinent && len(reg.tiles) > 0 {
			reg.continent = reg.tiles[0].ContinentID
		}
	}
	return nil
}

// normalize evens out the surroundings of a start. The start tile, natural
// wonders and impassable tiles are never changed. It returns the number of
// adjustments made and marks the continent labels stale when a tile within
// reach stopped or started counting as continent land.
func (r *generation) normalize(start *world.Tile, minor bool) (int, error) {
	ring := func(k int) []*world.Tile {
		return r.m.TilesAtDistance(start.Coord, k)
	}
	editable := func(t *world.Tile) bool { return t != start && !r.isStart[t.Index()] }
	reshapeable := func(t *world.Tile) bool { return editable(t) && !t.IsImpassable() && !t.IsNaturalWonder() }
	changes := 0

	around := r.m.TilesInDistance(start.Coord, 3)
	wasLand := make([]bool, len(around))
	for i, t := range around {
		wasLand[i] = t.IsContinentLand()
	}
	defer func() {
		for i, t := range around {
			if t.IsContinentLand() != wasLand[i] {
				r.staleContinents = true
				return
			}
		}
	}()

	// Clear impassable features such as ice from the first ring.
	for _, t := range ring(1) {
		if !editable(t) {
			continue
		}
		for _, name := range append([]string(nil), t.Features...) {
			if f, ok := r.rules.Feature(name); ok && f.Impassable && !f.IsNaturalWonder() {
				t.RemoveFeature(name, r.rules)
				r.dropIncompatibleResource(t)
				changes++
			}
		}
	}

	// Production.
	near := append(ring(1), ring(2)...)
	needProduction := 2
	if minor {
		needProduction = 1
	}
	if countWhere(near, func(t *world.Tile) bool { return !t.IsImpassable() && r.yield(t).Production >= 2 }) < needProduction {
		for _, t := range ring(1) {
			if reshapeable(t) && t.IsContinentLand() && !r.hasRelief(t) && r.addFeature(t, ruleset.Hills) {
				r.dropIncompatibleResource(t)
				changes++
				break
			}
		}
		ok, err := r.placeNear(ring(2), editable, r.rules.ResourcesOfType(ruleset.Strategic), true)
		if err != nil {
			return changes, err
		}
		if ok {
			changes++
		}
	}

	// At least one 2-food tile next to the start.
	if countWhere(ring(1), func(t *world.Tile) bool { return r.yield(t).Food >= 2 }) == 0 {
		for _, t := range ring(1) {
			if reshapeable(t) && t.Terrain == ruleset.Plains && r.setTerrain(t, ruleset.Grassland) {
				changes++
				break
			}
		}
	}

	// Food bonuses by food score.
	score := 0.0
	for k := 1; k <= 3; k++ {
		for _, t := range ring(k) {
			food := float64(r.yield(t).Food)
			score += food * food / 4
		}
	}
	table := majorFoodBonuses
	if minor {
		table = minorFoodBonuses
	}
	want := table.bonuses(score)
	for k := 1; k <= 3 && want > 0; k++ {
		for _, t := range ring(k) {
			if want == 0 {
				break
			}
			if !editable(t) || t.Resource != "" {
				continue
			}
			if t.Terrain == ruleset.Desert && len(t.Features) == 0 && r.addFeature(t, ruleset.Oasis) {
				want--
				changes++
				continue
			}
			placed, err := r.placeOn(t, foodBonuses(r.rules))
			if err != nil {
				return changes, err
			}
			if placed {
				want--
				changes++
			}
		}
	}

	// Grass-heavy starts lack hammers.
	land := countWhere(near, (*world.Tile).IsLand)
	grass := countWhere(near, func(t *world.Tile) bool { return t.Terrain == ruleset.Grassland && len(t.Features) == 0 })
	if land > 0 && grass*2 >= land {
		ok, err := r.placeNear(near, editable, productionBonuses(r.rules), false)
		if err != nil {
			return changes, err
		}
		if ok {
			changes++
		}
	}
	return changes, nil
}

func (r *generation) hasRelief(t *world.Tile) bool {
	for _, name := range t.Features {
		if f, ok := r.rules.Feature(name); ok && f.Category == ruleset.CategoryRelief {
			return true
		}
	}
	return false
}

// placeNear puts the first resource of candidates that fits on the first
// tile that can hold it. Strategic deposits get their minor amount.
func (r *generation) placeNear(tiles []*world.Tile, editable func(*world.Tile) bool, candidates []*ruleset.Resource, strategic bool) (bool, error) {
	for _, res := range candidates {
		for _, t := range tiles {
			if !editable(t) {
				continue
			}
			ok, err := r.canHold(t, res)
			if err != nil {
				return false, err
			}
			if !ok {
				continue
			}
			amount := 0
			if strategic {
				amount = max(res.MinorAmount, 1)
			}
			r.placeResource(t, res, amount)
			return true, nil
		}
	}
	return false, nil
}

// placeOn puts the first fitting resource of candidates on t.
func (r *generation) placeOn(t *world.Tile, candidates []*ruleset.Resource) (bool, error) {
	for _, res := range candidates {
		ok, err := r.canHold(t, res)
		if err != nil {
			return false, err
		}
		if ok {
			r.placeResource(t, res, 0)
			return true, nil
		}
	}
	return false, nil
}

func foodBonuses(rules *ruleset.Ruleset) []*ruleset.Resource {
	var out []*ruleset.Resource
	for _, res := range rules.ResourcesOfType(ruleset.Bonus) {
		if res.Yield.Food > 0 {
			out = append(out, res)
		}
	}
	return out
}

func productionBonuses(rules *ruleset.Ruleset) []*ruleset.Resource {
	var out []*ruleset.Resource
	for _, res := range rules.ResourcesOfType(ruleset.Bonus) {
		if res.Yield.Production > 0 {
			out = append(out, res)
		}
	}
	return out
}

func countWhere(tiles []*world.Tile, pred func(*world.Tile) bool) int {
	n := 0
	for _, t := range tiles {
		if pred(t) {
			n++
		}
	}
	return n
}
