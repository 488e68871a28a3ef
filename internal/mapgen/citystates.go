package mapgen

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/talgya/hexforge/internal/social"
	"github.com/talgya/hexforge/internal/world"
)

const (
	cityStatesPerLeftover = 3
	// cityStateReach bounds the search around a full region.
	cityStateReach = 6
)

// cityStateStage places minor factions: up to half go to continents no major
// lives on, at most three each, and the rest rotate over the major regions.
// A minor whose region has no room settles just outside it, and failing that
// looks anywhere on the map.
func (r *generation) cityStateStage(minors []social.Faction) (string, error) {
	if len(minors) == 0 {
		return "no city states requested", nil
	}

	var leftovers, inhabited []*region
	for _, reg := range r.regions {
		switch {
		case reg.leftover:
			leftovers = append(leftovers, reg)
		case len(reg.tiles) > 0:
			inhabited = append(inhabited, reg)
		}
	}
	slices.SortStableFunc(leftovers, func(a, b *region) int { return cmp.Compare(b.fertility, a.fertility) })

	targets := make([]*region, len(minors))
	next := 0
	quota := len(minors) / 2
	if len(inhabited) == 0 {
		quota = len(minors)
	}
	for round := 0; round < cityStatesPerLeftover && next < quota; round++ {
		for _, reg := range leftovers {
			if next == quota {
				break
			}
			targets[next] = reg
			next++
		}
	}
	for i := next; i < len(minors) && len(inhabited) > 0; i++ {
		targets[i] = inhabited[(i-next)%len(inhabited)]
	}

	var landTiles []*world.Tile
	for i, f := range minors {
		f.Kind = social.CityState
		var t *world.Tile
		reg := targets[i]
		if reg != nil {
			t = r.findStart(reg.tiles, reg.bounds, cityStateSpacing)
			if t == nil {
				t = r.startNear(reg)
			}
		}
		if t == nil {
			reg = nil
			if landTiles == nil {
				landTiles = r.m.TilesWhere((*world.Tile).IsContinentLand)
			}
			t = r.findStart(landTiles, r.m.Bounds(), cityStateSpacing)
		}
		if t == nil {
			r.unplace(f, "no suitable tile on the map")
			continue
		}
		if err := r.claim(t, f, reg); err != nil {
			return "", err
		}
		if _, err := r.normalize(t, true); err != nil {
			return "", fmt.Errorf("normalize %s: %w", f.Name, err)
		}
	}
	if err := r.refreshContinents(); err != nil {
		return "", err
	}
	return fmt.Sprintf("%d of %d city states placed", len(r.minors), len(minors)), nil
}

// startNear walks rings outward from the middle of reg for passable land
// that keeps half the city state spacing.
func (r *generation) startNear(reg *region) *world.Tile {
	if len(reg.tiles) == 0 {
		return nil
	}
	mid := world.Offset{
		Col: (reg.bounds.MinCol + reg.bounds.MaxCol) / 2,
		Row: (reg.bounds.MinRow + reg.bounds.MaxRow) / 2,
	}.ToAxial()
	t, err := r.m.FindPlacementNear(r.m.Canonicalize(mid), cityStateReach, func(t *world.Tile) bool {
		return r.suitable(t, true, cityStateSpacing/2)
	})
	if err != nil {
		r.log.Debug("no room around region", "region", reg.id, "error", err)
		return nil
	}
	return t
}
