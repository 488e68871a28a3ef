package mapgen

import (
	"cmp"
	"slices"

	"github.com/talgya/hexforge/internal/ruleset"
	"github.com/talgya/hexforge/internal/world"
)

const (
	luxuriesPerMajor   = 2
	luxuriesPerMinor   = 1
	luxuryStartReach   = 3
	luxuryScatterRatio = 200
	luxurySpacing      = 3
)

// maxRegionsPerLuxury limits how many regions share one luxury.
func maxRegionsPerLuxury(regions int) int {
	switch {
	case regions > 12:
		return 3
	case regions > 8:
		return 2
	}
	return 1
}

// placeLuxuries gives each region a luxury of its own, then one unclaimed
// luxury to each city state and scatters whatever is left. Maps without
// regions get no luxuries from this pass.
func (r *generation) placeLuxuries() error {
	luxuries := r.rules.ResourcesOfType(ruleset.Luxury)
	if len(r.regions) == 0 || len(luxuries) == 0 {
		return nil
	}

	limit := maxRegionsPerLuxury(len(r.regions))
	picked := make(map[string]int)
	for _, reg := range r.regions {
		if len(reg.tiles) == 0 {
			continue
		}
		res, err := r.pickLuxury(reg, luxuries, picked, limit)
		if err != nil {
			return err
		}
		if res == nil {
			continue
		}
		picked[res.Name]++
		reg.luxury = res.Name

		tiles := slices.Clone(reg.tiles)
		count := luxuriesPerMajor
		if reg.start != nil {
			start := reg.start.Coord
			slices.SortStableFunc(tiles, func(a, b *world.Tile) int {
				return cmp.Compare(r.m.Distance(a.Coord, start), r.m.Distance(b.Coord, start))
			})
		} else {
			count = luxuriesPerMinor
		}
		if _, err := r.scatter(res, tiles, count, luxurySpacing); err != nil {
			return err
		}
	}

	// One unclaimed luxury next to each city state.
	for _, cs := range r.minors {
		around := r.m.TilesInDistance(cs.tile.Coord, luxuryStartReach)
		for _, res := range luxuries {
			if picked[res.Name] > 0 {
				continue
			}
			n, err := r.scatter(res, around, luxuriesPerMinor, 1)
			if err != nil {
				return err
			}
			if n > 0 {
				break
			}
		}
	}

	// Leftovers go anywhere.
	for _, res := range luxuries {
		if picked[res.Name] > 0 {
			continue
		}
		tiles := slices.Clone(r.m.Tiles)
		r.rng.Shuffle(len(tiles), func(i, j int) { tiles[i], tiles[j] = tiles[j], tiles[i] })
		if _, err := r.scatter(res, tiles, r.m.Len()/luxuryScatterRatio+1, luxurySpacing); err != nil {
			return err
		}
	}
	return nil
}

// pickLuxury draws a luxury for reg, weighted by how many of its tiles can
// hold it and how rarely it has been picked.
func (r *generation) pickLuxury(reg *region, luxuries []*ruleset.Resource, picked map[string]int, limit int) (*ruleset.Resource, error) {
	weights := make([]float64, len(luxuries))
	total := 0.0
	for i, res := range luxuries {
		if picked[res.Name] >= limit {
			continue
		}
		n := 0
		for _, t := range reg.tiles {
			ok, err := r.canHold(t, res)
			if err != nil {
				return nil, err
			}
			if ok {
				n++
			}
		}
		weights[i] = float64(n) / float64(1+picked[res.Name])
		total += weights[i]
	}
	if total == 0 {
		return nil, nil
	}
	x := r.rng.Float64() * total
	for i, w := range weights {
		if w == 0 {
			continue
		}
		if x < w {
			return luxuries[i], nil
		}
		x -= w
	}
	// Rounding left x just past the last weight.
	for i := len(weights) - 1; i >= 0; i-- {
		if weights[i] > 0 {
			return luxuries[i], nil
		}
	}
	return nil, nil
}

// scatter places up to count deposits of res on tiles in order, spacing
// deposits of the same luxury apart. It returns how many were placed.
func (r *generation) scatter(res *ruleset.Resource, tiles []*world.Tile, count, spacing int) (int, error) {
	var placed []*world.Tile
	for _, t := range tiles {
		if len(placed) == count {
			break
		}
		ok, err := r.canHold(t, res)
		if err != nil {
			return len(placed), err
		}
		if !ok || r.near(t, placed, spacing) {
			continue
		}
		r.placeResource(t, res, 0)
		placed = append(placed, t)
	}
	return len(placed), nil
}
