package mapgen

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"github.com/talgya/hexforge/internal/ruleset"
	"github.com/talgya/hexforge/internal/world"
)

const (
	continentTarget  = 3
	maxSplitAttempts = 8
	channelWidth     = 0.6
)

func (r *generation) continentStage() (string, error) {
	if err := r.m.AssignContinents(world.Assign); err != nil {
		return "", err
	}
	if r.params.Archetype == world.Continents {
		if err := r.correctContinents(); err != nil {
			return "", err
		}
	}
	return fmt.Sprintf("%d continents", len(r.m.ContinentSizes)), nil
}

// correctContinents splits or bridges landmasses toward a typical count.
func (r *generation) correctContinents() error {
	for attempt := 0; attempt < maxSplitAttempts && len(r.m.ContinentSizes) < continentTarget; attempt++ {
		if !r.splitLargest() {
			break
		}
		if err := r.m.AssignContinents(world.Reassign); err != nil {
			return err
		}
	}
	if len(r.m.ContinentSizes) > continentTarget+1 {
		r.mergeSmallest()
	}
	coastalPass(r.m, r.rules)
	return r.m.AssignContinents(world.Reassign)
}

// splitLargest carves a channel through the biggest continent wide enough
// to split. It reports false when no continent can be split.
func (r *generation) splitLargest() bool {
	ids := r.m.ContinentIDs()
	slices.SortStableFunc(ids, func(a, b int) int {
		return cmp.Compare(r.m.ContinentSizes[b], r.m.ContinentSizes[a])
	})
	for _, id := range ids {
		tiles := r.m.ContinentTiles(id)
		far, d := r.farthestPair(tiles)
		if d < 2 {
			continue
		}
		angle := r.rng.Float64() * math.Pi
		if channel := lineChannel(tiles, angle); r.separates(tiles, channel) {
			r.flood(channel)
		} else {
			r.flood(r.bisector(tiles, far[0], far[1]))
		}
		r.log.Debug("split continent", "continent", id, "tiles", len(tiles), "angle", angle)
		return true
	}
	return false
}

// lineChannel returns the tiles within channelWidth of the line through the
// centroid at angle, in pixel space.
func lineChannel(tiles []*world.Tile, angle float64) []*world.Tile {
	cx, cy := centroid(tiles)
	nx, ny := -math.Sin(angle), math.Cos(angle)
	var out []*world.Tile
	for _, t := range tiles {
		x, y := t.Coord.ToPixel()
		if math.Abs((x-cx)*nx+(y-cy)*ny) < channelWidth {
			out = append(out, t)
		}
	}
	return out
}

// separates reports whether removing channel leaves tiles in at least two
// connected pieces.
func (r *generation) separates(tiles, channel []*world.Tile) bool {
	if len(channel) == 0 {
		return false
	}
	keep := make(map[*world.Tile]bool, len(tiles))
	for _, t := range tiles {
		keep[t] = true
	}
	for _, t := range channel {
		delete(keep, t)
	}
	pieces := r.m.Components(func(t *world.Tile) bool { return keep[t] })
	return len(pieces) >= 2
}

// bisector returns the tiles about equally far from a and b inside tiles.
// Any path from a to b crosses it, so removing it always splits the two.
func (r *generation) bisector(tiles []*world.Tile, a, b *world.Tile) []*world.Tile {
	da := r.graphDistances(tiles, a)
	db := r.graphDistances(tiles, b)
	var out []*world.Tile
	for _, t := range tiles {
		diff := da[t] - db[t]
		if diff >= -1 && diff <= 1 {
			out = append(out, t)
		}
	}
	return out
}

// graphDistances runs a breadth-first search from src restricted to tiles.
func (r *generation) graphDistances(tiles []*world.Tile, src *world.Tile) map[*world.Tile]int {
	member := make(map[*world.Tile]bool, len(tiles))
	for _, t := range tiles {
		member[t] = true
	}
	dist := map[*world.Tile]int{src: 0}
	queue := []*world.Tile{src}
	for head := 0; head < len(queue); head++ {
		cur := queue[head]
		for _, n := range r.m.Neighbors(cur.Coord) {
			if _, seen := dist[n]; seen || !member[n] {
				continue
			}
			dist[n] = dist[cur] + 1
			queue = append(queue, n)
		}
	}
	return dist
}

// farthestPair approximates the graph diameter of a connected tile set with
// a double sweep.
func (r *generation) farthestPair(tiles []*world.Tile) ([2]*world.Tile, int) {
	if len(tiles) == 0 {
		return [2]*world.Tile{}, 0
	}
	a := farthest(tiles, r.graphDistances(tiles, tiles[0]))
	dist := r.graphDistances(tiles, a)
	b := farthest(tiles, dist)
	return [2]*world.Tile{a, b}, dist[b]
}

// farthest picks the tile with the greatest distance, first in map order on
// ties.
func farthest(tiles []*world.Tile, dist map[*world.Tile]int) *world.Tile {
	best := tiles[0]
	for _, t := range tiles[1:] {
		if dist[t] > dist[best] {
			best = t
		}
	}
	return best
}

func (r *generation) flood(tiles []*world.Tile) {
	for _, t := range tiles {
		r.sink(t, ruleset.Ocean)
	}
}

// mergeSmallest bridges the smallest continents to their nearest neighbor
// until the target count remains.
func (r *generation) mergeSmallest() {
	ids := r.m.ContinentIDs()
	slices.SortStableFunc(ids, func(a, b int) int {
		return cmp.Compare(r.m.ContinentSizes[a], r.m.ContinentSizes[b])
	})
	type mass struct {
		id     int
		anchor *world.Tile
		x, y   float64
	}
	masses := make([]mass, len(ids))
	for i, id := range ids {
		tiles := r.m.ContinentTiles(id)
		x, y := centroid(tiles)
		masses[i] = mass{id: id, anchor: nearestTo(tiles, x, y), x: x, y: y}
	}

	for len(masses) > continentTarget {
		small := masses[0]
		masses = masses[1:]
		nearest := masses[0]
		for _, m := range masses[1:] {
			if math.Hypot(m.x-small.x, m.y-small.y) < math.Hypot(nearest.x-small.x, nearest.y-small.y) {
				nearest = m
			}
		}
		r.bridge(small.anchor.Coord, nearest.anchor.Coord)
		r.log.Debug("bridged continent", "from", small.id, "to", nearest.id)
	}
}

func nearestTo(tiles []*world.Tile, x, y float64) *world.Tile {
	best := tiles[0]
	for _, t := range tiles[1:] {
		if pixelDistance(t, x, y) < pixelDistance(best, x, y) {
			best = t
		}
	}
	return best
}

// bridge lays a land strip from a to b and coasts its ocean neighbors.
func (r *generation) bridge(a, b world.HexCoord) {
	land := ruleset.Plains
	if _, ok := r.terrain(land); !ok {
		land = ruleset.Grassland
	}
	for _, c := range world.Line(a, b) {
		t, ok := r.m.Get(c)
		if !ok {
			continue
		}
		if t.IsWater() || t.IsImpassable() {
			t.ClearFeatures()
			t.ClearResource()
			r.setTerrain(t, land)
		}
		for _, n := range r.m.Neighbors(t.Coord) {
			if n.Terrain == ruleset.Ocean {
				r.setTerrain(n, ruleset.Coast)
			}
		}
	}
}
