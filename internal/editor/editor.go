// Package editor applies hand edits to a generated map while keeping its
// continent labels and resources consistent with the terrain.
package editor

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/talgya/hexforge/internal/ruleset"
	"github.com/talgya/hexforge/internal/world"
)

// ErrInvalidBrush reports a brush that cannot be applied.
var ErrInvalidBrush = errors.New("invalid brush")

// Editor edits one map. It is not safe for concurrent use.
type Editor struct {
	m     *world.Map
	rules *ruleset.Ruleset
	log   *slog.Logger
}

// New returns an editor for m. A nil logger uses slog.Default().
func New(m *world.Map, log *slog.Logger) *Editor {
	if log == nil {
		log = slog.Default()
	}
	return &Editor{m: m, rules: m.Rules(), log: log}
}

// Map returns the map being edited.
func (e *Editor) Map() *world.Map { return e.m }

// Paint applies b around center and returns how many tiles changed. Start
// brushes only touch the center. When a change alters which tiles count as
// continent land, or any terrain is repainted, continents are reassigned.
func (e *Editor) Paint(center world.HexCoord, b Brush) (int, error) {
	if err := b.validate(); err != nil {
		return 0, err
	}
	origin, ok := e.m.Get(center)
	if !ok {
		return 0, fmt.Errorf("paint %s at %v: %w", b.Kind, center, world.ErrOutOfBounds)
	}
	apply, err := e.action(b)
	if err != nil {
		return 0, err
	}

	painted, reshaped := 0, false
	for _, t := range e.brushTiles(origin, b) {
		land := t.IsContinentLand()
		if !apply(t) {
			continue
		}
		painted++
		if b.Kind == BrushTerrain || t.IsContinentLand() != land {
			reshaped = true
		}
	}
	if reshaped {
		if err := e.m.AssignContinents(world.Reassign); err != nil {
			return painted, fmt.Errorf("paint %s: %w", b.Kind, err)
		}
	}

	e.log.Debug("paint", "brush", b.Kind, "name", b.Name, "center", center, "size", b.Size,
		"painted", painted, "reassigned", reshaped)
	return painted, nil
}

func (e *Editor) brushTiles(origin *world.Tile, b Brush) []*world.Tile {
	switch {
	case b.Kind == BrushStart:
		return []*world.Tile{origin}
	case b.Size == FloodFill:
		return e.similarArea(origin)
	}
	return e.m.TilesInDistance(origin.Coord, b.Size-1)
}

// similarArea collects the connected tiles sharing origin's terrain and
// features.
func (e *Editor) similarArea(origin *world.Tile) []*world.Tile {
	similar := func(t *world.Tile) bool {
		return t.Terrain == origin.Terrain && slices.Equal(t.Features, origin.Features)
	}
	seen := map[*world.Tile]bool{origin: true}
	out := []*world.Tile{origin}
	for i := 0; i < len(out); i++ {
		for _, n := range e.m.Neighbors(out[i].Coord) {
			if seen[n] || !similar(n) {
				continue
			}
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}

// action resolves the brush's names against the ruleset and returns the
// per-tile edit. The edit reports whether the tile changed.
func (e *Editor) action(b Brush) (func(*world.Tile) bool, error) {
	switch b.Kind {
	case BrushTerrain:
		def, ok := e.rules.Terrain(b.Name)
		if !ok {
			return nil, fmt.Errorf("%w: unknown terrain %q", ErrInvalidBrush, b.Name)
		}
		return func(t *world.Tile) bool {
			if t.Terrain == def.Name {
				return false
			}
			t.SetTerrain(def)
			e.conform(t)
			return true
		}, nil

	case BrushFeature:
		def, ok := e.rules.Feature(b.Name)
		if !ok {
			return nil, fmt.Errorf("%w: unknown feature %q", ErrInvalidBrush, b.Name)
		}
		return func(t *world.Tile) bool {
			if t.HasFeature(def.Name) || !def.OccursOnTerrain(t.Terrain) {
				return false
			}
			for _, name := range slices.Clone(t.Features) {
				if other, ok := e.rules.Feature(name); ok && def.ConflictsWith(other) {
					t.RemoveFeature(name, e.rules)
				}
			}
			t.AddFeature(def)
			e.conform(t)
			return true
		}, nil

	case BrushRemoveFeatures:
		return func(t *world.Tile) bool {
			if len(t.Features) == 0 {
				return false
			}
			t.ClearFeatures()
			e.conform(t)
			return true
		}, nil

	case BrushResource:
		res, ok := e.rules.Resource(b.Name)
		if !ok {
			return nil, fmt.Errorf("%w: unknown resource %q", ErrInvalidBrush, b.Name)
		}
		amount := b.Amount
		if amount == 0 && res.Type == ruleset.Strategic {
			amount = res.MajorAmount
		}
		return func(t *world.Tile) bool {
			if !res.CompatibleWith(t.Terrain, t.Features) {
				return false
			}
			if t.Resource == res.Name && t.ResourceAmount == amount {
				return false
			}
			t.Resource, t.ResourceAmount = res.Name, amount
			return true
		}, nil

	case BrushRemoveResource:
		return func(t *world.Tile) bool {
			if t.Resource == "" {
				return false
			}
			t.ClearResource()
			return true
		}, nil

	case BrushStart:
		return func(t *world.Tile) bool {
			added, err := e.m.AddStartingLocation(t.Coord, b.Name, b.Usage)
			return err == nil && added
		}, nil

	case BrushEraseStarts:
		return func(t *world.Tile) bool {
			marked := t.CityStateStart
			return e.m.RemoveStartingLocationsAt(t.Coord) > 0 || marked
		}, nil

	case BrushImprovement:
		if b.Name == "" {
			return func(t *world.Tile) bool {
				if t.Improvement == "" {
					return false
				}
				t.Improvement = ""
				return true
			}, nil
		}
		imp, ok := e.rules.Improvement(b.Name)
		if !ok {
			return nil, fmt.Errorf("%w: unknown improvement %q", ErrInvalidBrush, b.Name)
		}
		return improve(imp.Name), nil

	case BrushRoad:
		road, ok := e.rules.BestRoad()
		if !ok {
			return nil, fmt.Errorf("%w: ruleset %q has no roads", ErrInvalidBrush, e.rules.Name)
		}
		return improve(road.Name), nil
	}
	return nil, fmt.Errorf("%w: kind %d", ErrInvalidBrush, b.Kind)
}

// improve sets the named improvement on land tiles.
func improve(name string) func(*world.Tile) bool {
	return func(t *world.Tile) bool {
		if t.IsWater() || t.Improvement == name {
			return false
		}
		t.Improvement = name
		return true
	}
}

// conform drops whatever the tile's terrain and features no longer allow.
func (e *Editor) conform(t *world.Tile) {
	for _, name := range slices.Clone(t.Features) {
		if f, ok := e.rules.Feature(name); !ok || !f.OccursOnTerrain(t.Terrain) {
			t.RemoveFeature(name, e.rules)
		}
	}
	if t.Resource != "" {
		if res, ok := e.rules.Resource(t.Resource); !ok || !res.CompatibleWith(t.Terrain, t.Features) {
			t.ClearResource()
		}
	}
	if t.IsWater() {
		t.Improvement = ""
	}
}

// AddStart records a start for nation at c. It returns false when the nation
// already starts there.
func (e *Editor) AddStart(c world.HexCoord, nation string, usage world.StartUsage) (bool, error) {
	if nation == "" {
		return false, fmt.Errorf("add start at %v: empty nation", c)
	}
	added, err := e.m.AddStartingLocation(c, nation, usage)
	if err != nil {
		return false, err
	}
	if added {
		e.log.Info("start added", "nation", nation, "coord", c, "usage", usage)
	}
	return added, nil
}

// RemoveStart deletes nation's start at c.
func (e *Editor) RemoveStart(c world.HexCoord, nation string) bool {
	removed := e.m.RemoveStartingLocation(c, nation)
	if removed {
		e.log.Info("start removed", "nation", nation, "coord", c)
	}
	return removed
}

// ReassignContinents relabels every landmass from scratch.
func (e *Editor) ReassignContinents() error {
	if err := e.m.AssignContinents(world.Reassign); err != nil {
		return err
	}
	e.log.Info("continents reassigned", "count", len(e.m.ContinentSizes))
	return nil
}

// ClearContinents removes every continent label.
func (e *Editor) ClearContinents() error {
	return e.m.AssignContinents(world.Clear)
}

// StripNation removes every trace of nation and returns how many starts went.
func (e *Editor) StripNation(nation string) int {
	n := e.m.StripNation(nation)
	e.log.Info("nation stripped", "nation", nation, "starts", n)
	return n
}

// SwitchNation hands the starts of from to to.
func (e *Editor) SwitchNation(from, to string) int {
	n := e.m.SwitchNation(from, to)
	e.log.Info("nation switched", "from", from, "to", to, "starts", n)
	return n
}
