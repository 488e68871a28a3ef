package world

import (
	"slices"

	"github.com/talgya/hexforge/internal/ruleset"
)

// NoContinent marks tiles that are not part of any landmass.
const NoContinent = -1

// Tile represents a single cell of the map. Tiles are owned by their Map;
// terrain and features go through the setters so the derived flags stay
// consistent with the ruleset definitions.
type Tile struct {
	Coord HexCoord `json:"coord"`

	Terrain  string   `json:"terrain"`
	Features []string `json:"features,omitempty"`

	Resource       string `json:"resource,omitempty"`
	ResourceAmount int    `json:"resource_amount,omitempty"`
	Improvement    string `json:"improvement,omitempty"`

	ContinentID    int  `json:"continent_id"`
	CityStateStart bool `json:"city_state_start,omitempty"`

	idx               int
	water             bool
	terrainImpassable bool
	featureImpassable bool
	naturalWonder     bool
}

// SetTerrain replaces the base terrain. Features the new terrain cannot carry
// are dropped by the caller through ClearFeatures when needed.
func (t *Tile) SetTerrain(def *ruleset.Terrain) {
	t.Terrain = def.Name
	t.water = def.Type == ruleset.Water
	t.terrainImpassable = def.Impassable
}

// AddFeature appends a feature unless it is already present.
func (t *Tile) AddFeature(def *ruleset.Feature) {
	if t.HasFeature(def.Name) {
		return
	}
	t.Features = append(t.Features, def.Name)
	if def.Impassable {
		t.featureImpassable = true
	}
	if def.IsNaturalWonder() {
		t.naturalWonder = true
	}
}

// RemoveFeature drops the named feature. The impassable flag is recomputed
// against rules.
func (t *Tile) RemoveFeature(name string, rules *ruleset.Ruleset) {
	i := slices.Index(t.Features, name)
	if i < 0 {
		return
	}
	t.Features = slices.Delete(t.Features, i, i+1)
	t.refreshFeatureFlags(rules)
}

// ClearFeatures removes every feature.
func (t *Tile) ClearFeatures() {
	t.Features = nil
	t.featureImpassable = false
	t.naturalWonder = false
}

// ClearResource removes any resource.
func (t *Tile) ClearResource() {
	t.Resource = ""
	t.ResourceAmount = 0
}

func (t *Tile) refreshFeatureFlags(rules *ruleset.Ruleset) {
	t.featureImpassable = false
	t.naturalWonder = false
	for _, name := range t.Features {
		f, ok := rules.Feature(name)
		if !ok {
			continue
		}
		if f.Impassable {
			t.featureImpassable = true
		}
		if f.IsNaturalWonder() {
			t.naturalWonder = true
		}
	}
}

// Refresh recomputes derived flags from rules. Used after decoding a tile.
// Unknown terrain is treated as land.
func (t *Tile) Refresh(rules *ruleset.Ruleset) {
	if def, ok := rules.Terrain(t.Terrain); ok {
		t.water = def.Type == ruleset.Water
		t.terrainImpassable = def.Impassable
	} else {
		t.water = false
		t.terrainImpassable = false
	}
	t.refreshFeatureFlags(rules)
}

// Index is the tile's position in Map.Tiles.
func (t *Tile) Index() int { return t.idx }

func (t *Tile) HasFeature(name string) bool {
	return slices.Contains(t.Features, name)
}

func (t *Tile) IsWater() bool { return t.water }
func (t *Tile) IsLand() bool  { return !t.water }

// IsImpassable is true for impassable terrain (mountains) and tiles carrying
// an impassable feature (ice, natural wonders).
func (t *Tile) IsImpassable() bool {
	return t.terrainImpassable || t.featureImpassable
}

func (t *Tile) IsNaturalWonder() bool { return t.naturalWonder }

// IsContinentLand reports whether the tile takes part in continent labeling.
func (t *Tile) IsContinentLand() bool {
	return !t.water && !t.IsImpassable()
}
