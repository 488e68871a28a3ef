// Package ruleset holds the terrain, feature, resource and improvement
// definitions that map generation reads. A ruleset may be a subset of the
// default one (modded games); every lookup reports absence instead of failing.
package ruleset

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Well-known names the generator asks for. Only Grassland, Coast and Ocean are
// required; passes that need any other entry skip themselves when it is absent.
const (
	Grassland = "Grassland"
	Plains    = "Plains"
	Desert    = "Desert"
	Tundra    = "Tundra"
	Snow      = "Snow"
	Mountain  = "Mountain"
	Coast     = "Coast"
	Ocean     = "Ocean"

	Hills       = "Hills"
	Forest      = "Forest"
	Jungle      = "Jungle"
	Marsh       = "Marsh"
	Oasis       = "Oasis"
	FloodPlains = "Flood plains"
	Ice         = "Ice"

	Cattle = "Cattle"
	Wheat  = "Wheat"
	Sheep  = "Sheep"
	Deer   = "Deer"
)

// ErrInvalid is returned for rulesets that cannot drive generation.
var ErrInvalid = errors.New("invalid ruleset")

// TerrainType separates land from water.
type TerrainType uint8

const (
	Land TerrainType = iota
	Water
)

func (t TerrainType) String() string {
	if t == Water {
		return "Water"
	}
	return "Land"
}

func (t TerrainType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *TerrainType) UnmarshalText(b []byte) error {
	switch strings.ToLower(string(b)) {
	case "land", "":
		*t = Land
	case "water":
		*t = Water
	default:
		return fmt.Errorf("unknown terrain type %q", b)
	}
	return nil
}

// Yield is the per-turn output of a tile.
type Yield struct {
	Food       int `json:"food,omitempty"`
	Production int `json:"production,omitempty"`
	Gold       int `json:"gold,omitempty"`
}

func (y Yield) Add(o Yield) Yield {
	return Yield{Food: y.Food + o.Food, Production: y.Production + o.Production, Gold: y.Gold + o.Gold}
}

// Total sums all yield kinds.
func (y Yield) Total() int {
	return y.Food + y.Production + y.Gold
}

// Terrain is a base terrain definition.
type Terrain struct {
	Name       string      `json:"name"`
	Type       TerrainType `json:"type"`
	Yield      Yield       `json:"yield"`
	Impassable bool        `json:"impassable,omitempty"`
}

// FeatureCategory groups features that cannot share a tile.
type FeatureCategory string

const (
	CategoryVegetation FeatureCategory = "vegetation"
	CategoryWetland    FeatureCategory = "wetland"
	CategoryRelief     FeatureCategory = "relief"
	CategoryOasis      FeatureCategory = "oasis"
	CategoryIce        FeatureCategory = "ice"
	CategoryWonder     FeatureCategory = "wonder"
)

// Feature is a terrain feature layered on a base terrain.
type Feature struct {
	Name     string          `json:"name"`
	Category FeatureCategory `json:"category"`
	OccursOn []string        `json:"occurs_on"`
	Yield    Yield           `json:"yield"`
	// OverrideYield replaces the base terrain yield instead of adding to it.
	OverrideYield bool `json:"override_yield,omitempty"`
	Impassable    bool `json:"impassable,omitempty"`
}

// IsNaturalWonder reports whether the feature is a natural wonder.
func (f *Feature) IsNaturalWonder() bool {
	return f.Category == CategoryWonder
}

// OccursOnTerrain reports whether the feature may be placed on the named terrain.
func (f *Feature) OccursOnTerrain(terrain string) bool {
	return slices.Contains(f.OccursOn, terrain)
}

// ConflictsWith reports whether two features may not share a tile. Relief
// combines with everything except other relief and wonders.
func (f *Feature) ConflictsWith(o *Feature) bool {
	if f.Name == o.Name || f.Category == o.Category {
		return true
	}
	if f.IsNaturalWonder() || o.IsNaturalWonder() {
		return true
	}
	if f.Category == CategoryRelief || o.Category == CategoryRelief {
		return false
	}
	return true
}

// ResourceType classifies resources by placement priority.
type ResourceType uint8

const (
	Bonus ResourceType = iota
	Strategic
	Luxury
)

func (t ResourceType) String() string {
	switch t {
	case Strategic:
		return "Strategic"
	case Luxury:
		return "Luxury"
	default:
		return "Bonus"
	}
}

func (t ResourceType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *ResourceType) UnmarshalText(b []byte) error {
	switch strings.ToLower(string(b)) {
	case "bonus", "":
		*t = Bonus
	case "strategic":
		*t = Strategic
	case "luxury":
		*t = Luxury
	default:
		return fmt.Errorf("unknown resource type %q", b)
	}
	return nil
}

// Resource is a placeable tile resource.
type Resource struct {
	Name         string       `json:"name"`
	Type         ResourceType `json:"type"`
	CanBeFoundOn []string     `json:"can_be_found_on"`
	Yield        Yield        `json:"yield"`
	// Frequency places one deposit per Frequency compatible tiles; zero means
	// the resource is only placed by the luxury and normalization passes.
	Frequency   int `json:"frequency,omitempty"`
	MajorAmount int `json:"major_amount,omitempty"`
	MinorAmount int `json:"minor_amount,omitempty"`
	// Condition is an optional expression over TileEnv that must hold.
	Condition string `json:"condition,omitempty"`

	condition *compiledCondition
}

// CompatibleWith reports whether the resource may sit on a tile with the given
// terrain and features.
func (r *Resource) CompatibleWith(terrain string, features []string) bool {
	if slices.Contains(r.CanBeFoundOn, terrain) {
		return true
	}
	for _, f := range features {
		if slices.Contains(r.CanBeFoundOn, f) {
			return true
		}
	}
	return false
}

// Improvement is a tile improvement; only roads matter to generation.
type Improvement struct {
	Name         string  `json:"name"`
	Road         bool    `json:"road,omitempty"`
	MovementCost float64 `json:"movement_cost,omitempty"`
}

// Ruleset is an indexed, validated set of definitions.
type Ruleset struct {
	Name         string
	Terrains     []*Terrain
	Features     []*Feature
	Resources    []*Resource
	Improvements []*Improvement

	terrains     map[string]*Terrain
	features     map[string]*Feature
	resources    map[string]*Resource
	improvements map[string]*Improvement
}

// New indexes the definitions, compiles resource conditions and checks that
// the entries generation cannot work without are present.
func New(name string, terrains []*Terrain, features []*Feature, resources []*Resource, improvements []*Improvement) (*Ruleset, error) {
	rs := &Ruleset{
		Name:         name,
		Terrains:     terrains,
		Features:     features,
		Resources:    resources,
		Improvements: improvements,
		terrains:     make(map[string]*Terrain, len(terrains)),
		features:     make(map[string]*Feature, len(features)),
		resources:    make(map[string]*Resource, len(resources)),
		improvements: make(map[string]*Improvement, len(improvements)),
	}

	for _, t := range terrains {
		if _, dup := rs.terrains[t.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate terrain %q", ErrInvalid, t.Name)
		}
		rs.terrains[t.Name] = t
	}
	for _, f := range features {
		if _, dup := rs.features[f.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate feature %q", ErrInvalid, f.Name)
		}
		rs.features[f.Name] = f
	}
	for _, r := range resources {
		if _, dup := rs.resources[r.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate resource %q", ErrInvalid, r.Name)
		}
		if r.Condition != "" {
			c, err := compileCondition(r.Condition)
			if err != nil {
				return nil, fmt.Errorf("compile condition for %q: %w", r.Name, err)
			}
			r.condition = c
		}
		rs.resources[r.Name] = r
	}
	for _, imp := range improvements {
		rs.improvements[imp.Name] = imp
	}

	for _, required := range []struct {
		name string
		typ  TerrainType
	}{{Grassland, Land}, {Coast, Water}, {Ocean, Water}} {
		t, ok := rs.terrains[required.name]
		if !ok {
			return nil, fmt.Errorf("%w: missing terrain %q", ErrInvalid, required.name)
		}
		if t.Type != required.typ {
			return nil, fmt.Errorf("%w: terrain %q must be %s", ErrInvalid, t.Name, required.typ)
		}
	}
	return rs, nil
}

// Terrain returns the named terrain definition.
func (rs *Ruleset) Terrain(name string) (*Terrain, bool) {
	t, ok := rs.terrains[name]
	return t, ok
}

// Feature returns the named feature definition.
func (rs *Ruleset) Feature(name string) (*Feature, bool) {
	f, ok := rs.features[name]
	return f, ok
}

// Resource returns the named resource definition.
func (rs *Ruleset) Resource(name string) (*Resource, bool) {
	r, ok := rs.resources[name]
	return r, ok
}

// Improvement returns the named improvement definition.
func (rs *Ruleset) Improvement(name string) (*Improvement, bool) {
	imp, ok := rs.improvements[name]
	return imp, ok
}

// ResourcesOfType returns resources of the given type in declaration order.
func (rs *Ruleset) ResourcesOfType(t ResourceType) []*Resource {
	var out []*Resource
	for _, r := range rs.Resources {
		if r.Type == t {
			out = append(out, r)
		}
	}
	return out
}

// NaturalWonders returns the wonder features in declaration order.
func (rs *Ruleset) NaturalWonders() []*Feature {
	var out []*Feature
	for _, f := range rs.Features {
		if f.IsNaturalWonder() {
			out = append(out, f)
		}
	}
	return out
}

// BestRoad returns the road with the lowest movement cost, or false when the
// ruleset defines none.
func (rs *Ruleset) BestRoad() (*Improvement, bool) {
	var best *Improvement
	for _, imp := range rs.Improvements {
		if !imp.Road {
			continue
		}
		if best == nil || imp.MovementCost < best.MovementCost {
			best = imp
		}
	}
	return best, best != nil
}

// TileYield computes the yield of a tile. Unknown names contribute nothing.
func (rs *Ruleset) TileYield(terrain string, features []string, resource string) Yield {
	var y Yield
	if t, ok := rs.terrains[terrain]; ok {
		y = t.Yield
	}
	for _, name := range features {
		f, ok := rs.features[name]
		if !ok {
			continue
		}
		if f.OverrideYield {
			y = f.Yield
		} else {
			y = y.Add(f.Yield)
		}
	}
	if r, ok := rs.resources[resource]; ok {
		y = y.Add(r.Yield)
	}
	if y.Food < 0 {
		y.Food = 0
	}
	return y
}
