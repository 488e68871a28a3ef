// Package social provides the factions that receive starting locations: major
// nations with their start biases, and procedurally named city states.
package social

import (
	"fmt"
	"math/rand"
	"strings"
)

// Kind categorizes a faction for start placement.
type Kind uint8

const (
	Major     Kind = iota // Full nation, one region each
	CityState             // Minor faction, placed after majors
)

func (k Kind) String() string {
	if k == CityState {
		return "city state"
	}
	return "major"
}

func (k Kind) MarshalText() ([]byte, error) {
	if k == CityState {
		return []byte("city_state"), nil
	}
	return []byte("major"), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	switch strings.ToLower(string(b)) {
	case "major", "":
		*k = Major
	case "city_state", "city state", "minor":
		*k = CityState
	default:
		return fmt.Errorf("unknown faction kind %q", b)
	}
	return nil
}

// Faction is a nation requesting a start.
type Faction struct {
	Name string `json:"name"`
	Kind Kind   `json:"kind"`

	// Human marks nations a human player may pick.
	Human bool `json:"human,omitempty"`

	// Start biases: regions rich in these terrains or features are preferred,
	// and coastal-biased nations are handed coastal regions first.
	StartBias   []string `json:"start_bias,omitempty"`
	CoastalBias bool     `json:"coastal_bias,omitempty"`
}

// HasBias reports whether the faction leans toward any start bias.
func (f Faction) HasBias() bool {
	return f.CoastalBias || len(f.StartBias) > 0
}

// nations are the built-in majors in the order DefaultMajors hands them out.
var nations = []Faction{
	{Name: "Rome"},
	{Name: "Carthage", CoastalBias: true},
	{Name: "Egypt", StartBias: []string{"Flood plains", "Desert"}},
	{Name: "Russia", StartBias: []string{"Tundra", "Forest"}},
	{Name: "Inca", StartBias: []string{"Hills"}},
	{Name: "England", CoastalBias: true},
	{Name: "Siam", StartBias: []string{"Jungle"}},
	{Name: "Iroquois", StartBias: []string{"Forest"}},
	{Name: "Arabia", StartBias: []string{"Desert"}},
	{Name: "Mongolia", StartBias: []string{"Plains"}},
	{Name: "Greece"},
	{Name: "Polynesia", CoastalBias: true},
}

// DefaultMajors returns n major nations. The first is human-selectable.
// Beyond the built-in list, nations are numbered.
func DefaultMajors(n int) []Faction {
	out := make([]Faction, 0, n)
	for i := 0; i < n; i++ {
		var f Faction
		if i < len(nations) {
			f = nations[i]
			f.StartBias = append([]string(nil), f.StartBias...)
		} else {
			f = Faction{Name: fmt.Sprintf("Nation %d", i+1)}
		}
		f.Kind = Major
		f.Human = i == 0
		out = append(out, f)
	}
	return out
}

// NewCityStates returns n city states with unique procedural names.
func NewCityStates(rng *rand.Rand, n int) []Faction {
	names := generateNames(rng, n)
	out := make([]Faction, n)
	for i, name := range names {
		out[i] = Faction{Name: name, Kind: CityState}
	}
	return out
}

// generateNames produces procedural city-state names by combining syllables.
func generateNames(rng *rand.Rand, count int) []string {
	prefixes := []string{
		"Iron", "Green", "Ash", "Stone", "Mill", "Cross", "Black",
		"Silver", "Red", "White", "Dark", "Bright", "High", "Low",
		"Old", "New", "Far", "Deep", "Long", "Broad", "Gold", "Frost",
		"Storm", "Thorn", "Elm", "Oak", "Pine", "Copper", "River",
	}
	suffixes := []string{
		"haven", "ford", "hollow", "wick", "bridge", "gate", "keep",
		"stead", "wood", "field", "dale", "crest", "vale", "port",
		"town", "bury", "marsh", "well", "brook", "cliff", "moor",
		"ridge", "watch", "fall", "rest", "point", "reach", "helm",
	}

	used := make(map[string]bool)
	names := make([]string, 0, count)

	// Numbered names once the syllable table is exhausted.
	limit := len(prefixes) * len(suffixes)
	for len(names) < count {
		name := prefixes[rng.Intn(len(prefixes))] + suffixes[rng.Intn(len(suffixes))]
		if len(used) >= limit {
			name = fmt.Sprintf("%s %d", name, len(names)+1)
		}
		if !used[name] {
			used[name] = true
			names = append(names, name)
		}
	}

	return names
}
