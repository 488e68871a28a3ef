package world

import "fmt"

// StartUsage says who may take a starting location.
type StartUsage uint8

const (
	// UsageNormal locations were placed for AI or city-state factions.
	UsageNormal StartUsage = iota
	// UsagePlayer locations may be picked by a human player.
	UsagePlayer
	// UsageHuman locations are reserved for a human player.
	UsageHuman
)

var usageNames = []string{"normal", "player", "human"}

func (u StartUsage) String() string                { return enumName(usageNames, u) }
func (u StartUsage) MarshalText() ([]byte, error)  { return []byte(u.String()), nil }
func (u *StartUsage) UnmarshalText(b []byte) error { return parseEnum(usageNames, string(b), "usage", u) }

// StartingLocation assigns a nation to a tile.
type StartingLocation struct {
	Coord  HexCoord   `json:"coord"`
	Nation string     `json:"nation"`
	Usage  StartUsage `json:"usage"`
}

// AddStartingLocation records a start for nation at c. It returns false when
// the nation already starts there.
func (m *Map) AddStartingLocation(c HexCoord, nation string, usage StartUsage) (bool, error) {
	t, ok := m.Get(c)
	if !ok {
		return false, fmt.Errorf("add start for %s at %v: %w", nation, c, ErrOutOfBounds)
	}
	for _, s := range m.StartingLocations {
		if s.Nation == nation && s.Coord == t.Coord {
			return false, nil
		}
	}
	m.StartingLocations = append(m.StartingLocations, StartingLocation{Coord: t.Coord, Nation: nation, Usage: usage})
	return true, nil
}

// RemoveStartingLocation deletes the start of nation at c.
func (m *Map) RemoveStartingLocation(c HexCoord, nation string) bool {
	c = m.Canonicalize(c)
	before := len(m.StartingLocations)
	m.filterStarts(func(s StartingLocation) bool { return !(s.Nation == nation && s.Coord == c) })
	return len(m.StartingLocations) != before
}

// RemoveNation deletes every start of nation and returns how many went.
func (m *Map) RemoveNation(nation string) int {
	before := len(m.StartingLocations)
	m.filterStarts(func(s StartingLocation) bool { return s.Nation != nation })
	return before - len(m.StartingLocations)
}

// RemoveStartingLocationsAt deletes every start on c and clears its
// city-state marker.
func (m *Map) RemoveStartingLocationsAt(c HexCoord) int {
	c = m.Canonicalize(c)
	before := len(m.StartingLocations)
	m.filterStarts(func(s StartingLocation) bool { return s.Coord != c })
	if t, ok := m.Get(c); ok {
		t.CityStateStart = false
	}
	return before - len(m.StartingLocations)
}

// StartingLocationsAt returns the starts placed on c.
func (m *Map) StartingLocationsAt(c HexCoord) []StartingLocation {
	c = m.Canonicalize(c)
	var out []StartingLocation
	for _, s := range m.StartingLocations {
		if s.Coord == c {
			out = append(out, s)
		}
	}
	return out
}

// ClearStartingLocations removes every start and city-state marker.
func (m *Map) ClearStartingLocations() {
	m.StartingLocations = nil
	for _, t := range m.Tiles {
		t.CityStateStart = false
	}
}

// StripNation removes a nation from the map: its starts go, and tiles it
// held as a city state lose their marker unless another start remains there.
func (m *Map) StripNation(nation string) int {
	var held []HexCoord
	for _, s := range m.StartingLocations {
		if s.Nation == nation {
			held = append(held, s.Coord)
		}
	}
	n := m.RemoveNation(nation)
	for _, c := range held {
		if len(m.StartingLocationsAt(c)) > 0 {
			continue
		}
		if t, ok := m.Get(c); ok {
			t.CityStateStart = false
		}
	}
	return n
}

// SwitchNation hands every start of from to to. Starts that to already holds
// are dropped rather than duplicated.
func (m *Map) SwitchNation(from, to string) int {
	if from == to {
		return 0
	}
	held := make(map[HexCoord]bool)
	for _, s := range m.StartingLocations {
		if s.Nation == to {
			held[s.Coord] = true
		}
	}
	switched := 0
	out := make([]StartingLocation, 0, len(m.StartingLocations))
	for _, s := range m.StartingLocations {
		if s.Nation == from {
			if held[s.Coord] {
				continue
			}
			s.Nation = to
			switched++
		}
		out = append(out, s)
	}
	m.StartingLocations = out
	return switched
}

// DeclaredNations lists nations with a start, in order of first appearance.
func (m *Map) DeclaredNations() []string {
	return m.nations(func(StartingLocation) bool { return true })
}

// HumanEligibleNations lists nations a human player may pick.
func (m *Map) HumanEligibleNations() []string {
	return m.nations(func(s StartingLocation) bool { return s.Usage != UsageNormal })
}

func (m *Map) nations(keep func(StartingLocation) bool) []string {
	seen := make(map[string]bool)
	var out []string
	for _, s := range m.StartingLocations {
		if !keep(s) || seen[s.Nation] {
			continue
		}
		seen[s.Nation] = true
		out = append(out, s.Nation)
	}
	return out
}

func (m *Map) filterStarts(keep func(StartingLocation) bool) {
	out := m.StartingLocations[:0]
	for _, s := range m.StartingLocations {
		if keep(s) {
			out = append(out, s)
		}
	}
	m.StartingLocations = out
}
