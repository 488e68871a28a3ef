package world

import (
	"fmt"

	"github.com/talgya/hexforge/internal/ruleset"
)

// Snapshot is the persisted form of a map.
type Snapshot struct {
	Params Params             `json:"params"`
	Tiles  []Tile             `json:"tiles"`
	Starts []StartingLocation `json:"starts"`
}

// Preview is the lightweight form used by map listings.
type Preview struct {
	Params       Params             `json:"params"`
	Starts       []StartingLocation `json:"starts"`
	Nations      []string           `json:"nations"`
	HumanNations []string           `json:"human_nations"`
}

// Snapshot copies the map into its persisted form.
func (m *Map) Snapshot() *Snapshot {
	s := &Snapshot{
		Params: m.Params,
		Tiles:  make([]Tile, len(m.Tiles)),
		Starts: append([]StartingLocation(nil), m.StartingLocations...),
	}
	for i, t := range m.Tiles {
		s.Tiles[i] = *t
		s.Tiles[i].Features = append([]string(nil), t.Features...)
	}
	return s
}

// Preview summarizes the map for selection screens.
func (m *Map) Preview() Preview {
	return Preview{
		Params:       m.Params,
		Starts:       append([]StartingLocation(nil), m.StartingLocations...),
		Nations:      m.DeclaredNations(),
		HumanNations: m.HumanEligibleNations(),
	}
}

// FromSnapshot rebuilds a map. Tile flags are recomputed from rules and the
// continent summary is rebuilt from the stored labels.
func FromSnapshot(s *Snapshot, rules *ruleset.Ruleset) (*Map, error) {
	if err := s.Params.Validate(); err != nil {
		return nil, err
	}
	m := newMap(s.Params, rules)
	for i := range s.Tiles {
		t := s.Tiles[i]
		if m.Contains(t.Coord) {
			return nil, &InvariantError{Op: "load map", Detail: fmt.Sprintf("duplicate tile %v", t.Coord)}
		}
		t.idx = len(m.Tiles)
		t.Features = append([]string(nil), t.Features...)
		t.Refresh(rules)
		m.index[t.Coord] = t.idx
		m.Tiles = append(m.Tiles, &t)
	}
	for _, st := range s.Starts {
		if _, err := m.AddStartingLocation(st.Coord, st.Nation, st.Usage); err != nil {
			return nil, fmt.Errorf("load map: %w", err)
		}
	}
	if err := m.AssignContinents(Ensure); err != nil {
		return nil, err
	}
	return m, nil
}
