package world

import (
	"encoding/json"
	"errors"
	"slices"
	"testing"

	"github.com/talgya/hexforge/internal/ruleset"
)

func TestStartingLocationUniqueness(t *testing.T) {
	m, err := NewHexagonal(3, true, ruleset.Default())
	if err != nil {
		t.Fatal(err)
	}
	c := HexCoord{Q: 1, R: 1}

	if added, err := m.AddStartingLocation(c, "Rome", UsagePlayer); !added || err != nil {
		t.Fatalf("first add = %v, %v", added, err)
	}
	if added, _ := m.AddStartingLocation(c, "Rome", UsageHuman); added {
		t.Error("duplicate (nation, position) accepted")
	}
	// The same tile reached through wrap is still a duplicate.
	wrapped := c.Add(m.translations[0])
	if added, _ := m.AddStartingLocation(wrapped, "Rome", UsageNormal); added {
		t.Error("wrapped duplicate accepted")
	}
	if added, _ := m.AddStartingLocation(c, "Greece", UsageNormal); !added {
		t.Error("a second nation may share the tile")
	}
	if len(m.StartingLocationsAt(c)) != 2 {
		t.Errorf("StartingLocationsAt = %v", m.StartingLocationsAt(c))
	}

	// A far position folds onto a wrapped map but not onto a flat one.
	far := HexCoord{Q: 50}
	if _, err := m.AddStartingLocation(far, "Carthage", UsageNormal); err != nil {
		t.Errorf("wrapped far add err = %v", err)
	}
	flat, err := NewHexagonal(3, false, ruleset.Default())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := flat.AddStartingLocation(far, "Rome", UsageNormal); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("off-map add err = %v", err)
	}
}

func TestRemoveStripAndSwitch(t *testing.T) {
	m, err := NewHexagonal(3, false, ruleset.Default())
	if err != nil {
		t.Fatal(err)
	}
	a, b := HexCoord{Q: -2}, HexCoord{Q: 2}
	m.AddStartingLocation(a, "Rome", UsagePlayer)
	m.AddStartingLocation(b, "Rome", UsageNormal)
	m.AddStartingLocation(b, "Venice", UsageNormal)
	m.AddStartingLocation(a, "Carthage", UsageHuman)
	tb, _ := m.Get(b)
	tb.CityStateStart = true

	if got := m.HumanEligibleNations(); !slices.Equal(got, []string{"Rome", "Carthage"}) {
		t.Errorf("HumanEligibleNations = %v", got)
	}

	if n := m.SwitchNation("Rome", "Carthage"); n != 1 {
		t.Errorf("SwitchNation moved %d starts, want 1", n)
	}
	if got := m.DeclaredNations(); !slices.Equal(got, []string{"Carthage", "Venice"}) {
		t.Errorf("DeclaredNations = %v", got)
	}

	if n := m.StripNation("Venice"); n != 1 {
		t.Errorf("StripNation removed %d", n)
	}
	if !tb.CityStateStart {
		t.Error("marker cleared while Carthage still starts there")
	}
	if n := m.RemoveNation("Carthage"); n != 2 {
		t.Errorf("RemoveNation removed %d, want 2", n)
	}
	if len(m.StartingLocations) != 0 {
		t.Errorf("starts left: %v", m.StartingLocations)
	}

	m.AddStartingLocation(b, "Venice", UsageNormal)
	m.StripNation("Venice")
	if tb.CityStateStart {
		t.Error("StripNation kept the city-state marker")
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	m := twoIslands(t)
	hills, _ := m.Rules().Feature(ruleset.Hills)
	tile, _ := m.Get(HexCoord{Q: 2, R: 0})
	tile.AddFeature(hills)
	tile.Resource, tile.ResourceAmount = "Iron", 4
	if err := m.AssignContinents(Assign); err != nil {
		t.Fatal(err)
	}
	m.AddStartingLocation(HexCoord{Q: 2, R: -1}, "Rome", UsagePlayer)

	data, err := json.Marshal(m.Snapshot())
	if err != nil {
		t.Fatal(err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		t.Fatal(err)
	}
	got, err := FromSnapshot(&snap, m.Rules())
	if err != nil {
		t.Fatal(err)
	}

	if got.Len() != m.Len() {
		t.Fatalf("restored %d tiles, want %d", got.Len(), m.Len())
	}
	for i, want := range m.Tiles {
		g := got.Tiles[i]
		if g.Coord != want.Coord || g.Terrain != want.Terrain || g.ContinentID != want.ContinentID ||
			g.Resource != want.Resource || !slices.Equal(g.Features, want.Features) {
			t.Fatalf("tile %d: got %+v, want %+v", i, g, want)
		}
		if g.IsWater() != want.IsWater() || g.IsImpassable() != want.IsImpassable() {
			t.Fatalf("tile %d flags not restored", i)
		}
	}
	checkContinentAccounting(t, got)
	if p := got.Preview(); !slices.Equal(p.HumanNations, []string{"Rome"}) {
		t.Errorf("preview human nations = %v", p.HumanNations)
	}
}
