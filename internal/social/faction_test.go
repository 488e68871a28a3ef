package social

import (
	"encoding/json"
	"math/rand"
	"testing"
)

func TestDefaultMajors(t *testing.T) {
	majors := DefaultMajors(15)
	if len(majors) != 15 {
		t.Fatalf("got %d majors", len(majors))
	}
	seen := make(map[string]bool)
	for i, f := range majors {
		if f.Kind != Major {
			t.Errorf("%s has kind %v", f.Name, f.Kind)
		}
		if f.Human != (i == 0) {
			t.Errorf("%s human = %v", f.Name, f.Human)
		}
		if seen[f.Name] {
			t.Errorf("duplicate nation %s", f.Name)
		}
		seen[f.Name] = true
	}
	majors[2].StartBias[0] = "changed"
	if DefaultMajors(3)[2].StartBias[0] == "changed" {
		t.Error("DefaultMajors shares bias slices between calls")
	}
}

func TestCityStateNamesAreUniqueAndSeeded(t *testing.T) {
	a := NewCityStates(rand.New(rand.NewSource(7)), 40)
	b := NewCityStates(rand.New(rand.NewSource(7)), 40)
	seen := make(map[string]bool)
	for i := range a {
		if a[i].Name != b[i].Name {
			t.Fatalf("names differ for the same seed: %s vs %s", a[i].Name, b[i].Name)
		}
		if a[i].Kind != CityState {
			t.Errorf("%s is not a city state", a[i].Name)
		}
		if seen[a[i].Name] {
			t.Errorf("duplicate name %s", a[i].Name)
		}
		seen[a[i].Name] = true
	}
}

func TestKindJSON(t *testing.T) {
	var f Faction
	if err := json.Unmarshal([]byte(`{"name":"Ur","kind":"city_state"}`), &f); err != nil {
		t.Fatal(err)
	}
	if f.Kind != CityState {
		t.Fatalf("kind = %v", f.Kind)
	}
	if err := json.Unmarshal([]byte(`{"kind":"empire"}`), &f); err == nil {
		t.Error("unknown kind accepted")
	}
}
