package ruleset

import (
	"encoding/json"
	"fmt"
	"os"
)

type document struct {
	Name         string         `json:"name"`
	Terrains     []*Terrain     `json:"terrains"`
	Features     []*Feature     `json:"features"`
	Resources    []*Resource    `json:"resources"`
	Improvements []*Improvement `json:"improvements"`
}

// Parse builds a ruleset from its JSON form.
func Parse(data []byte) (*Ruleset, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode ruleset: %w", err)
	}
	return New(doc.Name, doc.Terrains, doc.Features, doc.Resources, doc.Improvements)
}

// Load reads a JSON ruleset file.
func Load(path string) (*Ruleset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read ruleset: %w", err)
	}
	rs, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("ruleset %s: %w", path, err)
	}
	return rs, nil
}

// MarshalJSON writes the ruleset in the form Parse accepts.
func (rs *Ruleset) MarshalJSON() ([]byte, error) {
	return json.Marshal(document{
		Name:         rs.Name,
		Terrains:     rs.Terrains,
		Features:     rs.Features,
		Resources:    rs.Resources,
		Improvements: rs.Improvements,
	})
}
