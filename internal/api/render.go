package api

import (
	"fmt"
	"image"
	"image/color"

	"github.com/mazznoer/colorgrad"
	"golang.org/x/image/draw"

	"github.com/talgya/hexforge/internal/ruleset"
	"github.com/talgya/hexforge/internal/world"
)

// RenderMode selects the thumbnail palette.
type RenderMode string

const (
	RenderTerrain    RenderMode = "terrain"
	RenderContinents RenderMode = "continents"
)

// ParseRenderMode accepts "terrain", "continents" or an empty string for
// terrain.
func ParseRenderMode(s string) (RenderMode, error) {
	switch RenderMode(s) {
	case "", RenderTerrain:
		return RenderTerrain, nil
	case RenderContinents:
		return RenderContinents, nil
	}
	return "", fmt.Errorf("unknown render mode %q (use: terrain, continents)", s)
}

var terrainColors = map[string]color.RGBA{
	ruleset.Grassland: {94, 145, 56, 255},
	ruleset.Plains:    {172, 160, 84, 255},
	ruleset.Desert:    {222, 200, 130, 255},
	ruleset.Tundra:    {150, 140, 120, 255},
	ruleset.Snow:      {238, 240, 245, 255},
	ruleset.Mountain:  {112, 104, 100, 255},
	ruleset.Coast:     {72, 130, 190, 255},
	ruleset.Ocean:     {30, 60, 120, 255},
}

var (
	unknownColor   = color.RGBA{128, 128, 128, 255}
	landColor      = color.RGBA{160, 150, 130, 255}
	iceColor       = color.RGBA{225, 240, 250, 255}
	wonderColor    = color.RGBA{255, 200, 0, 255}
	startColor     = color.RGBA{220, 30, 30, 255}
	cityStateColor = color.RGBA{250, 250, 250, 255}
)

// Render draws m with a 2×2 pixel block per tile, odd rows shifted by one
// pixel, and scales the result to width pixels keeping the aspect ratio.
// Starting locations are drawn on top in both modes.
func Render(m *world.Map, mode RenderMode, width int) *image.RGBA {
	b := m.Bounds()
	nw, nh := max(b.Width()*2+1, 1), max(b.Height()*2, 1)
	native := image.NewRGBA(image.Rect(0, 0, nw, nh))

	var palette map[int]color.Color
	if mode == RenderContinents {
		palette = continentPalette(m.ContinentIDs())
	}
	starts := make(map[world.HexCoord]bool, len(m.StartingLocations))
	for _, s := range m.StartingLocations {
		starts[s.Coord] = true
	}

	for _, t := range m.Tiles {
		var c color.Color
		switch {
		case t.CityStateStart:
			c = cityStateColor
		case starts[t.Coord]:
			c = startColor
		case mode == RenderContinents:
			c = continentColor(t, palette)
		default:
			c = terrainColor(t)
		}
		o := t.Coord.ToOffset()
		x := (o.Col-b.MinCol)*2 + (o.Row & 1)
		y := (o.Row - b.MinRow) * 2
		native.Set(x, y, c)
		native.Set(x+1, y, c)
		native.Set(x, y+1, c)
		native.Set(x+1, y+1, c)
	}

	width = max(width, 1)
	height := max(1, width*nh/nw)
	out := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(out, out.Bounds(), native, native.Bounds(), draw.Src, nil)
	return out
}

// continentPalette spreads the continents evenly over a rainbow.
func continentPalette(ids []int) map[int]color.Color {
	grad := colorgrad.Rainbow()
	out := make(map[int]color.Color, len(ids))
	for i, id := range ids {
		out[id] = grad.At((float64(i) + 0.5) / float64(len(ids)))
	}
	return out
}

func continentColor(t *world.Tile, palette map[int]color.Color) color.Color {
	if c, ok := palette[t.ContinentID]; ok {
		return c
	}
	if t.IsWater() {
		return terrainColors[ruleset.Ocean]
	}
	return landColor
}

func terrainColor(t *world.Tile) color.Color {
	c, ok := terrainColors[t.Terrain]
	if !ok {
		c = unknownColor
	}
	if t.IsNaturalWonder() {
		return wonderColor
	}
	for _, f := range t.Features {
		switch f {
		case ruleset.Ice:
			return iceColor
		case ruleset.Forest, ruleset.Jungle:
			c = shade(c, 0.7)
		case ruleset.Marsh:
			c = shade(c, 0.85)
		case ruleset.Hills:
			c = shade(c, 1.2)
		case ruleset.Oasis, ruleset.FloodPlains:
			c = terrainColors[ruleset.Grassland]
		}
	}
	return c
}

func shade(c color.RGBA, f float64) color.RGBA {
	scale := func(v uint8) uint8 { return uint8(min(255, float64(v)*f)) }
	return color.RGBA{scale(c.R), scale(c.G), scale(c.B), c.A}
}
