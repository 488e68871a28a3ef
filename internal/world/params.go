package world

import (
	"fmt"
	"strings"

	"github.com/talgya/hexforge/internal/noise"
)

// Shape is the outline of the grid.
type Shape uint8

const (
	Hexagonal Shape = iota
	Rectangular
)

var shapeNames = []string{"hexagonal", "rectangular"}

func (s Shape) String() string                { return enumName(shapeNames, s) }
func (s Shape) MarshalText() ([]byte, error)  { return []byte(s.String()), nil }
func (s *Shape) UnmarshalText(b []byte) error { return parseEnum(shapeNames, string(b), "shape", s) }

// Archetype is the land-shaping strategy.
type Archetype uint8

const (
	Fractal Archetype = iota
	Pangaea
	Continents
	Archipelago
)

var archetypeNames = []string{"fractal", "pangaea", "continents", "archipelago"}

func (a Archetype) String() string                { return enumName(archetypeNames, a) }
func (a Archetype) MarshalText() ([]byte, error)  { return []byte(a.String()), nil }
func (a *Archetype) UnmarshalText(b []byte) error { return parseEnum(archetypeNames, string(b), "archetype", a) }

// WaterLevel shifts the land/water threshold.
type WaterLevel uint8

const (
	WaterNormal WaterLevel = iota
	WaterLow
	WaterHigh
)

var waterNames = []string{"normal", "low", "high"}

func (w WaterLevel) String() string                { return enumName(waterNames, w) }
func (w WaterLevel) MarshalText() ([]byte, error)  { return []byte(w.String()), nil }
func (w *WaterLevel) UnmarshalText(b []byte) error { return parseEnum(waterNames, string(b), "water level", w) }

// MapSize is a predefined grid size. Custom uses the explicit dimensions.
type MapSize uint8

const (
	SizeCustom MapSize = iota
	SizeTiny
	SizeSmall
	SizeMedium
	SizeLarge
	SizeHuge
)

var sizeNames = []string{"custom", "tiny", "small", "medium", "large", "huge"}

func (s MapSize) String() string                { return enumName(sizeNames, s) }
func (s MapSize) MarshalText() ([]byte, error)  { return []byte(s.String()), nil }
func (s *MapSize) UnmarshalText(b []byte) error { return parseEnum(sizeNames, string(b), "map size", s) }

var sizeDimensions = map[MapSize]struct{ radius, width, height int }{
	SizeTiny:   {10, 23, 15},
	SizeSmall:  {15, 33, 21},
	SizeMedium: {20, 44, 29},
	SizeLarge:  {30, 66, 43},
	SizeHuge:   {40, 87, 57},
}

// ResourceSetting scales strategic and bonus resource counts.
type ResourceSetting uint8

const (
	ResourcesDefault ResourceSetting = iota
	ResourcesSparse
	ResourcesAbundant
)

var resourceSettingNames = []string{"default", "sparse", "abundant"}

func (r ResourceSetting) String() string               { return enumName(resourceSettingNames, r) }
func (r ResourceSetting) MarshalText() ([]byte, error) { return []byte(r.String()), nil }
func (r *ResourceSetting) UnmarshalText(b []byte) error {
	return parseEnum(resourceSettingNames, string(b), "resource setting", r)
}

// Params holds map generation parameters.
type Params struct {
	Name       string     `json:"name,omitempty"`
	Shape      Shape      `json:"shape"`
	Size       MapSize    `json:"size"`
	Radius     int        `json:"radius,omitempty"` // hexagonal, used when Size is custom
	Width      int        `json:"width,omitempty"`  // rectangular, used when Size is custom
	Height     int        `json:"height,omitempty"`
	Wrap       bool       `json:"wrap,omitempty"`
	WaterLevel WaterLevel `json:"water_level"`
	Archetype  Archetype  `json:"archetype"`
	Seed       int64      `json:"seed"` // 0 = pick one

	Noise            noise.Backend   `json:"noise"`
	Resources        ResourceSetting `json:"resources"`
	NoNaturalWonders bool            `json:"no_natural_wonders,omitempty"`
	NoRegions        bool            `json:"no_regions,omitempty"`
	StrategicBalance bool            `json:"strategic_balance,omitempty"`
}

// DefaultParams returns a medium hexagonal continents map.
func DefaultParams() Params {
	return Params{
		Shape:     Hexagonal,
		Size:      SizeMedium,
		Archetype: Continents,
	}
}

// SmallTestParams returns a tiny map for rapid iteration.
func SmallTestParams() Params {
	return Params{
		Shape:     Hexagonal,
		Size:      SizeCustom,
		Radius:    6,
		Archetype: Continents,
		Seed:      42,
	}
}

// Dimensions resolves the radius (hexagonal) or width and height
// (rectangular). Preset widths are widened to an even value on wrapped
// rectangular maps.
func (p Params) Dimensions() (radius, width, height int) {
	if d, ok := sizeDimensions[p.Size]; ok {
		radius, width, height = d.radius, d.width, d.height
		if p.Shape == Rectangular && p.Wrap && width%2 != 0 {
			width++
		}
		return radius, width, height
	}
	return p.Radius, p.Width, p.Height
}

// Validate checks the parameters describe a buildable grid.
func (p Params) Validate() error {
	radius, width, height := p.Dimensions()
	switch p.Shape {
	case Hexagonal:
		if radius < 0 {
			return fmt.Errorf("%w: negative radius %d", ErrInvalidParams, radius)
		}
	case Rectangular:
		if width < 1 || height < 1 {
			return fmt.Errorf("%w: rectangle %dx%d", ErrInvalidParams, width, height)
		}
		if p.Wrap && width%2 != 0 {
			return fmt.Errorf("%w: wrapped maps need an even width, got %d", ErrInvalidParams, width)
		}
	default:
		return fmt.Errorf("%w: unknown shape %d", ErrInvalidParams, p.Shape)
	}
	if p.Archetype > Archipelago {
		return fmt.Errorf("%w: unknown archetype %d", ErrInvalidParams, p.Archetype)
	}
	return nil
}

func enumName[T ~uint8](names []string, v T) string {
	if int(v) < len(names) {
		return names[v]
	}
	return fmt.Sprintf("unknown(%d)", uint8(v))
}

func parseEnum[T ~uint8](names []string, s, kind string, out *T) error {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, n := range names {
		if n == s {
			*out = T(i)
			return nil
		}
	}
	return fmt.Errorf("unknown %s %q", kind, s)
}

// ParseShape, ParseArchetype, ParseWaterLevel and ParseMapSize read the
// names used on the command line and in JSON.
func ParseShape(s string) (Shape, error) {
	var v Shape
	err := v.UnmarshalText([]byte(s))
	return v, err
}

func ParseArchetype(s string) (Archetype, error) {
	var v Archetype
	err := v.UnmarshalText([]byte(s))
	return v, err
}

func ParseWaterLevel(s string) (WaterLevel, error) {
	var v WaterLevel
	err := v.UnmarshalText([]byte(s))
	return v, err
}

func ParseMapSize(s string) (MapSize, error) {
	var v MapSize
	err := v.UnmarshalText([]byte(s))
	return v, err
}
