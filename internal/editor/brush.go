package editor

import (
	"fmt"
	"strings"

	"github.com/talgya/hexforge/internal/world"
)

// BrushKind selects what a brush does to the tiles it touches.
type BrushKind uint8

const (
	BrushTerrain BrushKind = iota
	BrushFeature
	BrushRemoveFeatures
	BrushResource
	BrushRemoveResource
	BrushStart
	BrushEraseStarts
	BrushImprovement
	// BrushRoad lays the fastest road the ruleset knows.
	BrushRoad
)

var brushNames = []string{
	"terrain", "feature", "remove_features", "resource",
	"remove_resource", "start", "erase_starts", "improvement", "road",
}

func (k BrushKind) String() string {
	if int(k) < len(brushNames) {
		return brushNames[k]
	}
	return fmt.Sprintf("brush(%d)", k)
}

func (k BrushKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *BrushKind) UnmarshalText(b []byte) error {
	s := strings.ReplaceAll(strings.ToLower(string(b)), " ", "_")
	for i, name := range brushNames {
		if s == name {
			*k = BrushKind(i)
			return nil
		}
	}
	return fmt.Errorf("%w: unknown brush %q", ErrInvalidBrush, b)
}

// Brush sizes. Size n paints every tile within n-1 of the center.
const (
	MinBrushSize = 1
	MaxBrushSize = 5
	// FloodFill paints the connected area of tiles that look like the center.
	FloodFill = -1
)

// Brush is one paint operation. Name is the terrain, feature, resource or
// improvement to apply, or the nation for start brushes. An improvement brush
// with an empty name removes improvements.
type Brush struct {
	Kind   BrushKind        `json:"kind"`
	Size   int              `json:"size"`
	Name   string           `json:"name,omitempty"`
	Amount int              `json:"amount,omitempty"`
	Usage  world.StartUsage `json:"usage,omitempty"`
}

func TerrainBrush(name string, size int) Brush { return Brush{Kind: BrushTerrain, Size: size, Name: name} }
func FeatureBrush(name string, size int) Brush { return Brush{Kind: BrushFeature, Size: size, Name: name} }
func ResourceBrush(name string, size int) Brush {
	return Brush{Kind: BrushResource, Size: size, Name: name}
}

func RoadBrush(size int) Brush { return Brush{Kind: BrushRoad, Size: size} }

// StartBrush places a start for nation on the center tile only.
func StartBrush(nation string, usage world.StartUsage) Brush {
	return Brush{Kind: BrushStart, Size: 1, Name: nation, Usage: usage}
}

func (b Brush) validate() error {
	if b.Size != FloodFill && (b.Size < MinBrushSize || b.Size > MaxBrushSize) {
		return fmt.Errorf("%w: size %d", ErrInvalidBrush, b.Size)
	}
	if int(b.Kind) >= len(brushNames) {
		return fmt.Errorf("%w: kind %d", ErrInvalidBrush, b.Kind)
	}
	switch b.Kind {
	case BrushTerrain, BrushFeature, BrushResource, BrushStart:
		if b.Name == "" {
			return fmt.Errorf("%w: %s brush needs a name", ErrInvalidBrush, b.Kind)
		}
	}
	return nil
}
