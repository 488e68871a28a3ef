package world

import (
	"errors"
	"fmt"
)

var (
	// ErrInvariant matches every InvariantError.
	ErrInvariant = errors.New("invariant violation")
	// ErrInvalidParams reports parameters that cannot describe a grid.
	ErrInvalidParams = errors.New("invalid map parameters")
	// ErrNoPlacement is returned when a bounded search finds no tile.
	ErrNoPlacement = errors.New("no placement found")
	// ErrOutOfBounds is returned for positions that are not on the map.
	ErrOutOfBounds = errors.New("position not on map")
)

// InvariantError reports caller misuse of the grid, such as labeling
// continents on a grid that already carries labels.
type InvariantError struct {
	Op     string
	Detail string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Op, ErrInvariant, e.Detail)
}

func (e *InvariantError) Is(target error) bool {
	return target == ErrInvariant
}
