package ruleset

import (
	"fmt"
	"slices"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// TileEnv is the view of a tile that resource conditions are evaluated
// against. Methods are callable from expressions, e.g.
//
//	Latitude > 0.5 && not HasFeature("Forest")
type TileEnv struct {
	Terrain   string
	Features  []string
	Latitude  float64 // 0 at the equator, 1 at the poles
	Coastal   bool
	Neighbors []string // base terrains of adjacent tiles
}

func (e TileEnv) HasFeature(name string) bool {
	return slices.Contains(e.Features, name)
}

func (e TileEnv) IsTerrain(name string) bool {
	return e.Terrain == name
}

// NeighborCount counts adjacent tiles with the given base terrain.
func (e TileEnv) NeighborCount(terrain string) int {
	n := 0
	for _, t := range e.Neighbors {
		if t == terrain {
			n++
		}
	}
	return n
}

type compiledCondition struct {
	src     string
	program *vm.Program
}

func compileCondition(src string) (*compiledCondition, error) {
	prog, err := expr.Compile(src, expr.Env(TileEnv{}), expr.AsBool())
	if err != nil {
		return nil, err
	}
	return &compiledCondition{src: src, program: prog}, nil
}

// Allows reports whether the resource's placement condition holds for env.
// Resources without a condition always allow placement.
func (r *Resource) Allows(env TileEnv) (bool, error) {
	if r.condition == nil {
		return true, nil
	}
	out, err := vm.Run(r.condition.program, env)
	if err != nil {
		return false, fmt.Errorf("evaluate condition %q for %s: %w", r.condition.src, r.Name, err)
	}
	ok, _ := out.(bool)
	return ok, nil
}
