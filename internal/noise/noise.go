// Package noise provides seeded layered coherent noise. A sample depends only
// on the position, the seed and a per-purpose salt, so two samplers built with
// the same arguments return identical fields.
package noise

import (
	"fmt"
	"strings"

	"github.com/aquilax/go-perlin"
	opensimplex "github.com/ojrac/opensimplex-go"
)

// Backend selects the underlying gradient noise.
type Backend uint8

const (
	Simplex Backend = iota
	Perlin
)

func (b Backend) String() string {
	if b == Perlin {
		return "perlin"
	}
	return "simplex"
}

// ParseBackend accepts "simplex" or "perlin".
func ParseBackend(s string) (Backend, error) {
	switch strings.ToLower(s) {
	case "", "simplex", "opensimplex":
		return Simplex, nil
	case "perlin":
		return Perlin, nil
	}
	return Simplex, fmt.Errorf("unknown noise backend %q", s)
}

func (b Backend) MarshalText() ([]byte, error) { return []byte(b.String()), nil }

func (b *Backend) UnmarshalText(text []byte) error {
	v, err := ParseBackend(string(text))
	if err != nil {
		return err
	}
	*b = v
	return nil
}

// Octaves describes a fractal sum. Scale is the feature size in map units.
type Octaves struct {
	Count       int
	Persistence float64
	Lacunarity  float64
	Scale       float64
}

// DefaultOctaves matches the terrain generator's layered field.
func DefaultOctaves(scale float64) Octaves {
	return Octaves{Count: 6, Persistence: 0.5, Lacunarity: 2.0, Scale: scale}
}

// Field samples layered noise in [-1, 1].
type Field struct {
	oct     Octaves
	simplex opensimplex.Noise
	perlin  *perlin.Perlin
}

// New builds a field for seed and salt.
func New(backend Backend, seed, salt int64, oct Octaves) *Field {
	if oct.Count < 1 {
		oct.Count = 1
	}
	if oct.Scale <= 0 {
		oct.Scale = 1
	}
	f := &Field{oct: oct}
	s := seed*1_000_003 + salt
	switch backend {
	case Perlin:
		// go-perlin sums its own octaves: alpha is the amplitude divisor,
		// beta the frequency multiplier.
		f.perlin = perlin.NewPerlin(1/oct.Persistence, oct.Lacunarity, int32(oct.Count), s)
	default:
		f.simplex = opensimplex.New(s)
	}
	return f
}

// At returns the sample at (x, y).
func (f *Field) At(x, y float64) float64 {
	x /= f.oct.Scale
	y /= f.oct.Scale
	var v float64
	if f.perlin != nil {
		v = f.perlin.Noise2D(x, y) * 1.6
	} else {
		v = octaveNoise(f.simplex, x, y, f.oct)
	}
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}

// octaveNoise generates fractal noise by layering multiple frequencies.
func octaveNoise(noise opensimplex.Noise, x, y float64, oct Octaves) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0
	frequency := 1.0

	for i := 0; i < oct.Count; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= oct.Persistence
		frequency *= oct.Lacunarity
	}

	return total / maxVal
}
