// Package mapgen turns map parameters and a ruleset into a populated world:
// terrain, features, continents, regions, fairly normalized starting
// locations and resources. One call runs every stage in order on a grid it
// owns until it returns.
package mapgen

import (
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/talgya/hexforge/internal/entropy"
	"github.com/talgya/hexforge/internal/ruleset"
	"github.com/talgya/hexforge/internal/social"
	"github.com/talgya/hexforge/internal/world"
)

// Stage names a generation step reported to progress callbacks.
type Stage string

const (
	StageTerrain    Stage = "terrain"
	StageContinents Stage = "continents"
	StageRegions    Stage = "regions"
	StageStarts     Stage = "starts"
	StageNormalize  Stage = "normalize"
	StageCityStates Stage = "city_states"
	StageResources  Stage = "resources"
	StageDone       Stage = "done"
)

// Event is emitted after each stage completes.
type Event struct {
	Stage   Stage         `json:"stage"`
	Detail  string        `json:"detail,omitempty"`
	Elapsed time.Duration `json:"elapsed_ns"`
}

// SeedSource resolves a seed for requests that leave it at zero.
type SeedSource interface {
	Seed() (int64, error)
}

type cryptoSeeds struct{}

func (cryptoSeeds) Seed() (int64, error) { return entropy.CryptoSeed() }

// Unplaced reports a faction that received no starting location.
type Unplaced struct {
	Nation string      `json:"nation"`
	Kind   social.Kind `json:"kind"`
	Reason string      `json:"reason"`
}

// Result is the outcome of one generation.
type Result struct {
	Map      *world.Map               `json:"-"`
	Starts   []world.StartingLocation `json:"starts"`
	Unplaced []Unplaced               `json:"unplaced,omitempty"`
	Seed     int64                    `json:"seed"`
}

// Generator runs the generation pipeline against one ruleset. It holds no
// per-map state and may be shared.
type Generator struct {
	rules    *ruleset.Ruleset
	log      *slog.Logger
	seeds    SeedSource
	progress func(Event)
}

// Option configures a Generator.
type Option func(*Generator)

// WithLogger sets the logger stage summaries go to.
func WithLogger(l *slog.Logger) Option {
	return func(g *Generator) { g.log = l }
}

// WithSeedSource sets where seeds for unseeded requests come from.
func WithSeedSource(s SeedSource) Option {
	return func(g *Generator) { g.seeds = s }
}

// WithProgress registers a callback invoked synchronously after each stage.
func WithProgress(fn func(Event)) Option {
	return func(g *Generator) { g.progress = fn }
}

// New creates a generator for rules.
func New(rules *ruleset.Ruleset, opts ...Option) *Generator {
	g := &Generator{rules: rules, log: slog.Default(), seeds: cryptoSeeds{}}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate builds a map for params and places majors and city states. A zero
// seed is resolved once and written back to the returned map's params, so
// the result can be reproduced. Factions that could not be placed are listed
// in Result.Unplaced.
func (g *Generator) Generate(params world.Params, majors, cityStates []social.Faction) (*Result, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}
	if params.Seed == 0 {
		seed, err := g.seeds.Seed()
		if err != nil {
			return nil, fmt.Errorf("generate: resolve seed: %w", err)
		}
		params.Seed = seed
	}

	m, err := world.New(params, g.rules)
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}

	run := &generation{
		Generator: g,
		m:         m,
		rules:     g.rules,
		params:    params,
		rng:       rand.New(rand.NewSource(params.Seed)),
		impact:    make([]int, m.Len()),
		isStart:   make([]bool, m.Len()),
	}
	if err := run.execute(majors, cityStates); err != nil {
		return nil, fmt.Errorf("generate %s: %w", m, err)
	}

	g.log.Info("map generated",
		"map", m.String(),
		"seed", params.Seed,
		"continents", len(m.ContinentSizes),
		"starts", len(m.StartingLocations),
		"unplaced", len(run.unplaced),
	)
	return &Result{
		Map:      m,
		Starts:   append([]world.StartingLocation(nil), m.StartingLocations...),
		Unplaced: run.unplaced,
		Seed:     params.Seed,
	}, nil
}

// generation is the state of one Generate call.
type generation struct {
	*Generator
	m      *world.Map
	rules  *ruleset.Ruleset
	params world.Params
	rng    *rand.Rand

	retry   int // land-shaping retry, part of every noise salt
	regions []*region
	majors  []placedStart
	minors  []placedStart
	impact  []int  // start-proximity penalty per tile index
	isStart []bool // tiles holding any start

	staleContinents bool // normalization changed continent land

	unplaced []Unplaced
}

type placedStart struct {
	faction social.Faction
	tile    *world.Tile
	region  *region
}

func (r *generation) execute(majors, cityStates []social.Faction) error {
	stages := []struct {
		stage Stage
		run   func() (string, error)
	}{
		{StageTerrain, r.terrainStage},
		{StageContinents, r.continentStage},
		{StageRegions, func() (string, error) { return r.regionStage(majors) }},
		{StageStarts, func() (string, error) { return r.startStage(majors) }},
		{StageNormalize, r.normalizeStage},
		{StageCityStates, func() (string, error) { return r.cityStateStage(cityStates) }},
		{StageResources, r.resourceStage},
	}
	for _, s := range stages {
		start := time.Now()
		detail, err := s.run()
		if err != nil {
			return fmt.Errorf("%s: %w", s.stage, err)
		}
		r.log.Debug("stage complete", "stage", s.stage, "detail", detail, "elapsed", time.Since(start))
		r.emit(Event{Stage: s.stage, Detail: detail, Elapsed: time.Since(start)})
	}
	if err := r.m.AssignContinents(world.Ensure); err != nil {
		return err
	}
	r.emit(Event{Stage: StageDone, Detail: humanize.Comma(int64(r.m.Len())) + " tiles"})
	return nil
}

func (r *generation) emit(e Event) {
	if r.progress != nil {
		r.progress(e)
	}
}
