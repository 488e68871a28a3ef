// Command mapgen generates one map and writes it to a database, a snapshot
// file, a PNG thumbnail or a GeoJSON file of its starting locations.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"image/png"
	"log/slog"
	"math/rand"
	"os"
	"slices"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"github.com/talgya/hexforge/internal/api"
	"github.com/talgya/hexforge/internal/entropy"
	"github.com/talgya/hexforge/internal/mapgen"
	"github.com/talgya/hexforge/internal/persistence"
	"github.com/talgya/hexforge/internal/ruleset"
	"github.com/talgya/hexforge/internal/social"
	"github.com/talgya/hexforge/internal/world"
)

type options struct {
	params     world.Params
	majors     int
	cityStates int
	rulesPath  string
	dbPath     string
	outPath    string
	pngPath    string
	pngWidth   int
	pngMode    string
	geojson    string
	verbose    bool
}

func parseFlags(args []string) (*options, error) {
	o := &options{params: world.DefaultParams()}
	p := &o.params

	fs := flag.NewFlagSet("mapgen", flag.ContinueOnError)
	fs.StringVar(&p.Name, "name", "", "map name")
	fs.TextVar(&p.Shape, "shape", p.Shape, "hexagonal or rectangular")
	fs.TextVar(&p.Size, "size", p.Size, "tiny, small, medium, large, huge or custom")
	fs.IntVar(&p.Radius, "radius", 0, "radius of a custom hexagonal map")
	fs.IntVar(&p.Width, "width", 0, "width of a custom rectangular map")
	fs.IntVar(&p.Height, "height", 0, "height of a custom rectangular map")
	fs.BoolVar(&p.Wrap, "wrap", false, "wrap the map edges")
	fs.TextVar(&p.Archetype, "archetype", p.Archetype, "fractal, pangaea, continents or archipelago")
	fs.TextVar(&p.WaterLevel, "water", p.WaterLevel, "normal, low or high")
	fs.TextVar(&p.Noise, "noise", p.Noise, "simplex or perlin")
	fs.TextVar(&p.Resources, "resources", p.Resources, "default, sparse or abundant")
	fs.Int64Var(&p.Seed, "seed", 0, "random seed (0 picks one)")
	fs.BoolVar(&p.NoNaturalWonders, "no-wonders", false, "skip natural wonders")
	fs.BoolVar(&p.NoRegions, "no-regions", false, "place starts without regions")
	fs.BoolVar(&p.StrategicBalance, "strategic-balance", false, "guarantee strategic resources near each start")

	fs.IntVar(&o.majors, "majors", 4, "number of major nations")
	fs.IntVar(&o.cityStates, "city-states", 4, "number of city states")
	fs.StringVar(&o.rulesPath, "rules", "", "ruleset JSON file (default built-in)")
	fs.StringVar(&o.dbPath, "db", "", "store the map in this database (SQLite path or postgres URL)")
	fs.StringVar(&o.outPath, "out", "", "write the map snapshot as JSON")
	fs.StringVar(&o.pngPath, "png", "", "write a thumbnail PNG")
	fs.IntVar(&o.pngWidth, "png-width", 1024, "thumbnail width in pixels")
	fs.StringVar(&o.pngMode, "png-mode", "terrain", "thumbnail palette: terrain or continents")
	fs.StringVar(&o.geojson, "geojson", "", "write starting locations as GeoJSON")
	fs.BoolVar(&o.verbose, "v", false, "log every stage")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if o.majors < 0 || o.cityStates < 0 {
		return nil, fmt.Errorf("faction counts must not be negative")
	}
	return o, nil
}

// newLogger writes text to terminals and JSON everywhere else.
func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()) {
		return slog.New(slog.NewTextHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, opts))
}

func main() {
	o, err := parseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	slog.SetDefault(newLogger(o.verbose))

	if err := run(o); err != nil {
		slog.Error("mapgen failed", "error", err)
		os.Exit(1)
	}
}

func run(o *options) error {
	rules := ruleset.Default()
	if o.rulesPath != "" {
		var err error
		if rules, err = ruleset.Load(o.rulesPath); err != nil {
			return err
		}
		slog.Info("ruleset loaded", "path", o.rulesPath, "name", rules.Name)
	}

	seeds := entropy.NewClient(os.Getenv("RANDOM_ORG_API_KEY"))
	if o.params.Seed == 0 {
		seed, err := seeds.Seed()
		if err != nil {
			return fmt.Errorf("resolve seed: %w", err)
		}
		o.params.Seed = seed
	}

	g := mapgen.New(rules, mapgen.WithSeedSource(seeds), mapgen.WithProgress(func(e mapgen.Event) {
		slog.Debug("stage", "stage", e.Stage, "detail", e.Detail, "elapsed", e.Elapsed)
	}))
	minors := social.NewCityStates(rand.New(rand.NewSource(o.params.Seed)), o.cityStates)

	start := time.Now()
	res, err := g.Generate(o.params, social.DefaultMajors(o.majors), minors)
	if err != nil {
		return err
	}
	printSummary(res, time.Since(start))

	if o.dbPath != "" {
		db, err := persistence.Open(o.dbPath)
		if err != nil {
			return err
		}
		defer db.Close()
		id, err := db.SaveMap(res.Map)
		if err != nil {
			return err
		}
		fmt.Printf("Saved as %s\n", id)
	}
	if o.outPath != "" {
		data, err := json.MarshalIndent(res.Map.Snapshot(), "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(o.outPath, data, 0o644); err != nil {
			return err
		}
		fmt.Printf("Snapshot: %s (%s)\n", o.outPath, humanize.Bytes(uint64(len(data))))
	}
	if o.pngPath != "" {
		if err := writePNG(res.Map, o.pngPath, o.pngMode, o.pngWidth); err != nil {
			return err
		}
		fmt.Printf("Thumbnail: %s\n", o.pngPath)
	}
	if o.geojson != "" {
		data, err := api.StartsGeoJSON(res.Map)
		if err != nil {
			return err
		}
		if err := os.WriteFile(o.geojson, data, 0o644); err != nil {
			return err
		}
		fmt.Printf("Starts: %s\n", o.geojson)
	}
	return nil
}

func writePNG(m *world.Map, path, mode string, width int) error {
	rm, err := api.ParseRenderMode(mode)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, api.Render(m, rm, width)); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func printSummary(res *mapgen.Result, elapsed time.Duration) {
	m := res.Map
	fmt.Printf("\n%s, seed %d, generated in %s\n", m, res.Seed, elapsed.Round(time.Millisecond))

	terrains := map[string]int{}
	land := 0
	for _, t := range m.Tiles {
		terrains[t.Terrain]++
		if t.IsLand() {
			land++
		}
	}
	names := make([]string, 0, len(terrains))
	for name := range terrains {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		fmt.Printf("  %-10s %s\n", name, humanize.Comma(int64(terrains[name])))
	}
	fmt.Printf("Land: %s of %s tiles on %d continents\n",
		humanize.Comma(int64(land)), humanize.Comma(int64(m.Len())), len(m.ContinentSizes))

	for _, s := range res.Starts {
		fmt.Printf("  %-14s %-7s at %v\n", s.Nation, s.Usage, s.Coord)
	}
	for _, u := range res.Unplaced {
		fmt.Printf("  %-14s unplaced (%s): %s\n", u.Nation, u.Kind, u.Reason)
	}
}
