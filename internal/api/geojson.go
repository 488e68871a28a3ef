package api

import (
	geojson "github.com/paulmach/go.geojson"

	"github.com/talgya/hexforge/internal/world"
)

// StartsGeoJSON encodes the starting locations of m as point features and
// each continent as a multipoint feature. Coordinates are hex centers in
// planar map space with y pointing north.
func StartsGeoJSON(m *world.Map) ([]byte, error) {
	fc := geojson.NewFeatureCollection()

	for _, s := range m.StartingLocations {
		x, y := s.Coord.ToPixel()
		f := geojson.NewPointFeature([]float64{x, -y})
		f.SetProperty("kind", "start")
		f.SetProperty("nation", s.Nation)
		f.SetProperty("usage", s.Usage.String())
		f.SetProperty("q", s.Coord.Q)
		f.SetProperty("r", s.Coord.R)
		if t, ok := m.Get(s.Coord); ok {
			f.SetProperty("terrain", t.Terrain)
			f.SetProperty("continent", t.ContinentID)
			f.SetProperty("city_state", t.CityStateStart)
		}
		fc.AddFeature(f)
	}

	for _, id := range m.ContinentIDs() {
		tiles := m.ContinentTiles(id)
		points := make([][]float64, len(tiles))
		for i, t := range tiles {
			x, y := t.Coord.ToPixel()
			points[i] = []float64{x, -y}
		}
		f := geojson.NewMultiPointFeature(points...)
		f.SetProperty("kind", "continent")
		f.SetProperty("continent", id)
		f.SetProperty("size", len(tiles))
		fc.AddFeature(f)
	}

	return fc.MarshalJSON()
}
