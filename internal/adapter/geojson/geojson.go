// Package geojson renders markers as a GeoJSON FeatureCollection of points
// for map clients.
package geojson

import (
	"encoding/json"

	"github.com/twpayne/go-geom"
	geomjson "github.com/twpayne/go-geom/encoding/geojson"

	"github.com/couchcryptid/german-heritage-map/internal/domain"
)

// Feature property keys.
const (
	PropTitle       = "title"
	PropCity        = "city"
	PropCounty      = "county"
	PropDescription = "description"
	PropYear        = "year"
	PropColor       = "color"
	PropGeoSource   = "geo_source"
)

// FeatureCollection builds one Point feature per marker, in order. Unknown
// years are emitted as null.
func FeatureCollection(markers []domain.Marker) *geomjson.FeatureCollection {
	features := make([]*geomjson.Feature, 0, len(markers))
	for i := range markers {
		features = append(features, feature(markers[i]))
	}
	return &geomjson.FeatureCollection{Features: features}
}

// Marshal encodes markers as a GeoJSON FeatureCollection document.
func Marshal(markers []domain.Marker) ([]byte, error) {
	return json.Marshal(FeatureCollection(markers))
}

func feature(m domain.Marker) *geomjson.Feature {
	var year any
	if m.HasYear() {
		year = m.Year
	}
	// GeoJSON positions are [lon, lat].
	point := geom.NewPointFlat(geom.XY, []float64{m.Geo.Lon, m.Geo.Lat})
	return &geomjson.Feature{
		ID:       m.ID,
		Geometry: point,
		Properties: map[string]any{
			PropTitle:       m.Title,
			PropCity:        m.City,
			PropCounty:      m.County,
			PropDescription: m.DisplayDescription(),
			PropYear:        year,
			PropColor:       domain.PinColor(m),
			PropGeoSource:   m.GeoSource,
		},
	}
}
