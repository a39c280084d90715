package mapview

import (
	"encoding/json"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
)

// FeatureCollection converts markers into a GeoJSON FeatureCollection with
// point geometries in [lng, lat] order.
func FeatureCollection(markers []Marker) *geojson.FeatureCollection {
	fc := &geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(markers))}
	for _, m := range markers {
		props := map[string]any{
			"kind":  string(m.Kind),
			"title": m.Title,
			"popup": m.Popup,
		}
		if m.Tooltip != "" {
			props["tooltip"] = m.Tooltip
		}
		if m.StreetViewURL != "" {
			props["street_view_url"] = m.StreetViewURL
		}
		fc.Features = append(fc.Features, &geojson.Feature{
			ID:         m.ID,
			Geometry:   geom.NewPointFlat(geom.XY, []float64{m.Lng, m.Lat}),
			Properties: props,
		})
	}
	return fc
}

// MarshalGeoJSON encodes markers as a GeoJSON document.
func MarshalGeoJSON(markers []Marker) ([]byte, error) {
	b, err := json.Marshal(FeatureCollection(markers))
	if err != nil {
		return nil, eris.Wrap(err, "mapview: marshal geojson")
	}
	return b, nil
}
