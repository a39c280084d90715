package server

import (
	"net/url"
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/sells-group/radar-map/internal/mapview"
)

// viewParams reads the view query shared by /api/map and
// /api/markers.geojson:
//
//	radars=0|1 cameras=0|1     layer visibility
//	lat=..&lon=..[&label=..]   select a search result
//	open=<marker id>           open that marker's popup
//	popup=0                    keep every popup closed
func viewParams(q url.Values) (mapview.Params, error) {
	var p mapview.Params
	var err error

	if p.ShowRadars, err = boolParam(q, "radars"); err != nil {
		return p, err
	}
	if p.ShowCameras, err = boolParam(q, "cameras"); err != nil {
		return p, err
	}

	lat, lon := q.Get("lat"), q.Get("lon")
	switch {
	case lat != "" && lon != "":
		place, err := placeParam(lat, lon, q.Get("label"))
		if err != nil {
			return p, err
		}
		p.Place = place
	case lat != "" || lon != "":
		return p, eris.New("lat and lon must be given together")
	}

	p.Open = q.Get("open")
	popup, err := boolParam(q, "popup")
	if err != nil {
		return p, err
	}
	p.HidePopup = popup != nil && !*popup
	return p, nil
}

func boolParam(q url.Values, name string) (*bool, error) {
	raw := q.Get(name)
	if raw == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, eris.Errorf("invalid %s: %q", name, raw)
	}
	return &b, nil
}

func placeParam(rawLat, rawLon, label string) (*mapview.Place, error) {
	lat, err := strconv.ParseFloat(rawLat, 64)
	if err != nil || lat < -90 || lat > 90 {
		return nil, eris.Errorf("invalid lat: %q", rawLat)
	}
	lon, err := strconv.ParseFloat(rawLon, 64)
	if err != nil || lon < -180 || lon > 180 {
		return nil, eris.Errorf("invalid lon: %q", rawLon)
	}
	if label == "" {
		label = strconv.FormatFloat(lat, 'f', 6, 64) + ", " + strconv.FormatFloat(lon, 'f', 6, 64)
	}
	return &mapview.Place{Lat: lat, Lng: lon, Label: label}, nil
}
