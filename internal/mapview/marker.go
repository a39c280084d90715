package mapview

import (
	"fmt"
	"strconv"

	"github.com/sells-group/radar-map/internal/model"
)

// Kind identifies the layer a marker belongs to.
type Kind string

const (
	KindRadar  Kind = "radar"
	KindCamera Kind = "camera"
	KindSearch Kind = "search"
)

// Marker is a renderable point on the map.
type Marker struct {
	ID            string   `json:"id"`
	Kind          Kind     `json:"kind"`
	Lat           float64  `json:"lat"`
	Lng           float64  `json:"lng"`
	Title         string   `json:"title"`
	Tooltip       string   `json:"tooltip,omitempty"`
	Popup         []string `json:"popup"`
	StreetViewURL string   `json:"street_view_url,omitempty"`
}

// StreetViewURL links to the Google Maps panorama at a point.
func StreetViewURL(lat, lng float64) string {
	return "https://www.google.com/maps/@?api=1&map_action=pano&viewpoint=" + formatCoord(lat) + "," + formatCoord(lng)
}

func formatCoord(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// BuildMarkers converts both datasets into markers. IDs are positional
// (radar-<i>, camera-<i>) and stable for a given snapshot.
func BuildMarkers(radars []model.RadarData, cameras []model.CameraData) []Marker {
	markers := make([]Marker, 0, len(radars)+len(cameras))
	for i, r := range radars {
		markers = append(markers, radarMarker(i, r))
	}
	for i, c := range cameras {
		markers = append(markers, cameraMarker(i, c))
	}
	return markers
}

func radarMarker(i int, r model.RadarData) Marker {
	return Marker{
		ID:      fmt.Sprintf("radar-%d", i),
		Kind:    KindRadar,
		Lat:     r.Latitude,
		Lng:     r.Longitude,
		Title:   r.InstallationLocation,
		Tooltip: r.MonitoredSpeed,
		Popup: []string{
			"Local: " + r.InstallationLocation,
			"Faixas Fiscalizadas: " + strconv.Itoa(r.MonitoredLanes),
			"Sentido: " + r.MonitoringDirection,
			"Radar: " + r.EquipmentIdentification,
			"Tipo: " + r.EquipmentType,
			"Velocidade Fiscalizada: " + r.MonitoredSpeed + " Km/h",
		},
		StreetViewURL: StreetViewURL(r.Latitude, r.Longitude),
	}
}

func cameraMarker(i int, c model.CameraData) Marker {
	return Marker{
		ID:            fmt.Sprintf("camera-%d", i),
		Kind:          KindCamera,
		Lat:           c.Latitude,
		Lng:           c.Longitude,
		Title:         c.Address,
		Popup:         []string{"Local: " + c.Address},
		StreetViewURL: StreetViewURL(c.Latitude, c.Longitude),
	}
}
