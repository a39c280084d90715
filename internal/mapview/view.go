// Package mapview holds the interactive map state: the viewport, layer
// toggles, the open popup and the address search marker.
package mapview

import (
	"github.com/google/uuid"
)

// Default viewport over central Recife.
const (
	DefaultCenterLat  = -8.052643905437522
	DefaultCenterLng  = -34.88519751855592
	DefaultZoom       = 15
	DefaultSearchZoom = 17
)

// LatLng is a WGS84 position.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Defaults configures a new View.
type Defaults struct {
	Center     LatLng
	Zoom       int
	SearchZoom int
}

// View is the state of one map session. It is not safe for concurrent use.
type View struct {
	Center      LatLng  `json:"center"`
	Zoom        int     `json:"zoom"`
	ShowRadars  bool    `json:"show_radars"`
	ShowCameras bool    `json:"show_cameras"`
	ActiveID    string  `json:"active_id,omitempty"`
	Search      *Marker `json:"search,omitempty"`

	searchZoom int
}

// NewView returns a view with radars shown and cameras hidden. Zero fields in
// d fall back to the package defaults.
func NewView(d Defaults) *View {
	if d.Center == (LatLng{}) {
		d.Center = LatLng{Lat: DefaultCenterLat, Lng: DefaultCenterLng}
	}
	if d.Zoom <= 0 {
		d.Zoom = DefaultZoom
	}
	if d.SearchZoom <= 0 {
		d.SearchZoom = DefaultSearchZoom
	}
	return &View{
		Center:     d.Center,
		Zoom:       d.Zoom,
		ShowRadars: true,
		searchZoom: d.SearchZoom,
	}
}

// ToggleRadars flips radar layer visibility.
func (v *View) ToggleRadars() { v.ShowRadars = !v.ShowRadars }

// ToggleCameras flips camera layer visibility.
func (v *View) ToggleCameras() { v.ShowCameras = !v.ShowCameras }

// Open marks id as the marker whose popup is shown. Only one popup is open
// at a time.
func (v *View) Open(id string) { v.ActiveID = id }

// Close hides the open popup.
func (v *View) Close() { v.ActiveID = "" }

// SelectPlace recenters on a search result, places the search marker and
// opens its popup. The previous search marker is replaced.
func (v *View) SelectPlace(lat, lng float64, label string) *Marker {
	m := &Marker{
		ID:            "search-" + uuid.NewString(),
		Kind:          KindSearch,
		Lat:           lat,
		Lng:           lng,
		Title:         label,
		Popup:         []string{label},
		StreetViewURL: StreetViewURL(lat, lng),
	}
	v.Center = LatLng{Lat: lat, Lng: lng}
	v.Zoom = v.searchZoom
	v.Search = m
	v.ActiveID = m.ID
	return m
}

// Place is a search result chosen by the user.
type Place struct {
	Lat   float64
	Lng   float64
	Label string
}

// Params describes changes to apply to a fresh View. Nil toggles keep the
// default visibility.
type Params struct {
	ShowRadars  *bool
	ShowCameras *bool
	Place       *Place
	Open        string
	// HidePopup closes whatever popup Place or Open would show.
	HidePopup bool
}

// Apply changes v in the order a user would: layer toggles, place selection,
// then the open popup.
func (v *View) Apply(p Params) {
	if p.ShowRadars != nil && *p.ShowRadars != v.ShowRadars {
		v.ToggleRadars()
	}
	if p.ShowCameras != nil && *p.ShowCameras != v.ShowCameras {
		v.ToggleCameras()
	}
	if p.Place != nil {
		v.SelectPlace(p.Place.Lat, p.Place.Lng, p.Place.Label)
	}
	if p.Open != "" {
		v.Open(p.Open)
	}
	if p.HidePopup {
		v.Close()
	}
}

// VisibleMarkers filters markers by the layer toggles and appends the search
// marker when present.
func (v *View) VisibleMarkers(markers []Marker) []Marker {
	out := make([]Marker, 0, len(markers)+1)
	for _, m := range markers {
		switch m.Kind {
		case KindRadar:
			if !v.ShowRadars {
				continue
			}
		case KindCamera:
			if !v.ShowCameras {
				continue
			}
		}
		out = append(out, m)
	}
	if v.Search != nil {
		out = append(out, *v.Search)
	}
	return out
}
