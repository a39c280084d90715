// Package server exposes the feeds, the cache administration endpoints, the
// geocoder proxy and the map page over HTTP.
package server

import (
	"embed"
	"io/fs"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sells-group/radar-map/internal/cache"
	"github.com/sells-group/radar-map/internal/mapview"
	"github.com/sells-group/radar-map/internal/model"
	"github.com/sells-group/radar-map/internal/store"
	"github.com/sells-group/radar-map/pkg/geocode"
)

//go:embed web
var webFS embed.FS

// MapSettings is the initial view served to the page.
type MapSettings struct {
	Defaults mapview.Defaults
	TileURL  string
	Debounce time.Duration
}

// Deps holds everything the handlers need. Geocoder may be nil, in which case
// the geocode endpoint answers 503.
type Deps struct {
	Store          store.Store
	Radars         *cache.Aside[model.RadarData]
	Cameras        *cache.Aside[model.CameraData]
	Geocoder       geocode.Client
	Map            MapSettings
	CORSOrigins    []string
	RequestTimeout time.Duration
}

// Handler serves the HTTP API.
type Handler struct {
	deps     Deps
	datasets map[model.Dataset]datasetOps
}

// datasetOps erases the element type of a dataset's loader for the
// administration endpoints.
type datasetOps struct {
	invalidate func(r *http.Request) error
	warm       func(r *http.Request) (int, error)
}

func opsFor[T any](a *cache.Aside[T]) datasetOps {
	return datasetOps{
		invalidate: func(r *http.Request) error { return a.Invalidate(r.Context()) },
		warm: func(r *http.Request) (int, error) {
			data, err := a.Warm(r.Context())
			return len(data), err
		},
	}
}

// NewHandler creates a Handler.
func NewHandler(d Deps) *Handler {
	h := &Handler{deps: d, datasets: make(map[model.Dataset]datasetOps)}
	if d.Radars != nil {
		h.datasets[model.DatasetRadars] = opsFor(d.Radars)
	}
	if d.Cameras != nil {
		h.datasets[model.DatasetCameras] = opsFor(d.Cameras)
	}
	return h
}

// NewRouter builds the chi router with middleware and all routes.
func NewRouter(d Deps) http.Handler {
	h := NewHandler(d)

	origins := d.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	timeout := d.RequestTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Cache"},
		MaxAge:         300,
	}))
	r.Use(middleware.Timeout(timeout))

	r.Get("/health", h.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/radars", h.handleRadars)
		r.Get("/cameras", h.handleCameras)
		r.Get("/cache", h.handleCacheStatus)
		r.Delete("/cache/{dataset}", h.handleCacheInvalidate)
		r.Post("/cache/{dataset}/refresh", h.handleCacheRefresh)
		r.Get("/geocode", h.handleGeocode)
		r.Get("/map", h.handleMap)
		r.Get("/markers.geojson", h.handleMarkersGeoJSON)
	})

	static, _ := fs.Sub(webFS, "web")
	r.Handle("/*", http.FileServer(http.FS(static)))

	return r
}
