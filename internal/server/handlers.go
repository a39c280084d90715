package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/radar-map/internal/cache"
	"github.com/sells-group/radar-map/internal/mapview"
	"github.com/sells-group/radar-map/internal/model"
	"github.com/sells-group/radar-map/pkg/geocode"
)

// Error messages shown to the page.
const (
	msgRadarsFailed  = "Erro ao buscar dados de radares"
	msgCamerasFailed = "Erro ao buscar dados de câmeras"
	msgStatusFailed  = "Erro ao verificar status do cache"
	msgGeocodeFailed = "Erro ao buscar endereço"
)

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Debug("server: write response", zap.Error(err))
	}
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]string{"status": "ok", "store": "ok"}
	if h.deps.Store == nil {
		resp["store"] = "disabled"
		h.writeJSON(w, http.StatusOK, resp)
		return
	}
	if err := h.deps.Store.Ping(r.Context()); err != nil {
		resp["status"] = "degraded"
		resp["store"] = err.Error()
		h.writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleRadars(w http.ResponseWriter, r *http.Request) {
	serveDataset(h, w, r, h.deps.Radars, msgRadarsFailed)
}

func (h *Handler) handleCameras(w http.ResponseWriter, r *http.Request) {
	serveDataset(h, w, r, h.deps.Cameras, msgCamerasFailed)
}

func serveDataset[T any](h *Handler, w http.ResponseWriter, r *http.Request, a *cache.Aside[T], failMsg string) {
	if a == nil {
		h.writeJSON(w, http.StatusInternalServerError, model.Failed[T](failMsg))
		return
	}
	data, src, err := a.Get(r.Context())
	if err != nil {
		zap.L().Error("server: dataset unavailable", zap.String("key", a.Key()), zap.Error(err))
		h.writeJSON(w, http.StatusInternalServerError, model.Failed[T](failMsg))
		return
	}
	w.Header().Set("X-Cache", string(src))
	h.writeJSON(w, http.StatusOK, model.OK(data))
}

func (h *Handler) handleCacheStatus(w http.ResponseWriter, r *http.Request) {
	if h.deps.Store == nil {
		h.writeJSON(w, http.StatusInternalServerError, model.CacheStatus{Error: msgStatusFailed})
		return
	}
	status, err := cache.Status(r.Context(), h.deps.Store)
	if err != nil {
		zap.L().Error("server: cache status", zap.Error(err))
		h.writeJSON(w, http.StatusInternalServerError, model.CacheStatus{Error: msgStatusFailed})
		return
	}
	h.writeJSON(w, http.StatusOK, model.CacheStatus{Success: true, CacheStatus: status})
}

func (h *Handler) datasetParam(w http.ResponseWriter, r *http.Request) (model.Dataset, datasetOps, bool) {
	name := chi.URLParam(r, "dataset")
	d, ok := model.ParseDataset(name)
	if ok {
		if ops, found := h.datasets[d]; found {
			return d, ops, true
		}
	}
	h.writeJSON(w, http.StatusNotFound, map[string]any{
		"success": false,
		"error":   "unknown dataset: " + name,
	})
	return "", datasetOps{}, false
}

func (h *Handler) handleCacheInvalidate(w http.ResponseWriter, r *http.Request) {
	d, ops, ok := h.datasetParam(w, r)
	if !ok {
		return
	}
	if err := ops.invalidate(r); err != nil {
		zap.L().Error("server: cache invalidate", zap.String("dataset", string(d)), zap.Error(err))
		h.writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": err.Error()})
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"success": true, "dataset": d})
}

func (h *Handler) handleCacheRefresh(w http.ResponseWriter, r *http.Request) {
	d, ops, ok := h.datasetParam(w, r)
	if !ok {
		return
	}
	n, err := ops.warm(r)
	if err != nil {
		zap.L().Error("server: cache refresh", zap.String("dataset", string(d)), zap.Error(err))
		h.writeJSON(w, http.StatusBadGateway, map[string]any{"success": false, "dataset": d, "error": err.Error()})
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"success": true, "dataset": d, "count": n})
}

func (h *Handler) handleGeocode(w http.ResponseWriter, r *http.Request) {
	if h.deps.Geocoder == nil {
		h.writeJSON(w, http.StatusServiceUnavailable, model.Failed[geocode.Place]("geocoding disabled"))
		return
	}
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	places, err := h.deps.Geocoder.Search(r.Context(), q)
	if err != nil {
		zap.L().Warn("server: geocode", zap.String("query", q), zap.Error(err))
		h.writeJSON(w, http.StatusBadGateway, model.Failed[geocode.Place](msgGeocodeFailed))
		return
	}
	h.writeJSON(w, http.StatusOK, model.OK(places))
}

// mapResponse is the initial view sent to the page.
type mapResponse struct {
	*mapview.View
	SearchZoom int    `json:"search_zoom"`
	TileURL    string `json:"tile_url"`
	DebounceMs int64  `json:"debounce_ms"`
}

// newView builds the view described by the request query. It writes a 400
// and returns nil when the query is invalid.
func (h *Handler) newView(w http.ResponseWriter, r *http.Request) *mapview.View {
	params, err := viewParams(r.URL.Query())
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": err.Error()})
		return nil
	}
	v := mapview.NewView(h.deps.Map.Defaults)
	v.Apply(params)
	return v
}

func (h *Handler) handleMap(w http.ResponseWriter, r *http.Request) {
	settings := h.deps.Map
	v := h.newView(w, r)
	if v == nil {
		return
	}
	searchZoom := settings.Defaults.SearchZoom
	if searchZoom <= 0 {
		searchZoom = mapview.DefaultSearchZoom
	}
	debounce := settings.Debounce
	if debounce <= 0 {
		debounce = mapview.DefaultDebounce
	}
	h.writeJSON(w, http.StatusOK, mapResponse{
		View:       v,
		SearchZoom: searchZoom,
		TileURL:    settings.TileURL,
		DebounceMs: debounce.Milliseconds(),
	})
}

// handleMarkersGeoJSON exports the markers visible in the requested view. A
// dataset that cannot be loaded is left out rather than failing the other.
func (h *Handler) handleMarkersGeoJSON(w http.ResponseWriter, r *http.Request) {
	v := h.newView(w, r)
	if v == nil {
		return
	}

	var (
		radars  []model.RadarData
		cameras []model.CameraData
	)
	var g errgroup.Group
	g.Go(func() error {
		radars = loadQuiet(r.Context(), h.deps.Radars)
		return nil
	})
	g.Go(func() error {
		cameras = loadQuiet(r.Context(), h.deps.Cameras)
		return nil
	})
	_ = g.Wait()

	markers := v.VisibleMarkers(mapview.BuildMarkers(radars, cameras))
	b, err := mapview.MarshalGeoJSON(markers)
	if err != nil {
		h.writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": err.Error()})
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}

func loadQuiet[T any](ctx context.Context, a *cache.Aside[T]) []T {
	if a == nil {
		return nil
	}
	data, _, err := a.Get(ctx)
	if err != nil {
		zap.L().Warn("server: skipping dataset in geojson export", zap.String("key", a.Key()), zap.Error(err))
		return nil
	}
	return data
}
