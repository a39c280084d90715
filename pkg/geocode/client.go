// Package geocode searches addresses through the Nominatim API, restricted to
// a region and optionally cached in a store.Store.
package geocode

import (
	"context"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/sells-group/radar-map/internal/store"
)

// MinQueryLength is the shortest trimmed query sent upstream.
const MinQueryLength = 3

const (
	defaultBaseURL   = "https://nominatim.openstreetmap.org"
	defaultRegion    = "Pernambuco,Brazil"
	defaultLimit     = 5
	defaultUserAgent = "radar-map/1.0"
)

// Client searches places by free-text query.
type Client interface {
	// Search returns up to the configured number of places matching query.
	// Queries shorter than MinQueryLength return no results without a request.
	Search(ctx context.Context, query string) ([]Place, error)
}

// Place is one search result.
type Place struct {
	PlaceID     int64             `json:"place_id"`
	DisplayName string            `json:"display_name"`
	Lat         float64           `json:"lat"`
	Lon         float64           `json:"lon"`
	Type        string            `json:"type,omitempty"`
	Address     map[string]string `json:"address,omitempty"`
}

// Option configures the geocoder.
type Option func(*geocoder)

// WithBaseURL points the client at another Nominatim instance.
func WithBaseURL(u string) Option {
	return func(g *geocoder) {
		if u != "" {
			g.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(g *geocoder) {
		g.httpClient = hc
	}
}

// WithRateLimit sets the requests-per-second limit. Public Nominatim allows 1.
func WithRateLimit(rps float64) Option {
	return func(g *geocoder) {
		if rps <= 0 {
			return
		}
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		g.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithRegion sets the suffix appended to every query.
func WithRegion(region string) Option {
	return func(g *geocoder) {
		g.region = region
	}
}

// WithLimit sets the maximum number of results.
func WithLimit(n int) Option {
	return func(g *geocoder) {
		if n > 0 {
			g.limit = n
		}
	}
}

// WithUserAgent sets the User-Agent header. Nominatim rejects anonymous clients.
func WithUserAgent(ua string) Option {
	return func(g *geocoder) {
		if ua != "" {
			g.userAgent = ua
		}
	}
}

// WithCache stores results under geocode:<hash> for ttl.
func WithCache(st store.Store, ttl time.Duration) Option {
	return func(g *geocoder) {
		g.cache = st
		g.cacheTTL = ttl
	}
}

type geocoder struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
	region     string
	limit      int
	userAgent  string
	cache      store.Store
	cacheTTL   time.Duration
}

// NewClient creates a new geocoding Client with the given options.
func NewClient(opts ...Option) Client {
	g := &geocoder{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		limiter:    rate.NewLimiter(1, 1),
		baseURL:    defaultBaseURL,
		region:     defaultRegion,
		limit:      defaultLimit,
		userAgent:  defaultUserAgent,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Search implements Client.
func (g *geocoder) Search(ctx context.Context, query string) ([]Place, error) {
	query = strings.TrimSpace(query)
	if len([]rune(query)) < MinQueryLength {
		return []Place{}, nil
	}

	key := cacheKey(query, g.region, g.limit)
	if places, ok := g.checkCache(ctx, key); ok {
		return places, nil
	}

	places, err := g.searchNominatim(ctx, query)
	if err != nil {
		return nil, err
	}
	g.storeCache(ctx, key, places)
	return places, nil
}
