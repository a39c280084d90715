package geocode

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// cacheKey returns the store key for a normalized query.
func cacheKey(query, region string, limit int) string {
	normalized := fmt.Sprintf("%s|%s|%d",
		strings.ToLower(strings.TrimSpace(query)),
		strings.ToLower(strings.TrimSpace(region)),
		limit,
	)
	h := sha256.Sum256([]byte(normalized))
	return fmt.Sprintf("geocode:%x", h)
}

// checkCache returns cached places for key. Any failure is a miss.
func (g *geocoder) checkCache(ctx context.Context, key string) ([]Place, bool) {
	if g.cache == nil {
		return nil, false
	}
	raw, err := g.cache.Get(ctx, key)
	if err != nil {
		zap.L().Warn("geocode: cache read failed", zap.Error(err))
		return nil, false
	}
	if raw == nil {
		return nil, false
	}
	var places []Place
	if err := json.Unmarshal(raw, &places); err != nil || places == nil {
		return nil, false
	}
	zap.L().Debug("geocode cache hit", zap.String("key", key[:20]))
	return places, true
}

// storeCache saves places under key, including empty result sets.
func (g *geocoder) storeCache(ctx context.Context, key string, places []Place) {
	if g.cache == nil || g.cacheTTL <= 0 {
		return
	}
	payload, err := json.Marshal(places)
	if err != nil {
		return
	}
	if err := g.cache.Set(ctx, key, payload, g.cacheTTL); err != nil {
		zap.L().Warn("geocode: cache write failed", zap.Error(err))
	}
}
