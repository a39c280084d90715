package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/radar-map/internal/cache"
	"github.com/sells-group/radar-map/internal/config"
	"github.com/sells-group/radar-map/internal/feed"
	"github.com/sells-group/radar-map/internal/fetcher"
	"github.com/sells-group/radar-map/internal/model"
	"github.com/sells-group/radar-map/internal/resilience"
	"github.com/sells-group/radar-map/internal/store"
	"github.com/sells-group/radar-map/pkg/geocode"
)

// appEnv holds the store, loaders and clients shared by the serve and cache
// commands.
type appEnv struct {
	Store    store.Store
	Feeds    *feed.Client
	Radars   *cache.Aside[model.RadarData]
	Cameras  *cache.Aside[model.CameraData]
	Geocoder geocode.Client
}

// Close releases resources held by the environment.
func (e *appEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// newFeedClient builds the upstream CSV client from configuration.
func newFeedClient(c *config.Config) *feed.Client {
	f := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		UserAgent:   c.Upstream.UserAgent,
		Timeout:     time.Duration(c.Upstream.TimeoutSecs) * time.Second,
		MaxAttempts: c.Upstream.MaxAttempts,
	})
	return feed.NewClient(f, c.Upstream.RadarsURL, c.Upstream.CamerasURL)
}

// geocoderOptions maps the geocode settings onto client options. The result
// cache is added by callers that hold a store.
func geocoderOptions(c *config.Config) []geocode.Option {
	return []geocode.Option{
		geocode.WithBaseURL(c.Geocode.BaseURL),
		geocode.WithRegion(c.Geocode.Region),
		geocode.WithLimit(c.Geocode.Limit),
		geocode.WithUserAgent(c.Geocode.UserAgent),
		geocode.WithRateLimit(c.Geocode.RatePerSec),
	}
}

// initEnv validates the configuration for mode, opens the store and wires
// the cache-aside loaders. Callers should defer env.Close().
func initEnv(ctx context.Context, c *config.Config, mode string) (*appEnv, error) {
	if err := c.Validate(mode); err != nil {
		return nil, err
	}

	st, err := store.Open(ctx, store.Options{
		Driver:      c.Cache.Driver,
		RedisURL:    c.Cache.RedisURL,
		DatabaseURL: c.Cache.DatabaseURL,
		SQLitePath:  c.Cache.SQLitePath,
	})
	if err != nil {
		return nil, eris.Wrap(err, "open store")
	}
	return wireEnv(c, st), nil
}

// wireEnv builds the loaders and geocoder on an already opened store.
func wireEnv(c *config.Config, st store.Store) *appEnv {
	feeds := newFeedClient(c)
	opts := func(name string) cache.AsideOptions {
		return cache.AsideOptions{
			TTL:      time.Duration(c.Cache.TTLHours) * time.Hour,
			StaleTTL: time.Duration(c.Cache.StaleTTLHours) * time.Hour,
			Breaker: resilience.NewBreaker(resilience.BreakerConfig{
				Name:         name,
				Threshold:    c.Upstream.BreakerThreshold,
				ResetTimeout: time.Duration(c.Upstream.BreakerResetSecs) * time.Second,
			}),
		}
	}

	geoOpts := geocoderOptions(c)
	if c.Geocode.CacheTTLHours > 0 {
		geoOpts = append(geoOpts, geocode.WithCache(st, time.Duration(c.Geocode.CacheTTLHours)*time.Hour))
	}

	zap.L().Debug("environment ready",
		zap.String("driver", c.Cache.Driver),
		zap.Int("ttl_hours", c.Cache.TTLHours),
	)

	return &appEnv{
		Store:    st,
		Feeds:    feeds,
		Radars:   cache.NewAside(st, cache.RadarsKey, feeds.Radars, opts("radars")),
		Cameras:  cache.NewAside(st, cache.CamerasKey, feeds.Cameras, opts("cameras")),
		Geocoder: geocode.NewClient(geoOpts...),
	}
}
