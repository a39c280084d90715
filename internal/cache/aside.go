// Package cache implements cache-aside access to the feed snapshots on top of
// a store.Store, with a long-lived stale copy used when the upstream fails.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/sells-group/radar-map/internal/model"
	"github.com/sells-group/radar-map/internal/resilience"
	"github.com/sells-group/radar-map/internal/store"
)

// Cache keys of the two datasets.
const (
	RadarsKey  = "radars_data"
	CamerasKey = "cameras_data"
)

// Default lifetimes of the primary and stale entries.
const (
	DefaultTTL      = 24 * time.Hour
	DefaultStaleTTL = 7 * 24 * time.Hour
)

// Source tells where a Get result came from.
type Source string

const (
	SourceCache    Source = "cache"
	SourceUpstream Source = "upstream"
	SourceStale    Source = "stale"
)

// KeyFor returns the cache key of a dataset.
func KeyFor(d model.Dataset) string {
	if d == model.DatasetCameras {
		return CamerasKey
	}
	return RadarsKey
}

// StaleKey returns the key holding the fallback copy of key.
func StaleKey(key string) string {
	return key + ":stale"
}

// FetchFunc loads a fresh array from the upstream.
type FetchFunc[T any] func(ctx context.Context) ([]T, error)

// AsideOptions tunes an Aside loader.
type AsideOptions struct {
	TTL      time.Duration
	StaleTTL time.Duration
	Breaker  *resilience.Breaker
}

// Aside serves one dataset from the store, falling back to the upstream on a
// miss and to the stale copy when the upstream fails.
type Aside[T any] struct {
	store store.Store
	key   string
	fetch FetchFunc[T]
	opts  AsideOptions
	group singleflight.Group
}

// NewAside creates a loader for key.
func NewAside[T any](st store.Store, key string, fetch func(ctx context.Context) ([]T, error), opts AsideOptions) *Aside[T] {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.StaleTTL < opts.TTL {
		opts.StaleTTL = DefaultStaleTTL
		if opts.StaleTTL < opts.TTL {
			opts.StaleTTL = opts.TTL
		}
	}
	return &Aside[T]{store: st, key: key, fetch: fetch, opts: opts}
}

// Key returns the primary cache key.
func (a *Aside[T]) Key() string { return a.key }

// Get returns the cached array, or fetches and stores it on a miss. When the
// upstream fails a previously stored copy is returned with SourceStale.
func (a *Aside[T]) Get(ctx context.Context) ([]T, Source, error) {
	if data, ok := a.read(ctx, a.key); ok {
		return data, SourceCache, nil
	}

	data, err := a.load(ctx)
	if err == nil {
		return data, SourceUpstream, nil
	}
	if ctx.Err() != nil {
		return nil, "", eris.Wrapf(ctx.Err(), "cache: get %s", a.key)
	}

	for _, key := range []string{a.key, StaleKey(a.key)} {
		if data, ok := a.read(ctx, key); ok {
			zap.L().Warn("cache: serving stale data",
				zap.String("key", a.key),
				zap.String("from", key),
				zap.Int("count", len(data)),
				zap.Error(err),
			)
			return data, SourceStale, nil
		}
	}
	return nil, "", err
}

// Warm fetches from the upstream regardless of the cached state and
// repopulates both entries.
func (a *Aside[T]) Warm(ctx context.Context) ([]T, error) {
	return a.load(ctx)
}

// Invalidate deletes the primary entry. The stale copy is kept.
func (a *Aside[T]) Invalidate(ctx context.Context) error {
	if err := a.store.Delete(ctx, a.key); err != nil {
		return eris.Wrapf(err, "cache: invalidate %s", a.key)
	}
	zap.L().Info("cache: invalidated", zap.String("key", a.key))
	return nil
}

// load runs one upstream fetch per key at a time. The shared fetch is detached
// from the caller's cancellation so a departing caller does not fail the
// others waiting on it.
func (a *Aside[T]) load(ctx context.Context) ([]T, error) {
	ch := a.group.DoChan(a.key, func() (any, error) {
		return a.fetchAndStore(context.WithoutCancel(ctx))
	})
	select {
	case <-ctx.Done():
		return nil, eris.Wrapf(ctx.Err(), "cache: load %s", a.key)
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]T), nil
	}
}

func (a *Aside[T]) fetchAndStore(ctx context.Context) ([]T, error) {
	start := time.Now()
	data, err := resilience.Call(ctx, a.opts.Breaker, func(ctx context.Context) ([]T, error) {
		return a.fetch(ctx)
	})
	if err != nil {
		zap.L().Error("cache: upstream fetch failed", zap.String("key", a.key), zap.Error(err))
		return nil, eris.Wrapf(err, "cache: fetch %s", a.key)
	}
	if data == nil {
		data = []T{}
	}

	payload, err := json.Marshal(data)
	if err != nil {
		return nil, eris.Wrapf(err, "cache: encode %s", a.key)
	}
	a.write(ctx, a.key, payload, a.opts.TTL)
	a.write(ctx, StaleKey(a.key), payload, a.opts.StaleTTL)

	zap.L().Info("cache: refreshed from upstream",
		zap.String("key", a.key),
		zap.Int("count", len(data)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return data, nil
}

// read returns the decoded array under key. Store errors and undecodable
// payloads count as a miss.
func (a *Aside[T]) read(ctx context.Context, key string) ([]T, bool) {
	raw, err := a.store.Get(ctx, key)
	if err != nil {
		zap.L().Warn("cache: read failed", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	if raw == nil {
		return nil, false
	}
	var data []T
	if err := json.Unmarshal(raw, &data); err != nil {
		zap.L().Warn("cache: discarding undecodable entry", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	if data == nil {
		return nil, false
	}
	return data, true
}

func (a *Aside[T]) write(ctx context.Context, key string, payload []byte, ttl time.Duration) {
	if err := a.store.Set(ctx, key, payload, ttl); err != nil {
		zap.L().Warn("cache: write failed", zap.String("key", key), zap.Error(err))
	}
}
