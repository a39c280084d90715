// Package store provides the key/value backends used for caching feed
// snapshots: Redis, PostgreSQL, SQLite and an in-process map.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
)

// NoExpiry is returned by TTL for keys that exist without an expiry.
const NoExpiry time.Duration = -1

// Store is a byte-oriented key/value store with per-key expiry.
type Store interface {
	// Get returns the value stored under key, or nil without error when the
	// key is absent or expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key for ttl, replacing any previous value.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// TTL returns the remaining lifetime of key and whether it exists.
	// Keys without expiry report NoExpiry.
	TTL(ctx context.Context, key string) (time.Duration, bool, error)

	// Ping checks connectivity with the backend.
	Ping(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}

// Purger is implemented by backends that keep expired rows until swept.
type Purger interface {
	// Purge deletes expired entries and returns how many were removed.
	Purge(ctx context.Context) (int, error)
}

// Options selects and configures a backend for Open.
type Options struct {
	Driver      string
	RedisURL    string
	DatabaseURL string
	SQLitePath  string
}

// Open creates the backend named by opts.Driver. SQL backends are migrated
// before being returned.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Driver {
	case "redis":
		return NewRedis(opts.RedisURL)
	case "postgres":
		st, err := NewPostgres(ctx, opts.DatabaseURL, nil)
		if err != nil {
			return nil, err
		}
		if err := st.Migrate(ctx); err != nil {
			st.Close() //nolint:errcheck
			return nil, err
		}
		return st, nil
	case "sqlite":
		st, err := NewSQLite(opts.SQLitePath)
		if err != nil {
			return nil, err
		}
		if err := st.Migrate(ctx); err != nil {
			st.Close() //nolint:errcheck
			return nil, err
		}
		return st, nil
	case "memory":
		return NewMemory(), nil
	default:
		return nil, eris.Errorf("store: unsupported driver %q", opts.Driver)
	}
}
