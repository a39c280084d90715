package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// storeContract exercises the behaviour every backend must share.
func storeContract(t *testing.T, st Store) {
	t.Helper()
	ctx := context.Background()

	got, err := st.Get(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, got)

	_, ok, err := st.TTL(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, st.Set(ctx, "radars_data", []byte(`[{"equipment_type":"Radar"}]`), 24*time.Hour))
	got, err = st.Get(ctx, "radars_data")
	require.NoError(t, err)
	assert.Equal(t, `[{"equipment_type":"Radar"}]`, string(got))

	ttl, ok, err := st.TTL(ctx, "radars_data")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Greater(t, ttl, 23*time.Hour)
	assert.LessOrEqual(t, ttl, 24*time.Hour)

	require.NoError(t, st.Set(ctx, "radars_data", []byte(`[]`), 24*time.Hour))
	got, err = st.Get(ctx, "radars_data")
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(got))

	require.NoError(t, st.Set(ctx, "forever", []byte("x"), 0))
	ttl, ok, err = st.TTL(ctx, "forever")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, NoExpiry, ttl)

	require.NoError(t, st.Delete(ctx, "radars_data"))
	require.NoError(t, st.Delete(ctx, "radars_data"))
	got, err = st.Get(ctx, "radars_data")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, st.Ping(ctx))
}

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	st, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func newTestRedis(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	st, err := NewRedis("redis://" + mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	return st, mr
}

func TestStoreContract(t *testing.T) {
	t.Run("memory", func(t *testing.T) {
		storeContract(t, NewMemory())
	})
	t.Run("sqlite", func(t *testing.T) {
		storeContract(t, newTestSQLite(t))
	})
	t.Run("redis", func(t *testing.T) {
		st, _ := newTestRedis(t)
		storeContract(t, st)
	})
}

func TestRedis_Expiry(t *testing.T) {
	st, mr := newTestRedis(t)
	ctx := context.Background()

	require.NoError(t, st.Set(ctx, "cameras_data", []byte("[]"), 24*time.Hour))
	ttl, ok, err := st.TTL(ctx, "cameras_data")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 24*time.Hour, ttl)

	mr.FastForward(25 * time.Hour)

	got, err := st.Get(ctx, "cameras_data")
	require.NoError(t, err)
	assert.Nil(t, got)
	_, ok, err = st.TTL(ctx, "cameras_data")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedis_ServerDown(t *testing.T) {
	st, mr := newTestRedis(t)
	mr.Close()

	_, err := st.Get(context.Background(), "radars_data")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis: get radars_data")
	assert.Error(t, st.Ping(context.Background()))
}

func TestNewRedis_BadURL(t *testing.T) {
	_, err := NewRedis("http://nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis: parse url")
}

func TestMemory_Expiry(t *testing.T) {
	st := NewMemory()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	st.SetClock(func() time.Time { return now })
	ctx := context.Background()

	require.NoError(t, st.Set(ctx, "k", []byte("v"), time.Hour))
	now = now.Add(59 * time.Minute)
	ttl, ok, err := st.TTL(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, time.Minute, ttl)

	now = now.Add(time.Minute)
	got, err := st.Get(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemory_ValuesAreCopied(t *testing.T) {
	st := NewMemory()
	ctx := context.Background()
	in := []byte("abc")
	require.NoError(t, st.Set(ctx, "k", in, time.Hour))
	in[0] = 'z'

	got, err := st.Get(ctx, "k")
	require.NoError(t, err)
	got[1] = 'z'

	again, err := st.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(again))
}

func TestMemory_PurgeDropsUnreadExpiredKeys(t *testing.T) {
	st := NewMemory()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	st.SetClock(func() time.Time { return now })
	ctx := context.Background()

	for i := range 1000 {
		require.NoError(t, st.Set(ctx, fmt.Sprintf("geocode:%04d", i), []byte("[]"), time.Hour))
	}
	require.NoError(t, st.Set(ctx, "radars_data", []byte("[]"), 0))

	now = now.Add(48 * time.Hour)
	require.NoError(t, st.Set(ctx, "geocode:fresh", []byte("[]"), time.Hour))
	assert.Equal(t, 1002, st.Len())

	n, err := st.Purge(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1000, n)
	assert.Equal(t, 2, st.Len())

	got, err := st.Get(ctx, "geocode:fresh")
	require.NoError(t, err)
	assert.Equal(t, "[]", string(got))
}

type countingPurger struct {
	calls atomic.Int32
	err   error
}

func (p *countingPurger) Purge(context.Context) (int, error) {
	p.calls.Add(1)
	return 1, p.err
}

func TestSweep_PurgesUntilCancelled(t *testing.T) {
	st := NewMemory()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	st.SetClock(func() time.Time { return base })
	ctx := context.Background()
	for i := range 50 {
		require.NoError(t, st.Set(ctx, fmt.Sprintf("geocode:%02d", i), []byte("[]"), time.Hour))
	}
	later := base.Add(2 * time.Hour)
	st.SetClock(func() time.Time { return later })

	sweepCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		Sweep(sweepCtx, st, 5*time.Millisecond)
		close(done)
	}()

	assert.Eventually(t, func() bool { return st.Len() == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweep did not stop after cancel")
	}
}

func TestSweep_KeepsGoingAfterError(t *testing.T) {
	p := &countingPurger{err: errors.New("db down")}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go Sweep(ctx, p, 2*time.Millisecond)

	assert.Eventually(t, func() bool { return p.calls.Load() >= 3 }, time.Second, 2*time.Millisecond)
}

func TestPurgerImplementations(t *testing.T) {
	var _ Purger = (*MemoryStore)(nil)
	var _ Purger = (*SQLiteStore)(nil)
	var _ Purger = (*PostgresStore)(nil)

	_, ok := any(&RedisStore{}).(Purger)
	assert.False(t, ok, "redis expires keys itself")
}

func TestSQLite_ExpiryAndPurge(t *testing.T) {
	st := newTestSQLite(t)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	st.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, st.Set(ctx, "short", []byte("a"), time.Hour))
	require.NoError(t, st.Set(ctx, "long", []byte("b"), 48*time.Hour))
	require.NoError(t, st.Set(ctx, "forever", []byte("c"), 0))

	now = now.Add(2 * time.Hour)

	got, err := st.Get(ctx, "short")
	require.NoError(t, err)
	assert.Nil(t, got)

	ttl, ok, err := st.TTL(ctx, "long")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 46*time.Hour, ttl)

	n, err := st.Purge(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = st.Purge(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestSQLite_MigrateIdempotent(t *testing.T) {
	st := newTestSQLite(t)
	require.NoError(t, st.Migrate(context.Background()))
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		st, err := Open(ctx, Options{Driver: "memory"})
		require.NoError(t, err)
		assert.IsType(t, &MemoryStore{}, st)
	})

	t.Run("sqlite", func(t *testing.T) {
		st, err := Open(ctx, Options{Driver: "sqlite", SQLitePath: filepath.Join(t.TempDir(), "c.db")})
		require.NoError(t, err)
		defer st.Close() //nolint:errcheck
		require.NoError(t, st.Set(ctx, "k", []byte("v"), time.Minute))
	})

	t.Run("redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		st, err := Open(ctx, Options{Driver: "redis", RedisURL: "redis://" + mr.Addr()})
		require.NoError(t, err)
		defer st.Close() //nolint:errcheck
		require.NoError(t, st.Ping(ctx))
	})

	t.Run("unsupported", func(t *testing.T) {
		_, err := Open(ctx, Options{Driver: "mongo"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), `unsupported driver "mongo"`)
	})

	t.Run("postgres bad url", func(t *testing.T) {
		_, err := Open(ctx, Options{Driver: "postgres", DatabaseURL: "postgres://%zz"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "postgres: parse config")
	})
}
