package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/radar-map/internal/model"
	"github.com/sells-group/radar-map/internal/store"
)

func TestStatus(t *testing.T) {
	st := store.NewMemory()
	ctx := context.Background()
	require.NoError(t, st.Set(ctx, RadarsKey, []byte("[]"), 24*time.Hour))

	status, err := Status(ctx, st)
	require.NoError(t, err)
	require.Len(t, status, 2)

	radars := status[model.DatasetRadars]
	assert.True(t, radars.Cached)
	assert.Greater(t, radars.TTLSeconds, int64(0))
	assert.LessOrEqual(t, radars.TTLSeconds, int64(86400))
	assert.Equal(t, 24.0, radars.TTLHours)

	cameras := status[model.DatasetCameras]
	assert.Equal(t, model.KeyStatus{Cached: false, TTLSeconds: -1, TTLHours: 0}, cameras)
}

func TestStatus_NoExpiry(t *testing.T) {
	st := store.NewMemory()
	ctx := context.Background()
	require.NoError(t, st.Set(ctx, CamerasKey, []byte("[]"), 0))

	status, err := Status(ctx, st, model.DatasetCameras)
	require.NoError(t, err)
	assert.Equal(t, model.KeyStatus{Cached: true, TTLSeconds: -1, TTLHours: 0}, status[model.DatasetCameras])
}

func TestStatus_StoreError(t *testing.T) {
	_, err := Status(context.Background(), failingStore{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cache: status radars")
}

func TestTTLSeconds(t *testing.T) {
	assert.Equal(t, int64(86400), ttlSeconds(24*time.Hour-time.Millisecond))
	assert.Equal(t, int64(1), ttlSeconds(10*time.Millisecond))
	assert.Equal(t, int64(-1), ttlSeconds(store.NoExpiry))
}
