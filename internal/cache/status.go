package cache

import (
	"context"
	"math"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/radar-map/internal/model"
	"github.com/sells-group/radar-map/internal/store"
)

// Status reports the presence and remaining lifetime of each dataset's
// primary entry.
func Status(ctx context.Context, st store.Store, datasets ...model.Dataset) (map[model.Dataset]model.KeyStatus, error) {
	if len(datasets) == 0 {
		datasets = model.Datasets
	}
	out := make(map[model.Dataset]model.KeyStatus, len(datasets))
	for _, d := range datasets {
		ttl, ok, err := st.TTL(ctx, KeyFor(d))
		if err != nil {
			return nil, eris.Wrapf(err, "cache: status %s", d)
		}
		out[d] = model.NewKeyStatus(ok, ttlSeconds(ttl))
	}
	return out, nil
}

// ttlSeconds rounds up so a just-written 24h entry reports 86400.
func ttlSeconds(ttl time.Duration) int64 {
	if ttl == store.NoExpiry {
		return -1
	}
	return int64(math.Ceil(ttl.Seconds()))
}
