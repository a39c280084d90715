package feed

import (
	"context"
	"io"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/radar-map/internal/fetcher"
	"github.com/sells-group/radar-map/internal/model"
)

// Client downloads and decodes both resources.
type Client struct {
	fetcher    fetcher.Fetcher
	radarsURL  string
	camerasURL string
}

// NewClient creates a Client reading the given resource URLs.
func NewClient(f fetcher.Fetcher, radarsURL, camerasURL string) *Client {
	return &Client{fetcher: f, radarsURL: radarsURL, camerasURL: camerasURL}
}

// Radars downloads and parses the radar resource.
func (c *Client) Radars(ctx context.Context) ([]model.RadarData, error) {
	radars, err := load(ctx, c.fetcher, c.radarsURL, ParseRadars)
	if err != nil {
		return nil, eris.Wrap(err, "feed: radars")
	}
	zap.L().Info("fetched radars from upstream", zap.Int("count", len(radars)))
	return radars, nil
}

// Cameras downloads and parses the camera resource.
func (c *Client) Cameras(ctx context.Context) ([]model.CameraData, error) {
	cameras, err := load(ctx, c.fetcher, c.camerasURL, ParseCameras)
	if err != nil {
		return nil, eris.Wrap(err, "feed: cameras")
	}
	zap.L().Info("fetched cameras from upstream", zap.Int("count", len(cameras)))
	return cameras, nil
}

func load[T any](ctx context.Context, f fetcher.Fetcher, url string, parse func(context.Context, io.Reader) ([]T, error)) ([]T, error) {
	body, err := f.Download(ctx, url)
	if err != nil {
		return nil, err
	}
	defer body.Close() //nolint:errcheck

	return parse(ctx, body)
}
