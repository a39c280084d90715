package geocode

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// nominatimResult is one element of the Nominatim /search JSON array.
// Coordinates arrive as strings.
type nominatimResult struct {
	PlaceID     int64             `json:"place_id"`
	DisplayName string            `json:"display_name"`
	Lat         string            `json:"lat"`
	Lon         string            `json:"lon"`
	Type        string            `json:"type"`
	Address     map[string]string `json:"address"`
}

// searchNominatim runs a single /search request.
func (g *geocoder) searchNominatim(ctx context.Context, query string) ([]Place, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "geocode: nominatim rate limit")
	}

	q := query
	if g.region != "" {
		q += "," + g.region
	}
	params := url.Values{
		"q":              {q},
		"format":         {"json"},
		"limit":          {strconv.Itoa(g.limit)},
		"addressdetails": {"1"},
	}

	reqURL := g.baseURL + "/search?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: nominatim build request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", g.userAgent)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: nominatim request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("geocode: nominatim status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, eris.Wrap(err, "geocode: nominatim read body")
	}

	var raw []nominatimResult
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, eris.Wrap(err, "geocode: nominatim decode")
	}

	places := make([]Place, 0, len(raw))
	for _, r := range raw {
		lat, latErr := strconv.ParseFloat(r.Lat, 64)
		lon, lonErr := strconv.ParseFloat(r.Lon, 64)
		if latErr != nil || lonErr != nil {
			zap.L().Debug("geocode: skipping result with bad coordinates",
				zap.Int64("place_id", r.PlaceID),
				zap.String("lat", r.Lat),
				zap.String("lon", r.Lon),
			)
			continue
		}
		places = append(places, Place{
			PlaceID:     r.PlaceID,
			DisplayName: r.DisplayName,
			Lat:         lat,
			Lon:         lon,
			Type:        r.Type,
			Address:     r.Address,
		})
	}

	zap.L().Debug("geocode: nominatim search",
		zap.String("query", query),
		zap.Int("count", len(places)),
	)
	return places, nil
}
