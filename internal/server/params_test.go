package server

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestViewParams_Empty(t *testing.T) {
	p, err := viewParams(url.Values{})
	require.NoError(t, err)
	assert.Nil(t, p.ShowRadars)
	assert.Nil(t, p.ShowCameras)
	assert.Nil(t, p.Place)
	assert.Empty(t, p.Open)
	assert.False(t, p.HidePopup)
}

func TestViewParams_All(t *testing.T) {
	q, err := url.ParseQuery("radars=0&cameras=1&lat=-8.05&lon=-34.88&label=Derby&open=camera-2&popup=false")
	require.NoError(t, err)

	p, err := viewParams(q)
	require.NoError(t, err)
	require.NotNil(t, p.ShowRadars)
	assert.False(t, *p.ShowRadars)
	require.NotNil(t, p.ShowCameras)
	assert.True(t, *p.ShowCameras)
	require.NotNil(t, p.Place)
	assert.Equal(t, -8.05, p.Place.Lat)
	assert.Equal(t, -34.88, p.Place.Lng)
	assert.Equal(t, "Derby", p.Place.Label)
	assert.Equal(t, "camera-2", p.Open)
	assert.True(t, p.HidePopup)
}

func TestViewParams_LabelDefaultsToCoordinates(t *testing.T) {
	p, err := viewParams(url.Values{"lat": {"-8.05"}, "lon": {"-34.88"}})
	require.NoError(t, err)
	require.NotNil(t, p.Place)
	assert.Equal(t, "-8.050000, -34.880000", p.Place.Label)
}

func TestViewParams_Invalid(t *testing.T) {
	tests := []struct {
		query string
		want  string
	}{
		{"radars=yes-please", "invalid radars"},
		{"cameras=2", "invalid cameras"},
		{"lon=-34.9", "lat and lon must be given together"},
		{"lat=-91&lon=0", "invalid lat"},
		{"lat=0&lon=x", "invalid lon"},
		{"popup=nope", "invalid popup"},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			q, err := url.ParseQuery(tt.query)
			require.NoError(t, err)
			_, err = viewParams(q)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
