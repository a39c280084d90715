package main

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/radar-map/internal/model"
)

func runFetch(t *testing.T, args []string, limit int, format string) (string, error) {
	t.Helper()
	prevLimit, prevFormat := fetchLimit, fetchFormat
	t.Cleanup(func() { fetchLimit, fetchFormat = prevLimit, prevFormat })
	fetchLimit, fetchFormat = limit, format

	var out bytes.Buffer
	fetchCmd.SetOut(&out)
	fetchCmd.SetContext(context.Background())
	err := fetchCmd.RunE(fetchCmd, args)
	return out.String(), err
}

func TestFetch_RadarsJSON(t *testing.T) {
	u := newUpstream(t)
	cfg = testConfig(t, u)

	out, err := runFetch(t, []string{"radars"}, 0, "json")
	require.NoError(t, err)

	var radars []model.RadarData
	require.NoError(t, json.Unmarshal([]byte(out), &radars))
	require.Len(t, radars, 2)
	assert.Equal(t, "RAD001", radars[0].EquipmentIdentification)
}

func TestFetch_CamerasYAMLWithLimit(t *testing.T) {
	u := newUpstream(t)
	cfg = testConfig(t, u)

	out, err := runFetch(t, []string{"cameras"}, 1, "yaml")
	require.NoError(t, err)

	var cameras []model.CameraData
	require.NoError(t, yaml.Unmarshal([]byte(out), &cameras))
	require.Len(t, cameras, 1)
	assert.Equal(t, "RUA DA AURORA", cameras[0].Address)
	assert.Contains(t, out, "address: RUA DA AURORA")
}

func TestFetch_UnknownDataset(t *testing.T) {
	u := newUpstream(t)
	cfg = testConfig(t, u)

	_, err := runFetch(t, []string{"buses"}, 0, "json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown dataset "buses"`)
}

func TestFetch_UpstreamError(t *testing.T) {
	u := newUpstream(t)
	u.failCameras.Store(true)
	cfg = testConfig(t, u)

	_, err := runFetch(t, []string{"cameras"}, 0, "json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestLimitRecords(t *testing.T) {
	assert.Equal(t, []int{1, 2}, limitRecords([]int{1, 2, 3}, 2))
	assert.Equal(t, []int{1, 2, 3}, limitRecords([]int{1, 2, 3}, 0))
	assert.Equal(t, []int{1}, limitRecords([]int{1}, 5))
	assert.Equal(t, []int{}, limitRecords[int](nil, 0))
}

func TestWriteRecords_UnsupportedFormat(t *testing.T) {
	var buf bytes.Buffer
	err := writeRecords(&buf, []int{1}, "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unsupported format "xml"`)
}
