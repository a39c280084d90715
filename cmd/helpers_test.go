package main

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sells-group/radar-map/internal/config"
)

const (
	testRadarsCSV = "tipo_equipamento;registro_inmetro;serie_fabricante;identificacao_equipamento;local_instalacao;sentido_fiscalizacao;latitude;longitude;faixas_fiscalizadas;velocidade_fiscalizada;vmd;periodo_vmd\n" +
		"FIXO;12345;SN-01;RAD001;AV. AGAMENON MAGALHAES;CENTRO/SUBURBIO;-8.0526;-34.8852;3;60;45210;2023\n" +
		"FIXO;67890;SN-02;RAD002;AV. NORTE;BAIRRO/CENTRO;-8.0301;-34.9012;2;50;1200;2023\n" +
		"FIXO;11111;SN-03;RAD003;SEM COORDENADA;N;0;0;2;50;1200;2023\n"
	testCamerasCSV = "nome,endereco,latitude,longitude\n" +
		"CAM 01,RUA DA AURORA,-8.0600,-34.8800\n"
)

// upstream serves the two CSV feeds and counts requests.
type upstream struct {
	srv         *httptest.Server
	radarHits   atomic.Int32
	cameraHits  atomic.Int32
	failCameras atomic.Bool
}

func newUpstream(t *testing.T) *upstream {
	t.Helper()
	u := &upstream{}
	mux := http.NewServeMux()
	mux.HandleFunc("/radars.csv", func(w http.ResponseWriter, _ *http.Request) {
		u.radarHits.Add(1)
		_, _ = io.WriteString(w, testRadarsCSV)
	})
	mux.HandleFunc("/cameras.csv", func(w http.ResponseWriter, _ *http.Request) {
		u.cameraHits.Add(1)
		if u.failCameras.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = io.WriteString(w, testCamerasCSV)
	})
	u.srv = httptest.NewServer(mux)
	t.Cleanup(u.srv.Close)
	return u
}

// testConfig loads defaults and points the upstream at u with a memory store.
func testConfig(t *testing.T, u *upstream) *config.Config {
	t.Helper()
	t.Setenv("RADARMAP_CACHE_DRIVER", "memory")
	c, err := config.Load()
	require.NoError(t, err)
	c.Upstream.RadarsURL = u.srv.URL + "/radars.csv"
	c.Upstream.CamerasURL = u.srv.URL + "/cameras.csv"
	c.Geocode.CacheTTLHours = 0
	return c
}
