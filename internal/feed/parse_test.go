package feed

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/radar-map/internal/model"
)

const radarHeader = "tipo_equipamento;registro_inmetro;serie_fabricante;identificacao_equipamento;local_instalacao;sentido_fiscalizacao;latitude;longitude;faixas_fiscalizadas;velocidade_fiscalizada;vmd;periodo_vmd"

func TestParseRadars_DropsZeroLongitude(t *testing.T) {
	csv := radarHeader + "\n" +
		"FIXO;12345;SN-01;RAD001;AV. AGAMENON MAGALHAES;CENTRO/SUBURBIO;-8.0526;-34.8852;3;60;45210;2023\n" +
		"FIXO;67890;SN-02;RAD002;AV. NORTE;BAIRRO/CENTRO;-8.0301;0;2;50;1200;2023\n"

	radars, err := ParseRadars(context.Background(), strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, radars, 1)

	assert.Equal(t, model.RadarData{
		EquipmentType:            "FIXO",
		InmetroRegistration:      "12345",
		ManufacturerSerialNumber: "SN-01",
		EquipmentIdentification:  "RAD001",
		InstallationLocation:     "AV. AGAMENON MAGALHAES",
		MonitoringDirection:      "CENTRO/SUBURBIO",
		Latitude:                 -8.0526,
		Longitude:                -34.8852,
		MonitoredLanes:           3,
		MonitoredSpeed:           "60",
		VMD:                      45210,
		VMDPeriod:                "2023",
	}, radars[0])
}

func TestParseRadars_CoercesNumbers(t *testing.T) {
	csv := radarHeader + "\n" +
		"FIXO;;;;LOCAL;;-8.1;-34.9;10;60;abc;\n"

	radars, err := ParseRadars(context.Background(), strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, radars, 1)
	assert.Equal(t, 10, radars[0].MonitoredLanes)
	assert.Equal(t, 0, radars[0].VMD)
	assert.Equal(t, "", radars[0].VMDPeriod)
}

func TestParseRadars_ExcludesBadCoordinates(t *testing.T) {
	tests := []struct {
		name string
		row  string
	}{
		{"zero latitude", "FIXO;1;2;3;LOCAL;N;0;-34.9;2;60;100;2023"},
		{"zero longitude", "FIXO;1;2;3;LOCAL;N;-8.1;0;2;60;100;2023"},
		{"non-numeric latitude", "FIXO;1;2;3;LOCAL;N;abc;-34.9;2;60;100;2023"},
		{"non-numeric longitude", "FIXO;1;2;3;LOCAL;N;-8.1;xyz;2;60;100;2023"},
		{"missing coordinates", "FIXO;1;2;3;LOCAL;N"},
		{"empty coordinates", "FIXO;1;2;3;LOCAL;N;;;2;60;100;2023"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			radars, err := ParseRadars(context.Background(), strings.NewReader(radarHeader+"\n"+tt.row+"\n"))
			require.NoError(t, err)
			assert.Empty(t, radars)
		})
	}
}

func TestParseRadars_CRLFAndTrailingBlankLines(t *testing.T) {
	csv := radarHeader + "\r\n" +
		"FIXO;1;2;3;LOCAL;N;-8.1;-34.9;2;60;100;2023\r\n" +
		"\r\n\r\n"

	radars, err := ParseRadars(context.Background(), strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, radars, 1)
	assert.Equal(t, "2023", radars[0].VMDPeriod)
}

func TestParseRadars_HeaderOnly(t *testing.T) {
	radars, err := ParseRadars(context.Background(), strings.NewReader(radarHeader))
	require.NoError(t, err)
	assert.NotNil(t, radars)
	assert.Empty(t, radars)
}

func TestParseRadars_Empty(t *testing.T) {
	radars, err := ParseRadars(context.Background(), strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, radars)
}

func TestParseCameras(t *testing.T) {
	csv := "nome,endereco,latitude,longitude\n" +
		"CAM 01,AV. BOA VIAGEM,-8.1204,-34.9003\n" +
		"CAM 02,RUA DA AURORA,,\n" +
		"CAM 03,PONTE, -8.0631 ,-34.8760\n"

	cameras, err := ParseCameras(context.Background(), strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, cameras, 2)
	assert.Equal(t, model.CameraData{Name: "CAM 01", Address: "AV. BOA VIAGEM", Latitude: -8.1204, Longitude: -34.9003}, cameras[0])
	assert.Equal(t, "CAM 03", cameras[1].Name)
	assert.InDelta(t, -8.0631, cameras[1].Latitude, 1e-9)
}

func TestParseCameras_CommaInAddressShiftsColumns(t *testing.T) {
	// No quote handling: a comma inside the address pushes every later
	// column one position right.
	csv := "nome,endereco,latitude,longitude\n" +
		"CAM 09,\"RUA X, 100\",-8.05,-34.9\n"

	cameras, err := ParseCameras(context.Background(), strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, cameras, 1)
	assert.Equal(t, `"RUA X`, cameras[0].Address)
	assert.InDelta(t, 100, cameras[0].Latitude, 1e-9)
	assert.InDelta(t, -8.05, cameras[0].Longitude, 1e-9)
}

func TestParse_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var sb strings.Builder
	sb.WriteString("nome,endereco,latitude,longitude\n")
	for range 5000 {
		sb.WriteString("CAM,RUA,-8.1,-34.9\n")
	}

	_, err := ParseCameras(ctx, strings.NewReader(sb.String()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "context cancelled")
}
