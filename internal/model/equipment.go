package model

// Dataset identifies one of the published open-data feeds.
type Dataset string

const (
	DatasetRadars  Dataset = "radars"
	DatasetCameras Dataset = "cameras"
)

// Datasets lists every known dataset in display order.
var Datasets = []Dataset{DatasetRadars, DatasetCameras}

// ParseDataset returns the dataset named s and whether it is known.
func ParseDataset(s string) (Dataset, bool) {
	switch Dataset(s) {
	case DatasetRadars, DatasetCameras:
		return Dataset(s), true
	default:
		return "", false
	}
}

// RadarData is one speed-enforcement device from the radar feed.
type RadarData struct {
	EquipmentType            string  `json:"equipment_type" yaml:"equipment_type"`
	InmetroRegistration      string  `json:"inmetro_registration" yaml:"inmetro_registration"`
	ManufacturerSerialNumber string  `json:"manufacturer_serial_number" yaml:"manufacturer_serial_number"`
	EquipmentIdentification  string  `json:"equipment_identification" yaml:"equipment_identification"`
	InstallationLocation     string  `json:"installation_location" yaml:"installation_location"`
	MonitoringDirection      string  `json:"monitoring_direction" yaml:"monitoring_direction"`
	Latitude                 float64 `json:"latitude" yaml:"latitude"`
	Longitude                float64 `json:"longitude" yaml:"longitude"`
	MonitoredLanes           int     `json:"monitored_lanes" yaml:"monitored_lanes"`
	MonitoredSpeed           string  `json:"monitored_speed" yaml:"monitored_speed"`
	VMD                      int     `json:"vmd" yaml:"vmd"` // average daily traffic volume
	VMDPeriod                string  `json:"vmd_period" yaml:"vmd_period"`
}

// HasPosition reports whether both coordinates are set.
func (r RadarData) HasPosition() bool {
	return r.Latitude != 0 && r.Longitude != 0
}

// CameraData is one surveillance camera from the traffic-control feed.
type CameraData struct {
	Name      string  `json:"name" yaml:"name"`
	Address   string  `json:"address" yaml:"address"`
	Latitude  float64 `json:"latitude" yaml:"latitude"`
	Longitude float64 `json:"longitude" yaml:"longitude"`
}

// HasPosition reports whether both coordinates are set.
func (c CameraData) HasPosition() bool {
	return c.Latitude != 0 && c.Longitude != 0
}
