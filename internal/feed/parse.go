// Package feed decodes the radar and camera CSV resources published by the
// municipal open-data portal.
package feed

import (
	"context"
	"io"

	"github.com/rotisserie/eris"

	"github.com/sells-group/radar-map/internal/fetcher"
	"github.com/sells-group/radar-map/internal/model"
)

// Field delimiters of the two resources.
const (
	RadarDelimiter  = ';'
	CameraDelimiter = ','
)

// ParseRadars decodes the radar resource. The first line is a header; every
// other line is split positionally. Rows whose latitude or longitude is zero,
// missing or not numeric are dropped.
func ParseRadars(ctx context.Context, r io.Reader) ([]model.RadarData, error) {
	return parse(ctx, r, RadarDelimiter, radarFromRow, model.RadarData.HasPosition)
}

// ParseCameras decodes the camera resource with the same rules as ParseRadars.
func ParseCameras(ctx context.Context, r io.Reader) ([]model.CameraData, error) {
	return parse(ctx, r, CameraDelimiter, cameraFromRow, model.CameraData.HasPosition)
}

func parse[T any](ctx context.Context, r io.Reader, delim rune, decode func([]string) T, keep func(T) bool) ([]T, error) {
	rowCh, errCh := fetcher.StreamCSV(ctx, r, fetcher.CSVOptions{
		Delimiter: delim,
		HasHeader: true,
	})

	out := make([]T, 0, 256)
	for row := range rowCh {
		rec := decode(row)
		if keep(rec) {
			out = append(out, rec)
		}
	}
	if err := <-errCh; err != nil {
		return nil, eris.Wrap(err, "feed: parse")
	}
	return out, nil
}

func radarFromRow(row []string) model.RadarData {
	return model.RadarData{
		EquipmentType:            field(row, 0),
		InmetroRegistration:      field(row, 1),
		ManufacturerSerialNumber: field(row, 2),
		EquipmentIdentification:  field(row, 3),
		InstallationLocation:     field(row, 4),
		MonitoringDirection:      field(row, 5),
		Latitude:                 leadingFloat(field(row, 6)),
		Longitude:                leadingFloat(field(row, 7)),
		MonitoredLanes:           leadingInt(field(row, 8)),
		MonitoredSpeed:           field(row, 9),
		VMD:                      leadingInt(field(row, 10)),
		VMDPeriod:                field(row, 11),
	}
}

func cameraFromRow(row []string) model.CameraData {
	return model.CameraData{
		Name:      field(row, 0),
		Address:   field(row, 1),
		Latitude:  leadingFloat(field(row, 2)),
		Longitude: leadingFloat(field(row, 3)),
	}
}

// field returns row[i] or "" when the row is short.
func field(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}
