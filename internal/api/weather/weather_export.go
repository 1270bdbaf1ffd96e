package weather

import (
	"bytes"
	"context"
	"fmt"
	"strconv"

	"github.com/jszwec/csvutil"
	"github.com/xuri/excelize/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"github.com/weathervane/weathervane/internal/types"
)

// exportRow is the flat shape shared by the CSV and XLSX sinks.
type exportRow struct {
	City        string `csv:"City"`
	CollectedAt string `csv:"Collected at"`
	Temperature string `csv:"Temperature (°C)"`
	Humidity    string `csv:"Humidity (%)"`
	Wind        string `csv:"Wind (km/h)"`
	Condition   string `csv:"Condition"`
	Source      string `csv:"Source"`
}

var exportHeaders = []string{"City", "Collected at", "Temperature (°C)", "Humidity (%)", "Wind (km/h)", "Condition", "Source"}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 1, 64)
}

func mapForExport(s types.Sample) exportRow {
	condition := ""
	if s.Condition != nil {
		condition = *s.Condition
	}
	temp := s.TemperatureC
	return exportRow{
		City:        s.City,
		CollectedAt: s.CollectedAt.UTC().Format("02/01/2006 15:04"),
		Temperature: formatFloat(&temp),
		Humidity:    formatFloat(s.HumidityPercent),
		Wind:        formatFloat(s.WindSpeedKmh),
		Condition:   condition,
		Source:      s.Source,
	}
}

func (s *SampleServiceImpl) ExportCSV(ctx context.Context) ([]byte, error) {
	ctx, span := otel.Tracer("SampleService").Start(ctx, "ExportCSV")
	defer span.End()

	samples, err := s.repo.FindAll(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to load samples for export")
		return nil, fmt.Errorf("error loading samples for export: %w", err)
	}

	rows := make([]exportRow, 0, len(samples))
	for _, sample := range samples {
		rows = append(rows, mapForExport(sample))
	}

	out, err := csvutil.Marshal(rows)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to encode CSV")
		return nil, fmt.Errorf("error encoding CSV export: %w", err)
	}

	span.SetStatus(codes.Ok, "CSV export generated")
	return out, nil
}

func (s *SampleServiceImpl) ExportXLSX(ctx context.Context) ([]byte, error) {
	ctx, span := otel.Tracer("SampleService").Start(ctx, "ExportXLSX")
	defer span.End()

	samples, err := s.repo.FindAll(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to load samples for export")
		return nil, fmt.Errorf("error loading samples for export: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "logs"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, fmt.Errorf("error creating export sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("error removing default sheet: %w", err)
	}

	for col, header := range exportHeaders {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, fmt.Errorf("error computing header cell: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return nil, fmt.Errorf("error writing header cell: %w", err)
		}
	}

	for i, sample := range samples {
		row := mapForExport(sample)
		values := []string{row.City, row.CollectedAt, row.Temperature, row.Humidity, row.Wind, row.Condition, row.Source}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return nil, fmt.Errorf("error computing data cell: %w", err)
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return nil, fmt.Errorf("error writing data cell: %w", err)
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to encode XLSX")
		return nil, fmt.Errorf("error encoding XLSX export: %w", err)
	}

	span.SetStatus(codes.Ok, "XLSX export generated")
	return buf.Bytes(), nil
}
