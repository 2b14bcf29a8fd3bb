package csvfile

import (
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/couchcryptid/station-temperature-etl/internal/domain"
)

// HourlyHeader is the header of the master temperature table.
var HourlyHeader = []string{"Date", "temperature", "aws"}

// WriteHourly writes the master temperature table in the given row order.
func WriteHourly(path string, rows []domain.HourlyReading) error {
	return writeAtomic(path, func(w *csv.Writer) error {
		if err := w.Write(HourlyHeader); err != nil {
			return err
		}
		for _, r := range rows {
			if err := w.Write([]string{formatTime(r.Time), formatFloat(r.Temperature), r.Station}); err != nil {
				return err
			}
		}
		return nil
	})
}

// ReadHourly reads a master temperature table.
func ReadHourly(path string) ([]domain.HourlyReading, error) {
	t, err := readTable(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if err := t.need(HourlyHeader...); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	out := make([]domain.HourlyReading, 0, len(t.rows))
	for i, row := range t.rows {
		ts, err := parseTime(t.get(row, "Date"))
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", path, i+2, err)
		}
		v, err := strconv.ParseFloat(t.get(row, "temperature"), 64)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", path, i+2, err)
		}
		out = append(out, domain.HourlyReading{Time: ts, Temperature: v, Station: t.get(row, "aws")})
	}
	return out, nil
}

// Truth converts master table rows into samples for joining.
func Truth(rows []domain.HourlyReading) []domain.Sample {
	out := make([]domain.Sample, len(rows))
	for i, r := range rows {
		out[i] = domain.Sample{Station: r.Station, Time: r.Time, Value: r.Temperature}
	}
	return out
}
