package csvfile

import (
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/couchcryptid/station-temperature-etl/internal/domain"
)

// RegistryHeader is the header of the station registry table.
var RegistryHeader = []string{"aws", "lat", "lon", "filepath", "temp_unit", "time_zone", "temp_var", "format", "date_start", "date_end"}

// WriteRegistry writes the station registry with observed date ranges.
// Undefined dates are empty cells.
func WriteRegistry(path string, stations []domain.Station) error {
	return writeAtomic(path, func(w *csv.Writer) error {
		if err := w.Write(RegistryHeader); err != nil {
			return err
		}
		for _, st := range stations {
			rec := []string{
				st.ID,
				formatFloat(st.Lat),
				formatFloat(st.Lon),
				st.Source,
				string(st.Unit),
				string(st.TimeZone),
				st.Column,
				string(st.Format),
				optionalTime(st.DateStart),
				optionalTime(st.DateEnd),
			}
			if err := w.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

func optionalTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatTime(*t)
}

// ReadRegistry reads a station registry table back.
func ReadRegistry(path string) ([]domain.Station, error) {
	t, err := readTable(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if err := t.need("aws", "lat", "lon", "date_start", "date_end"); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	out := make([]domain.Station, 0, len(t.rows))
	for i, row := range t.rows {
		line := i + 2
		st := domain.Station{
			ID:       t.get(row, "aws"),
			Source:   t.get(row, "filepath"),
			Unit:     domain.Unit(t.get(row, "temp_unit")),
			TimeZone: domain.TimeZone(t.get(row, "time_zone")),
			Column:   t.get(row, "temp_var"),
			Format:   domain.Format(t.get(row, "format")),
		}
		if st.Lat, err = strconv.ParseFloat(t.get(row, "lat"), 64); err != nil {
			return nil, fmt.Errorf("%s line %d: lat: %w", path, line, err)
		}
		if st.Lon, err = strconv.ParseFloat(t.get(row, "lon"), 64); err != nil {
			return nil, fmt.Errorf("%s line %d: lon: %w", path, line, err)
		}
		if st.DateStart, err = parseOptionalTime(t.get(row, "date_start")); err != nil {
			return nil, fmt.Errorf("%s line %d: date_start: %w", path, line, err)
		}
		if st.DateEnd, err = parseOptionalTime(t.get(row, "date_end")); err != nil {
			return nil, fmt.Errorf("%s line %d: date_end: %w", path, line, err)
		}
		out = append(out, st)
	}
	return out, nil
}

func parseOptionalTime(s string) (*time.Time, error) {
	if s == "" || s == "NaT" {
		return nil, nil
	}
	t, err := parseTime(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
