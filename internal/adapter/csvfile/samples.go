package csvfile

import (
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/couchcryptid/station-temperature-etl/internal/domain"
)

// ReadSamples reads a product series with columns Date, aws and variable.
// Rows with an empty value are skipped.
func ReadSamples(path, variable string) ([]domain.Sample, error) {
	t, err := readTable(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if err := t.need("Date", "aws", variable); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	out := make([]domain.Sample, 0, len(t.rows))
	for i, row := range t.rows {
		raw := t.get(row, variable)
		if raw == "" || raw == "NaN" || raw == "nan" {
			continue
		}
		ts, err := parseTime(t.get(row, "Date"))
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", path, i+2, err)
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", path, i+2, err)
		}
		out = append(out, domain.Sample{Station: t.get(row, "aws"), Time: ts, Value: v})
	}
	return out, nil
}

// WriteSamples writes sampled series as Date,<variable>,aws.
func WriteSamples(path, variable string, samples []domain.Sample) error {
	return writeAtomic(path, func(w *csv.Writer) error {
		if err := w.Write([]string{"Date", variable, "aws"}); err != nil {
			return err
		}
		for _, s := range samples {
			if err := w.Write([]string{formatTime(s.Time), formatFloat(s.Value), s.Station}); err != nil {
				return err
			}
		}
		return nil
	})
}

// CalibrationHeader is the header of the calibration artifact.
var CalibrationHeader = []string{"coefficient", "intercept", "r_squared"}

// WriteCalibration writes the one-row calibration artifact.
func WriteCalibration(path string, c domain.Calibration) error {
	return writeAtomic(path, func(w *csv.Writer) error {
		if err := w.Write(CalibrationHeader); err != nil {
			return err
		}
		return w.Write([]string{formatFloat(c.Coefficient), formatFloat(c.Intercept), formatFloat(c.RSquared)})
	})
}
