// Package grid reads gridded reanalysis products exported as long-format CSV:
// one row per time step and grid cell.
package grid

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/couchcryptid/station-temperature-etl/internal/domain"
)

var (
	timeColumns = []string{"time", "valid_time", "date", "Date"}
	latColumns  = []string{"latitude", "lat"}
	lonColumns  = []string{"longitude", "lon"}
)

// ReadCSV reads a gridded product from path. When variable is empty the
// first column that is not a coordinate is used.
func ReadCSV(path, variable string) (*domain.Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open grid: %w", err)
	}
	defer f.Close()
	return Parse(f, variable)
}

// Parse reads a gridded product from r.
func Parse(r io.Reader, variable string) (*domain.Grid, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true
	cr.FieldsPerRecord = -1

	head, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read grid header: %w", err)
	}
	cols := make(map[string]int, len(head))
	names := make([]string, len(head))
	for i, h := range head {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		names[i] = h
		cols[h] = i
	}

	ti, ok := pick(cols, timeColumns)
	if !ok {
		return nil, fmt.Errorf("grid: %w: time", domain.ErrMissingColumn)
	}
	lai, ok := pick(cols, latColumns)
	if !ok {
		return nil, fmt.Errorf("grid: %w: latitude", domain.ErrMissingColumn)
	}
	loi, ok := pick(cols, lonColumns)
	if !ok {
		return nil, fmt.Errorf("grid: %w: longitude", domain.ErrMissingColumn)
	}
	if variable == "" {
		for i, n := range names {
			if i != ti && i != lai && i != loi && n != "" {
				variable = n
				break
			}
		}
	}
	vi, ok := cols[variable]
	if !ok || variable == "" {
		return nil, fmt.Errorf("grid: %w: %q", domain.ErrMissingColumn, variable)
	}

	g := domain.NewGrid(variable)
	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("grid line %d: %w", line, err)
		}
		if vi >= len(rec) || strings.TrimSpace(rec[vi]) == "" {
			continue
		}
		at, err := parseTime(field(rec, ti))
		if err != nil {
			return nil, fmt.Errorf("grid line %d: %w", line, err)
		}
		lat, err1 := strconv.ParseFloat(field(rec, lai), 64)
		lon, err2 := strconv.ParseFloat(field(rec, loi), 64)
		v, err3 := strconv.ParseFloat(field(rec, vi), 64)
		if err := errors.Join(err1, err2, err3); err != nil {
			return nil, fmt.Errorf("grid line %d: %w", line, err)
		}
		g.Add(at, lat, lon, v)
	}
	if len(g.Cells()) == 0 {
		return nil, domain.ErrEmptyGrid
	}
	return g, nil
}

func pick(cols map[string]int, names []string) (int, bool) {
	for _, n := range names {
		if i, ok := cols[n]; ok {
			return i, true
		}
	}
	return 0, false
}

func field(rec []string, i int) string {
	if i < len(rec) {
		return strings.TrimSpace(rec[i])
	}
	return ""
}

func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
