// Package stationfile reads raw station exports: tab-separated text files and
// spreadsheet workbooks with one sheet per logger.
package stationfile

import (
	"context"
	"fmt"
	"strings"

	"github.com/couchcryptid/station-temperature-etl/internal/domain"
)

// TimeColumns lists the accepted names of the time-of-day column, in order of
// preference.
var TimeColumns = []string{"Time", "Time (UTC-3)"}

// DateColumn is the name of the date column in text exports.
const DateColumn = "Date"

// RawReader reads one station's rows as raw strings.
type RawReader interface {
	Read(ctx context.Context, st domain.Station) (domain.RawBatch, error)
}

// ForStation selects the reader for the station's declared format.
func ForStation(st domain.Station) (RawReader, error) {
	switch st.Format {
	case domain.FormatText:
		return TextReader{}, nil
	case domain.FormatSpreadsheet:
		return SheetReader{}, nil
	default:
		return nil, fmt.Errorf("station %s: %w: %q", st.ID, domain.ErrUnknownFormat, st.Format)
	}
}

// Extractor reads any registered station, dispatching on its format.
type Extractor struct{}

// NewExtractor returns an Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract reads the raw rows of st.
func (e *Extractor) Extract(ctx context.Context, st domain.Station) (domain.RawBatch, error) {
	r, err := ForStation(st)
	if err != nil {
		return domain.RawBatch{}, err
	}
	return r.Read(ctx, st)
}

// header maps trimmed column names to their index. The first occurrence of a
// duplicated name wins.
type header map[string]int

func newHeader(cells []string) header {
	h := make(header, len(cells))
	for i, c := range cells {
		c = strings.TrimSpace(strings.TrimPrefix(c, "\ufeff"))
		if _, dup := h[c]; !dup {
			h[c] = i
		}
	}
	return h
}

// lookup returns the index of the first name present in the header.
func (h header) lookup(names ...string) (int, bool) {
	for _, n := range names {
		if i, ok := h[n]; ok {
			return i, true
		}
	}
	return 0, false
}

func (h header) require(st domain.Station, names ...string) (int, error) {
	i, ok := h.lookup(names...)
	if !ok {
		return 0, fmt.Errorf("station %s: %w: %s", st.ID, domain.ErrMissingColumn, strings.Join(names, " | "))
	}
	return i, nil
}

func cell(row []string, i int) string {
	if i < len(row) {
		return strings.TrimSpace(row[i])
	}
	return ""
}
