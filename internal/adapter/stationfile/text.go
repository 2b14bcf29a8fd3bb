package stationfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/couchcryptid/station-temperature-etl/internal/domain"
)

// TextReader reads tab-separated exports with a header row, a Date column, a
// time column named by one of [TimeColumns] and the station's value column.
type TextReader struct{}

// Read implements RawReader.
func (TextReader) Read(ctx context.Context, st domain.Station) (domain.RawBatch, error) {
	f, err := os.Open(st.Source)
	if err != nil {
		return domain.RawBatch{}, fmt.Errorf("open station %s: %w", st.ID, err)
	}
	defer f.Close()

	return ReadText(ctx, st, f)
}

// ReadText parses a tab-separated export from r.
func ReadText(ctx context.Context, st domain.Station, r io.Reader) (domain.RawBatch, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	first, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return domain.RawBatch{}, fmt.Errorf("station %s: empty file", st.ID)
		}
		return domain.RawBatch{}, fmt.Errorf("read header of station %s: %w", st.ID, err)
	}
	h := newHeader(first)

	dateIdx, err := h.require(st, DateColumn)
	if err != nil {
		return domain.RawBatch{}, err
	}
	timeIdx, err := h.require(st, TimeColumns...)
	if err != nil {
		return domain.RawBatch{}, err
	}
	valueIdx, err := h.require(st, st.Column)
	if err != nil {
		return domain.RawBatch{}, err
	}

	var batch domain.RawBatch
	for {
		if batch.Rows%4096 == 0 && ctx.Err() != nil {
			return domain.RawBatch{}, ctx.Err()
		}
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return domain.RawBatch{}, fmt.Errorf("read station %s line %d: %w", st.ID, batch.Rows+2, err)
		}
		batch.Rows++

		raw := domain.RawReading{
			Date:  cell(row, dateIdx),
			Time:  cell(row, timeIdx),
			Value: cell(row, valueIdx),
		}
		if raw.Date == "" || raw.Time == "" || raw.Value == "" {
			batch.Missing++
			continue
		}
		batch.Readings = append(batch.Readings, raw)
	}
	return batch, nil
}
