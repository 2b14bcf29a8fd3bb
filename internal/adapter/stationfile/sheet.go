package stationfile

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/couchcryptid/station-temperature-etl/internal/domain"
)

// SheetColumn is the name of the full date-time column in logger sheets.
const SheetColumn = "Time"

// SheetReader reads one sheet of a workbook. The station's Source names the
// sheet and Workbook the file.
type SheetReader struct{}

// Read implements RawReader.
func (SheetReader) Read(ctx context.Context, st domain.Station) (domain.RawBatch, error) {
	f, err := excelize.OpenFile(st.Workbook, excelize.Options{RawCellValue: true})
	if err != nil {
		return domain.RawBatch{}, fmt.Errorf("open workbook for station %s: %w", st.ID, err)
	}
	defer f.Close()

	rows, err := f.GetRows(st.Source)
	if err != nil {
		return domain.RawBatch{}, fmt.Errorf("read sheet %q for station %s: %w", st.Source, st.ID, err)
	}
	if len(rows) == 0 {
		return domain.RawBatch{}, fmt.Errorf("station %s: sheet %q is empty", st.ID, st.Source)
	}
	if err := ctx.Err(); err != nil {
		return domain.RawBatch{}, err
	}

	h := newHeader(rows[0])
	timeIdx, err := h.require(st, SheetColumn)
	if err != nil {
		return domain.RawBatch{}, err
	}
	valueIdx, err := h.require(st, st.Column)
	if err != nil {
		return domain.RawBatch{}, err
	}

	batch := domain.RawBatch{Rows: len(rows) - 1}
	for _, row := range rows[1:] {
		raw := domain.RawReading{
			Time:  sheetTime(cell(row, timeIdx)),
			Value: cell(row, valueIdx),
		}
		if raw.Time == "" || raw.Value == "" {
			batch.Missing++
			continue
		}
		batch.Readings = append(batch.Readings, raw)
	}
	return batch, nil
}

// sheetTime renders a date-time serial as RFC 3339. Text cells pass through.
func sheetTime(raw string) string {
	serial, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return raw
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return raw
	}
	return t.Round(time.Millisecond).Format(time.RFC3339Nano)
}
