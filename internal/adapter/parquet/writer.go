// Package parquet writes the master temperature table as a Parquet file.
package parquet

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/couchcryptid/station-temperature-etl/internal/domain"
)

// Row is the Parquet schema of one hourly reading.
type Row struct {
	Time        int64   `parquet:"name=time,type=INT64,convertedtype=TIMESTAMP_MILLIS"`
	Temperature float64 `parquet:"name=temperature,type=DOUBLE"`
	Station     string  `parquet:"name=aws,type=BYTE_ARRAY,convertedtype=UTF8,encoding=PLAIN_DICTIONARY"`
}

// Writer writes hourly readings to a single Parquet file. It implements
// pipeline.Loader.
type Writer struct {
	path        string
	compression parquet.CompressionCodec
	logger      *slog.Logger
}

// NewWriter returns a Writer for path using the named compression codec
// (SNAPPY, GZIP or NONE).
func NewWriter(path, compression string, logger *slog.Logger) (*Writer, error) {
	codec, err := compressionCodec(compression)
	if err != nil {
		return nil, err
	}
	return &Writer{path: path, compression: codec, logger: logger}, nil
}

func compressionCodec(name string) (parquet.CompressionCodec, error) {
	switch strings.ToUpper(name) {
	case "", "SNAPPY":
		return parquet.CompressionCodec_SNAPPY, nil
	case "GZIP":
		return parquet.CompressionCodec_GZIP, nil
	case "NONE":
		return parquet.CompressionCodec_UNCOMPRESSED, nil
	default:
		return 0, fmt.Errorf("unsupported parquet compression %q", name)
	}
}

// Name implements pipeline.Loader.
func (w *Writer) Name() string { return "parquet" }

// Load encodes rows into one row group and replaces the file at the
// configured path.
func (w *Writer) Load(ctx context.Context, rows []domain.HourlyReading) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := Encode(rows, w.compression)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(w.path), 0o755); err != nil {
		return fmt.Errorf("create parquet dir: %w", err)
	}
	tmp := w.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write parquet: %w", err)
	}
	if err := os.Rename(tmp, w.path); err != nil {
		return fmt.Errorf("rename parquet: %w", err)
	}
	w.logger.Info("wrote parquet", "path", w.path, "rows", len(rows), "bytes", len(data))
	return nil
}

// Encode serializes rows into an in-memory Parquet file.
func Encode(rows []domain.HourlyReading, codec parquet.CompressionCodec) (out []byte, err error) {
	buf := new(bytes.Buffer)
	pw, err := writer.NewParquetWriterFromWriter(buf, new(Row), int64(max(len(rows), 1)))
	if err != nil {
		return nil, fmt.Errorf("create parquet writer: %w", err)
	}
	pw.CompressionType = codec

	for _, r := range rows {
		row := Row{
			Time:        r.Time.UTC().UnixMilli(),
			Temperature: r.Temperature,
			Station:     r.Station,
		}
		if err := pw.Write(row); err != nil {
			return nil, fmt.Errorf("write parquet row: %w", err)
		}
	}

	// WriteStop can panic on malformed schema state.
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("finalize parquet: %v", r)
		}
	}()
	if err := pw.WriteStop(); err != nil {
		return nil, fmt.Errorf("finalize parquet: %w", err)
	}
	return buf.Bytes(), nil
}
