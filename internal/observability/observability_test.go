package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("WARN"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, LogConfig{Level: "info", Format: "json"})
	logger.Debug("hidden")
	logger.Info("station processed", "station", "Disko_T1", "rows", 12)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "station processed", entry["msg"])
	assert.Equal(t, "Disko_T1", entry["station"])
	assert.InDelta(t, 12, entry["rows"], 0)
}

func TestNewLogger_Text(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, LogConfig{Level: "debug", Format: "text"})
	logger.Debug("reading file", "station", "TOMST2")

	out := buf.String()
	assert.Contains(t, out, "reading file")
	assert.Contains(t, out, "TOMST2")
}

func TestMetrics_Registered(t *testing.T) {
	m := NewMetricsForTesting()
	m.RowsDropped.WithLabelValues(DropImplausible).Add(3)
	m.StationsProcessed.Inc()

	assert.InDelta(t, 3, testutil.ToFloat64(m.RowsDropped.WithLabelValues(DropImplausible)), 0)

	families, err := m.Registry.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "station_etl_rows_dropped_total")
	assert.Contains(t, names, "station_etl_stations_processed_total")
}

func TestPush(t *testing.T) {
	var gotPath, gotMethod string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotMethod = r.URL.Path, r.Method
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	m := NewMetricsForTesting()
	m.HourlyRowsEmitted.Add(42)

	require.NoError(t, Push(context.Background(), srv.URL, "normalize", "run-1", m))
	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "/metrics/job/normalize/run_id/run-1", gotPath)
	assert.NotEmpty(t, gotBody)
}

func TestPush_Disabled(t *testing.T) {
	require.NoError(t, Push(context.Background(), "", "normalize", "", NewMetricsForTesting()))
}

func TestPush_Error(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := Push(context.Background(), srv.URL, "normalize", "", NewMetricsForTesting())
	require.Error(t, err)
}
