package s3

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/station-temperature-etl/internal/config"
)

type objectServer struct {
	mu      sync.Mutex
	objects map[string]string
	types   map[string]string
}

func (s *objectServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		w.WriteHeader(http.StatusOK)
		return
	}
	body, _ := io.ReadAll(r.Body)
	s.mu.Lock()
	s.objects[r.URL.Path] = string(body)
	s.types[r.URL.Path] = r.Header.Get("Content-Type")
	s.mu.Unlock()
	w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
	w.WriteHeader(http.StatusOK)
}

func newTestUploader(t *testing.T) (*Uploader, *objectServer) {
	t.Helper()
	store := &objectServer{objects: map[string]string{}, types: map[string]string{}}
	srv := httptest.NewServer(store)
	t.Cleanup(srv.Close)

	u, err := NewUploader(config.S3Config{
		Endpoint:  strings.TrimPrefix(srv.URL, "http://"),
		Bucket:    "lst",
		AccessKey: "key",
		SecretKey: "secret",
		Prefix:    "station-etl",
		Region:    "us-east-1",
	}, slog.Default())
	require.NoError(t, err)
	return u, store
}

func TestUploader_Key(t *testing.T) {
	u, _ := newTestUploader(t)
	assert.Equal(t, "station-etl/run-1/aws_temperature.csv", u.Key("run-1", "/tmp/out/aws_temperature.csv"))
}

func TestUploader_Upload(t *testing.T) {
	u, srv := newTestUploader(t)

	dir := t.TempDir()
	master := filepath.Join(dir, "aws_temperature.csv")
	stations := filepath.Join(dir, "aws_stations.csv")
	require.NoError(t, os.WriteFile(master, []byte("Date,temperature,aws\n"), 0o644))
	require.NoError(t, os.WriteFile(stations, []byte("aws,lat\n"), 0o644))

	keys, err := u.Upload(context.Background(), "run-1", master, stations)
	require.NoError(t, err)
	assert.Equal(t, []string{"station-etl/run-1/aws_temperature.csv", "station-etl/run-1/aws_stations.csv"}, keys)

	srv.mu.Lock()
	defer srv.mu.Unlock()
	// the body may be aws-chunked over plain HTTP, so only look for the payload
	assert.Contains(t, srv.objects["/lst/station-etl/run-1/aws_temperature.csv"], "Date,temperature,aws")
	assert.Equal(t, "text/csv", srv.types["/lst/station-etl/run-1/aws_temperature.csv"])
	assert.Contains(t, srv.objects, "/lst/station-etl/run-1/aws_stations.csv")
}

func TestUploader_MissingFile(t *testing.T) {
	u, _ := newTestUploader(t)
	_, err := u.Upload(context.Background(), "run-1", filepath.Join(t.TempDir(), "absent.csv"))
	require.Error(t, err)
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "text/csv", contentType("a.csv"))
	assert.Equal(t, "application/vnd.apache.parquet", contentType("a.parquet"))
	assert.Equal(t, "application/octet-stream", contentType("a.bin.unknownext"))
}
