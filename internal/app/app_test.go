package app

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStart_LoadsEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("NORMALIZE_WORKERS=3\nLOG_FORMAT=text\n"), 0o644))
	t.Setenv("NORMALIZE_WORKERS", "")
	os.Unsetenv("NORMALIZE_WORKERS")
	t.Setenv("LOG_FORMAT", "")
	os.Unsetenv("LOG_FORMAT")

	_, env, err := Start("normalize", path)
	require.NoError(t, err)
	defer env.stop()

	assert.Equal(t, 3, env.Config.NormalizeWorkers)
	assert.Equal(t, "normalize", env.Job)
	assert.Len(t, env.RunID, 36)
}

func TestStart_MissingEnvFileIsFine(t *testing.T) {
	_, env, err := Start("sample", filepath.Join(t.TempDir(), "absent.env"))
	require.NoError(t, err)
	env.stop()
}

func TestStart_InvalidConfig(t *testing.T) {
	t.Setenv("LOG_FORMAT", "xml")
	_, _, err := Start("normalize", "")
	require.ErrorContains(t, err, "LOG_FORMAT")
}

func TestFinish_PushesMetrics(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = io.Copy(io.Discard, r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()
	t.Setenv("PUSHGATEWAY_URL", srv.URL)

	_, env, err := Start("calibrate", "")
	require.NoError(t, err)

	assert.Equal(t, 0, env.Finish(nil))
	assert.Equal(t, "/metrics/job/calibrate/run_id/"+env.RunID, gotPath)
	assert.Positive(t, testutil.ToFloat64(env.Metrics.LastRunSuccess))
}

func TestFinish_ReportsFailure(t *testing.T) {
	ctx, env, err := Start("download", "")
	require.NoError(t, err)

	assert.Equal(t, 1, env.Finish(errors.New("listing unavailable")))
	assert.InDelta(t, 0, testutil.ToFloat64(env.Metrics.LastRunSuccess), 0)
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
}
