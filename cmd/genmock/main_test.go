package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/station-temperature-etl/internal/adapter/stationfile"
	"github.com/couchcryptid/station-temperature-etl/internal/domain"
	"github.com/couchcryptid/station-temperature-etl/internal/registry"
)

func testOptions(dir string) options {
	return options{outDir: dir, stations: 4, days: 1, interval: 10 * time.Minute, seed: 7}
}

func TestGenerate_LoadsAndNormalizes(t *testing.T) {
	domain.SetClock(clockwork.NewFakeClockAt(epoch))
	t.Cleanup(func() { domain.SetClock(nil) })

	dir := t.TempDir()
	stations, err := generate(testOptions(dir))
	require.NoError(t, err)
	require.Len(t, stations, 4)
	assert.Equal(t, domain.UnitKelvin, stations[1].Unit)
	assert.Equal(t, domain.TimeZoneUTCMinus3, stations[2].TimeZone)

	reg, err := registry.Load(filepath.Join(dir, "stations.yaml"))
	require.NoError(t, err)
	require.Equal(t, 4, reg.Len())

	for _, st := range reg.Stations() {
		batch, err := stationfile.NewExtractor().Extract(context.Background(), st)
		require.NoError(t, err, st.ID)
		assert.Equal(t, 144, batch.Rows, st.ID)

		readings, _, err := domain.Normalize(st, batch.Readings)
		require.NoError(t, err)
		require.NotEmpty(t, readings)
		start, end, ok := domain.ObservedRange(readings)
		require.True(t, ok)
		assert.False(t, start.Before(epoch), st.ID)
		assert.True(t, end.Before(epoch.Add(24*time.Hour)), st.ID)
		for _, r := range readings {
			assert.Greater(t, r.Celsius, -30.0, st.ID)
			assert.Less(t, r.Celsius, 20.0, st.ID)
		}
	}
}

func TestGenerate_Reproducible(t *testing.T) {
	domain.SetClock(clockwork.NewFakeClockAt(epoch))
	t.Cleanup(func() { domain.SetClock(nil) })

	a, b := t.TempDir(), t.TempDir()
	_, err := generate(testOptions(a))
	require.NoError(t, err)
	_, err = generate(testOptions(b))
	require.NoError(t, err)

	for _, name := range []string{"stations.yaml", "raw/mock_01.txt", "raw/mock_04.txt"} {
		da, err := os.ReadFile(filepath.Join(a, name))
		require.NoError(t, err)
		db, err := os.ReadFile(filepath.Join(b, name))
		require.NoError(t, err)
		assert.Equal(t, da, db, name)
	}
}
