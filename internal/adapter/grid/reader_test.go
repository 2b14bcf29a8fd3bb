package grid

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/station-temperature-etl/internal/domain"
)

const carra = `time,latitude,longitude,skt
2021-06-01 00:00:00,69.25,-53.5,271.5
2021-06-01 00:00:00,69.30,-53.4,270.0
2021-06-01 03:00:00,69.25,-53.5,272.5
2021-06-01 03:00:00,69.30,-53.4,
`

func TestParse(t *testing.T) {
	g, err := Parse(strings.NewReader(carra), "")
	require.NoError(t, err)
	assert.Equal(t, "skt", g.Variable)
	assert.Equal(t, []domain.Cell{{Lat: 69.25, Lon: -53.5}, {Lat: 69.30, Lon: -53.4}}, g.Cells())

	series := g.Series(0)
	require.Len(t, series, 2)
	assert.Equal(t, time.Date(2021, 6, 1, 3, 0, 0, 0, time.UTC), series[1].Time)
	assert.Equal(t, 272.5, series[1].Value)
	assert.Len(t, g.Series(1), 1)
}

func TestParse_NamedVariable(t *testing.T) {
	data := "valid_time,lat,lon,t2m,skt\n2021-06-01T00:00:00Z,1,2,280,270\n"
	g, err := Parse(strings.NewReader(data), "skt")
	require.NoError(t, err)
	assert.Equal(t, 270.0, g.Series(0)[0].Value)
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse(strings.NewReader("time,latitude,skt\n"), "skt")
	require.ErrorIs(t, err, domain.ErrMissingColumn)

	_, err = Parse(strings.NewReader("time,latitude,longitude,skt\n"), "t2m")
	require.ErrorIs(t, err, domain.ErrMissingColumn)

	_, err = Parse(strings.NewReader("time,latitude,longitude,skt\n"), "skt")
	require.ErrorIs(t, err, domain.ErrEmptyGrid)

	_, err = Parse(strings.NewReader("time,latitude,longitude,skt\nyesterday,1,2,3\n"), "skt")
	require.Error(t, err)
}

func TestReadCSV_SampleStations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "carra.csv")
	require.NoError(t, os.WriteFile(path, []byte(carra), 0o644))

	g, err := ReadCSV(path, "skt")
	require.NoError(t, err)
	loc, err := domain.NewLocator(g.Cells())
	require.NoError(t, err)

	got, err := domain.SampleStation(g, loc, domain.Station{ID: "Disko_T2", Lat: 69.289, Lon: -53.433}, true)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.InDelta(t, 270.0-273.15, got[0].Value, 1e-9)
}
