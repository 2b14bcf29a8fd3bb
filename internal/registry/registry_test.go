package registry

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/station-temperature-etl/internal/domain"
)

func TestDefault(t *testing.T) {
	r, err := Default("/data")
	require.NoError(t, err)
	require.Equal(t, 14, r.Len())

	stations := r.Stations()
	assert.Equal(t, "Kobbefjord_M500", stations[0].ID)
	assert.Equal(t, domain.UnitCelsius, stations[0].Unit)
	assert.Equal(t, domain.TimeZoneUTCMinus3, stations[0].TimeZone)
	assert.Equal(t, domain.FormatText, stations[0].Format)
	assert.Equal(t, "SurfaceTemperature (°C)", stations[0].Column)
	assert.True(t, filepath.IsAbs(stations[0].Source))
	assert.Nil(t, stations[0].DateStart)

	m2, ok := r.Get("Zackenberg_M2")
	require.True(t, ok)
	assert.Equal(t, domain.UnitKelvin, m2.Unit)
	assert.Equal(t, domain.TimeZoneUTC, m2.TimeZone)

	tomst, ok := r.Get("TOMST4-30")
	require.True(t, ok)
	assert.Equal(t, domain.FormatSpreadsheet, tomst.Format)
	assert.Equal(t, "94232449", tomst.Source)
	assert.Equal(t, "T2", tomst.Column)
	assert.Equal(t, filepath.Join("/data", "AWS/5_Østerlien/SoilTemp2.0_data-submission_template_long_multisensor_logger_separated-timeseries_CS2024_Preliminary.xlsx"), tomst.Workbook)
}

func TestLoad_ResolvesRelativeToFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stations.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
stations:
  - id: A
    lat: 10
    lon: 20
    source: raw/a.txt
    unit: kelvin
    time_zone: UTC
    column: T
`), 0o644))

	r, err := Load(path)
	require.NoError(t, err)
	st, ok := r.Get("A")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(dir, "raw/a.txt"), st.Source)
}

func TestParse_ReportsAllProblems(t *testing.T) {
	_, err := Parse([]byte(`
stations:
  - id: A
    lat: 95
    lon: 0
    source: a.txt
    unit: celsius
    time_zone: UTC
    column: T
  - id: A
    lat: 0
    lon: 0
    source: ""
    unit: celsius
    time_zone: UTC
    column: ""
  - id: C
    lat: 0
    lon: 0
    source: c.txt
    unit: fahrenheit
    time_zone: CET
    column: T
`), "")
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "latitude 95 out of range")
	assert.Contains(t, msg, "fahrenheit")
	assert.Contains(t, msg, "CET")
	assert.ErrorIs(t, err, domain.ErrUnknownUnit)
}

func TestParse_UnknownField(t *testing.T) {
	_, err := Parse([]byte("stations:\n  - id: A\n    elevation: 3\n"), "")
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	good := domain.Station{ID: "A", Source: "a.txt", Column: "T", Unit: domain.UnitCelsius, TimeZone: domain.TimeZoneUTC, Format: domain.FormatText}

	require.NoError(t, Validate([]domain.Station{good}))

	dup := good
	sheet := good
	sheet.ID = "S"
	sheet.Format = domain.FormatSpreadsheet
	noID := good
	noID.ID = ""
	badLon := good
	badLon.ID = "L"
	badLon.Lon = -181

	err := Validate([]domain.Station{good, dup, sheet, noID, badLon})
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "duplicate id")
	assert.Contains(t, msg, "without workbook")
	assert.Contains(t, msg, "empty id")
	assert.Contains(t, msg, "longitude -181 out of range")
}

func TestRecord(t *testing.T) {
	r, err := New([]domain.Station{{ID: "A", Source: "a", Column: "T", Unit: domain.UnitCelsius, TimeZone: domain.TimeZoneUTC, Format: domain.FormatText}})
	require.NoError(t, err)

	start := time.Date(2024, 1, 1, 0, 10, 0, 0, time.UTC)
	end := time.Date(2024, 1, 1, 0, 50, 0, 0, time.UTC)
	require.NoError(t, r.Record("A", start, end))

	st, _ := r.Get("A")
	require.True(t, st.HasRange())
	assert.Equal(t, start, *st.DateStart)
	assert.Equal(t, end, *st.DateEnd)

	err = r.Record("A", start, end)
	require.ErrorIs(t, err, domain.ErrRangeAlreadySet)

	err = r.Record("B", start, end)
	require.ErrorIs(t, err, ErrUnknownStation)
}

func TestStations_ReturnsCopy(t *testing.T) {
	r, err := Default("")
	require.NoError(t, err)
	s := r.Stations()
	s[0].ID = "changed"
	assert.Equal(t, "Kobbefjord_M500", r.Stations()[0].ID)
}

func TestMarshal_RoundTrip(t *testing.T) {
	r, err := Default("")
	require.NoError(t, err)

	data, err := Marshal(r.Stations())
	require.NoError(t, err)

	again, err := Parse(data, "")
	require.NoError(t, err)
	assert.Equal(t, r.Stations(), again.Stations())
}
