package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testStation = "Disko_T1"

func celsiusStation(tz TimeZone) Station {
	return Station{ID: testStation, Lat: 69.273, Lon: -53.4794, Unit: UnitCelsius, TimeZone: tz, Column: "T", Format: FormatText}
}

func TestParseUnit(t *testing.T) {
	for in, want := range map[string]Unit{
		"celsius": UnitCelsius,
		"celcius": UnitCelsius,
		"Kelvin":  UnitKelvin,
		" kelvin": UnitKelvin,
	} {
		got, err := ParseUnit(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseUnit("fahrenheit")
	require.ErrorIs(t, err, ErrUnknownUnit)
}

func TestParseTimeZone(t *testing.T) {
	tz, err := ParseTimeZone("utc-3")
	require.NoError(t, err)
	assert.Equal(t, TimeZoneUTCMinus3, tz)

	_, err = ParseTimeZone("CET")
	require.ErrorIs(t, err, ErrUnknownTimeZone)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatText, f)

	f, err = ParseFormat("spreadsheet")
	require.NoError(t, err)
	assert.Equal(t, FormatSpreadsheet, f)

	_, err = ParseFormat("netcdf")
	require.ErrorIs(t, err, ErrUnknownFormat)
}

func TestParseTimestamp(t *testing.T) {
	want := time.Date(2021, 6, 1, 14, 30, 0, 0, time.UTC)

	tests := []struct {
		name  string
		date  string
		clock string
		want  time.Time
	}{
		{"24h", "2021-06-01", "14:30", want},
		{"24h with seconds", "2021-06-01", "14:30:00", want},
		{"fractional seconds", "2021-06-01", "14:30:00.000", want},
		{"12h spaced", "2021-06-01", "2:30 PM", want},
		{"12h lower case", "2021-06-01", "2:30pm", want},
		{"12h with seconds", "2021-06-01", "2:30:00 PM", want},
		{"hour only", "2021-06-01", "2PM", time.Date(2021, 6, 1, 14, 0, 0, 0, time.UTC)},
		{"slashed date", "06/01/2021", "14:30", want},
		{"full timestamp in time cell", "", "2021-06-01 14:30:00", want},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseTimestamp(tc.date, tc.clock)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	t.Run("garbage time", func(t *testing.T) {
		_, err := ParseTimestamp("2021-06-01", "lunchtime")
		require.Error(t, err)
	})
	t.Run("garbage date", func(t *testing.T) {
		_, err := ParseTimestamp("not a date", "14:30")
		require.Error(t, err)
	})
	t.Run("empty", func(t *testing.T) {
		_, err := ParseTimestamp("", "")
		require.Error(t, err)
	})
}

func TestNormalize_KelvinConversion(t *testing.T) {
	st := celsiusStation(TimeZoneUTC)
	st.Unit = UnitKelvin

	out, stats, err := Normalize(st, []RawReading{
		{Date: "2021-06-01", Time: "10:00", Value: "273.15"},
		{Date: "2021-06-01", Time: "11:00", Value: "280.5"},
	})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.InDelta(t, 0.0, out[0].Celsius, 1e-9)
	assert.InDelta(t, 280.5-273.15, out[1].Celsius, 1e-9)
	assert.Equal(t, 2, stats.Kept)
}

func TestNormalize_UTCMinus3Shift(t *testing.T) {
	out, _, err := Normalize(celsiusStation(TimeZoneUTCMinus3), []RawReading{
		{Date: "2021-06-01", Time: "22:15", Value: "1.5"},
	})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, time.Date(2021, 6, 2, 1, 15, 0, 0, time.UTC), out[0].Time)
}

func TestNormalize_UTCUnchanged(t *testing.T) {
	out, _, err := Normalize(celsiusStation(TimeZoneUTC), []RawReading{
		{Date: "2021-06-01", Time: "22:15", Value: "1.5"},
	})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, time.Date(2021, 6, 1, 22, 15, 0, 0, time.UTC), out[0].Time)
}

func TestNormalize_DropsImplausibleAndUnparseable(t *testing.T) {
	out, stats, err := Normalize(celsiusStation(TimeZoneUTC), []RawReading{
		{Date: "2021-06-01", Time: "10:00", Value: "-100"},
		{Date: "2021-06-01", Time: "10:10", Value: "-6999"},
		{Date: "2021-06-01", Time: "10:20", Value: "-99.9"},
		{Date: "2021-06-01", Time: "10:30", Value: "n/a"},
		{Date: "2021-06-01", Time: "noon-ish", Value: "3"},
		{Date: "2021-06-01", Time: "10:40", Value: "NaN"},
		{Date: "2021-06-01", Time: "10:50", Value: "2,5"},
	})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, -99.9, out[0].Celsius)
	assert.Equal(t, 2.5, out[1].Celsius)
	assert.Equal(t, NormalizeStats{Rows: 7, Unparseable: 3, Implausible: 2, Kept: 2}, stats)
	for _, r := range out {
		assert.Greater(t, r.Celsius, ImplausibleThreshold)
	}
}

func TestNormalize_KelvinFaultBelowThreshold(t *testing.T) {
	st := celsiusStation(TimeZoneUTC)
	st.Unit = UnitKelvin

	out, stats, err := Normalize(st, []RawReading{
		{Date: "2021-06-01", Time: "10:00", Value: "0"},
	})
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Equal(t, 1, stats.Implausible)
}

func TestNormalize_BadDeclaration(t *testing.T) {
	st := celsiusStation("CET")
	_, _, err := Normalize(st, nil)
	require.ErrorIs(t, err, ErrUnknownTimeZone)

	st = celsiusStation(TimeZoneUTC)
	st.Unit = "rankine"
	_, _, err = Normalize(st, nil)
	require.ErrorIs(t, err, ErrUnknownUnit)
}

func TestNormalize_OverriddenThreshold(t *testing.T) {
	orig := ImplausibleThreshold
	ImplausibleThreshold = -40
	t.Cleanup(func() { ImplausibleThreshold = orig })

	out, _, err := Normalize(celsiusStation(TimeZoneUTC), []RawReading{
		{Date: "2021-06-01", Time: "10:00", Value: "-45"},
		{Date: "2021-06-01", Time: "10:00", Value: "-35"},
	})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, -35.0, out[0].Celsius)
}
