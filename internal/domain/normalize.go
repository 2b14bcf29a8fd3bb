package domain

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// KelvinOffset is subtracted from kelvin readings to obtain Celsius.
var KelvinOffset = 273.15

// ImplausibleThreshold is the Celsius value at or below which a reading is
// treated as a sensor fault and dropped.
var ImplausibleThreshold = -100.0

// TimeZoneOffsets maps a declared time zone to the shift that brings its
// local timestamps to UTC. Offsets are fixed; daylight saving is not applied.
var TimeZoneOffsets = map[TimeZone]time.Duration{
	TimeZoneUTC:       0,
	TimeZoneUTCMinus3: 3 * time.Hour,
}

// clockLayouts are tried in order when parsing a time-of-day cell.
var clockLayouts = []string{
	"15:04",
	"15:04:05",
	"15:04:05.000",
	"3:04 PM",
	"3:04:05 PM",
	"3:04PM",
	"3:04:05PM",
	"3PM",
}

var errEmptyTimestamp = errors.New("empty timestamp")

// ParseTimestamp combines a date cell and a free-form time-of-day cell into a
// wall-clock timestamp (returned with a UTC location, not yet shifted). When
// date is empty, clock is parsed as a full date-time.
func ParseTimestamp(date, clock string) (time.Time, error) {
	date = strings.TrimSpace(date)
	clock = strings.TrimSpace(clock)

	if date == "" {
		if clock == "" {
			return time.Time{}, errEmptyTimestamp
		}
		t, err := dateparse.ParseIn(clock, time.UTC)
		if err != nil {
			return time.Time{}, fmt.Errorf("parse timestamp %q: %w", clock, err)
		}
		return t.UTC(), nil
	}

	day, err := dateparse.ParseIn(date, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", date, err)
	}
	day = day.UTC()

	if clock == "" {
		return time.Time{}, errEmptyTimestamp
	}
	tod, err := parseClock(clock)
	if err != nil {
		return time.Time{}, err
	}

	return time.Date(day.Year(), day.Month(), day.Day(),
		tod.Hour(), tod.Minute(), tod.Second(), tod.Nanosecond(), time.UTC), nil
}

func parseClock(s string) (time.Time, error) {
	upper := strings.ToUpper(s)
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, upper); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("parse time of day %q: no matching layout", s)
}

// ToUTC shifts a wall-clock timestamp recorded in tz to UTC.
func ToUTC(t time.Time, tz TimeZone) (time.Time, error) {
	off, ok := TimeZoneOffsets[tz]
	if !ok {
		return time.Time{}, fmt.Errorf("%w: %q", ErrUnknownTimeZone, tz)
	}
	return t.Add(off).UTC(), nil
}

// ToCelsius converts a value in the declared unit to Celsius.
func ToCelsius(v float64, u Unit) (float64, error) {
	switch u {
	case UnitCelsius:
		return v, nil
	case UnitKelvin:
		return v - KelvinOffset, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownUnit, u)
	}
}

// Plausible reports whether a Celsius reading is above [ImplausibleThreshold].
func Plausible(c float64) bool {
	return c > ImplausibleThreshold
}

// NormalizeStats counts what happened to one station's rows.
type NormalizeStats struct {
	Rows        int // rows handed to Normalize
	Unparseable int // bad timestamp or value
	Implausible int // at or below the threshold
	Kept        int
}

// Normalize runs the datetime, unit and plausibility stages over one
// station's raw rows. Rows that fail to parse or fall at or below the
// threshold are dropped and counted; only a bad station declaration is an
// error.
func Normalize(st Station, raw []RawReading) ([]Reading, NormalizeStats, error) {
	stats := NormalizeStats{Rows: len(raw)}
	if _, ok := TimeZoneOffsets[st.TimeZone]; !ok {
		return nil, stats, fmt.Errorf("station %s: %w: %q", st.ID, ErrUnknownTimeZone, st.TimeZone)
	}
	if st.Unit != UnitCelsius && st.Unit != UnitKelvin {
		return nil, stats, fmt.Errorf("station %s: %w: %q", st.ID, ErrUnknownUnit, st.Unit)
	}

	out := make([]Reading, 0, len(raw))
	for _, r := range raw {
		local, err := ParseTimestamp(r.Date, r.Time)
		if err != nil {
			stats.Unparseable++
			continue
		}
		v, err := parseValue(r.Value)
		if err != nil {
			stats.Unparseable++
			continue
		}

		ts, _ := ToUTC(local, st.TimeZone)
		c, _ := ToCelsius(v, st.Unit)
		if !Plausible(c) {
			stats.Implausible++
			continue
		}
		out = append(out, Reading{Time: ts, Celsius: c})
	}
	stats.Kept = len(out)
	return out, stats, nil
}

// parseValue accepts a decimal comma as well as a decimal point.
func parseValue(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, strconv.ErrSyntax
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil && strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		v, err = strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
	}
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, strconv.ErrSyntax
	}
	return v, nil
}
