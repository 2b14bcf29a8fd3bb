package domain

import (
	"fmt"
	"strings"
	"time"
)

// Unit is the temperature unit a station declares for its source column.
type Unit string

const (
	UnitCelsius Unit = "celsius"
	UnitKelvin  Unit = "kelvin"
)

// ParseUnit validates a declared unit. The misspelling "celcius" used by the
// older station lists is accepted as Celsius.
func ParseUnit(s string) (Unit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "celsius", "celcius":
		return UnitCelsius, nil
	case "kelvin":
		return UnitKelvin, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownUnit, s)
	}
}

// TimeZone is the fixed clock offset a station's timestamps are recorded in.
type TimeZone string

const (
	TimeZoneUTC       TimeZone = "UTC"
	TimeZoneUTCMinus3 TimeZone = "UTC-3"
)

// ParseTimeZone validates a declared time zone against [TimeZoneOffsets].
func ParseTimeZone(s string) (TimeZone, error) {
	tz := TimeZone(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := TimeZoneOffsets[tz]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownTimeZone, s)
	}
	return tz, nil
}

// Format selects the raw reader strategy for a station.
type Format string

const (
	// FormatText is a tab-separated export with Date, Time and value columns.
	FormatText Format = "text"
	// FormatSpreadsheet is one sheet of a shared workbook with Time and value columns.
	FormatSpreadsheet Format = "spreadsheet"
)

// ParseFormat validates a declared source format. Empty means text.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text":
		return FormatText, nil
	case "spreadsheet", "xlsx":
		return FormatSpreadsheet, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// Station describes one monitoring site. Everything except DateStart and
// DateEnd is fixed when the registry is built; the range is filled once after
// the station's data has been normalized and stays nil if nothing survived.
type Station struct {
	ID       string
	Lat      float64
	Lon      float64
	Source   string // file path for text stations, sheet name for spreadsheet stations
	Workbook string // spreadsheet path, only for FormatSpreadsheet
	Unit     Unit
	TimeZone TimeZone
	Column   string
	Format   Format

	DateStart *time.Time
	DateEnd   *time.Time
}

// HasRange reports whether the observed date range has been recorded.
func (s Station) HasRange() bool {
	return s.DateStart != nil && s.DateEnd != nil
}
