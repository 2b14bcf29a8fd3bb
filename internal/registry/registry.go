// Package registry holds the validated list of stations a run processes.
package registry

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"

	"github.com/couchcryptid/station-temperature-etl/internal/domain"
)

//go:embed stations.yaml
var studyStations []byte

// Registry is an ordered, validated set of stations. Declaration order is
// iteration order. Only the observed date range of a station may change after
// construction, and only once.
type Registry struct {
	mu       sync.Mutex
	stations []domain.Station
	index    map[string]int
}

type file struct {
	Stations []entry `yaml:"stations"`
}

type entry struct {
	ID       string  `yaml:"id"`
	Lat      float64 `yaml:"lat"`
	Lon      float64 `yaml:"lon"`
	Source   string  `yaml:"source"`
	Workbook string  `yaml:"workbook,omitempty"`
	Unit     string  `yaml:"unit"`
	TimeZone string  `yaml:"time_zone"`
	Column   string  `yaml:"column"`
	Format   string  `yaml:"format,omitempty"`
}

// Default returns the embedded study registry with relative source paths
// resolved against dataRoot.
func Default(dataRoot string) (*Registry, error) {
	return Parse(studyStations, dataRoot)
}

// Load reads a YAML registry file. Relative source paths resolve against
// the file's directory.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read registry: %w", err)
	}
	return Parse(data, filepath.Dir(path))
}

// Parse decodes a YAML registry and validates every entry, reporting all
// problems at once.
func Parse(data []byte, baseDir string) (*Registry, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f file
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode registry: %w", err)
	}

	stations := make([]domain.Station, 0, len(f.Stations))
	for _, e := range f.Stations {
		stations = append(stations, e.station(baseDir))
	}
	return New(stations)
}

// station converts an entry, keeping undecodable values verbatim so that
// Validate reports them alongside every other problem.
func (e entry) station(baseDir string) domain.Station {
	unit, err := domain.ParseUnit(e.Unit)
	if err != nil {
		unit = domain.Unit(e.Unit)
	}
	tz, err := domain.ParseTimeZone(e.TimeZone)
	if err != nil {
		tz = domain.TimeZone(e.TimeZone)
	}
	format, err := domain.ParseFormat(e.Format)
	if err != nil {
		format = domain.Format(e.Format)
	}

	st := domain.Station{
		ID:       e.ID,
		Lat:      e.Lat,
		Lon:      e.Lon,
		Source:   e.Source,
		Workbook: e.Workbook,
		Unit:     unit,
		TimeZone: tz,
		Column:   e.Column,
		Format:   format,
	}
	switch format {
	case domain.FormatText:
		st.Source = resolve(baseDir, st.Source)
	case domain.FormatSpreadsheet:
		st.Workbook = resolve(baseDir, st.Workbook)
	}
	return st
}

func resolve(baseDir, p string) string {
	if p == "" || baseDir == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(baseDir, p)
}

// New validates stations and builds a registry from them.
func New(stations []domain.Station) (*Registry, error) {
	if err := Validate(stations); err != nil {
		return nil, err
	}
	r := &Registry{
		stations: make([]domain.Station, len(stations)),
		index:    make(map[string]int, len(stations)),
	}
	copy(r.stations, stations)
	for i, st := range r.stations {
		r.index[st.ID] = i
	}
	return r, nil
}

// Validate checks every station and returns all problems found, or nil.
func Validate(stations []domain.Station) error {
	var result *multierror.Error
	seen := make(map[string]bool, len(stations))

	for i, st := range stations {
		fail := func(format string, args ...any) {
			result = multierror.Append(result, fmt.Errorf("station %d (%s): %s", i, st.ID, fmt.Sprintf(format, args...)))
		}

		switch {
		case st.ID == "":
			fail("empty id")
		case seen[st.ID]:
			fail("duplicate id")
		}
		seen[st.ID] = true

		if st.Lat < -90 || st.Lat > 90 {
			fail("latitude %g out of range", st.Lat)
		}
		if st.Lon < -180 || st.Lon > 180 {
			fail("longitude %g out of range", st.Lon)
		}
		if st.Source == "" {
			fail("empty source")
		}
		if st.Column == "" {
			fail("empty column")
		}
		if st.Unit != domain.UnitCelsius && st.Unit != domain.UnitKelvin {
			result = multierror.Append(result, fmt.Errorf("station %d (%s): %w: %q", i, st.ID, domain.ErrUnknownUnit, st.Unit))
		}
		if _, ok := domain.TimeZoneOffsets[st.TimeZone]; !ok {
			result = multierror.Append(result, fmt.Errorf("station %d (%s): %w: %q", i, st.ID, domain.ErrUnknownTimeZone, st.TimeZone))
		}
		switch st.Format {
		case domain.FormatText:
		case domain.FormatSpreadsheet:
			if st.Workbook == "" {
				fail("spreadsheet station without workbook")
			}
		default:
			result = multierror.Append(result, fmt.Errorf("station %d (%s): %w: %q", i, st.ID, domain.ErrUnknownFormat, st.Format))
		}
	}
	return result.ErrorOrNil()
}

// Len returns the number of stations.
func (r *Registry) Len() int {
	return len(r.stations)
}

// Stations returns a copy of the stations in declaration order.
func (r *Registry) Stations() []domain.Station {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Station, len(r.stations))
	copy(out, r.stations)
	return out
}

// Get returns the station with the given id.
func (r *Registry) Get(id string) (domain.Station, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i, ok := r.index[id]
	if !ok {
		return domain.Station{}, false
	}
	return r.stations[i], true
}

// ErrUnknownStation is returned when a registry operation names a station
// that is not registered.
var ErrUnknownStation = errors.New("unknown station")

// Record sets the observed date range of a station. It may be called at most
// once per station.
func (r *Registry) Record(id string, start, end time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	i, ok := r.index[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownStation, id)
	}
	st := &r.stations[i]
	if st.DateStart != nil || st.DateEnd != nil {
		return fmt.Errorf("station %s: %w", id, domain.ErrRangeAlreadySet)
	}
	s, e := start.UTC(), end.UTC()
	st.DateStart, st.DateEnd = &s, &e
	return nil
}

// Marshal encodes stations as a registry YAML document. Observed ranges are
// not part of the document.
func Marshal(stations []domain.Station) ([]byte, error) {
	f := file{Stations: make([]entry, len(stations))}
	for i, st := range stations {
		e := entry{
			ID:       st.ID,
			Lat:      st.Lat,
			Lon:      st.Lon,
			Source:   st.Source,
			Workbook: st.Workbook,
			Unit:     string(st.Unit),
			TimeZone: string(st.TimeZone),
			Column:   st.Column,
		}
		if st.Format != domain.FormatText {
			e.Format = string(st.Format)
		}
		f.Stations[i] = e
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(f); err != nil {
		return nil, fmt.Errorf("encode registry: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode registry: %w", err)
	}
	return buf.Bytes(), nil
}
