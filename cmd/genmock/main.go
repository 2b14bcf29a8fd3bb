// Command genmock writes synthetic station exports and a matching registry
// for demos and fixtures. Output is reproducible for a given seed: the start
// time comes from a fixed clock and the noise from a seeded generator.
//
// Usage:
//
//	go run ./cmd/genmock -out-dir data/mock -stations 6 -days 3
//	go run ./cmd/normalize -registry data/mock/stations.yaml -out-dir data/mock
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/station-temperature-etl/internal/domain"
	"github.com/couchcryptid/station-temperature-etl/internal/registry"
)

var epoch = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

type options struct {
	outDir   string
	stations int
	days     int
	interval time.Duration
	seed     uint64
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	var o options
	flag.StringVar(&o.outDir, "out-dir", "", "directory for the station files and stations.yaml")
	flag.IntVar(&o.stations, "stations", 4, "number of stations")
	flag.IntVar(&o.days, "days", 2, "days of data per station")
	flag.DurationVar(&o.interval, "interval", 10*time.Minute, "logging interval")
	flag.Uint64Var(&o.seed, "seed", 42, "noise seed")
	flag.Parse()

	if o.outDir == "" || o.stations < 1 || o.days < 1 || o.interval <= 0 {
		flag.Usage()
		return fmt.Errorf("missing or invalid flags: -out-dir, -stations, -days, -interval")
	}

	domain.SetClock(clockwork.NewFakeClockAt(epoch))
	defer domain.SetClock(nil)

	stations, err := generate(o)
	if err != nil {
		return err
	}
	fmt.Printf("wrote %d stations to %s\n", len(stations), o.outDir)
	return nil
}

// generate writes one export per station plus stations.yaml and returns the
// stations as registered.
func generate(o options) ([]domain.Station, error) {
	if err := os.MkdirAll(filepath.Join(o.outDir, "raw"), 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	rng := rand.New(rand.NewPCG(o.seed, o.seed^0x9e3779b97f4a7c15))
	start := domain.Now().Truncate(24 * time.Hour)

	stations := make([]domain.Station, 0, o.stations)
	for i := range o.stations {
		st := mockStation(i)
		if err := writeExport(filepath.Join(o.outDir, st.Source), st, start, o, rng); err != nil {
			return nil, err
		}
		stations = append(stations, st)
	}

	data, err := registry.Marshal(stations)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(filepath.Join(o.outDir, "stations.yaml"), data, 0o644); err != nil {
		return nil, fmt.Errorf("write registry: %w", err)
	}
	return stations, nil
}

// mockStation alternates units and time zones so every combination appears
// in the first four stations.
func mockStation(i int) domain.Station {
	st := domain.Station{
		ID:       fmt.Sprintf("MOCK_%02d", i+1),
		Lat:      64 + float64(i)*1.5,
		Lon:      -51 + float64(i)*0.75,
		Source:   fmt.Sprintf("raw/mock_%02d.txt", i+1),
		Unit:     domain.UnitCelsius,
		TimeZone: domain.TimeZoneUTC,
		Column:   "SurfaceTemperature (°C)",
		Format:   domain.FormatText,
	}
	if i%2 == 1 {
		st.Unit = domain.UnitKelvin
		st.Column = "Temp ground °K"
	}
	if (i/2)%2 == 1 {
		st.TimeZone = domain.TimeZoneUTCMinus3
	}
	return st
}

func writeExport(path string, st domain.Station, start time.Time, o options, rng *rand.Rand) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	timeCol := "Time"
	if st.TimeZone == domain.TimeZoneUTCMinus3 {
		timeCol = "Time (UTC-3)"
	}
	offset := domain.TimeZoneOffsets[st.TimeZone]

	w := csv.NewWriter(f)
	w.Comma = '\t'
	if err := w.Write([]string{"Date", timeCol, st.Column}); err != nil {
		return err
	}

	steps := int(time.Duration(o.days) * 24 * time.Hour / o.interval)
	for k := range steps {
		utc := start.Add(time.Duration(k) * o.interval)
		local := utc.Add(-offset)
		hours := float64(utc.Sub(start)) / float64(time.Hour)
		celsius := -5 + 6*math.Sin(2*math.Pi*(hours-9)/24) + rng.NormFloat64()*0.5

		value := strconv.FormatFloat(round2(celsius), 'f', -1, 64)
		if st.Unit == domain.UnitKelvin {
			value = strconv.FormatFloat(round2(celsius+domain.KelvinOffset), 'f', -1, 64)
		}
		switch roll := rng.IntN(200); {
		case roll == 0:
			value = ""
		case roll == 1:
			value = "-9999"
		case roll == 2:
			value = "ERR"
		}

		rec := []string{local.Format("2006-01-02"), local.Format("15:04"), value}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
