// Command validate performs integrity checks on the outputs of a normalizer
// run: the master temperature table and the station registry with observed
// date ranges. Each check is a phase that passes or fails on its own.
//
// Usage:
//
//	go run ./cmd/validate -master out/aws_temperature.csv -registry out/aws_stations.csv
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/couchcryptid/station-temperature-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/station-temperature-etl/internal/domain"
)

// maxErrorsPerPhase caps the detail printed for a failing phase.
const maxErrorsPerPhase = 20

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	master := flag.String("master", "aws_temperature.csv", "master temperature table")
	stations := flag.String("registry", "aws_stations.csv", "station registry table")
	flag.Parse()

	if code := run(*master, *stations); code != 0 {
		os.Exit(code)
	}
}

func run(masterPath, registryPath string) int {
	fmt.Println("=== Station Temperature Integrity Validation ===")
	fmt.Println()

	rows, err := csvfile.ReadHourly(masterPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load master table: %v\n", err)
		return 1
	}
	stations, err := csvfile.ReadRegistry(registryPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load registry: %v\n", err)
		return 1
	}

	phases := validate(rows, stations)

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Records: %d hourly rows, %d stations\n", len(rows), len(stations))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			if i == maxErrorsPerPhase {
				fmt.Printf("  ... %d more\n", len(p.errors)-i)
				break
			}
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

func validate(rows []domain.HourlyReading, stations []domain.Station) []*phase {
	return []*phase{
		validatePlausibility(rows),
		validateUniqueness(rows),
		validateRegistryRanges(rows, stations),
		validateOrdering(rows, stations),
	}
}

// ── Phase 1: every emitted temperature is above the threshold ──

func validatePlausibility(rows []domain.HourlyReading) *phase {
	p := &phase{name: "Phase 1: Plausibility"}
	for i, r := range rows {
		if !domain.Plausible(r.Temperature) {
			p.errorf("row %d (%s %s): temperature %g <= %g", i+2, r.Station, r.Time.Format(time.RFC3339), r.Temperature, domain.ImplausibleThreshold)
		}
	}
	return p
}

// ── Phase 2: one row per station and UTC hour, on the hour ──

func validateUniqueness(rows []domain.HourlyReading) *phase {
	p := &phase{name: "Phase 2: Station-hour uniqueness"}
	type key struct {
		station string
		hour    int64
	}
	seen := make(map[key]int, len(rows))
	for i, r := range rows {
		if !r.Time.Equal(r.Time.Truncate(time.Hour)) {
			p.errorf("row %d (%s): %s is not on the hour", i+2, r.Station, r.Time.Format(time.RFC3339))
		}
		k := key{station: r.Station, hour: r.Time.Truncate(time.Hour).Unix()}
		if first, dup := seen[k]; dup {
			p.errorf("row %d (%s %s): duplicates row %d", i+2, r.Station, r.Time.Format(time.RFC3339), first)
			continue
		}
		seen[k] = i + 2
	}
	return p
}

// ── Phase 3: rows fall inside the station's observed range, and a range is
// recorded exactly when the station has rows ──

func validateRegistryRanges(rows []domain.HourlyReading, stations []domain.Station) *phase {
	p := &phase{name: "Phase 3: Registry date ranges"}
	byID := make(map[string]domain.Station, len(stations))
	for _, st := range stations {
		byID[st.ID] = st
	}

	counts := make(map[string]int)
	for i, r := range rows {
		counts[r.Station]++
		st, ok := byID[r.Station]
		if !ok {
			p.errorf("row %d: station %s not in registry", i+2, r.Station)
			continue
		}
		if !st.HasRange() {
			continue
		}
		// date_start is the raw earliest reading while rows are hour-floored,
		// so the first row may precede it by up to an hour.
		if r.Time.Before(st.DateStart.Truncate(time.Hour)) || r.Time.After(*st.DateEnd) {
			p.errorf("row %d (%s): %s outside [%s, %s]", i+2, r.Station, r.Time.Format(time.RFC3339),
				st.DateStart.Format(time.RFC3339), st.DateEnd.Format(time.RFC3339))
		}
	}

	for _, st := range stations {
		has := counts[st.ID] > 0
		switch {
		case has && !st.HasRange():
			p.errorf("station %s: %d rows but no date range", st.ID, counts[st.ID])
		case !has && (st.DateStart != nil || st.DateEnd != nil):
			p.errorf("station %s: date range recorded but no rows", st.ID)
		case st.HasRange() && st.DateEnd.Before(*st.DateStart):
			p.errorf("station %s: date_end before date_start", st.ID)
		}
	}
	return p
}

// ── Phase 4: rows grouped by station in registry order, ascending time ──

func validateOrdering(rows []domain.HourlyReading, stations []domain.Station) *phase {
	p := &phase{name: "Phase 4: Ordering"}
	rank := make(map[string]int, len(stations))
	for i, st := range stations {
		rank[st.ID] = i
	}
	for i := 1; i < len(rows); i++ {
		prev, cur := rows[i-1], rows[i]
		if prev.Station == cur.Station {
			if !cur.Time.After(prev.Time) {
				p.errorf("row %d (%s): %s not after %s", i+2, cur.Station, cur.Time.Format(time.RFC3339), prev.Time.Format(time.RFC3339))
			}
			continue
		}
		if rank[cur.Station] < rank[prev.Station] {
			p.errorf("row %d: station %s follows %s against registry order", i+2, cur.Station, prev.Station)
		}
	}
	return p
}
