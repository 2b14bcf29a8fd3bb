// Package pipeline runs the station normalizer: read every registered
// station, normalize and aggregate it, then write the master table and the
// updated registry once and load the table into the configured sinks.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/station-temperature-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/station-temperature-etl/internal/domain"
	"github.com/couchcryptid/station-temperature-etl/internal/observability"
	"github.com/couchcryptid/station-temperature-etl/internal/registry"
)

// Extractor reads the raw rows of one station.
type Extractor interface {
	Extract(ctx context.Context, st domain.Station) (domain.RawBatch, error)
}

// Loader writes the master table to an optional destination.
type Loader interface {
	Name() string
	Load(ctx context.Context, rows []domain.HourlyReading) error
}

// Output names the files written at the end of a run.
type Output struct {
	MasterPath   string
	RegistryPath string
}

// Report summarizes a run.
type Report struct {
	Stations  int
	Processed []string
	Failed    map[string]error
	Rows      int
	Dropped   map[string]int // by drop reason
	SinkErr   error
}

// Pipeline orchestrates one normalizer run over a registry.
type Pipeline struct {
	registry  *registry.Registry
	extractor Extractor
	loaders   []Loader
	output    Output
	logger    *slog.Logger
	metrics   *observability.Metrics
	workers   int
	ready     atomic.Bool

	total  atomic.Int64
	done   atomic.Int64
	failed atomic.Int64
}

// Progress is a snapshot of a run in flight.
type Progress struct {
	Stations int64 `json:"stations"`
	Done     int64 `json:"done"`
	Failed   int64 `json:"failed"`
}

// New creates a Pipeline. workers below 1 means one station at a time.
func New(reg *registry.Registry, e Extractor, out Output, logger *slog.Logger, metrics *observability.Metrics, workers int, loaders ...Loader) *Pipeline {
	if workers < 1 {
		workers = 1
	}
	return &Pipeline{
		registry:  reg,
		extractor: e,
		loaders:   loaders,
		output:    out,
		logger:    logger,
		metrics:   metrics,
		workers:   workers,
	}
}

// CheckReadiness returns nil once the pipeline has finished at least one
// station.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not finished any station yet")
	}
	return nil
}

// Progress reports how many stations the current run has finished.
func (p *Pipeline) Progress() Progress {
	return Progress{
		Stations: p.total.Load(),
		Done:     p.done.Load(),
		Failed:   p.failed.Load(),
	}
}

// Run processes every station, writes the outputs and loads the sinks.
// Per-station and per-sink failures are reported, not returned; the error is
// non-nil only when the run is cancelled or the outputs cannot be written.
func (p *Pipeline) Run(ctx context.Context) (Report, error) {
	stations := p.registry.Stations()
	p.logger.Info("run started", "stations", len(stations), "workers", p.workers)
	p.metrics.RunRunning.Set(1)
	defer p.metrics.RunRunning.Set(0)
	p.total.Store(int64(len(stations)))
	p.done.Store(0)
	p.failed.Store(0)

	results := make([]stationResult, len(stations))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, st := range stations {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = p.processStation(gctx, st)
			if results[i].err != nil {
				p.failed.Add(1)
			}
			p.done.Add(1)
			p.ready.Store(true)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Report{}, fmt.Errorf("process stations: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return Report{}, fmt.Errorf("process stations: %w", err)
	}

	report, rows := p.collect(results)

	if err := csvfile.WriteHourly(p.output.MasterPath, rows); err != nil {
		return report, fmt.Errorf("write master table: %w", err)
	}
	if err := csvfile.WriteRegistry(p.output.RegistryPath, p.registry.Stations()); err != nil {
		return report, fmt.Errorf("write registry: %w", err)
	}
	p.metrics.HourlyRowsEmitted.Add(float64(len(rows)))

	report.SinkErr = p.load(ctx, rows)
	p.metrics.LastRunSuccess.Set(float64(domain.Now().Unix()))

	p.logger.Info("run finished",
		"stations", report.Stations,
		"failed", len(report.Failed),
		"rows", report.Rows,
		"master", p.output.MasterPath,
		"registry", p.output.RegistryPath,
	)
	return report, nil
}

// collect concatenates per-station rows in registry order and records each
// station's observed range.
func (p *Pipeline) collect(results []stationResult) (Report, []domain.HourlyReading) {
	report := Report{
		Stations: len(results),
		Failed:   make(map[string]error),
		Dropped:  make(map[string]int),
	}
	var rows []domain.HourlyReading
	for _, r := range results {
		if r.err != nil {
			report.Failed[r.station] = r.err
			continue
		}
		report.Processed = append(report.Processed, r.station)
		report.Dropped[observability.DropMissing] += r.missing
		report.Dropped[observability.DropUnparseable] += r.stats.Unparseable
		report.Dropped[observability.DropImplausible] += r.stats.Implausible

		if r.hasRange {
			if err := p.registry.Record(r.station, r.start, r.end); err != nil {
				p.logger.Warn("record observed range failed", "station", r.station, "error", err)
			}
		}
		rows = append(rows, r.rows...)
	}
	report.Rows = len(rows)
	return report, rows
}

// load hands the table to every sink. A failing sink does not stop the
// others.
func (p *Pipeline) load(ctx context.Context, rows []domain.HourlyReading) error {
	var result *multierror.Error
	for _, l := range p.loaders {
		if err := l.Load(ctx, rows); err != nil {
			p.logger.Warn("sink load failed", "sink", l.Name(), "error", err)
			p.metrics.SinkErrors.WithLabelValues(l.Name()).Inc()
			result = multierror.Append(result, fmt.Errorf("%s: %w", l.Name(), err))
			continue
		}
		p.logger.Info("sink loaded", "sink", l.Name(), "rows", len(rows))
	}
	return result.ErrorOrNil()
}
