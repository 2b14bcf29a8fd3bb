package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "station_etl"

// Drop reasons used as the "reason" label of RowsDropped.
const (
	DropMissing     = "missing"
	DropUnparseable = "unparseable"
	DropImplausible = "implausible"
)

// Metrics holds the Prometheus collectors shared by the batch tools. Each
// Metrics owns its registry so a run can be pushed or served on its own.
type Metrics struct {
	Registry *prometheus.Registry

	StationsProcessed prometheus.Counter
	StationsFailed    prometheus.Counter
	RowsRead          prometheus.Counter
	RowsDropped       *prometheus.CounterVec // labels: reason={missing,unparseable,implausible}
	HourlyRowsEmitted prometheus.Counter
	StationDuration   prometheus.Histogram

	SinkErrors *prometheus.CounterVec // labels: sink

	GridStationsFailed prometheus.Counter
	Downloads          *prometheus.CounterVec // labels: outcome={downloaded,skipped,failed}
	CalibrationPairs   prometheus.Gauge

	RunRunning     prometheus.Gauge
	LastRunSuccess prometheus.Gauge
}

// NewMetrics creates the run metrics together with Go runtime and process
// collectors.
func NewMetrics() *Metrics {
	m := newMetrics()
	m.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// NewMetricsForTesting creates Metrics on a fresh registry without runtime
// collectors.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		StationsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stations_processed_total",
			Help:      "Stations normalized successfully.",
		}),
		StationsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stations_failed_total",
			Help:      "Stations skipped because their source could not be read.",
		}),
		RowsRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_read_total",
			Help:      "Raw rows read from station sources.",
		}),
		RowsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_dropped_total",
			Help:      "Raw rows dropped, by reason.",
		}, []string{"reason"}),
		HourlyRowsEmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hourly_rows_emitted_total",
			Help:      "Hourly rows written to the master table.",
		}),
		StationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "station_duration_seconds",
			Help:      "Time to read, normalize and aggregate one station.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		SinkErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sink_errors_total",
			Help:      "Failed loads into optional sinks, by sink.",
		}, []string{"sink"}),
		GridStationsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "grid_stations_failed_total",
			Help:      "Stations that could not be sampled from a gridded product.",
		}),
		Downloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "downloads_total",
			Help:      "Remote files handled by the downloader, by outcome.",
		}, []string{"outcome"}),
		CalibrationPairs: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "calibration_pairs",
			Help:      "Joined station/product pairs used by the last calibration.",
		}),
		RunRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_running",
			Help:      "1 while a run is in progress, 0 otherwise.",
		}),
		LastRunSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_success_timestamp_seconds",
			Help:      "Unix time of the last run that completed without error.",
		}),
	}

	m.Registry.MustRegister(
		m.StationsProcessed,
		m.StationsFailed,
		m.RowsRead,
		m.RowsDropped,
		m.HourlyRowsEmitted,
		m.StationDuration,
		m.SinkErrors,
		m.GridStationsFailed,
		m.Downloads,
		m.CalibrationPairs,
		m.RunRunning,
		m.LastRunSuccess,
	)

	return m
}
