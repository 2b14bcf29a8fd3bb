package pipeline

import (
	"context"
	"time"

	"github.com/couchcryptid/station-temperature-etl/internal/domain"
	"github.com/couchcryptid/station-temperature-etl/internal/observability"
)

type stationResult struct {
	station  string
	rows     []domain.HourlyReading
	stats    domain.NormalizeStats
	missing  int
	start    time.Time
	end      time.Time
	hasRange bool
	err      error
}

// processStation reads, normalizes and aggregates one station. Errors are
// carried in the result so the batch continues.
func (p *Pipeline) processStation(ctx context.Context, st domain.Station) stationResult {
	began := domain.Now()
	res := stationResult{station: st.ID}
	log := p.logger.With("station", st.ID)

	batch, err := p.extractor.Extract(ctx, st)
	if err != nil {
		log.Warn("read station failed, skipping", "source", st.Source, "error", err)
		p.metrics.StationsFailed.Inc()
		res.err = err
		return res
	}
	p.metrics.RowsRead.Add(float64(batch.Rows))
	p.metrics.RowsDropped.WithLabelValues(observability.DropMissing).Add(float64(batch.Missing))
	res.missing = batch.Missing

	readings, stats, err := domain.Normalize(st, batch.Readings)
	if err != nil {
		log.Warn("normalize station failed, skipping", "error", err)
		p.metrics.StationsFailed.Inc()
		res.err = err
		return res
	}
	p.metrics.RowsDropped.WithLabelValues(observability.DropUnparseable).Add(float64(stats.Unparseable))
	p.metrics.RowsDropped.WithLabelValues(observability.DropImplausible).Add(float64(stats.Implausible))
	res.stats = stats

	res.start, res.end, res.hasRange = domain.ObservedRange(readings)
	res.rows = domain.AggregateHourly(st.ID, readings)

	p.metrics.StationsProcessed.Inc()
	p.metrics.StationDuration.Observe(domain.Since(began).Seconds())
	log.Info("station processed",
		"rows", batch.Rows,
		"missing", batch.Missing,
		"unparseable", stats.Unparseable,
		"implausible", stats.Implausible,
		"hourly", len(res.rows),
	)
	return res
}
