package observability

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus/push"
)

// Push sends the metrics of a finished run to a Pushgateway, grouped by job
// and run id. An empty url is a no-op.
func Push(ctx context.Context, url, job, runID string, m *Metrics) error {
	if url == "" {
		return nil
	}
	p := push.New(url, job).Gatherer(m.Registry)
	if runID != "" {
		p = p.Grouping("run_id", runID)
	}
	if err := p.PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics to %s: %w", url, err)
	}
	return nil
}
