package journal

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/goblinstake/goblin-stake/metrics"
)

var (
	recordsGaugeOnce sync.Once
	recordsGauge     prometheus.Gauge
)

// RegisterMetrics exposes the journal size on the metrics endpoint.
func (s *Store) RegisterMetrics() {
	recordsGaugeOnce.Do(func() {
		recordsGauge = promauto.NewGauge(prometheus.GaugeOpts{
			Name: "goblinstake_journal_records",
			Help: "Number of transactions recorded in the local journal",
		})
	})

	metrics.AddPreCollectFn(func() {
		count, err := s.Count()
		if err == nil {
			recordsGauge.Set(float64(count))
		}
	})
}
