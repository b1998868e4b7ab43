package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	FlushModeWindow = "window"
	FlushModeStream = "stream"
)

// AggMetrics are the collectors updated by aggregate operators. They are shared by all operators in the
// process.
type AggMetrics struct {
	RowsConsumed    Counter
	BatchesConsumed Counter
	Flushes         *CounterVec
	LiveGroups      Gauge
}

var (
	aggMetricsOnce sync.Once
	aggMetrics     *AggMetrics
)

// GetAggMetrics returns the aggregate collectors, registering them with the default registry on first use.
func GetAggMetrics() *AggMetrics {
	aggMetricsOnce.Do(func() {
		aggMetrics = newAggMetrics(prometheus.DefaultRegisterer)
	})
	return aggMetrics
}

func newAggMetrics(registerer prometheus.Registerer) *AggMetrics {
	m := &AggMetrics{
		RowsConsumed: prometheus.NewCounter(CounterOpts{
			Name: "tekagg_agg_rows_consumed_total",
			Help: "Rows consumed by aggregate operators.",
		}),
		BatchesConsumed: prometheus.NewCounter(CounterOpts{
			Name: "tekagg_agg_batches_consumed_total",
			Help: "Batches consumed by aggregate operators.",
		}),
		Flushes: prometheus.NewCounterVec(CounterOpts{
			Name: "tekagg_agg_flushes_total",
			Help: "Result flushes by aggregate operators, by trigger.",
		}, []string{"mode"}),
		LiveGroups: prometheus.NewGauge(GaugeOpts{
			Name: "tekagg_agg_live_groups",
			Help: "Groups currently buffered by aggregate operators.",
		}),
	}
	registerer.MustRegister(m.RowsConsumed, m.BatchesConsumed, m.Flushes, m.LiveGroups)
	return m
}
