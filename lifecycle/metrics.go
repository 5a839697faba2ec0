package lifecycle

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/VRK-YTI/yti-datamodel-api-sub003/errs"
)

// metrics holds the lifecycle collectors. A nil *metrics records nothing.
type metrics struct {
	ops           *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	indexFailures *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) (*metrics, error) {
	if reg == nil {
		return nil, nil // Metrics disabled
	}
	m := &metrics{
		ops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "datamodel",
			Subsystem: "lifecycle",
			Name:      "operations_total",
			Help:      "Lifecycle operations by outcome; the outcome is the error key or ok",
		}, []string{"operation", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "datamodel",
			Subsystem: "lifecycle",
			Name:      "operation_duration_seconds",
			Help:      "Lifecycle operation latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		indexFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "datamodel",
			Subsystem: "index",
			Name:      "projection_failures_total",
			Help:      "Search index projections that failed after the graph write",
		}, []string{"operation"}),
	}
	for _, c := range []prometheus.Collector{m.ops, m.duration, m.indexFailures} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *metrics) observe(op string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.duration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	outcome := "ok"
	if err != nil {
		outcome = errs.Key(err)
	}
	m.ops.WithLabelValues(op, outcome).Inc()
}

func (m *metrics) indexFailed(op string) {
	if m == nil {
		return
	}
	m.indexFailures.WithLabelValues(op).Inc()
}
