package storage

import (
	"context"
	"errors"
	"time"

	"github.com/deiu/rdf2go"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/VRK-YTI/yti-datamodel-api-sub003/errs"
)

// instrumented wraps a Repository with Prometheus metrics.
type instrumented struct {
	next     Repository
	ops      *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// Instrument wraps next with operation counters and latency histograms
// labelled by store. A nil registerer returns next unchanged.
func Instrument(next Repository, store string, reg prometheus.Registerer) (Repository, error) {
	if reg == nil {
		return next, nil // Metrics disabled
	}
	ops := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace:   "datamodel",
		Subsystem:   "repository",
		Name:        "operations_total",
		Help:        "Graph repository operations by outcome",
		ConstLabels: prometheus.Labels{"store": store},
	}, []string{"operation", "outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   "datamodel",
		Subsystem:   "repository",
		Name:        "operation_duration_seconds",
		Help:        "Graph repository operation latency",
		ConstLabels: prometheus.Labels{"store": store},
		Buckets:     prometheus.DefBuckets,
	}, []string{"operation"})

	for _, c := range []prometheus.Collector{ops, duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return &instrumented{next: next, ops: ops, duration: duration}, nil
}

func (m *instrumented) observe(op string, start time.Time, err error) {
	m.duration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	outcome := "ok"
	switch {
	case err == nil:
	case errors.Is(err, ErrNotFound):
		outcome = "not_found"
	case errs.Key(err) == errs.KeyConflict:
		outcome = "conflict"
	default:
		outcome = "error"
	}
	m.ops.WithLabelValues(op, outcome).Inc()
}

func (m *instrumented) Fetch(ctx context.Context, graphURI string) (p *Partition, err error) {
	defer func(start time.Time) { m.observe("fetch", start, err) }(time.Now())
	return m.next.Fetch(ctx, graphURI)
}

func (m *instrumented) Put(ctx context.Context, graphURI string, g *rdf2go.Graph) (err error) {
	defer func(start time.Time) { m.observe("put", start, err) }(time.Now())
	return m.next.Put(ctx, graphURI, g)
}

func (m *instrumented) PutIfUnchanged(ctx context.Context, graphURI string, g *rdf2go.Graph, revision uint64) (err error) {
	defer func(start time.Time) { m.observe("put_if_unchanged", start, err) }(time.Now())
	return m.next.PutIfUnchanged(ctx, graphURI, g, revision)
}

func (m *instrumented) Delete(ctx context.Context, graphURI string) (err error) {
	defer func(start time.Time) { m.observe("delete", start, err) }(time.Now())
	return m.next.Delete(ctx, graphURI)
}

func (m *instrumented) Exists(ctx context.Context, graphURI string) (ok bool, err error) {
	defer func(start time.Time) { m.observe("exists", start, err) }(time.Now())
	return m.next.Exists(ctx, graphURI)
}

func (m *instrumented) ResourceExists(ctx context.Context, graphURI, resourceURI string, includeVersions bool) (ok bool, err error) {
	defer func(start time.Time) { m.observe("resource_exists", start, err) }(time.Now())
	return m.next.ResourceExists(ctx, graphURI, resourceURI, includeVersions)
}

func (m *instrumented) Ask(ctx context.Context, q AskQuery) (ok bool, err error) {
	defer func(start time.Time) { m.observe("ask", start, err) }(time.Now())
	return m.next.Ask(ctx, q)
}

func (m *instrumented) Construct(ctx context.Context, p Pattern) (g *rdf2go.Graph, err error) {
	defer func(start time.Time) { m.observe("construct", start, err) }(time.Now())
	return m.next.Construct(ctx, p)
}

func (m *instrumented) Select(ctx context.Context, p Pattern) (rows []Row, err error) {
	defer func(start time.Time) { m.observe("select", start, err) }(time.Now())
	return m.next.Select(ctx, p)
}
