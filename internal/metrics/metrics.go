// Package metrics holds the Prometheus collectors of the summary engine and
// the RPC layer. Collectors live on their own registry so tests can build
// as many as they like.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "tripsplit"

// Metrics is the set of collectors recorded by the service.
type Metrics struct {
	registry *prometheus.Registry

	SummariesComputed    prometheus.Counter
	EngineFaults         *prometheus.CounterVec
	SummaryDuration      prometheus.Histogram
	SuggestedSettlements prometheus.Histogram
	RPCRequests          *prometheus.CounterVec
}

// New registers all collectors, plus the Go runtime and process
// collectors, on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		SummariesComputed: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "summaries_computed_total",
			Help:      "Trip summaries computed successfully.",
		}),
		EngineFaults: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "engine_faults_total",
			Help:      "Summaries refused by the engine, by fault kind.",
		}, []string{"kind"}),
		SummaryDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "summary_duration_seconds",
			Help:      "Time spent loading and computing a trip summary.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}),
		SuggestedSettlements: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "suggested_settlements",
			Help:      "Number of transfers in each suggested settlement plan.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21, 34},
		}),
		RPCRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rpc_requests_total",
			Help:      "RPC requests handled, by procedure and result code.",
		}, []string{"procedure", "code"}),
	}
}

// ObserveSummary records a computed summary. A nil receiver is a no-op.
func (m *Metrics) ObserveSummary(elapsed time.Duration, transfers int) {
	if m == nil {
		return
	}
	m.SummariesComputed.Inc()
	m.SummaryDuration.Observe(elapsed.Seconds())
	m.SuggestedSettlements.Observe(float64(transfers))
}

// ObserveFault counts an engine refusal of the given kind.
func (m *Metrics) ObserveFault(kind string) {
	if m == nil {
		return
	}
	m.EngineFaults.WithLabelValues(kind).Inc()
}

// ObserveRPC counts one handled request.
func (m *Metrics) ObserveRPC(procedure, code string) {
	if m == nil {
		return
	}
	m.RPCRequests.WithLabelValues(procedure, code).Inc()
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
