package observability

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/courselet/pkg/domain"
)

// Metrics holds the engine's Prometheus collectors.
type Metrics struct {
	gatherer prometheus.Gatherer

	NodeVisits *prometheus.CounterVec
	Flows      *prometheus.CounterVec
	Depth      prometheus.Histogram
	Dispatch   *prometheus.HistogramVec
}

// NewMetrics creates and registers the collectors on reg.
// reg is also used to serve Handler when it implements prometheus.Gatherer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		NodeVisits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "courselet_node_visits_total",
			Help: "Total number of node entries.",
		}, []string{"spec", "node"}),
		Flows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "courselet_flow_transitions_total",
			Help: "Nested flows pushed onto or popped off a stack.",
		}, []string{"spec", "op"}),
		Depth: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "courselet_stack_depth",
			Help:    "Stack depth observed after each push.",
			Buckets: []float64{1, 2, 3, 4, 6, 8},
		}),
		Dispatch: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "courselet_dispatch_duration_seconds",
			Help:    "Duration of engine requests, including persistence.",
			Buckets: prometheus.DefBuckets,
		}, []string{"op", "result"}),
	}
	reg.MustRegister(m.NodeVisits, m.Flows, m.Depth, m.Dispatch)

	if g, ok := reg.(prometheus.Gatherer); ok {
		m.gatherer = g
	} else {
		m.gatherer = prometheus.DefaultGatherer
	}
	return m
}

// Hooks records node visits and flow transitions.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeEnter: func(_ context.Context, e *domain.NodeEvent) {
			m.NodeVisits.WithLabelValues(e.Spec, e.Node).Inc()
		},
		OnPush: func(_ context.Context, e *domain.FlowEvent) {
			m.Flows.WithLabelValues(e.Spec, "push").Inc()
			m.Depth.Observe(float64(e.Depth))
		},
		OnPop: func(_ context.Context, e *domain.FlowEvent) {
			m.Flows.WithLabelValues(e.Spec, "pop").Inc()
		},
	}
}

// ObserveRequest records how long an engine operation took.
func (m *Metrics) ObserveRequest(op string, started time.Time, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.Dispatch.WithLabelValues(op, result).Observe(time.Since(started).Seconds())
}

// Handler serves the registered metrics in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
