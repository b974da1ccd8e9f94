package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/quantflow/pushhub/types"
)

// PrometheusCollector implements types.MetricsCollector backed by Prometheus.
type PrometheusCollector struct {
	reg       prometheus.Registerer
	namespace string
	once      sync.Once

	handshakes       prometheus.Counter
	sessionsClosed   prometheus.Counter
	activeSessions   prometheus.Gauge
	evictions        prometheus.Counter
	attaches         *prometheus.CounterVec
	notifies         *prometheus.CounterVec
	deliveries       *prometheus.CounterVec
	deliveryBatch    prometheus.Histogram
	encodingFailures prometheus.Counter
}

// Compile-time assertion that PrometheusCollector implements MetricsCollector.
var _ types.MetricsCollector = (*PrometheusCollector)(nil)

// NewPrometheus creates a new Prometheus-backed metrics collector.
//
// Parameters:
//   - reg: Prometheus registerer interface (uses prometheus.DefaultRegisterer if nil)
//   - namespace: Prometheus metrics namespace (defaults to "pushhub" if empty)
//
// Returns:
//   - *PrometheusCollector: A MetricsCollector implementation using Prometheus
func NewPrometheus(reg prometheus.Registerer, namespace string) *PrometheusCollector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = "pushhub"
	}

	return &PrometheusCollector{reg: reg, namespace: namespace}
}

func (p *PrometheusCollector) ensureRegistered() {
	p.once.Do(func() {
		p.handshakes = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "registry",
			Name:      "handshakes_total",
			Help:      "Total sessions created via handshake.",
		})
		p.sessionsClosed = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "registry",
			Name:      "sessions_closed_total",
			Help:      "Total sessions torn down.",
		})
		p.activeSessions = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: p.namespace,
			Subsystem: "registry",
			Name:      "sessions_active",
			Help:      "Current number of live sessions.",
		})
		p.evictions = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "registry",
			Name:      "evictions_total",
			Help:      "Total expired parked requests evicted.",
		})
		p.attaches = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "delivery",
			Name:      "attaches_total",
			Help:      "Total long-poll attaches by outcome (immediate/parked).",
		}, []string{"outcome"})
		p.notifies = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "delivery",
			Name:      "notifies_total",
			Help:      "Total update notifications by outcome (delivered/queued).",
		}, []string{"outcome"})
		p.deliveries = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "delivery",
			Name:      "completions_total",
			Help:      "Total parked request completions by result kind.",
		}, []string{"kind"})
		p.deliveryBatch = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "delivery",
			Name:      "batch_size",
			Help:      "Number of update URLs per delivered batch.",
			Buckets:   []float64{1, 2, 5, 10, 25, 50, 100},
		})
		p.encodingFailures = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "delivery",
			Name:      "encoding_failures_total",
			Help:      "Total updates dropped due to payload serialization failure.",
		})

		collectors := []prometheus.Collector{
			p.handshakes, p.sessionsClosed, p.activeSessions, p.evictions,
			p.attaches, p.notifies, p.deliveries, p.deliveryBatch, p.encodingFailures,
		}
		for _, c := range collectors {
			// AlreadyRegisteredError is tolerated so multiple managers can
			// share one registerer in tests.
			if err := p.reg.Register(c); err != nil {
				if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
					panic(err)
				}
			}
		}
	})
}

// RecordHandshake increments the handshake counter.
func (p *PrometheusCollector) RecordHandshake() {
	p.ensureRegistered()
	p.handshakes.Inc()
}

// RecordSessionClosed increments the session close counter.
func (p *PrometheusCollector) RecordSessionClosed() {
	p.ensureRegistered()
	p.sessionsClosed.Inc()
}

// SetActiveSessions sets the active session gauge.
func (p *PrometheusCollector) SetActiveSessions(n int) {
	p.ensureRegistered()
	p.activeSessions.Set(float64(n))
}

// RecordEviction increments the eviction counter.
func (p *PrometheusCollector) RecordEviction() {
	p.ensureRegistered()
	p.evictions.Inc()
}

// RecordAttach increments the attach counter for the given outcome.
func (p *PrometheusCollector) RecordAttach(immediate bool) {
	p.ensureRegistered()
	outcome := "parked"
	if immediate {
		outcome = "immediate"
	}
	p.attaches.WithLabelValues(outcome).Inc()
}

// RecordNotify increments the notify counter for the given outcome.
func (p *PrometheusCollector) RecordNotify(delivered bool) {
	p.ensureRegistered()
	outcome := "queued"
	if delivered {
		outcome = "delivered"
	}
	p.notifies.WithLabelValues(outcome).Inc()
}

// RecordDelivery records a parked request completion.
func (p *PrometheusCollector) RecordDelivery(kind string, updates int) {
	p.ensureRegistered()
	p.deliveries.WithLabelValues(kind).Inc()
	if updates > 0 {
		p.deliveryBatch.Observe(float64(updates))
	}
}

// RecordEncodingFailure increments the encoding failure counter.
func (p *PrometheusCollector) RecordEncodingFailure() {
	p.ensureRegistered()
	p.encodingFailures.Inc()
}
