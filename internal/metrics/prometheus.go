package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/arloliu/groupstream/types"
)

// PrometheusCollector implements types.MetricsCollector backed by Prometheus.
//
// Metrics are registered lazily on first use so that constructing a
// collector never fails; duplicate registration across collectors sharing a
// registerer is reported through the registerer itself.
type PrometheusCollector struct {
	reg       prometheus.Registerer
	namespace string
	once      sync.Once

	groupsCreated   prometheus.Counter
	groupsClosed    *prometheus.CounterVec
	activeGroups    prometheus.Gauge
	valuesRouted    prometheus.Counter
	valuesDelivered prometheus.Counter
	overflows       *prometheus.CounterVec
	upstreamCredits prometheus.Counter
	demandRequested *prometheus.CounterVec
}

// Compile-time assertion that PrometheusCollector implements MetricsCollector.
var _ types.MetricsCollector = (*PrometheusCollector)(nil)

// NewPrometheus creates a new Prometheus-backed metrics collector.
//
// Parameters:
//   - reg: Prometheus registerer interface (uses prometheus.DefaultRegisterer if nil)
//   - namespace: Prometheus metrics namespace (defaults to "groupstream" if empty)
//
// Returns:
//   - *PrometheusCollector: A MetricsCollector implementation using Prometheus
func NewPrometheus(reg prometheus.Registerer, namespace string) *PrometheusCollector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = "groupstream"
	}

	return &PrometheusCollector{reg: reg, namespace: namespace}
}

func (p *PrometheusCollector) ensureRegistered() {
	p.once.Do(func() {
		p.groupsCreated = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "groups",
			Name:      "created_total",
			Help:      "Total groups created on first key occurrence.",
		})
		p.groupsClosed = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "groups",
			Name:      "closed_total",
			Help:      "Total groups closed by terminal reason.",
		}, []string{"reason"})
		p.activeGroups = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: p.namespace,
			Subsystem: "groups",
			Name:      "active",
			Help:      "Current number of live groups.",
		})
		p.valuesRouted = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "values",
			Name:      "routed_total",
			Help:      "Total upstream elements routed into group buffers.",
		})
		p.valuesDelivered = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "values",
			Name:      "delivered_total",
			Help:      "Total buffered values delivered to group consumers.",
		})
		p.overflows = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "queue",
			Name:      "overflows_total",
			Help:      "Total queue overflow faults by queue kind.",
		}, []string{"queue"})
		p.upstreamCredits = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "demand",
			Name:      "upstream_credits_total",
			Help:      "Total credits requested from the upstream source.",
		})
		p.demandRequested = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "demand",
			Name:      "requested_total",
			Help:      "Total credits requested by downstream consumers by scope.",
		}, []string{"scope"})

		collectors := []prometheus.Collector{
			p.groupsCreated,
			p.groupsClosed,
			p.activeGroups,
			p.valuesRouted,
			p.valuesDelivered,
			p.overflows,
			p.upstreamCredits,
			p.demandRequested,
		}
		for _, c := range collectors {
			// MustRegister would panic on duplicate registration; tolerate
			// collectors sharing a registerer instead.
			_ = p.reg.Register(c)
		}
	})
}

// RecordGroupCreated increments the group creation counter.
func (p *PrometheusCollector) RecordGroupCreated() {
	p.ensureRegistered()
	p.groupsCreated.Inc()
}

// RecordGroupClosed increments the group close counter for the given reason.
func (p *PrometheusCollector) RecordGroupClosed(reason string) {
	p.ensureRegistered()
	p.groupsClosed.WithLabelValues(reason).Inc()
}

// SetActiveGroups sets the live group gauge.
func (p *PrometheusCollector) SetActiveGroups(count int) {
	p.ensureRegistered()
	p.activeGroups.Set(float64(count))
}

// RecordValueRouted increments the routed value counter.
func (p *PrometheusCollector) RecordValueRouted() {
	p.ensureRegistered()
	p.valuesRouted.Inc()
}

// RecordValueDelivered increments the delivered value counter.
func (p *PrometheusCollector) RecordValueDelivered() {
	p.ensureRegistered()
	p.valuesDelivered.Inc()
}

// RecordOverflow increments the overflow counter for the given queue kind.
func (p *PrometheusCollector) RecordOverflow(queue string) {
	p.ensureRegistered()
	p.overflows.WithLabelValues(queue).Inc()
}

// RecordUpstreamRequest adds the requested credit to the upstream counter.
//
// Unbounded requests are recorded as a single credit to keep the counter
// meaningful; the unbounded configuration is visible through Stats instead.
func (p *PrometheusCollector) RecordUpstreamRequest(n int64) {
	p.ensureRegistered()
	if n == types.Unbounded {
		p.upstreamCredits.Inc()
		return
	}
	p.upstreamCredits.Add(float64(n))
}

// RecordDemandRequested adds downstream demand to the per-scope counter.
func (p *PrometheusCollector) RecordDemandRequested(scope string, n int64) {
	p.ensureRegistered()
	if n == types.Unbounded {
		p.demandRequested.WithLabelValues(scope).Inc()
		return
	}
	p.demandRequested.WithLabelValues(scope).Add(float64(n))
}
