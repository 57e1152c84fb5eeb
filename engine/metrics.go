package engine

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const codeOK = "OK"

// Metrics holds the Prometheus collectors recorded by the engine.
// A nil *Metrics records nothing.
type Metrics struct {
	operations       *prometheus.CounterVec
	duration         *prometheus.HistogramVec
	transitions      *prometheus.CounterVec
	degradedReads    *prometheus.CounterVec
	activityFailures prometheus.Counter
}

// NewMetrics registers the engine collectors with reg.
// A nil reg uses prometheus.DefaultRegisterer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		operations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "approvalflow",
				Subsystem: "engine",
				Name:      "operations_total",
				Help:      "Engine operations by result code",
			},
			[]string{"operation", "code"},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "approvalflow",
				Subsystem: "engine",
				Name:      "operation_duration_seconds",
				Help:      "Time spent in engine operations",
				Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~2s
			},
			[]string{"operation"},
		),
		transitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "approvalflow",
				Subsystem: "engine",
				Name:      "workflow_transitions_total",
				Help:      "Workflow status changes",
			},
			[]string{"from", "to"},
		),
		degradedReads: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "approvalflow",
				Subsystem: "engine",
				Name:      "degraded_reads_total",
				Help:      "List reads that returned an empty result after a store error",
			},
			[]string{"operation"},
		),
		activityFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "approvalflow",
				Subsystem: "engine",
				Name:      "activity_log_failures_total",
				Help:      "Activity entries the document registry did not accept",
			},
		),
	}
}

func (m *Metrics) observe(operation, code string, elapsed time.Duration) {
	if m == nil {
		return
	}
	if code == "" {
		code = codeOK
	}
	m.operations.WithLabelValues(operation, code).Inc()
	m.duration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

func (m *Metrics) transition(from, to string) {
	if m == nil || from == to {
		return
	}
	m.transitions.WithLabelValues(from, to).Inc()
}

func (m *Metrics) degradedRead(operation string) {
	if m == nil {
		return
	}
	m.degradedReads.WithLabelValues(operation).Inc()
}

func (m *Metrics) activityFailed() {
	if m == nil {
		return
	}
	m.activityFailures.Inc()
}
