// Package metrics provides Prometheus metrics for the trust router.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the routing counters. A nil *Metrics is valid and records
// nothing, so tests and callers that do not care about metrics can pass nil.
type Metrics struct {
	Decisions      *prometheus.CounterVec
	InternalFaults prometheus.Counter
	Relocations    prometheus.Counter
}

// New creates routing metrics registered on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		Decisions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "veridoc_routing_decisions_total",
			Help: "Routing decisions by verdict and reason.",
		}, []string{"decision", "reason"}),
		InternalFaults: factory.NewCounter(prometheus.CounterOpts{
			Name: "veridoc_routing_internal_faults_total",
			Help: "Routing requests rejected because of an internal fault.",
		}),
		Relocations: factory.NewCounter(prometheus.CounterOpts{
			Name: "veridoc_routing_relocations_total",
			Help: "Documents admitted under a different tenant than claimed.",
		}),
	}
}

// RecordDecision increments the decision counter.
func (m *Metrics) RecordDecision(decision, reason string) {
	if m == nil {
		return
	}
	m.Decisions.WithLabelValues(decision, reason).Inc()
}

// RecordInternalFault increments the internal fault counter.
func (m *Metrics) RecordInternalFault() {
	if m == nil {
		return
	}
	m.InternalFaults.Inc()
}

// RecordRelocation increments the relocation counter.
func (m *Metrics) RecordRelocation() {
	if m == nil {
		return
	}
	m.Relocations.Inc()
}
