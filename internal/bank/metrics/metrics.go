// Package metrics provides Prometheus metrics for the bank classifier.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds classifier counters. A nil *Metrics records nothing.
type Metrics struct {
	Classifications   *prometheus.CounterVec
	Confidence        prometheus.Histogram
	UnreliableOrigins prometheus.Counter
}

// New creates classifier metrics registered on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		Classifications: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "veridoc_bank_classifications_total",
			Help: "Statement classifications by selected parser.",
		}, []string{"parser"}),
		Confidence: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "veridoc_bank_classification_confidence",
			Help:    "Classification confidence distribution (0-100).",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		}),
		UnreliableOrigins: factory.NewCounter(prometheus.CounterOpts{
			Name: "veridoc_bank_unreliable_origins_total",
			Help: "Statements classified below the reliable-origin threshold.",
		}),
	}
}

// RecordClassification records one classification outcome.
func (m *Metrics) RecordClassification(parser string, confidence int, unreliable bool) {
	if m == nil {
		return
	}
	m.Classifications.WithLabelValues(parser).Inc()
	m.Confidence.Observe(float64(confidence))
	if unreliable {
		m.UnreliableOrigins.Inc()
	}
}
