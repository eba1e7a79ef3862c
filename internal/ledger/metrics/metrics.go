package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the audit ledger. All methods are
// nil-safe so wiring metrics stays optional in tests.
type Metrics struct {
	Appended            *prometheus.CounterVec
	AppendFailures      prometheus.Counter
	FallbackAppends     prometheus.Counter
	LostToLog           prometheus.Counter
	IntegrityViolations prometheus.Counter
}

// New creates a Metrics instance with all ledger metrics registered.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		Appended: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "veridoc_ledger_events_appended_total",
			Help: "Total ledger events appended to the primary store, by action",
		}, []string{"action"}),

		AppendFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "veridoc_ledger_append_failures_total",
			Help: "Total primary store append failures",
		}),

		FallbackAppends: factory.NewCounter(prometheus.CounterOpts{
			Name: "veridoc_ledger_fallback_appends_total",
			Help: "Total events written to the durable fallback sink",
		}),

		LostToLog: factory.NewCounter(prometheus.CounterOpts{
			Name: "veridoc_ledger_lost_to_log_total",
			Help: "Total events whose only surviving trace is the process log",
		}),

		IntegrityViolations: factory.NewCounter(prometheus.CounterOpts{
			Name: "veridoc_ledger_integrity_violations_total",
			Help: "Total commitment hash mismatches found during verification",
		}),
	}
}

// IncAppended records one successful primary append.
func (m *Metrics) IncAppended(action string) {
	if m != nil {
		m.Appended.WithLabelValues(action).Inc()
	}
}

// IncAppendFailures records one primary store failure.
func (m *Metrics) IncAppendFailures() {
	if m != nil {
		m.AppendFailures.Inc()
	}
}

// IncFallbackAppends records one fallback sink write.
func (m *Metrics) IncFallbackAppends() {
	if m != nil {
		m.FallbackAppends.Inc()
	}
}

// IncLostToLog records one event that survived only in the process log.
func (m *Metrics) IncLostToLog() {
	if m != nil {
		m.LostToLog.Inc()
	}
}

// IncIntegrityViolations records one verify mismatch.
func (m *Metrics) IncIntegrityViolations() {
	if m != nil {
		m.IntegrityViolations.Inc()
	}
}
