package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the tenant module.
type Metrics struct {
	Registered prometheus.Counter
}

// New creates a Metrics instance with all tenant metrics registered.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		Registered: factory.NewCounter(prometheus.CounterOpts{
			Name: "veridoc_tenants_registered_total",
			Help: "Total number of tenants registered",
		}),
	}
}

// IncRegistered records one successful registration.
func (m *Metrics) IncRegistered() {
	if m != nil {
		m.Registered.Inc()
	}
}
