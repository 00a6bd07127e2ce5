package usercache

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts cache traffic generated by the decorator.
type Metrics struct {
	requests *prometheus.CounterVec
	writes   *prometheus.CounterVec
	errors   *prometheus.CounterVec
}

// NewMetrics creates the usercache collectors and registers them with reg.
// Collectors already registered under the same name are reused. A nil reg
// leaves the collectors unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "usercache",
			Name:      "requests_total",
			Help:      "Cache lookups by result",
		}, []string{"result"}),
		writes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "usercache",
			Name:      "writes_total",
			Help:      "Cache mutations issued after a committed write",
		}, []string{"op"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "usercache",
			Name:      "errors_total",
			Help:      "Cache backend failures by operation",
		}, []string{"op"}),
	}
	if reg == nil {
		return m
	}

	m.requests = register(reg, m.requests)
	m.writes = register(reg, m.writes)
	m.errors = register(reg, m.errors)
	return m
}

func register(reg prometheus.Registerer, c *prometheus.CounterVec) *prometheus.CounterVec {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing
			}
		}
	}
	return c
}

func (m *Metrics) hit() {
	if m != nil {
		m.requests.WithLabelValues("hit").Inc()
	}
}

func (m *Metrics) miss() {
	if m != nil {
		m.requests.WithLabelValues("miss").Inc()
	}
}

func (m *Metrics) write(op string) {
	if m != nil {
		m.writes.WithLabelValues(op).Inc()
	}
}

func (m *Metrics) failure(op string) {
	if m != nil {
		m.errors.WithLabelValues(op).Inc()
	}
}
