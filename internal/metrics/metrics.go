// Package metrics exposes Prometheus collectors for outbound provider calls.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels recorded for each provider request.
const (
	OutcomeOK          = "ok"
	OutcomeNotFound    = "not_found"
	OutcomeUnavailable = "unavailable"
	OutcomeMalformed   = "malformed"
)

// Provider groups the collectors the provider clients report into.
type Provider struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewProvider creates the provider collectors and registers them on reg.
// A nil registerer yields unregistered collectors, which is what tests use.
func NewProvider(reg prometheus.Registerer) *Provider {
	p := &Provider{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ticket_compare",
			Subsystem: "provider",
			Name:      "requests_total",
			Help:      "Outbound provider requests by provider, operation and outcome",
		}, []string{"provider", "op", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "ticket_compare",
			Subsystem: "provider",
			Name:      "request_duration_seconds",
			Help:      "Latency of outbound provider requests",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 4, 8},
		}, []string{"provider", "op"}),
	}
	if reg != nil {
		reg.MustRegister(p.requests, p.duration)
	}
	return p
}

// Observe records one finished request.  Safe to call on a nil receiver.
func (p *Provider) Observe(provider, op, outcome string, took time.Duration) {
	if p == nil {
		return
	}
	p.requests.WithLabelValues(provider, op, outcome).Inc()
	p.duration.WithLabelValues(provider, op).Observe(took.Seconds())
}

// Requests exposes the counter so tests can read it with testutil.
func (p *Provider) Requests() *prometheus.CounterVec { return p.requests }
