package resilience

import "github.com/prometheus/client_golang/prometheus"

// Outbound metrics are labelled by target, e.g. "clover".
var (
	BreakerState = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "outbound_breaker_state",
		Help: "Breaker position per outbound target (0 closed, 1 open, 2 half-open).",
	}, []string{"target"})

	BreakerTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outbound_breaker_transitions_total",
		Help: "Breaker state changes per outbound target.",
	}, []string{"target", "from", "to"})

	OutboundAttempts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outbound_attempts_total",
		Help: "Outbound HTTP attempts by target and outcome (ok, retry, exhausted, rejected, error).",
	}, []string{"target", "outcome"})
)

func init() {
	prometheus.MustRegister(BreakerState, BreakerTransitions, OutboundAttempts)
}
