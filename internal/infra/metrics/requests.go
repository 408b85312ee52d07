package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(requestsDecidedTotal)
}

var requestsDecidedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "access_requests_decided_total",
		Help: "Access request decisions by kind and outcome.",
	},
	[]string{"kind", "outcome"}, // outcome: 'approved', 'rejected', 'withdrawn', 'completed'
)

func IncRequestDecided(kind, outcome string) {
	requestsDecidedTotal.WithLabelValues(norm(kind), norm(outcome)).Inc()
}
