package upstream

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	attemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "procproxy",
			Subsystem: "upstream",
			Name:      "attempts_total",
			Help:      "Total number of attempts against the remote process API",
		},
		[]string{"endpoint", "kind"},
	)

	retriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "procproxy",
			Subsystem: "upstream",
			Name:      "retries_total",
			Help:      "Total number of retries scheduled after a transient failure",
		},
		[]string{"endpoint"},
	)

	callDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "procproxy",
			Subsystem: "upstream",
			Name:      "call_duration_seconds",
			Help:      "Duration of logical calls including retries and backoff",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint", "kind"},
	)
)

func init() {
	prometheus.MustRegister(attemptsTotal, retriesTotal, callDuration)
}

func endpointLabel(e string) string {
	if e == "" {
		return "unspecified"
	}
	return e
}
