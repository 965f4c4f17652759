package gateway

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	backendRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backend_requests_total",
			Help: "Requests sent to the scoring backend",
		},
		[]string{"endpoint", "outcome"},
	)
	backendLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "backend_request_duration_seconds",
			Help:    "Latency of requests to the scoring backend",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)
)

func init() {
	prometheus.MustRegister(backendRequests)
	prometheus.MustRegister(backendLatency)
}
