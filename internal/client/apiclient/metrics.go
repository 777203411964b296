package apiclient

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// requestsTotal counts gateway calls.
// Labels:
//   - method: HTTP method
//   - status: response status code, or "error" when no response arrived
var requestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "webapp",
		Subsystem: "client",
		Name:      "requests_total",
		Help:      "Total number of API gateway requests, by method and status.",
	},
	[]string{"method", "status"},
)
