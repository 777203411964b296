// Package metrics defines and registers the custom Prometheus metrics of the
// auth backend. It is the single source of truth for metric names, labels,
// and help strings.
//
// Metrics are registered with the default registry through promauto when the
// package is first imported.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "webapp"

// ── Auth metrics ──────────────────────────────────────────────────────────────

// AuthAttemptsTotal counts recorded auth operations.
// Labels:
//   - operation: "login", "register", "logout" or "refresh"
//   - result: "success" or "failure"
var AuthAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_attempts_total",
		Help:      "Total number of auth operations, by operation and result.",
	},
	[]string{"operation", "result"},
)

// AuditQueueDepth tracks the number of audit events waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var AuditQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "audit_queue_depth",
		Help:      "Current number of auth events pending in each audit worker channel.",
	},
	[]string{"worker_id"},
)

// AuditDroppedTotal counts audit events dropped because a worker channel was full.
var AuditDroppedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_dropped_total",
		Help:      "Total number of auth events dropped by a saturated audit dispatcher.",
	},
)

// ── Users resource metrics ────────────────────────────────────────────────────

// UsersMutationsTotal counts admin changes to user accounts.
// Label:
//   - operation: "create", "update" or "delete"
var UsersMutationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "users_mutations_total",
		Help:      "Total number of admin mutations on user accounts.",
	},
	[]string{"operation"},
)
