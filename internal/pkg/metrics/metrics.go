// Package metrics defines and registers the Prometheus metrics of the
// tasklist core. It is the single source of truth for metric names, labels,
// and help strings.
//
// Metrics are registered with the default registry on package init through
// promauto; embedders expose them with promhttp or gather them directly.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "tasklist"

// Result label values shared by the operation counters.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// ── Auth metrics ──────────────────────────────────────────────────────────────

// AuthOperationsTotal counts registry operations.
// Labels:
//   - op: "register", "login_password", "login_refresh"
//   - result: "ok" or the error kind (e.g. "access denied", "token expired")
var AuthOperationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_operations_total",
		Help:      "Total number of registration and login attempts, by outcome.",
	},
	[]string{"op", "result"},
)

// ── Task metrics ──────────────────────────────────────────────────────────────

// TaskOperationsTotal counts task repository operations.
// Labels:
//   - op: "create", "list", "find", "update", "toggle", "delete"
//   - result: "ok" or the error kind
var TaskOperationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "task_operations_total",
		Help:      "Total number of task operations, by outcome.",
	},
	[]string{"op", "result"},
)

// ── Store metrics ─────────────────────────────────────────────────────────────

// StoreReinitializationsTotal counts snapshot files replaced by an empty one.
// Label:
//   - reason: "absent", "corrupt" or "schema_mismatch"
var StoreReinitializationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "store_reinitializations_total",
		Help:      "Total number of times the snapshot file was reinitialised on load.",
	},
	[]string{"reason"},
)

// StoreSaveDuration measures a full snapshot write (marshal, fsync, rename).
var StoreSaveDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "store_save_duration_seconds",
		Help:      "Duration of atomic snapshot writes.",
		Buckets:   prometheus.DefBuckets,
	},
)

// Result maps an operation error to a result label value.
func Result(err error, kind error) string {
	if err == nil {
		return ResultOK
	}
	if kind != nil {
		return kind.Error()
	}
	return ResultError
}
