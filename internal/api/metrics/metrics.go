// Package metrics defines and registers all custom Prometheus metrics for
// the tenantgate identity layer. It is the single source of truth for
// metric names, labels, and help strings.
//
// Metrics are registered with the default registry at package init via
// promauto; the /metrics endpoint is mounted by the router.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "tenantgate"

// ── Credential metrics ────────────────────────────────────────────────────────

// LoginsTotal counts password authentication attempts.
// Label:
//   - result: "success" or "failure" (failure is deliberately not broken
//     down further; the reasons must stay indistinguishable)
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of password authentication attempts.",
	},
	[]string{"result"},
)

// UsersPersistTotal counts durable writes of the user store.
// Label:
//   - result: "success" or "error"
var UsersPersistTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "users_persist_total",
		Help:      "Total number of user store persistence attempts.",
	},
	[]string{"result"},
)

// ── Session metrics ───────────────────────────────────────────────────────────

// TokenValidationsTotal counts session token validations.
// Label:
//   - result: "valid", "expired", "invalid" or "malformed"
var TokenValidationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_validations_total",
		Help:      "Total number of session token validations, by result.",
	},
	[]string{"result"},
)

// IdentityOutcomesTotal counts per-request identity resolution outcomes.
// Label:
//   - outcome: "authenticated", "api_key", "anonymous" or "rejected"
var IdentityOutcomesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "identity_outcomes_total",
		Help:      "Total number of identity resolutions, by outcome.",
	},
	[]string{"outcome"},
)

// ── Workspace metrics ─────────────────────────────────────────────────────────

// WorkspaceBuildsTotal counts engine constructions performed by the
// registry. Concurrent callers sharing one single-flight build count once.
// Label:
//   - result: "success" or "error"
var WorkspaceBuildsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "workspace_builds_total",
		Help:      "Total number of workspace engine constructions, by result.",
	},
	[]string{"result"},
)

// WorkspaceBuildDuration measures how long a single engine construction
// takes, directory creation through engine initialization.
var WorkspaceBuildDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "workspace_build_duration_seconds",
		Help:      "Duration of workspace engine construction.",
		Buckets:   prometheus.DefBuckets, // .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10
	},
)

// WorkspaceInstances tracks the number of live engine instances held by
// the registry.
var WorkspaceInstances = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "workspace_instances",
		Help:      "Current number of live workspace engine instances.",
	},
)
