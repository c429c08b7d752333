// Package metrics defines and registers all custom Prometheus metrics for the
// werk web client. It is the single source of truth for metric names, labels,
// and help strings.
//
// Metrics are registered with the default Prometheus registry on import via
// promauto; HTTP request metrics come from the echoprometheus middleware.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "werk"

// ── Remote API metrics ────────────────────────────────────────────────────────

// RemoteCallsTotal counts calls made to the werk REST API.
// Labels:
//   - resource: "events", "jobs", "resources", "profiles" or "auth"
//   - op:       "list", "create", "update", "remove", "get", "login", …
//   - outcome:  "ok", "auth", "validation", "not_found", "network"
var RemoteCallsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "remote_calls_total",
		Help:      "Total number of REST API calls, by resource, operation and outcome.",
	},
	[]string{"resource", "op", "outcome"},
)

// RemoteCallDuration measures the round trip of a single API call.
var RemoteCallDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "remote_call_duration_seconds",
		Help:      "Duration of REST API calls from request to decoded response.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"resource", "op"},
)

// ── Workspace metrics ─────────────────────────────────────────────────────────

// StoreMutationsTotal counts mutations applied to collection stores.
// Labels:
//   - kind: "events", "jobs" or "resources"
//   - op:   "refresh", "create", "update", "delete"
var StoreMutationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "store_mutations_total",
		Help:      "Total number of mutations applied to client-side collection stores.",
	},
	[]string{"kind", "op"},
)

// StoreRefreshFallbacksTotal counts full refreshes forced by a stale store
// (update miss or not-found from the API).
var StoreRefreshFallbacksTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "store_refresh_fallbacks_total",
		Help:      "Total number of collection refreshes triggered by a stale local store.",
	},
	[]string{"kind", "reason"},
)

// ActiveWorkspaces tracks the number of in-memory workspaces (signed-in
// browser sessions served by this process).
var ActiveWorkspaces = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_workspaces",
		Help:      "Current number of in-memory signed-in workspaces.",
	},
)

// ── Session & form metrics ────────────────────────────────────────────────────

// SessionEventsTotal counts session lifecycle transitions.
// Label:
//   - event: "signin", "signup", "signout", "expired", "password_changed"
var SessionEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_events_total",
		Help:      "Total number of session lifecycle events.",
	},
	[]string{"event"},
)

// FormRejectionsTotal counts submissions rejected by client-side validation.
var FormRejectionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "form_rejections_total",
		Help:      "Total number of form submissions rejected before reaching the API.",
	},
	[]string{"schema"},
)
