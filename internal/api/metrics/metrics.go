// Package metrics defines and registers all custom Prometheus metrics for the
// portal identity service. It is the single source of truth for metric names,
// labels, and help strings.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "portal"

// ResolutionsTotal counts identity resolutions by resolved role.
// Label:
//   - role: the resolved role ("admin", "manager", …)
var ResolutionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "identity_resolutions_total",
		Help:      "Total number of identity resolutions, by resolved role.",
	},
	[]string{"role"},
)

// HydrationLayerTotal counts which hydration layer satisfied each request.
// Label:
//   - layer: the provenance tag ("override", "/me/profile", "stub:manager",
//     "soft-fallback", "network-fallback", "404-no-data", "error", …)
var HydrationLayerTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "profile_hydration_layer_total",
		Help:      "Total number of profile hydrations, by the layer that produced the record.",
	},
	[]string{"layer"},
)

// VisibilityTierTotal counts visibility computations by granted tier.
// Label:
//   - tier: "public", "partner", or "internal"
var VisibilityTierTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "visibility_tier_total",
		Help:      "Total number of visibility computations, by granted tier.",
	},
	[]string{"tier"},
)

// UpstreamRequestDuration measures profile-backend round trips.
// Labels:
//   - path: the logical upstream path ("/me/profile", "/manager/profile", …)
//   - status: the HTTP status class returned ("2xx", "4xx", "5xx", "error")
var UpstreamRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "upstream_request_duration_seconds",
		Help:      "Duration of upstream profile backend requests.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"path", "status"},
)

// BootstrapTotal counts session bootstrap attempts.
// Label:
//   - result: "ok" or "unavailable"
var BootstrapTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_bootstrap_total",
		Help:      "Total number of session bootstrap attempts, by result.",
	},
	[]string{"result"},
)
