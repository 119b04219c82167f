// Package metrics defines and registers the Prometheus metrics for the
// VocalSwap web server. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics register with the default registry on import via promauto and are
// exposed by the /metrics route.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "vocalswap_web"

// ── Proxy metrics ─────────────────────────────────────────────────────────────

// ProxyRequestsTotal counts proxied requests by their final outcome.
// Labels:
//   - method: the HTTP method forwarded to the backend
//   - status: the status returned to the browser, or "unreachable"
var ProxyRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "proxy_requests_total",
		Help:      "Total number of requests forwarded through /api/proxy.",
	},
	[]string{"method", "status"},
)

// ProxyRetriesTotal counts 401 recoveries attempted by the proxy.
// Label:
//   - outcome: "retried" (refresh succeeded, request replayed),
//     "refresh_failed" or "no_refresh_token"
var ProxyRetriesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "proxy_retries_total",
		Help:      "Total number of proxied 401 responses handled by refresh-and-retry.",
	},
	[]string{"outcome"},
)

// ── Session metrics ───────────────────────────────────────────────────────────

// RefreshFlightsTotal counts callers of the refresh coordinator.
// Labels:
//   - role: "leader" (started the backend call) or "joined" (shared a pending one)
//   - result: "ok" or "failed"
var RefreshFlightsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "refresh_flights_total",
		Help:      "Total number of coordinated session refresh waits, by role and result.",
	},
	[]string{"role", "result"},
)

// AuthOutcomesTotal counts terminal outcomes of the auth route handlers.
// Labels:
//   - action: "login", "logout", "refresh" or "register"
//   - reason: the audit reason code, "ok" on success
var AuthOutcomesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_outcomes_total",
		Help:      "Total number of auth route outcomes, by action and reason.",
	},
	[]string{"action", "reason"},
)

// ── HTTP metrics ──────────────────────────────────────────────────────────────

// HTTPRequestDuration measures request handling time.
// Labels:
//   - method: request method
//   - status: response status code
var HTTPRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests served by the web server.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method", "status"},
)

// Role returns the RefreshFlightsTotal role label for a coordinator result.
func Role(shared bool) string {
	if shared {
		return "joined"
	}
	return "leader"
}

// Result maps success to the "ok"/"failed" label used across counters.
func Result(ok bool) string {
	if ok {
		return "ok"
	}
	return "failed"
}
