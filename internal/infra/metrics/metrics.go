// Package metrics holds the process-wide Prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Stats cycle outcomes.
const (
	OutcomeApplied   = "applied"
	OutcomeFailed    = "failed"
	OutcomeDiscarded = "discarded"
)

var (
	StatsCycles = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "memberdir",
		Subsystem: "stats",
		Name:      "cycles_total",
		Help:      "Statistics fetch cycles by outcome (applied, failed, discarded as superseded).",
	}, []string{"outcome"})

	StatsCycleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "memberdir",
		Subsystem: "stats",
		Name:      "cycle_duration_seconds",
		Help:      "Time from cycle start until both statistics queries settled.",
		Buckets:   prometheus.DefBuckets,
	})

	StatsCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "memberdir",
		Subsystem: "stats",
		Name:      "cache_lookups_total",
		Help:      "Statistics cache lookups by query and result (hit, miss, bypass, error).",
	}, []string{"query", "result"})

	GuardDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "memberdir",
		Subsystem: "guard",
		Name:      "decisions_total",
		Help:      "Route guard decisions by guard and decision kind.",
	}, []string{"guard", "decision"})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "memberdir",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by method and status code.",
	}, []string{"method", "code"})

	StreamSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "memberdir",
		Subsystem: "stats",
		Name:      "stream_sessions",
		Help:      "Open dashboard WebSocket sessions.",
	})
)

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
