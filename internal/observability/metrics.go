// Package observability provides Prometheus metrics and OpenTelemetry tracing setup.
package observability

import (
	"sync"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DatabaseQueryLatency records database query latency by backend and statement verb.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "oneiro_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"backend", "operation"})

	// AnalysisRequests counts interpretation requests by outcome
	// (ok, fallback, upstream_error, not_found).
	AnalysisRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "oneiro_analysis_requests_total",
		Help: "Total dream interpretation requests by outcome",
	}, []string{"outcome"})

	// ReactionToggles counts reaction toggles by direction.
	ReactionToggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "oneiro_reaction_toggles_total",
		Help: "Total reaction toggles by direction (added/removed)",
	}, []string{"direction"})

	// RedisErrors counts Redis command failures by command name.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "oneiro_redis_errors_total",
		Help: "Total Redis command errors by command",
	}, []string{"command"})
)

var (
	promOnce     sync.Once
	promInstance *fiberprometheus.FiberPrometheus
)

// InitMetrics creates the Prometheus HTTP middleware for the given
// service name. The middleware registers its collectors in the default
// registry, so only the first call's service name takes effect.
func InitMetrics(serviceName string) *fiberprometheus.FiberPrometheus {
	promOnce.Do(func() {
		promInstance = fiberprometheus.New(serviceName)
	})
	return promInstance
}
