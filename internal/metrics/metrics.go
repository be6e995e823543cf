package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds every Prometheus collector the router exposes on /metrics.
type Registry struct {
	reg *prometheus.Registry

	RequestsTotal  *prometheus.CounterVec
	RequestLatency *prometheus.HistogramVec
	CostUSD        *prometheus.CounterVec

	ClassificationCacheHits   prometheus.Counter
	ClassificationCacheMisses prometheus.Counter
	ClassificationLatency     *prometheus.HistogramVec // label: pass ("first"|"second")

	ModelFallbackTotal    *prometheus.CounterVec // labels: category, from_model
	CircuitBreakerState   *prometheus.GaugeVec   // label: model; 0=closed, 1=open, 2=half-open
	AllModelsFailedTotal  *prometheus.CounterVec // label: category
	AuditQueueDroppedTotal prometheus.Counter
}

// New builds a Registry with every collector registered against a private
// prometheus.Registry (never the global DefaultRegisterer, so multiple
// instances can coexist in tests).
func New() *Registry {
	reg := prometheus.NewRegistry()
	m := &Registry{
		reg: reg,
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "llm_router_requests_total",
			Help: "Total completion requests routed",
		}, []string{"category", "model", "status"}),
		RequestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "llm_router_request_latency_ms",
			Help:    "End-to-end completion latency in milliseconds",
			Buckets: prometheus.ExponentialBuckets(10, 2, 10),
		}, []string{"category", "model"}),
		CostUSD: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "llm_router_cost_usd_total",
			Help: "Estimated USD cost of routed completions",
		}, []string{"model"}),
		ClassificationCacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "llm_router_classification_cache_hits_total",
			Help: "Classification requests served from cache",
		}),
		ClassificationCacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "llm_router_classification_cache_misses_total",
			Help: "Classification requests that missed cache and ran KNN",
		}),
		ClassificationLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "llm_router_classification_latency_ms",
			Help:    "Classification latency in milliseconds by KNN pass",
			Buckets: prometheus.ExponentialBuckets(1, 2, 8),
		}, []string{"pass"}),
		ModelFallbackTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "llm_router_model_fallback_total",
			Help: "Completions that fell back away from the top-ranked candidate",
		}, []string{"category", "from_model"}),
		CircuitBreakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "llm_router_circuit_breaker_state",
			Help: "Per-model circuit breaker state (0=closed, 1=open, 2=half-open)",
		}, []string{"model"}),
		AllModelsFailedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "llm_router_all_models_failed_total",
			Help: "Completions where every ranked candidate failed",
		}, []string{"category"}),
		AuditQueueDroppedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "llm_router_audit_queue_dropped_total",
			Help: "Audit log entries dropped because the async queue was full",
		}),
	}
	reg.MustRegister(
		m.RequestsTotal, m.RequestLatency, m.CostUSD,
		m.ClassificationCacheHits, m.ClassificationCacheMisses, m.ClassificationLatency,
		m.ModelFallbackTotal, m.CircuitBreakerState, m.AllModelsFailedTotal,
		m.AuditQueueDroppedTotal,
	)
	return m
}

func (m *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}
