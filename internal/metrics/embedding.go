package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Embedding provider calls are counted in transport/openai, budget gauges in
// the instrumented embedder and cache lookups in embcache.
var (
	EmbeddingRequestsTotal = counterVec("embedding", "requests_total",
		"Embedding provider calls by outcome.", "provider", "model", "status")
	EmbeddingRequestDuration = histogramVec("embedding", "request_duration_seconds",
		"Latency of successful embedding calls.",
		[]float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}, "provider", "model")
	EmbeddingTokensTotal = counterVec("embedding", "tokens_total",
		"Tokens reported by the provider; type is prompt or total.", "provider", "model", "type")
	EmbeddingErrorsTotal = counterVec("embedding", "errors_total",
		"Failed embedding calls by reason.", "provider", "model", "error_type")
	EmbeddingBudgetTokensRemaining = gaugeVec("embedding", "budget_tokens_remaining",
		"Tokens left in the current budget period.", "provider", "period")
	EmbeddingCacheTotal = counterVec("embedding", "cache_total",
		"Query embedding cache lookups; result is hit or miss.", "result")
)

var embeddingOnce sync.Once

func RegisterEmbeddingMetrics() {
	embeddingOnce.Do(func() {
		prometheus.MustRegister(
			EmbeddingRequestsTotal,
			EmbeddingRequestDuration,
			EmbeddingTokensTotal,
			EmbeddingErrorsTotal,
			EmbeddingBudgetTokensRemaining,
			EmbeddingCacheTotal,
		)
	})
}
