package metrics

import "github.com/prometheus/client_golang/prometheus"

// Embedding families: provider round trips, token spend, budget, cache.
var (
	EmbeddingRequestsTotal = counter("embedding_requests_total",
		"Total number of embedding requests",
		"provider", "model", "status")

	EmbeddingRequestDuration = histogram("embedding_request_duration_seconds",
		"Embedding request duration in seconds",
		[]float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		"provider", "model")

	EmbeddingTokensTotal = counter("embedding_tokens_total",
		"Total embedding tokens consumed",
		"provider", "model", "type")

	EmbeddingErrorsTotal = counter("embedding_errors_total",
		"Total embedding errors",
		"provider", "model", "error_type")

	EmbeddingBatchesTotal = counter("embedding_batches_total",
		"Total embedding batches dispatched by the batch pipeline",
		"provider", "model")

	EmbeddingBudgetTokensRemaining = gauge("embedding_budget_tokens_remaining",
		"Remaining token budget",
		"provider", "period")

	// result is "hit" or "miss".
	EmbeddingCacheTotal = counter("embedding_cache_total",
		"Embedding cache hits and misses",
		"result")
)

var embeddingCollectors = []prometheus.Collector{
	EmbeddingRequestsTotal,
	EmbeddingRequestDuration,
	EmbeddingTokensTotal,
	EmbeddingErrorsTotal,
	EmbeddingBatchesTotal,
	EmbeddingBudgetTokensRemaining,
	EmbeddingCacheTotal,
}

var embMetricsRegistered bool

// RegisterEmbeddingMetrics registers the embedding families on the default
// registry. Must be called once from main; repeated calls are no-ops.
func RegisterEmbeddingMetrics() {
	if embMetricsRegistered {
		return
	}
	prometheus.MustRegister(embeddingCollectors...)
	embMetricsRegistered = true
}
