package metrics

import "github.com/prometheus/client_golang/prometheus"

// Vector store families, labelled per backend driver.
var (
	StoreOperationsTotal = counter("store_operations_total",
		"Total number of vector store operations",
		"backend", "op", "status")

	StoreOperationDuration = histogram("store_operation_duration_seconds",
		"Vector store operation duration in seconds",
		[]float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		"backend", "op")

	StoreVectorsInserted = counter("store_vectors_inserted_total",
		"Total vectors written to the store",
		"backend")
)

var storeCollectors = []prometheus.Collector{
	StoreOperationsTotal,
	StoreOperationDuration,
	StoreVectorsInserted,
}

var storeMetricsRegistered bool

// RegisterStoreMetrics registers the store families on the default registry.
// Must be called once from main; repeated calls are no-ops.
func RegisterStoreMetrics() {
	if storeMetricsRegistered {
		return
	}
	prometheus.MustRegister(storeCollectors...)
	storeMetricsRegistered = true
}
