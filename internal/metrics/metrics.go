// Package metrics declares the Prometheus collector families of the engine.
// Decorators write to the package-level families without holding a registry;
// the Register functions attach them to the default registry once, and
// EngineCollectors hands them out for attachment to a caller-owned registry.
package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "emvex"

func counter(name, help string, labels ...string) *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
	}, labels)
}

func histogram(name, help string, buckets []float64, labels ...string) *prometheus.HistogramVec {
	return prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
		Buckets:   buckets,
	}, labels)
}

func gauge(name, help string, labels ...string) *prometheus.GaugeVec {
	return prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
	}, labels)
}

// EngineCollectors returns every embedding and store family in one slice.
func EngineCollectors() []prometheus.Collector {
	out := make([]prometheus.Collector, 0, len(embeddingCollectors)+len(storeCollectors))
	out = append(out, embeddingCollectors...)
	return append(out, storeCollectors...)
}
