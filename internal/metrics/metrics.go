package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// All collectors are low-cardinality: labels are camera name and event type.

var (
	// InferMS tracks one Metis round trip per ROI.
	InferMS = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "safehaven_infer_ms",
		Help:    "Inference latency in milliseconds",
		Buckets: []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000},
	})

	// E2EMS tracks capture-to-decision latency per processed sample.
	E2EMS = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "safehaven_e2e_ms",
		Help:    "End-to-end latency in milliseconds",
		Buckets: []float64{5, 10, 20, 50, 100, 200, 500, 1000, 2000},
	})

	QueueDepth = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "safehaven_queue_depth",
		Help: "Queue depth per camera",
	}, []string{"camera"})

	DroppedSamples = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "safehaven_dropped_samples",
		Help: "Dropped stale samples",
	}, []string{"camera"})

	SemanticEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "safehaven_semantic_events",
		Help: "Semantic events emitted",
	}, []string{"camera", "type"})
)

// Handler exposes the default registry in Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ListenAndServe blocks serving /metrics on the given port.
func ListenAndServe(port int) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	return http.ListenAndServe(fmt.Sprintf(":%d", port), mux)
}
