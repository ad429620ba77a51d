// Package metrics provides Prometheus metrics collection for the prediction service.
// It defines request, fault, confidence and model-inference metrics exposed via the
// /metrics endpoint for monitoring and alerting.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the prediction service.
type Metrics struct {
	// Request metrics
	RequestsTotal  *prometheus.CounterVec // Predict calls by outcome code
	ClientFaults   *prometheus.CounterVec // INVALID_ARGUMENT faults by fault kind
	ServerFaults   prometheus.Counter     // INTERNAL faults
	RequestLatency prometheus.Histogram   // End-to-end Predict latency in seconds
	Confidence     prometheus.Histogram   // Distribution of returned confidence values

	// Model metrics
	MLPredictions prometheus.Counter   // Successful model inferences
	MLFailures    prometheus.Counter   // Failed model inferences
	MLLatency     prometheus.Histogram // Model inference latency in seconds
	MLModelAge    prometheus.Gauge     // Age of the loaded model artifact in seconds
	MLCacheHits   prometheus.Counter   // Prediction cache hits

	// Storage metrics
	PredictionLogErrors prometheus.Counter // Failed prediction log writes
}

// New creates and registers all Prometheus metrics using the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates metrics with a custom registry (useful for testing).
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "predict_requests_total",
			Help: "Total number of Predict calls by outcome code",
		}, []string{"code"}),
		ClientFaults: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "predict_client_faults_total",
			Help: "Total number of rejected Predict calls by fault kind",
		}, []string{"kind"}),
		ServerFaults: factory.NewCounter(prometheus.CounterOpts{
			Name: "predict_server_faults_total",
			Help: "Total number of Predict calls that failed internally",
		}),
		RequestLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "predict_latency_seconds",
			Help:    "Predict latency in seconds (validation + inference)",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		}),
		Confidence: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "predict_confidence",
			Help:    "Distribution of returned confidence scores",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		}),
		MLPredictions: factory.NewCounter(prometheus.CounterOpts{
			Name: "ml_predictions_total",
			Help: "Total number of model inferences",
		}),
		MLFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "ml_failures_total",
			Help: "Total number of failed model inferences",
		}),
		MLLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "ml_latency_seconds",
			Help:    "Model inference latency in seconds",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
		}),
		MLModelAge: factory.NewGauge(prometheus.GaugeOpts{
			Name: "ml_model_age_seconds",
			Help: "Age of the loaded model artifact in seconds",
		}),
		MLCacheHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "ml_cache_hits_total",
			Help: "Total number of prediction cache hits",
		}),
		PredictionLogErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "prediction_log_errors_total",
			Help: "Total number of failed prediction log writes",
		}),
	}
}
