// Package metrics provides Prometheus metrics collection for the fraud scoring
// service. It defines and manages prediction, explanation, model and HTTP
// metrics exposed via the /metrics endpoint for monitoring and alerting.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// Prediction metrics
	PredictionsTotal   *prometheus.CounterVec // Scored transactions by verdict
	PredictionFailures *prometheus.CounterVec // Failed predictions by reason
	PredictionLatency  prometheus.Histogram   // End-to-end prediction latency
	RiskScores         prometheus.Histogram   // Distribution of returned risk scores

	// Explanation service metrics
	ExplanationOutcomes *prometheus.CounterVec // Explanation calls by outcome
	ExplanationLatency  prometheus.Histogram   // Explanation call latency

	// Model metrics
	ModelLoaded prometheus.Gauge // 1 once the model artifact is loaded
	ModelAge    prometheus.Gauge // Age of the loaded model in seconds

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec // Requests by method, route and status
}

// New creates and registers all Prometheus metrics using the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates metrics with a custom registry (useful for testing).
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		PredictionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fraud_predictions_total",
			Help: "Total number of scored transactions by verdict",
		}, []string{"verdict"}),
		PredictionFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fraud_prediction_failures_total",
			Help: "Total number of failed prediction requests by reason",
		}, []string{"reason"}),
		PredictionLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "fraud_prediction_latency_seconds",
			Help:    "Prediction latency in seconds, including the explanation call",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		RiskScores: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "fraud_risk_scores",
			Help:    "Distribution of returned risk scores",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		}),
		ExplanationOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "explanation_outcomes_total",
			Help: "Total number of explanation service calls by outcome",
		}, []string{"outcome"}),
		ExplanationLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "explanation_latency_seconds",
			Help:    "Explanation service call latency in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 13),
		}),
		ModelLoaded: factory.NewGauge(prometheus.GaugeOpts{
			Name: "model_loaded",
			Help: "1 when the classifier artifact is loaded, 0 otherwise",
		}),
		ModelAge: factory.NewGauge(prometheus.GaugeOpts{
			Name: "model_age_seconds",
			Help: "Age of the loaded classifier artifact in seconds",
		}),
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),
	}
}
