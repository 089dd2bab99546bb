package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewWithRegistry_Registers(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewWithRegistry(registry)

	if m == nil {
		t.Fatal("NewWithRegistry returned nil")
	}

	// Registering the same names twice must fail on the same registry
	defer func() {
		if recover() == nil {
			t.Error("Expected duplicate registration to panic")
		}
	}()
	NewWithRegistry(registry)
}

func TestMetrics_PredictionCounters(t *testing.T) {
	m := NewWithRegistry(prometheus.NewRegistry())

	m.PredictionInc(true)
	m.PredictionInc(false)
	m.PredictionInc(false)

	if v := testutil.ToFloat64(m.PredictionsTotal.WithLabelValues("fraud")); v != 1 {
		t.Errorf("Expected 1 fraud verdict, got %f", v)
	}
	if v := testutil.ToFloat64(m.PredictionsTotal.WithLabelValues("legit")); v != 2 {
		t.Errorf("Expected 2 legit verdicts, got %f", v)
	}

	m.PredictionFailureInc("model_not_loaded")
	if v := testutil.ToFloat64(m.PredictionFailures.WithLabelValues("model_not_loaded")); v != 1 {
		t.Errorf("Expected 1 failure, got %f", v)
	}
}

func TestMetrics_Histograms(t *testing.T) {
	m := NewWithRegistry(prometheus.NewRegistry())

	m.PredictionLatencyObserve(0.02)
	m.RiskScoreObserve(0.0412)
	m.RiskScoreObserve(0.97)
	m.ExplanationLatencyObserve(1.5)

	if n := testutil.CollectAndCount(m.RiskScores); n != 1 {
		t.Errorf("Expected 1 risk score series, got %d", n)
	}
	if n := testutil.CollectAndCount(m.PredictionLatency); n != 1 {
		t.Errorf("Expected 1 latency series, got %d", n)
	}
	if n := testutil.CollectAndCount(m.ExplanationLatency); n != 1 {
		t.Errorf("Expected 1 explanation latency series, got %d", n)
	}
}

func TestMetrics_ExplanationOutcomes(t *testing.T) {
	m := NewWithRegistry(prometheus.NewRegistry())

	for _, outcome := range []string{"text", "timeout", "timeout", "unavailable"} {
		m.ExplanationOutcomeInc(outcome)
	}

	if v := testutil.ToFloat64(m.ExplanationOutcomes.WithLabelValues("timeout")); v != 2 {
		t.Errorf("Expected 2 timeouts, got %f", v)
	}
	if n := testutil.CollectAndCount(m.ExplanationOutcomes); n != 3 {
		t.Errorf("Expected 3 outcome series, got %d", n)
	}
}

func TestMetrics_ModelGauges(t *testing.T) {
	m := NewWithRegistry(prometheus.NewRegistry())

	if v := testutil.ToFloat64(m.ModelLoaded); v != 0 {
		t.Errorf("Expected model_loaded 0 initially, got %f", v)
	}

	m.ModelLoadedSet(true)
	if v := testutil.ToFloat64(m.ModelLoaded); v != 1 {
		t.Errorf("Expected model_loaded 1, got %f", v)
	}

	m.ModelLoadedSet(false)
	if v := testutil.ToFloat64(m.ModelLoaded); v != 0 {
		t.Errorf("Expected model_loaded 0, got %f", v)
	}

	m.ModelAgeSet(3600)
	if v := testutil.ToFloat64(m.ModelAge); v != 3600 {
		t.Errorf("Expected model age 3600, got %f", v)
	}
}

func TestMetrics_HTTPRequests(t *testing.T) {
	m := NewWithRegistry(prometheus.NewRegistry())

	m.HTTPRequestInc("POST", "/predict", 200)
	m.HTTPRequestInc("POST", "/predict", 422)
	m.HTTPRequestInc("POST", "/predict", 200)

	if v := testutil.ToFloat64(m.HTTPRequests.WithLabelValues("POST", "/predict", "200")); v != 2 {
		t.Errorf("Expected 2 successful requests, got %f", v)
	}
	if v := testutil.ToFloat64(m.HTTPRequests.WithLabelValues("POST", "/predict", "422")); v != 1 {
		t.Errorf("Expected 1 rejected request, got %f", v)
	}
}
