package metrics

import "strconv"

// The methods below satisfy the narrow metrics interfaces declared by the
// ml, explain, scoring and server packages, so those packages never import
// Prometheus directly.

func (m *Metrics) PredictionInc(fraud bool) {
	verdict := "legit"
	if fraud {
		verdict = "fraud"
	}
	m.PredictionsTotal.WithLabelValues(verdict).Inc()
}

func (m *Metrics) PredictionFailureInc(reason string) {
	m.PredictionFailures.WithLabelValues(reason).Inc()
}

func (m *Metrics) PredictionLatencyObserve(v float64) {
	m.PredictionLatency.Observe(v)
}

func (m *Metrics) RiskScoreObserve(v float64) {
	m.RiskScores.Observe(v)
}

func (m *Metrics) ExplanationOutcomeInc(outcome string) {
	m.ExplanationOutcomes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ExplanationLatencyObserve(v float64) {
	m.ExplanationLatency.Observe(v)
}

func (m *Metrics) ModelLoadedSet(loaded bool) {
	if loaded {
		m.ModelLoaded.Set(1)
		return
	}
	m.ModelLoaded.Set(0)
}

func (m *Metrics) ModelAgeSet(v float64) {
	m.ModelAge.Set(v)
}

func (m *Metrics) HTTPRequestInc(method, route string, status int) {
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}
