// Package ml provides the fraud classifier: decoding the exported random
// forest artifact, running inference over feature vectors, and managing the
// single load of the artifact at process start.
//
// The loaded model is immutable and shared by all request handlers.
package ml

import "fraud-scorer/internal/features"

// Inference is the outcome of one classifier call.
type Inference struct {
	// Label is the discrete decision, 0 (legit) or 1 (fraud).
	Label int
	// Probability is the calibrated probability of class 1.
	Probability float64
}

// Classifier defines the interface for binary fraud classifiers.
// Label and Probability come from the same model but may disagree at the
// decision boundary; callers must not derive one from the other.
type Classifier interface {
	Infer(v features.Vector) (Inference, error)
}

// MetricsInterface defines metrics methods needed by the model lifecycle
type MetricsInterface interface {
	ModelLoadedSet(loaded bool)
	ModelAgeSet(seconds float64)
}
