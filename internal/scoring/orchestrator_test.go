package scoring

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"sync"
	"testing"

	"fraud-scorer/internal/explain"
	"fraud-scorer/internal/features"
	"fraud-scorer/internal/ml"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubClassifier struct {
	mu     sync.Mutex
	calls  int
	got    features.Vector
	result ml.Inference
	err    error
	panics bool
}

func (c *stubClassifier) Infer(v features.Vector) (ml.Inference, error) {
	c.mu.Lock()
	c.calls++
	c.got = v
	c.mu.Unlock()
	if c.panics {
		panic("corrupt tree")
	}
	return c.result, c.err
}

type stubModels struct {
	classifier ml.Classifier
}

func (m stubModels) Classifier() (ml.Classifier, bool) {
	return m.classifier, m.classifier != nil
}

type stubExplainer struct {
	calls  int
	req    explain.Request
	ctx    context.Context
	result explain.Result
}

func (e *stubExplainer) Explain(ctx context.Context, req explain.Request) explain.Result {
	e.calls++
	e.ctx = ctx
	e.req = req
	return e.result
}

type mockMetrics struct {
	predictions map[bool]int
	failures    map[string]int
	scores      []float64
}

func newMockMetrics() *mockMetrics {
	return &mockMetrics{predictions: map[bool]int{}, failures: map[string]int{}}
}

func (m *mockMetrics) PredictionInc(fraud bool)           { m.predictions[fraud]++ }
func (m *mockMetrics) PredictionFailureInc(reason string) { m.failures[reason]++ }
func (m *mockMetrics) PredictionLatencyObserve(float64)   {}
func (m *mockMetrics) RiskScoreObserve(v float64)         { m.scores = append(m.scores, v) }

func f(v float64) *float64 { return &v }

func sampleInput() features.TransactionInput {
	return features.TransactionInput{
		TransactionAmount:          f(150.50),
		TransactionAmountDeviation: f(0.25),
		TimeAnomaly:                f(0.3),
		LocationDistance:           f(25.0),
		MerchantNovelty:            f(0.2),
		TransactionFrequency:       f(5),
	}
}

func TestPredict_ExampleCase(t *testing.T) {
	classifier := &stubClassifier{result: ml.Inference{Label: 0, Probability: 0.0412}}
	explainer := &stubExplainer{result: explain.Text("Routine purchase.")}
	metrics := newMockMetrics()
	o := New(stubModels{classifier}, explainer, metrics)

	got, err := o.Predict(context.Background(), sampleInput())
	require.NoError(t, err)

	assert.False(t, got.Fraud)
	assert.Equal(t, 0.0412, got.RiskScore)
	require.NotNil(t, got.Explanation)
	assert.Equal(t, "Routine purchase.", *got.Explanation)

	assert.Equal(t, features.Vector{150.50, 0.25, 0.3, 25.0, 0.2, 5}, classifier.got)
	assert.Equal(t, 1, explainer.calls)
	assert.Equal(t, explain.Request{
		TransactionAmount:          150.50,
		TransactionAmountDeviation: 0.25,
		TimeAnomaly:                0.3,
		LocationDistance:           25.0,
		MerchantNovelty:            0.2,
		TransactionFrequency:       5,
		IsFraud:                    false,
		RiskScore:                  0.0412,
	}, explainer.req)

	assert.Equal(t, 1, metrics.predictions[false])
	assert.Equal(t, []float64{0.0412}, metrics.scores)
}

func TestPredict_ResponseJSON(t *testing.T) {
	classifier := &stubClassifier{result: ml.Inference{Label: 1, Probability: 0.87654}}
	explainer := &stubExplainer{result: explain.Absent(explain.ReasonEmpty)}
	o := New(stubModels{classifier}, explainer, nil)

	got, err := o.Predict(context.Background(), sampleInput())
	require.NoError(t, err)

	data, err := json.Marshal(got)
	require.NoError(t, err)
	assert.JSONEq(t, `{"fraud":true,"risk_score":0.8765,"explanation":null}`, string(data))
}

func TestPredict_ModelNotLoaded(t *testing.T) {
	explainer := &stubExplainer{}
	metrics := newMockMetrics()
	o := New(stubModels{}, explainer, metrics)

	_, err := o.Predict(context.Background(), sampleInput())

	assert.ErrorIs(t, err, ErrModelNotLoaded)
	assert.Equal(t, 0, explainer.calls)
	assert.Equal(t, 1, metrics.failures[FailureModelNotLoaded])
}

func TestPredict_InvalidInputNeverReachesClassifier(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(in *features.TransactionInput)
		field  string
		typ    string
	}{
		{"time anomaly above range", func(in *features.TransactionInput) { in.TimeAnomaly = f(1.01) }, "timeAnomaly", "value_error.number.not_le"},
		{"time anomaly below range", func(in *features.TransactionInput) { in.TimeAnomaly = f(-0.1) }, "timeAnomaly", "value_error.number.not_ge"},
		{"merchant novelty above range", func(in *features.TransactionInput) { in.MerchantNovelty = f(2) }, "merchantNovelty", "value_error.number.not_le"},
		{"missing amount", func(in *features.TransactionInput) { in.TransactionAmount = nil }, "transactionAmount", "value_error.missing"},
		{"missing frequency", func(in *features.TransactionInput) { in.TransactionFrequency = nil }, "transactionFrequency", "value_error.missing"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			classifier := &stubClassifier{result: ml.Inference{Label: 0, Probability: 0.1}}
			explainer := &stubExplainer{}
			metrics := newMockMetrics()
			o := New(stubModels{classifier}, explainer, metrics)

			in := sampleInput()
			tc.mutate(&in)
			_, err := o.Predict(context.Background(), in)

			var inputErr *InputError
			require.ErrorAs(t, err, &inputErr)
			require.Len(t, inputErr.Fields, 1)
			assert.Equal(t, []string{"body", tc.field}, inputErr.Fields[0].Loc)
			assert.Equal(t, tc.typ, inputErr.Fields[0].Type)

			assert.Equal(t, 0, classifier.calls)
			assert.Equal(t, 0, explainer.calls)
			assert.Equal(t, 1, metrics.failures[FailureInvalidInput])
		})
	}
}

func TestPredict_BoundaryValuesAccepted(t *testing.T) {
	classifier := &stubClassifier{result: ml.Inference{Label: 0, Probability: 0.2}}
	o := New(stubModels{classifier}, &stubExplainer{}, nil)

	for _, v := range []float64{0, 1} {
		in := sampleInput()
		in.TimeAnomaly = f(v)
		in.MerchantNovelty = f(v)
		in.TransactionAmount = f(0)

		_, err := o.Predict(context.Background(), in)
		assert.NoError(t, err, "value %v", v)
	}
	assert.Equal(t, 2, classifier.calls)
}

func TestPredict_AllMissingFieldsReported(t *testing.T) {
	o := New(stubModels{&stubClassifier{}}, nil, nil)

	_, err := o.Predict(context.Background(), features.TransactionInput{})

	var inputErr *InputError
	require.ErrorAs(t, err, &inputErr)
	assert.Len(t, inputErr.Fields, features.Count)
}

func TestPredict_InferenceFailures(t *testing.T) {
	testCases := []struct {
		name       string
		classifier *stubClassifier
		message    string
	}{
		{"error", &stubClassifier{err: errors.New("tree 3: node index 9 out of range")}, "tree 3"},
		{"panic", &stubClassifier{panics: true}, "corrupt tree"},
		{"bad label", &stubClassifier{result: ml.Inference{Label: 2, Probability: 0.5}}, "label 2"},
		{"bad probability", &stubClassifier{result: ml.Inference{Label: 1, Probability: 1.5}}, "probability 1.5"},
		{"nan probability", &stubClassifier{result: ml.Inference{Label: 1, Probability: math.NaN()}}, "probability NaN"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			explainer := &stubExplainer{}
			metrics := newMockMetrics()
			o := New(stubModels{tc.classifier}, explainer, metrics)

			_, err := o.Predict(context.Background(), sampleInput())

			var infErr *InferenceError
			require.ErrorAs(t, err, &infErr)
			assert.Contains(t, err.Error(), tc.message)
			assert.Equal(t, 0, explainer.calls)
			assert.Equal(t, 1, metrics.failures[FailureInference])
		})
	}
}

func TestPredict_DegradedExplanationKeepsVerdict(t *testing.T) {
	testCases := []struct {
		name   string
		result explain.Result
		want   *string
	}{
		{"timeout", explain.Degraded(explain.ReasonTimeout), f2s(explain.TimeoutPlaceholder)},
		{"unavailable", explain.Degraded(explain.ReasonUnavailable), f2s(explain.UnavailablePlaceholder)},
		{"error", explain.Degraded(explain.ReasonError), f2s(explain.ErrorPlaceholder)},
		{"unexpected", explain.Absent(explain.ReasonUnexpected), nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			classifier := &stubClassifier{result: ml.Inference{Label: 1, Probability: 0.93}}
			o := New(stubModels{classifier}, &stubExplainer{result: tc.result}, nil)

			got, err := o.Predict(context.Background(), sampleInput())
			require.NoError(t, err)

			assert.True(t, got.Fraud)
			assert.Equal(t, 0.93, got.RiskScore)
			assert.Equal(t, tc.want, got.Explanation)
		})
	}
}

func TestPredict_ExplanationNotCancelledWithRequest(t *testing.T) {
	classifier := &stubClassifier{result: ml.Inference{Label: 0, Probability: 0.1}}
	explainer := &stubExplainer{result: explain.Text("ok")}
	o := New(stubModels{classifier}, explainer, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := o.Predict(ctx, sampleInput())
	require.NoError(t, err)
	require.NotNil(t, explainer.ctx)
	assert.NoError(t, explainer.ctx.Err())
}

func TestPredict_LabelAndScoreMayDisagree(t *testing.T) {
	// The verdict comes from the label, never from a cut on the score.
	classifier := &stubClassifier{result: ml.Inference{Label: 1, Probability: 0.5}}
	o := New(stubModels{classifier}, nil, nil)

	got, err := o.Predict(context.Background(), sampleInput())
	require.NoError(t, err)
	assert.True(t, got.Fraud)
	assert.Equal(t, 0.5, got.RiskScore)
	assert.Nil(t, got.Explanation)
}

func TestRoundScore(t *testing.T) {
	testCases := []struct {
		in   float64
		want float64
	}{
		{0.0412, 0.0412},
		{0.04123, 0.0412},
		{0.04125, 0.0413},
		{0.99996, 1},
		{0.00004, 0},
		{0, 0},
		{1, 1},
		{1.0 / 3.0, 0.3333},
		{0.87654, 0.8765},
		{0.12345, 0.1235},
		{0.00015, 0.0001}, // stored below the tie
		{0.03125, 0.0312}, // exact tie, even digit
		{0.28125, 0.2812}, // exact tie, even digit
		{0.99995, 1},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.want, roundScore(tc.in), "roundScore(%v)", tc.in)
	}
}

func f2s(s string) *string { return &s }
