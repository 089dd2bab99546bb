// Package scoring runs a single fraud prediction end to end: it validates the
// transaction, builds the feature vector, asks the classifier for a verdict
// and fetches a best-effort explanation for it.
package scoring

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"fraud-scorer/internal/explain"
	"fraud-scorer/internal/features"
	"fraud-scorer/internal/ml"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// ScoreDecimals is the number of decimal places kept in risk_score.
const ScoreDecimals = 4

// FraudPrediction is the response body of a successful prediction.
type FraudPrediction struct {
	Fraud       bool    `json:"fraud"`
	RiskScore   float64 `json:"risk_score"`
	Explanation *string `json:"explanation"`
}

// ModelSource hands out the loaded classifier, if there is one.
type ModelSource interface {
	Classifier() (ml.Classifier, bool)
}

// Explainer fetches rationale text for a verdict. Implementations must not
// block past their own timeout and must not panic.
type Explainer interface {
	Explain(ctx context.Context, req explain.Request) explain.Result
}

// MetricsInterface defines metrics methods needed by the orchestrator
type MetricsInterface interface {
	PredictionInc(fraud bool)
	PredictionFailureInc(reason string)
	PredictionLatencyObserve(seconds float64)
	RiskScoreObserve(score float64)
}

// Failure reasons reported to metrics.
const (
	FailureModelNotLoaded = "model_not_loaded"
	FailureInvalidInput   = "invalid_input"
	FailureInference      = "inference"
)

// Orchestrator is safe for concurrent use.
type Orchestrator struct {
	models    ModelSource
	explainer Explainer
	metrics   MetricsInterface
}

// New creates an orchestrator. explainer and metrics may be nil.
func New(models ModelSource, explainer Explainer, metrics MetricsInterface) *Orchestrator {
	return &Orchestrator{models: models, explainer: explainer, metrics: metrics}
}

// Predict scores one transaction. It returns ErrModelNotLoaded, *InputError or
// *InferenceError on failure; explanation problems never fail the request.
func (o *Orchestrator) Predict(ctx context.Context, in features.TransactionInput) (FraudPrediction, error) {
	start := time.Now()

	classifier, ok := o.models.Classifier()
	if !ok {
		o.fail(FailureModelNotLoaded)
		return FraudPrediction{}, ErrModelNotLoaded
	}

	if err := validateInput(in); err != nil {
		o.fail(FailureInvalidInput)
		return FraudPrediction{}, err
	}

	vector := features.Build(in)

	inference, err := infer(classifier, vector)
	if err != nil {
		o.fail(FailureInference)
		log.Error().
			Err(err).
			Str("request_id", middleware.GetReqID(ctx)).
			Interface("features", vector.Named()).
			Msg("inference failed")
		return FraudPrediction{}, err
	}

	fraud := inference.Label == 1
	result := o.explain(ctx, in, fraud, inference.Probability)

	prediction := FraudPrediction{
		Fraud:       fraud,
		RiskScore:   roundScore(inference.Probability),
		Explanation: result.Explanation(),
	}

	elapsed := time.Since(start)
	if o.metrics != nil {
		o.metrics.PredictionInc(fraud)
		o.metrics.RiskScoreObserve(prediction.RiskScore)
		o.metrics.PredictionLatencyObserve(elapsed.Seconds())
	}

	log.Info().
		Str("request_id", middleware.GetReqID(ctx)).
		Bool("fraud", prediction.Fraud).
		Float64("risk_score", prediction.RiskScore).
		Str("explanation", result.Outcome()).
		Dur("latency", elapsed).
		Msg("transaction scored")

	return prediction, nil
}

// explain runs detached from ctx cancellation: an inbound disconnect does not
// cut the call short, only the client's own timeout does.
func (o *Orchestrator) explain(ctx context.Context, in features.TransactionInput, fraud bool, probability float64) explain.Result {
	if o.explainer == nil {
		return explain.Absent(explain.ReasonUnexpected)
	}

	return o.explainer.Explain(context.WithoutCancel(ctx), explain.Request{
		TransactionAmount:          *in.TransactionAmount,
		TransactionAmountDeviation: *in.TransactionAmountDeviation,
		TimeAnomaly:                *in.TimeAnomaly,
		LocationDistance:           *in.LocationDistance,
		MerchantNovelty:            *in.MerchantNovelty,
		TransactionFrequency:       *in.TransactionFrequency,
		IsFraud:                    fraud,
		RiskScore:                  probability,
	})
}

// infer calls the classifier and converts errors, panics and impossible
// outputs into *InferenceError.
func infer(c ml.Classifier, v features.Vector) (inf ml.Inference, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &InferenceError{Err: fmt.Errorf("classifier panic: %v", r)}
		}
	}()

	inf, err = c.Infer(v)
	if err != nil {
		return ml.Inference{}, &InferenceError{Err: err}
	}
	if inf.Label != 0 && inf.Label != 1 {
		return ml.Inference{}, &InferenceError{Err: fmt.Errorf("classifier returned label %d", inf.Label)}
	}
	if math.IsNaN(inf.Probability) || inf.Probability < 0 || inf.Probability > 1 {
		return ml.Inference{}, &InferenceError{Err: fmt.Errorf("classifier returned probability %v", inf.Probability)}
	}
	return inf, nil
}

func (o *Orchestrator) fail(reason string) {
	if o.metrics != nil {
		o.metrics.PredictionFailureInc(reason)
	}
}

// roundScore rounds the exact binary value of p, so 0.00015 (stored just
// below the tie) goes down and exact ties such as 0.03125 go to the even digit.
func roundScore(p float64) float64 {
	d, err := decimal.NewFromString(strconv.FormatFloat(p, 'f', ScoreDecimals, 64))
	if err != nil {
		return p
	}
	return d.InexactFloat64()
}
