// Package evaluate scores a labelled dataset offline with the classifier
// artifact and reports accuracy and per-class precision, recall and F1.
package evaluate

import (
	"fmt"
	"time"

	"fraud-scorer/internal/ml"

	"github.com/rs/zerolog/log"
)

// Class names, in label order.
var ClassNames = [2]string{"Legit", "Fraud"}

// ClassStats holds the classification report row for one class.
type ClassStats struct {
	Name      string  `json:"name"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

// Results holds evaluation results. Confusion is indexed [actual][predicted].
type Results struct {
	Samples     int                 `json:"samples"`
	Skipped     int                 `json:"skipped"`
	Failures    int                 `json:"failures"`
	Confusion   [2][2]int           `json:"confusion"`
	Accuracy    float64             `json:"accuracy"`
	Classes     [2]ClassStats       `json:"classes"`
	MacroF1     float64             `json:"macro_f1"`
	MeanScore   [2]float64          `json:"mean_score"`
	Importance  []FeatureImportance `json:"importance,omitempty"`
	Model       string              `json:"model_version"`
	StartTime   time.Time           `json:"start_time"`
	EndTime     time.Time           `json:"end_time"`
	scoreTotals [2]float64
}

// Engine runs a classifier over a dataset.
type Engine struct {
	classifier ml.Classifier
	model      string
}

// NewEngine creates a new evaluation engine. model labels the report.
func NewEngine(classifier ml.Classifier, model string) *Engine {
	return &Engine{classifier: classifier, model: model}
}

// Run scores every sample. Inference failures are counted, not fatal, unless
// no sample could be scored.
func (e *Engine) Run(ds *Dataset) (*Results, error) {
	if e.classifier == nil {
		return nil, fmt.Errorf("no classifier")
	}
	if ds == nil || len(ds.Samples) == 0 {
		return nil, fmt.Errorf("dataset is empty")
	}

	r := &Results{Skipped: ds.Skipped, Model: e.model, StartTime: time.Now()}
	scored := make([]Sample, 0, len(ds.Samples))

	for _, s := range ds.Samples {
		inf, err := e.classifier.Infer(s.Vector)
		if err != nil {
			log.Warn().Err(err).Int("line", s.Line).Msg("inference failed")
			r.Failures++
			continue
		}
		if inf.Label != 0 && inf.Label != 1 {
			log.Warn().Int("label", inf.Label).Int("line", s.Line).Msg("classifier returned unknown label")
			r.Failures++
			continue
		}

		actual := 0
		if s.Fraud {
			actual = 1
		}
		r.Confusion[actual][inf.Label]++
		r.scoreTotals[actual] += inf.Probability
		r.Samples++
		scored = append(scored, s)
	}

	if r.Samples == 0 {
		return nil, fmt.Errorf("no samples could be scored (%d failures)", r.Failures)
	}

	r.calculateMetrics()
	r.Importance = permutationImportance(e.classifier, scored, r.Accuracy)
	r.EndTime = time.Now()

	log.Info().
		Int("samples", r.Samples).
		Int("failures", r.Failures).
		Float64("accuracy", r.Accuracy).
		Float64("macro_f1", r.MacroF1).
		Msg("evaluation complete")

	return r, nil
}

func (r *Results) calculateMetrics() {
	correct := r.Confusion[0][0] + r.Confusion[1][1]
	r.Accuracy = float64(correct) / float64(r.Samples)

	for c := 0; c < 2; c++ {
		other := 1 - c
		tp := r.Confusion[c][c]
		fp := r.Confusion[other][c]
		fn := r.Confusion[c][other]

		stats := ClassStats{
			Name:      ClassNames[c],
			Precision: ratio(tp, tp+fp),
			Recall:    ratio(tp, tp+fn),
			Support:   tp + fn,
		}
		if stats.Precision+stats.Recall > 0 {
			stats.F1 = 2 * stats.Precision * stats.Recall / (stats.Precision + stats.Recall)
		}
		r.Classes[c] = stats

		if stats.Support > 0 {
			r.MeanScore[c] = r.scoreTotals[c] / float64(stats.Support)
		}
	}

	r.MacroF1 = (r.Classes[0].F1 + r.Classes[1].F1) / 2
}

// ratio is 0 when the denominator is 0, matching the usual report convention.
func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}
