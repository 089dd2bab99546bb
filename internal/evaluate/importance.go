package evaluate

import (
	"math"
	"sort"

	"fraud-scorer/internal/features"
	"fraud-scorer/internal/ml"
)

// FeatureImportance is the accuracy lost when one feature is permuted.
type FeatureImportance struct {
	Feature          string  `json:"feature"`
	PermutationScore float64 `json:"permutation_score"`
	ImportanceScore  float64 `json:"importance_score"`
}

// permutationImportance measures, for each feature, the accuracy drop when
// that column is rotated by one sample. The rotation keeps runs repeatable.
// Results are sorted by importance, highest first.
func permutationImportance(c ml.Classifier, samples []Sample, baseline float64) []FeatureImportance {
	if len(samples) < 2 {
		return nil
	}

	out := make([]FeatureImportance, 0, features.Count)
	for idx, name := range features.Order {
		correct := 0
		for i, s := range samples {
			v := s.Vector
			v[idx] = samples[(i+1)%len(samples)].Vector[idx]

			inf, err := c.Infer(v)
			if err != nil {
				continue
			}
			if (inf.Label == 1) == s.Fraud {
				correct++
			}
		}

		drop := baseline - float64(correct)/float64(len(samples))
		out = append(out, FeatureImportance{
			Feature:          name,
			PermutationScore: drop,
			ImportanceScore:  math.Max(0, drop),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ImportanceScore > out[j].ImportanceScore
	})
	return out
}
