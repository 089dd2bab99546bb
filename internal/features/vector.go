package features

import (
	"fmt"
	"math"
)

// TransactionInput is the scoring request payload. Fields are pointers so a
// missing field can be told apart from an explicit zero.
type TransactionInput struct {
	TransactionAmount          *float64 `json:"transactionAmount" validate:"required"`
	TransactionAmountDeviation *float64 `json:"transactionAmountDeviation" validate:"required"`
	TimeAnomaly                *float64 `json:"timeAnomaly" validate:"required,gte=0,lte=1"`
	LocationDistance           *float64 `json:"locationDistance" validate:"required"`
	MerchantNovelty            *float64 `json:"merchantNovelty" validate:"required,gte=0,lte=1"`
	TransactionFrequency       *float64 `json:"transactionFrequency" validate:"required"`
}

// Vector holds feature values in Order.
type Vector [Count]float64

// Build maps a validated input onto Order. Every field must be set.
func Build(in TransactionInput) Vector {
	return Vector{
		*in.TransactionAmount,
		*in.TransactionAmountDeviation,
		*in.TimeAnomaly,
		*in.LocationDistance,
		*in.MerchantNovelty,
		*in.TransactionFrequency,
	}
}

// FromRecord builds a vector from named values, so callers reading columnar
// data never depend on their own column order.
func FromRecord(values map[string]float64) (Vector, error) {
	var v Vector
	for i, name := range Order {
		val, ok := values[name]
		if !ok {
			return Vector{}, fmt.Errorf("missing feature %q", name)
		}
		v[i] = val
	}
	return v, nil
}

// Finite reports the first non-finite value, if any.
func (v Vector) Finite() error {
	for i, val := range v {
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return fmt.Errorf("feature %s is not finite: %v", Order[i], val)
		}
	}
	return nil
}

// Named returns the vector keyed by feature name, for logging.
func (v Vector) Named() map[string]float64 {
	out := make(map[string]float64, Count)
	for i, name := range Order {
		out[name] = v[i]
	}
	return out
}
