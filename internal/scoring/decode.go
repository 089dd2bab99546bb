package scoring

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"fraud-scorer/internal/features"
)

// DecodeTransaction reads exactly one JSON object from r. Keys must match the
// field names exactly; a key that differs only in case reports its field as
// missing. Reader errors and malformed JSON in the leading value are returned
// as is so callers can tell an empty or oversized body apart; every other
// problem is an *InputError.
func DecodeTransaction(r io.Reader) (features.TransactionInput, error) {
	var in features.TransactionInput

	dec := json.NewDecoder(r)
	var raw map[string]json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		return in, err
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return in, err
		}
		return in, DecodeError(errors.New("unexpected data after JSON body"))
	}

	targets := []struct {
		name string
		dst  **float64
	}{
		{features.TransactionAmount, &in.TransactionAmount},
		{features.TransactionAmountDeviation, &in.TransactionAmountDeviation},
		{features.TimeAnomaly, &in.TimeAnomaly},
		{features.LocationDistance, &in.LocationDistance},
		{features.MerchantNovelty, &in.MerchantNovelty},
		{features.TransactionFrequency, &in.TransactionFrequency},
	}

	var fields []FieldError
	for _, t := range targets {
		v, ok := raw[t.name]
		if !ok {
			if caseOnlyMatch(raw, t.name) {
				fields = append(fields, FieldError{
					Loc:  []string{"body", t.name},
					Msg:  "field required",
					Type: "value_error.missing",
				})
			}
			continue
		}
		if err := json.Unmarshal(v, t.dst); err != nil {
			fields = append(fields, FieldError{
				Loc:  []string{"body", t.name},
				Msg:  "value is not a valid float",
				Type: "type_error.float",
			})
		}
	}
	if len(fields) > 0 {
		return features.TransactionInput{}, &InputError{Fields: fields}
	}

	return in, nil
}

func caseOnlyMatch(raw map[string]json.RawMessage, name string) bool {
	for k := range raw {
		if k != name && strings.EqualFold(k, name) {
			return true
		}
	}
	return false
}
