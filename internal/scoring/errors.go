package scoring

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrModelNotLoaded is returned when a request arrives before the model is ready.
var ErrModelNotLoaded = errors.New("model not loaded")

// FieldError describes one rejected input field. Loc is the path to the
// field, starting with "body".
type FieldError struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

// InputError is returned for malformed or out-of-range input. The model is
// never consulted when it is returned.
type InputError struct {
	Fields []FieldError
}

func (e *InputError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, strings.Join(f.Loc, ".")+": "+f.Msg)
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

// DecodeError wraps a request body that could not be decoded.
func DecodeError(err error) *InputError {
	return &InputError{Fields: []FieldError{{
		Loc:  []string{"body"},
		Msg:  err.Error(),
		Type: "value_error.jsondecode",
	}}}
}

// InferenceError wraps a failure inside the classifier call.
type InferenceError struct {
	Err error
}

func (e *InferenceError) Error() string {
	return e.Err.Error()
}

func (e *InferenceError) Unwrap() error { return e.Err }

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateInput runs the struct tags on v and collects every violation.
func validateInput(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &InputError{Fields: []FieldError{{Loc: []string{"body"}, Msg: err.Error(), Type: "value_error"}}}
	}

	out := &InputError{Fields: make([]FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, fieldError(fe))
	}
	return out
}

func fieldError(fe validator.FieldError) FieldError {
	f := FieldError{Loc: []string{"body", fe.Field()}}
	switch fe.Tag() {
	case "required":
		f.Msg = "field required"
		f.Type = "value_error.missing"
	case "gte":
		f.Msg = fmt.Sprintf("ensure this value is greater than or equal to %s", fe.Param())
		f.Type = "value_error.number.not_ge"
	case "lte":
		f.Msg = fmt.Sprintf("ensure this value is less than or equal to %s", fe.Param())
		f.Type = "value_error.number.not_le"
	default:
		f.Msg = fmt.Sprintf("failed on the %q rule", fe.Tag())
		f.Type = "value_error." + fe.Tag()
	}
	return f
}
