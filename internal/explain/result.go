package explain

// Kind classifies an explanation outcome.
type Kind int

const (
	// KindText carries explanation text from the service.
	KindText Kind = iota
	// KindDegraded means the call failed for a known reason; a fixed
	// placeholder is returned in place of the explanation.
	KindDegraded
	// KindAbsent means no explanation is available.
	KindAbsent
)

// Reason says why a result is not plain text.
type Reason string

const (
	ReasonNone        Reason = ""
	ReasonTimeout     Reason = "timeout"
	ReasonUnavailable Reason = "unavailable"
	ReasonError       Reason = "error"
	ReasonEmpty       Reason = "empty"
	ReasonUnexpected  Reason = "unexpected"
)

// Placeholders returned to callers for degraded outcomes.
const (
	TimeoutPlaceholder     = "AI explanation service is taking too long to respond."
	UnavailablePlaceholder = "AI explanation service is currently unavailable."
	ErrorPlaceholder       = "AI explanation service encountered an error."
)

// Result is the outcome of one explanation call.
type Result struct {
	Kind   Kind
	Text   string
	Reason Reason
}

// Text wraps explanation text.
func Text(s string) Result {
	return Result{Kind: KindText, Text: s}
}

// Degraded builds a placeholder result for a known failure.
func Degraded(reason Reason) Result {
	text := ErrorPlaceholder
	switch reason {
	case ReasonTimeout:
		text = TimeoutPlaceholder
	case ReasonUnavailable:
		text = UnavailablePlaceholder
	}
	return Result{Kind: KindDegraded, Text: text, Reason: reason}
}

// Absent builds a result with no explanation.
func Absent(reason Reason) Result {
	return Result{Kind: KindAbsent, Reason: reason}
}

// Explanation returns the value for the response field: the text or the
// placeholder, or nil when absent.
func (r Result) Explanation() *string {
	if r.Kind == KindAbsent {
		return nil
	}
	s := r.Text
	return &s
}

// Outcome is the metrics/log label for the result.
func (r Result) Outcome() string {
	if r.Kind == KindText {
		return "text"
	}
	return string(r.Reason)
}
