package routing

import "errors"

var (
	// ErrMalformed marks a relevant delivery that cannot be decoded into
	// the shape its family expects.
	ErrMalformed = errors.New("malformed event")
	// ErrInvariant marks an event whose data breaks a domain invariant.
	ErrInvariant = errors.New("event invariant violated")
)

// Kind tells the acknowledgement wrapper what to do with a delivery.
type Kind int

const (
	// Handled: processed and recorded in the ledger.
	Handled Kind = iota
	// Ignored: nothing to do (irrelevant, duplicate, dropped or lost a
	// ledger race).
	Ignored
	// Retryable: a dependency failed, the delivery must come again.
	Retryable
	// Fatal: the delivery can never be processed as is.
	Fatal
)

func (k Kind) String() string {
	switch k {
	case Handled:
		return "handled"
	case Ignored:
		return "ignored"
	case Retryable:
		return "retryable"
	case Fatal:
		return "fatal"
	}
	return "unknown"
}

// Outcomes reported with a result.
const (
	OutcomeIrrelevant = "irrelevant"
	OutcomeDuplicate  = "duplicate"
	OutcomeDropped    = "dropped"
	OutcomeConflict   = "conflict"
	OutcomeRetryable  = "retryable"
	OutcomeFatal      = "fatal"
)

type Result struct {
	Kind    Kind
	Outcome string
	EventID string
	Err     error
}

// Acknowledge reports whether the delivery may be committed.
func (r Result) Acknowledge() bool {
	return r.Kind == Handled || r.Kind == Ignored
}
