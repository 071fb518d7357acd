package enrollment

import (
	"fmt"
)

type OutcomeKind string

const (
	OutcomeIssued          OutcomeKind = "issued"
	OutcomeDenied          OutcomeKind = "denied"
	OutcomePending         OutcomeKind = "pending"
	OutcomeRetrievalFailed OutcomeKind = "retrieval_failed"
)

// Outcome is the terminal result of one submission or poll. Certificate is only set for
// OutcomeIssued. RequestID is set whenever the server revealed one, including for
// retrieval failures after a successful submission.
type Outcome struct {
	Kind        OutcomeKind
	Certificate []byte
	RequestID   string
	Reason      string
	Message     string
}

// Err maps non-issued outcomes onto the package sentinels.
func (o Outcome) Err() error {
	switch o.Kind {
	case OutcomeIssued:
		return nil
	case OutcomeDenied:
		return fmt.Errorf("%w: %s", ErrDenied, snippet(o.Message))
	case OutcomePending:
		return fmt.Errorf("%w: request id %s", ErrPending, o.RequestID)
	case OutcomeRetrievalFailed:
		return fmt.Errorf("%w: %s", ErrRetrieval, o.Reason)
	default:
		return fmt.Errorf("unknown outcome %q", o.Kind)
	}
}
