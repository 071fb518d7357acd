package secrets

import (
	"errors"
)

var ErrSecret = errors.New("secret retrieval failed")

// SecretError describes why a credential could not be resolved. It always matches
// ErrSecret; Err carries the underlying client error when there is one.
type SecretError struct {
	Path   string
	Reason string
	Err    error
}

func (e *SecretError) Error() string {
	msg := "secret " + e.Path + ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *SecretError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrSecret, e.Err}
	}
	return []error{ErrSecret}
}
