package csr

import (
	"errors"
)

var ErrFormat = errors.New("malformed certificate request")

// ParseError reports why a request could not be decoded. It always matches ErrFormat.
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return "failed to parse CSR: " + e.Reason + ": " + e.Err.Error()
	}
	return "failed to parse CSR: " + e.Reason
}

func (e *ParseError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrFormat, e.Err}
	}
	return []error{ErrFormat}
}
