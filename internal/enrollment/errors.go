package enrollment

import (
	"errors"
	"fmt"
)

var (
	ErrAuthConfig = errors.New("invalid enrollment authentication configuration")
	ErrTransport  = errors.New("enrollment server unreachable")
	ErrDenied     = errors.New("certificate request denied")
	ErrPending    = errors.New("certificate request pending approval")
	ErrRetrieval  = errors.New("certificate could not be retrieved")
)

const snippetLength = 256

// TransportError covers connection failures, timeouts and non-2xx responses.
type TransportError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("enrollment %s: unexpected status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("enrollment %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrTransport, e.Err}
	}
	return []error{ErrTransport}
}

// RetrievalError is returned when a response arrived but did not carry what was asked
// for, usually an HTML error page served with status 200.
type RetrievalError struct {
	Reason      string
	StatusCode  int
	ContentType string
	Body        string
}

func (e *RetrievalError) Error() string {
	msg := fmt.Sprintf("%s (status %d, content type %q)", e.Reason, e.StatusCode, e.ContentType)
	if s := e.Snippet(); s != "" {
		msg += ": " + s
	}
	return msg
}

func (e *RetrievalError) Unwrap() error {
	return ErrRetrieval
}

// Snippet returns the start of the response body for diagnostics.
func (e *RetrievalError) Snippet() string {
	return snippet(e.Body)
}

func snippet(body string) string {
	if len(body) <= snippetLength {
		return body
	}
	return body[:snippetLength] + "..."
}
