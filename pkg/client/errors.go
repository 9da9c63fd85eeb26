package client

import (
	"errors"
	"fmt"
)

// ErrStreamUnsupported is returned when a streaming request is answered
// with something that cannot be read incrementally, e.g. a complete JSON
// document or no body at all.
var ErrStreamUnsupported = errors.New("server response is not an event stream")

// ErrNotLoggedIn is returned when a call that needs a bearer token is made
// without one.
var ErrNotLoggedIn = errors.New("not logged in")

// TransportError is a failure to get a usable response from the server:
// either the request never completed (Err is set) or the server answered
// with a non-2xx status (StatusCode is set).
type TransportError struct {
	Method     string
	Path       string
	StatusCode int

	// Detail is the server's error message, taken from the FastAPI-style
	// {"detail": ...} body when present, otherwise the raw body.
	Detail string

	Err error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
	}

	if e.Detail != "" {
		return fmt.Sprintf("%s %s: server returned status %d: %s", e.Method, e.Path, e.StatusCode, e.Detail)
	}

	return fmt.Sprintf("%s %s: server returned status %d", e.Method, e.Path, e.StatusCode)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsUnauthorized reports whether err is a 401 from the server, meaning the
// stored token is missing, expired or revoked.
func IsUnauthorized(err error) bool {
	var te *TransportError
	return errors.As(err, &te) && te.StatusCode == 401
}
