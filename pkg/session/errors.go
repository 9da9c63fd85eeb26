package session

import (
	"errors"
	"fmt"
)

// ErrSessionUsed is returned by Run on a Session that already ran. A new
// Session is created per request.
var ErrSessionUsed = errors.New("session already started")

// ErrCancelled is the cancellation cause set by Session.Cancel.
var ErrCancelled = errors.New("stream cancelled")

// ServerError is a failure the server reported inside the stream itself
// (an "error" field in a payload) rather than through the HTTP status.
type ServerError struct {
	Message string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error: %s", e.Message)
}
