// Package sse provides a minimal, purpose-built incremental decoder for the
// chat server's event stream. Raw response chunks flow through a Decoder
// (bytes to text), a Framer (text to complete lines) and Parse (line to
// Event). Each stage keeps only the state it needs to survive arbitrary
// chunk boundaries, so they can be driven one network read at a time.
//
// This package intentionally does NOT provide SSE writer or server
// capabilities.
//
// Event stream format:
// https://html.spec.whatwg.org/multipage/server-sent-events.html
package sse

// Kind discriminates the variants of Event.
type Kind int

const (
	// KindDelta carries a fragment of assistant text in Event.Text.
	KindDelta Kind = iota + 1

	// KindFinished ends the stream. Event.ServerError is set when the
	// server ended it because of a failure.
	KindFinished

	// KindMalformed is a data line whose payload could not be parsed.
	// Event.Raw holds the payload and Event.Err the parse error.
	KindMalformed
)

func (k Kind) String() string {
	switch k {
	case KindDelta:
		return "delta"
	case KindFinished:
		return "finished"
	case KindMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// Event represents a single parsed stream event, produced from one complete
// "data:" line.
type Event struct {
	Kind Kind

	// Text is the content fragment of a KindDelta event.
	Text string

	// Final is set on a KindDelta event whose payload was also marked
	// finished. The delta must be applied before the stream ends.
	Final bool

	// Raw is the untouched payload of a KindMalformed event.
	Raw string

	// Err is the parse error of a KindMalformed event.
	Err error

	// Model is the model name reported in the payload, if any.
	Model string

	// ServerError is the failure reported by the server in a KindFinished
	// event.
	ServerError string
}
