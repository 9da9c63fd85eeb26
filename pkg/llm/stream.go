package llm

// StreamPayload is the JSON carried by a single "data:" line of a streaming
// chat response.
type StreamPayload struct {
	// Content is the text fragment of this event. A nil pointer means the
	// payload carried no content field at all.
	Content *string `json:"content,omitempty"`

	// Finished marks the last payload of the stream.
	Finished bool `json:"finished,omitempty"`

	// Error is set when the server failed mid-stream. Such payloads are
	// always also marked finished.
	Error string `json:"error,omitempty"`

	// Model that generated the chunk
	Model string `json:"model,omitempty"`

	// Timestamp as emitted by the server (naive ISO-8601).
	Timestamp string `json:"timestamp,omitempty"`
}
