package llm

// ChatRequest is the body POSTed to the chat endpoint.
type ChatRequest struct {
	// Conversation messages, oldest first. The last entry is the new
	// user message.
	Messages []Message `json:"messages"`

	// Model name (e.g. "qwen3-max")
	Model string `json:"model"`

	// Generation parameters
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`

	// Whether the server should answer with an event stream
	Stream bool `json:"stream"`
}

// WithStream returns a copy of the request with Stream set to stream.
// The Messages slice is shared with the original.
func (r ChatRequest) WithStream(stream bool) *ChatRequest {
	r.Stream = stream
	return &r
}
