package llm

// ChatResponse is the non-streaming reply of the chat endpoint.
type ChatResponse struct {
	// The assistant's response message
	Message Message `json:"message"`

	// Model that generated the response
	Model string `json:"model"`

	// Token usage as reported by the upstream provider, passed through
	// untyped by the server.
	Usage map[string]any `json:"usage,omitempty"`
}

// ModelList is the reply of the models endpoint.
type ModelList struct {
	Models       []string `json:"models"`
	DefaultModel string   `json:"default_model"`

	// Note is set when the server could not reach its provider and fell
	// back to the default model.
	Note string `json:"note,omitempty"`
}

// ErrorResponse is the body the server returns with non-2xx statuses.
type ErrorResponse struct {
	Detail string `json:"detail"`
}
