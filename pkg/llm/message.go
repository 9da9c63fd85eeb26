// Package llm holds the wire types exchanged with the chat server: chat
// requests and responses, streaming payloads, login tokens and model lists.
package llm

// Role is the author of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message represents a single message in a conversation as the chat server
// sends and receives it.
type Message struct {
	Role    Role   `json:"role" yaml:"role"`
	Content string `json:"content" yaml:"content"`

	// Timestamp is set by the server on history entries. The server emits
	// naive ISO-8601 datetimes (no zone), so it is kept as a string.
	Timestamp string `json:"timestamp,omitempty" yaml:"timestamp,omitempty"`
}

// NewTextMessage creates a message with the given role and content.
func NewTextMessage(role Role, text string) Message {
	return Message{
		Role:    role,
		Content: text,
	}
}
