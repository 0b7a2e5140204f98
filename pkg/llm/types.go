package llm

// MessageRole identifies the author of a conversation message.
type MessageRole string

const (
	RoleSystem    MessageRole = "system"
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// Message is a single conversation message sent to or received from an
// LLM provider.
type Message struct {
	Role    MessageRole `json:"role"`
	Content string      `json:"content"`
}

// NewSystemMessage creates a system-role message.
func NewSystemMessage(content string) *Message {
	return &Message{Role: RoleSystem, Content: content}
}

// NewUserMessage creates a user-role message.
func NewUserMessage(content string) *Message {
	return &Message{Role: RoleUser, Content: content}
}

// StreamChunk is one increment of a streamed completion.
type StreamChunk struct {
	// Role is set on the first chunk of a response (e.g., "assistant").
	Role string

	// Content is the text delta carried by this chunk.
	Content string

	// Finished marks the final chunk of a completed stream.
	Finished bool

	// Error is set when the stream failed mid-flight.
	Error error
}

// IsError reports whether this chunk carries a stream error.
func (c *StreamChunk) IsError() bool {
	return c.Error != nil
}
