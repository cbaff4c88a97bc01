// Package llm defines the chat-completion client abstraction.
// All types here are shared between the Completer interface and adapters.
package llm

// Role values accepted by chat-completion APIs.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message represents a single turn in a conversation (role + content).
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the input for a non-streaming chat completion.
type ChatRequest struct {
	// Model overrides the provider default when non-empty.
	Model       string
	Messages    []Message
	Temperature float64
	MaxTokens   int
}

// Completion is the raw upstream reply. Any HTTP response, whatever its
// status, is a Completion; interpreting it is the caller's job.
type Completion struct {
	StatusCode int
	Body       []byte
}

// OK reports whether the upstream answered 200.
func (c *Completion) OK() bool { return c.StatusCode == 200 }

// ModelMeta describes the model / provider identity.
type ModelMeta struct {
	ID        string  // e.g. "gpt-4o", "llama3.2:3b"
	Provider  string  // e.g. "openai", "ollama"
	MaxTokens int     // configured output token budget
	Temp      float64 // configured sampling temperature
}
