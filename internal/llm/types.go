package llm

import "encoding/json"

// Role of a chat message participant.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of the completion request sequence.
type Message struct {
	Role    Role
	Content string
}

// ToolSchema describes a callable action exposed to the completion engine,
// with Parameters holding a JSON Schema document.
type ToolSchema struct {
	Name        string
	Description string
	Parameters  json.RawMessage
}

// ToolCall is a structured function call issued by the engine.
type ToolCall struct {
	ID        string
	Name      string
	Arguments json.RawMessage
}

// Reply is the engine's answer: plain text, or a structured tool call with
// optional accompanying text. ToolCall == nil means a plain text reply;
// callers must handle both variants.
type Reply struct {
	Text     string
	ToolCall *ToolCall
}

// Request carries one completion call.
type Request struct {
	Model       string
	Temperature float32
	Messages    []Message
	Tools       []ToolSchema
}

// CompletionError reports an upstream completion failure or timeout.
type CompletionError struct {
	Err error
}

func (e *CompletionError) Error() string { return "llm: completion failed: " + e.Err.Error() }
func (e *CompletionError) Unwrap() error { return e.Err }
