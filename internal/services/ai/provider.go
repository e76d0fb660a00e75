package ai

import (
	"context"
	"encoding/json"
)

// ChatMessage represents a message in a chat conversation
type ChatMessage struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// ToolDefinition declares a callable read-only query to the model
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// ToolDispatcher executes a model-requested tool call and returns a JSON
// payload. Implementations must never return an error; failures are encoded
// as structured error objects so a failed tool call cannot abort the turn.
type ToolDispatcher func(ctx context.Context, name string, args json.RawMessage) string

// ChatResponse represents the final response from one model exchange
type ChatResponse struct {
	Message    string `json:"message"`
	ToolCalled string `json:"tool_called,omitempty"` // name of the dispatched tool, if any
}

// Provider is the interface for language-model providers. Chat sends the
// message sequence and tool declarations; when the model requests a tool call
// the provider dispatches it (at most one round) and returns the model's
// follow-up text as the final answer.
type Provider interface {
	Chat(ctx context.Context, messages []ChatMessage, tools []ToolDefinition, dispatch ToolDispatcher) (*ChatResponse, error)
}
