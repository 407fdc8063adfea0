// Package llms provides LLM provider implementations behind a common
// tool-use interface. The conversation shapes in this file are the single
// source of truth; each provider translates them to and from its own wire
// format, so the agent loop is written once.
package llms

// Conversation roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message represents one turn in a conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`

	// ToolCalls is set on assistant messages that request tool use.
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`

	// ToolCallID pairs a tool-result message with the originating call.
	ToolCallID string `json:"tool_call_id,omitempty"`
}

// ToolDefinition describes a callable tool in the model-facing catalog.
type ToolDefinition struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters"` // JSON Schema
}

// ToolCall is a tool invocation requested by the model.
type ToolCall struct {
	ID        string                 `json:"id"`
	Name      string                 `json:"name"`
	Arguments map[string]interface{} `json:"arguments"`
	RawArgs   string                 `json:"raw_args,omitempty"`
}

// Usage reports token consumption for one model call.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// TotalTokens returns the combined token count.
func (u Usage) TotalTokens() int {
	return u.InputTokens + u.OutputTokens
}

// Termination signals in provider-neutral form.
const (
	StopEndTurn = "end_turn"
	StopToolUse = "tool_use"
)

// ModelTurn is the provider-neutral outcome of one model call: either a
// final text answer (StopEndTurn), a batch of tool calls (StopToolUse), or
// an unrecognized provider signal preserved verbatim in StopReason.
type ModelTurn struct {
	Text       string     `json:"text"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	StopReason string     `json:"stop_reason"`
	Usage      Usage      `json:"usage"`
}

// HasToolCalls reports whether the model requested tool use this turn.
func (t *ModelTurn) HasToolCalls() bool {
	return len(t.ToolCalls) > 0
}
