package contract

import "encoding/json"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Image is an inline attachment sent with a user message (meal or gym photos).
type Image struct {
	MIMEType string `json:"mime_type"`
	Data     []byte `json:"data"`
}

type Message struct {
	Role       string      `json:"role"`
	Content    string      `json:"content"`
	Name       string      `json:"name,omitempty"`
	ToolCallID string      `json:"tool_call_id,omitempty"`
	ToolCalls  []*ToolCall `json:"tool_calls,omitempty"`
	Image      *Image      `json:"image,omitempty"`
}

type CompletionRequest struct {
	Model    string    `json:"model"`
	System   string    `json:"system,omitempty"`
	Messages []Message `json:"messages"`
	Tools    []ToolDef `json:"tools,omitempty"`
}

type ToolDef struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters,omitempty"`
}

type CompletionResponse struct {
	Content   string      `json:"content"`
	ToolCalls []*ToolCall `json:"tool_calls,omitempty"`
}

type ToolCall struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name"`
	Input string `json:"input"`
}

// ToolResult is what a tool call produced; it is fed back to the model verbatim.
type ToolResult struct {
	CallID string          `json:"call_id,omitempty"`
	Name   string          `json:"name"`
	Result json.RawMessage `json:"result"`
}

// Message renders the result as a tool-role message answering its call.
func (r ToolResult) Message() Message {
	return Message{
		Role:       RoleTool,
		Name:       r.Name,
		ToolCallID: r.CallID,
		Content:    string(r.Result),
	}
}
