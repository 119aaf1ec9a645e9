package core

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies the author category of a Message. The set is closed;
// downstream code is expected to switch exhaustively over these values
// instead of sniffing message shapes at runtime.
type Role string

const (
	// RoleSystem marks instruction messages injected by the application.
	RoleSystem Role = "system"
	// RoleHuman marks user-authored input.
	RoleHuman Role = "human"
	// RoleAI marks model-authored output, optionally carrying tool calls.
	RoleAI Role = "ai"
	// RoleTool marks a tool execution result paired to a prior tool call.
	RoleTool Role = "tool"
)

// ToolCall is a structured tool invocation request recovered from model
// output. It is ephemeral: produced by the protocol codec, consumed exactly
// once by the tool execution node. The ID is generated locally (the model
// never supplies one) and is unique within the session's lifetime so the
// eventual tool result can be correlated back to its originating call.
type ToolCall struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// Message is one entry of a conversation log.
//
// Field usage by role:
//   - ToolCalls is populated only on RoleAI messages
//   - CallID / ToolName are populated only on RoleTool messages and must
//     reference a ToolCall emitted by the most recent preceding AI message
//     that carried tool calls
//
// Messages are immutable after being appended to a Session.
type Message struct {
	ID        string     `json:"id"`
	Role      Role       `json:"role"`
	Content   string     `json:"content"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
	CallID    string     `json:"call_id,omitempty"`
	ToolName  string     `json:"tool_name,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

// NewID generates a new unique identifier for messages and tool calls.
func NewID() string { return uuid.NewString() }

func newMessage(role Role, content string) Message {
	return Message{
		ID:        NewID(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UTC(),
	}
}

// NewSystemMessage creates an instruction message.
func NewSystemMessage(content string) Message { return newMessage(RoleSystem, content) }

// NewHumanMessage creates a user-authored message.
func NewHumanMessage(content string) Message { return newMessage(RoleHuman, content) }

// NewAIMessage creates a model-authored text message without tool calls.
func NewAIMessage(content string) Message { return newMessage(RoleAI, content) }

// NewToolCallMessage creates a model-authored message carrying tool calls
// and empty content. Call order is preserved; execution order depends on it.
func NewToolCallMessage(calls []ToolCall) Message {
	m := newMessage(RoleAI, "")
	m.ToolCalls = calls
	return m
}

// NewToolMessage creates a tool result message referencing the originating
// call by ID.
func NewToolMessage(callID, toolName, content string) Message {
	m := newMessage(RoleTool, content)
	m.CallID = callID
	m.ToolName = toolName
	return m
}

// HasToolCalls reports whether the message is an AI message requesting tool
// execution. The routing function branches solely on this predicate.
func (m Message) HasToolCalls() bool {
	return m.Role == RoleAI && len(m.ToolCalls) > 0
}
