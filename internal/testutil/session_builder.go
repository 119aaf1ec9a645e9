package testutil

import (
	"github.com/hupe1980/agentgraph/core"
)

// SessionBuilder helps construct sessions with fluent chaining for tests.
// Example:
//
//	sess := NewSessionBuilder("thread-1").Human("hi").AI("hello").Build()
//
// Chain only the parts you need.
type SessionBuilder struct {
	threadID string
	messages []core.Message
}

// NewSessionBuilder creates a new builder for a session on the given thread.
func NewSessionBuilder(threadID string) *SessionBuilder {
	return &SessionBuilder{threadID: threadID}
}

// Human appends a human message (chainable).
func (b *SessionBuilder) Human(content string) *SessionBuilder {
	b.messages = append(b.messages, core.NewHumanMessage(content))
	return b
}

// AI appends a plain AI message (chainable).
func (b *SessionBuilder) AI(content string) *SessionBuilder {
	b.messages = append(b.messages, core.NewAIMessage(content))
	return b
}

// ToolCalls appends an AI message carrying the given tool calls (chainable).
func (b *SessionBuilder) ToolCalls(calls ...core.ToolCall) *SessionBuilder {
	b.messages = append(b.messages, core.NewToolCallMessage(calls))
	return b
}

// ToolResult appends a tool message (chainable).
func (b *SessionBuilder) ToolResult(callID, toolName, content string) *SessionBuilder {
	b.messages = append(b.messages, core.NewToolMessage(callID, toolName, content))
	return b
}

// Message appends an arbitrary prebuilt message (chainable).
func (b *SessionBuilder) Message(msg core.Message) *SessionBuilder {
	b.messages = append(b.messages, msg)
	return b
}

// Build materializes the session.
func (b *SessionBuilder) Build() *core.Session {
	sess := core.NewSession(b.threadID)
	sess.Append(b.messages...)
	return sess
}

// Call is a shorthand constructor for a tool call with a fresh id.
func Call(name string, args map[string]any) core.ToolCall {
	return core.ToolCall{ID: core.NewID(), Name: name, Arguments: args}
}
