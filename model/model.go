package model

import (
	"context"
	"fmt"
	"sync"

	"github.com/hupe1980/agentgraph/core"
)

// Info contains metadata about a completion backend implementation.
type Info struct {
	Name     string `json:"name"`
	Provider string `json:"provider"` // "openai", "anthropic", "mock", etc.
}

// Completer is the minimal interface required to drive generation. The
// prompt is an ordered message list; the result is the raw completion text.
// Implementations must be safe for concurrent use: a single backend is
// typically shared across all sessions.
type Completer interface {
	Complete(ctx context.Context, msgs []core.Message) (string, error)

	// Info returns information about the backend implementation.
	Info() Info
}

// threadKey is the context key carrying the scheduling identity of a turn.
type threadKey struct{}

// WithThread tags a context with the conversation thread driving the
// completion. The fairness queue uses it to group pending requests; backends
// that do not schedule may ignore it.
func WithThread(ctx context.Context, threadID string) context.Context {
	return context.WithValue(ctx, threadKey{}, threadID)
}

// ThreadFromContext returns the thread tag set by WithThread, or "".
func ThreadFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(threadKey{}).(string); ok {
		return v
	}
	return ""
}

// MockCompleter is a deterministic in-memory Completer for tests and
// examples. Completions are served from a scripted FIFO first, then from a
// prompt-keyed map, then from a generic echo fallback.
type MockCompleter struct {
	mu        sync.Mutex
	info      Info
	script    []string
	responses map[string]string
	prompts   [][]core.Message
	err       error
}

// NewMockCompleter constructs an empty MockCompleter.
func NewMockCompleter() *MockCompleter {
	return &MockCompleter{
		info:      Info{Name: "mock", Provider: "mock"},
		responses: make(map[string]string),
	}
}

// Enqueue appends completions to the scripted FIFO, served one per call.
func (m *MockCompleter) Enqueue(completions ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, completions...)
}

// AddResponse registers a canned completion keyed by the content of the last
// prompt message.
func (m *MockCompleter) AddResponse(prompt, completion string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[prompt] = completion
}

// Fail makes every subsequent call return err, simulating an unreachable backend.
func (m *MockCompleter) Fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Prompts returns every prompt seen so far, in call order.
func (m *MockCompleter) Prompts() [][]core.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]core.Message, len(m.prompts))
	copy(out, m.prompts)
	return out
}

// Complete implements Completer.
func (m *MockCompleter) Complete(ctx context.Context, msgs []core.Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	prompt := make([]core.Message, len(msgs))
	copy(prompt, msgs)
	m.prompts = append(m.prompts, prompt)

	if m.err != nil {
		return "", m.err
	}
	if len(m.script) > 0 {
		next := m.script[0]
		m.script = m.script[1:]
		return next, nil
	}
	if len(msgs) > 0 {
		if resp, ok := m.responses[msgs[len(msgs)-1].Content]; ok {
			return resp, nil
		}
		return fmt.Sprintf("Mock response to: %s", msgs[len(msgs)-1].Content), nil
	}
	return "", fmt.Errorf("no prompt messages provided")
}

// Info implements Completer.
func (m *MockCompleter) Info() Info { return m.info }
