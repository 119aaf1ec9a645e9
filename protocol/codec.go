package protocol

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hupe1980/agentgraph/core"
)

// Markers delimiting a tool-call block in model output.
const (
	BeginMarker = "<tool_call>"
	EndMarker   = "</tool_call>"
)

// Error codes raised by Decode.
const (
	// CodeMalformedPayload indicates the fenced block is not valid JSON.
	CodeMalformedPayload = "malformed_payload"
	// CodeUnexpectedShape indicates valid JSON of a shape other than an
	// object or an array of objects.
	CodeUnexpectedShape = "unexpected_shape"
	// CodeMissingField indicates a call element without a string name or an
	// arguments object.
	CodeMissingField = "missing_field"
)

// Error describes why model output could not be parsed as a tool-call block.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("protocol error [%s]: %s", e.Code, e.Message)
}

// NewError creates a protocol error with the given code.
func NewError(code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Outcome is the result of decoding a model completion: either a direct
// answer (Calls empty, Answer holds the visible text) or an ordered list of
// tool calls (Answer empty).
type Outcome struct {
	Answer string
	Calls  []core.ToolCall
}

// IsDirectAnswer reports whether the completion carried no tool calls.
func (o Outcome) IsDirectAnswer() bool { return len(o.Calls) == 0 }

// rawCall mirrors one element of the JSON payload.
type rawCall struct {
	Name      json.RawMessage `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// Decode parses a raw model completion. The reasoning preamble is stripped
// unconditionally before the marker check. Text that does not begin with the
// begin-marker after trimming is returned verbatim as a direct answer.
//
// Call order in the result matches the source array; execution order depends
// on it. A fresh unique ID is generated for every call.
func Decode(text string) (Outcome, error) {
	visible := strings.TrimSpace(StripReasoning(text))
	if !strings.HasPrefix(visible, BeginMarker) {
		return Outcome{Answer: visible}, nil
	}

	payload := strings.TrimPrefix(visible, BeginMarker)
	if idx := strings.LastIndex(payload, EndMarker); idx >= 0 {
		payload = payload[:idx]
	}
	payload = strings.TrimSpace(payload)

	elements, err := splitPayload(payload)
	if err != nil {
		return Outcome{}, err
	}

	calls := make([]core.ToolCall, 0, len(elements))
	for _, el := range elements {
		call, err := parseCall(el)
		if err != nil {
			return Outcome{}, err
		}
		calls = append(calls, call)
	}

	return Outcome{Calls: calls}, nil
}

// splitPayload normalizes the JSON payload into a list of raw elements. A
// single object becomes a one-element list; an array is used as-is.
func splitPayload(payload string) ([]json.RawMessage, error) {
	var probe any
	if err := json.Unmarshal([]byte(payload), &probe); err != nil {
		return nil, NewError(CodeMalformedPayload, fmt.Sprintf("tool-call payload is not valid JSON: %v", err))
	}

	switch probe.(type) {
	case map[string]any:
		return []json.RawMessage{json.RawMessage(payload)}, nil
	case []any:
		var elements []json.RawMessage
		if err := json.Unmarshal([]byte(payload), &elements); err != nil {
			return nil, NewError(CodeMalformedPayload, fmt.Sprintf("tool-call array could not be split: %v", err))
		}
		return elements, nil
	default:
		return nil, NewError(CodeUnexpectedShape, fmt.Sprintf("tool-call payload must be an object or array, got %T", probe))
	}
}

// parseCall validates one payload element and assigns a fresh call ID.
func parseCall(el json.RawMessage) (core.ToolCall, error) {
	var rc rawCall
	if err := json.Unmarshal(el, &rc); err != nil {
		return core.ToolCall{}, NewError(CodeUnexpectedShape, fmt.Sprintf("tool-call element must be an object: %v", err))
	}

	var name string
	if rc.Name == nil || json.Unmarshal(rc.Name, &name) != nil || name == "" {
		return core.ToolCall{}, NewError(CodeMissingField, "tool-call element requires a string 'name'")
	}

	var args map[string]any
	if rc.Arguments == nil || json.Unmarshal(rc.Arguments, &args) != nil {
		return core.ToolCall{}, NewError(CodeMissingField, fmt.Sprintf("tool-call %q requires an 'arguments' object", name))
	}
	if args == nil {
		args = map[string]any{}
	}

	return core.ToolCall{ID: core.NewID(), Name: name, Arguments: args}, nil
}

// ToolResult captures the outcome of one tool invocation with preserved call
// identity. Err is non-nil for unknown tools and execution failures.
type ToolResult struct {
	CallID   string
	ToolName string
	Content  string
	Err      error
}

// Encode converts tool results into tool messages, one per result in input
// order. Failures become message content, never errors: the conversation log
// must always advance past a tool batch.
func Encode(results []ToolResult) []core.Message {
	msgs := make([]core.Message, 0, len(results))
	for _, r := range results {
		content := r.Content
		if r.Err != nil {
			content = fmt.Sprintf("Error: %s", r.Err.Error())
		}
		msgs = append(msgs, core.NewToolMessage(r.CallID, r.ToolName, content))
	}
	return msgs
}
