package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentgraph/core"
	"github.com/hupe1980/agentgraph/internal/testutil"
	"github.com/hupe1980/agentgraph/model"
	"github.com/hupe1980/agentgraph/protocol"
	"github.com/hupe1980/agentgraph/tool"
)

func searchRegistry() *tool.Registry {
	search := tool.NewFunctionTool("web_search", "Search the web",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{"type": "string"},
			},
			"required": []string{"query"},
		},
		func(ctx context.Context, args map[string]any) (string, error) {
			return "results", nil
		})
	return tool.NewRegistry(search)
}

func TestRouter_DirectAnswer(t *testing.T) {
	mock := model.NewMockCompleter()
	mock.Enqueue("Paris is the capital of France.")

	router := NewRouter(mock, searchRegistry())
	sess := testutil.NewSessionBuilder("t1").Human("What is the capital of France?").Build()

	msg, err := router.Run(context.Background(), sess)
	require.NoError(t, err)
	assert.Equal(t, core.RoleAI, msg.Role)
	assert.Equal(t, "Paris is the capital of France.", msg.Content)
	assert.False(t, msg.HasToolCalls())
}

func TestRouter_ToolCalls(t *testing.T) {
	mock := model.NewMockCompleter()
	mock.Enqueue(`<tool_call>[{"name": "web_search", "arguments": {"query": "latest go release"}}]</tool_call>`)

	router := NewRouter(mock, searchRegistry())
	sess := testutil.NewSessionBuilder("t1").Human("What is the latest Go release?").Build()

	msg, err := router.Run(context.Background(), sess)
	require.NoError(t, err)
	require.True(t, msg.HasToolCalls())
	assert.Equal(t, "web_search", msg.ToolCalls[0].Name)
	assert.Equal(t, "latest go release", msg.ToolCalls[0].Arguments["query"])
}

func TestRouter_StripsReasoningPreamble(t *testing.T) {
	mock := model.NewMockCompleter()
	mock.Enqueue("<think>the user wants facts</think>Go 1.24 is the latest release.")

	router := NewRouter(mock, searchRegistry())
	sess := testutil.NewSessionBuilder("t1").Human("latest go?").Build()

	msg, err := router.Run(context.Background(), sess)
	require.NoError(t, err)
	assert.Equal(t, "Go 1.24 is the latest release.", msg.Content)
}

func TestRouter_ProtocolErrorPropagates(t *testing.T) {
	mock := model.NewMockCompleter()
	mock.Enqueue(`<tool_call>{not json}</tool_call>`)

	router := NewRouter(mock, searchRegistry())
	sess := testutil.NewSessionBuilder("t1").Human("hi").Build()

	_, err := router.Run(context.Background(), sess)
	var perr *protocol.Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, protocol.CodeMalformedPayload, perr.Code)
}

func TestRouter_BackendErrorWrapped(t *testing.T) {
	mock := model.NewMockCompleter()
	mock.Fail(errors.New("connection refused"))

	router := NewRouter(mock, searchRegistry())
	sess := testutil.NewSessionBuilder("t1").Human("hi").Build()

	_, err := router.Run(context.Background(), sess)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "router completion failed")
}

func TestRouter_InstructionContainsToolSpecs(t *testing.T) {
	mock := model.NewMockCompleter()
	mock.Enqueue("ok")

	router := NewRouter(mock, searchRegistry())
	sess := testutil.NewSessionBuilder("t1").Human("hi").Build()

	_, err := router.Run(context.Background(), sess)
	require.NoError(t, err)

	prompts := mock.Prompts()
	require.Len(t, prompts, 1)
	system := prompts[0][0]
	assert.Equal(t, core.RoleSystem, system.Role)
	assert.Contains(t, system.Content, `"function_name":"web_search"`)
	assert.Contains(t, system.Content, "/no_think")
}

func TestRouter_ThinkingModeSkipsSuffix(t *testing.T) {
	mock := model.NewMockCompleter()
	mock.Enqueue("ok")

	router := NewRouter(mock, searchRegistry(), func(o *RouterOptions) {
		o.Thinking = true
	})
	sess := testutil.NewSessionBuilder("t1").Human("hi").Build()

	_, err := router.Run(context.Background(), sess)
	require.NoError(t, err)

	system := mock.Prompts()[0][0]
	assert.NotContains(t, system.Content, "/no_think")
}

func TestRouter_PromptExcludesToolTraffic(t *testing.T) {
	mock := model.NewMockCompleter()
	mock.Enqueue("ok")

	router := NewRouter(mock, searchRegistry())
	sess := testutil.NewSessionBuilder("t1").
		Human("first").
		AI("answer").
		ToolCalls(testutil.Call("web_search", map[string]any{"query": "x"})).
		ToolResult("1", "web_search", "raw results").
		Human("second").
		Build()

	_, err := router.Run(context.Background(), sess)
	require.NoError(t, err)

	prompt := mock.Prompts()[0]
	for _, msg := range prompt {
		assert.NotEqual(t, core.RoleTool, msg.Role)
	}
	// System + human/ai context only; the tool-call AI message carries empty
	// content and stays in the prompt as part of the ai subsequence.
	assert.Equal(t, core.RoleHuman, prompt[len(prompt)-1].Role)
	assert.Equal(t, "second", prompt[len(prompt)-1].Content)
}

func TestRouter_DynamicInstruction(t *testing.T) {
	mock := model.NewMockCompleter()
	mock.Enqueue("ok")

	router := NewRouter(mock, searchRegistry(), func(o *RouterOptions) {
		o.Instruction = NewInstructionFromFunc(func(s *core.Session) (string, error) {
			return "Custom instruction with {{.tools}}", nil
		})
	})
	sess := testutil.NewSessionBuilder("t1").Human("hi").Build()

	_, err := router.Run(context.Background(), sess)
	require.NoError(t, err)
	assert.Contains(t, mock.Prompts()[0][0].Content, "Custom instruction with [")
}
