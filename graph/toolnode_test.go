package graph

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentgraph/core"
	"github.com/hupe1980/agentgraph/logging"
	"github.com/hupe1980/agentgraph/tool"
)

func anySchema() map[string]any {
	return map[string]any{"type": "object", "properties": map[string]any{}}
}

func TestToolNode_SingleCall(t *testing.T) {
	echo := tool.NewFunctionTool("echo", "echo", anySchema(),
		func(ctx context.Context, args map[string]any) (string, error) {
			return "echoed", nil
		})
	node := newToolNode(tool.NewRegistry(echo), 4, logging.NoOpLogger{})

	msgs := node.run(context.Background(), []core.ToolCall{
		{ID: "c1", Name: "echo", Arguments: map[string]any{}},
	})

	require.Len(t, msgs, 1)
	assert.Equal(t, core.RoleTool, msgs[0].Role)
	assert.Equal(t, "c1", msgs[0].CallID)
	assert.Equal(t, "echoed", msgs[0].Content)
}

func TestToolNode_ResultOrderMatchesCallOrder(t *testing.T) {
	// Earlier calls finish later; result order must still match call order.
	slow := tool.NewFunctionTool("slow", "slow", anySchema(),
		func(ctx context.Context, args map[string]any) (string, error) {
			time.Sleep(50 * time.Millisecond)
			return "slow done", nil
		})
	fast := tool.NewFunctionTool("fast", "fast", anySchema(),
		func(ctx context.Context, args map[string]any) (string, error) {
			return "fast done", nil
		})
	node := newToolNode(tool.NewRegistry(slow, fast), 4, logging.NoOpLogger{})

	msgs := node.run(context.Background(), []core.ToolCall{
		{ID: "c1", Name: "slow", Arguments: map[string]any{}},
		{ID: "c2", Name: "fast", Arguments: map[string]any{}},
		{ID: "c3", Name: "slow", Arguments: map[string]any{}},
	})

	require.Len(t, msgs, 3)
	assert.Equal(t, "c1", msgs[0].CallID)
	assert.Equal(t, "c2", msgs[1].CallID)
	assert.Equal(t, "c3", msgs[2].CallID)
	assert.Equal(t, "slow done", msgs[0].Content)
	assert.Equal(t, "fast done", msgs[1].Content)
}

func TestToolNode_UnknownTool(t *testing.T) {
	node := newToolNode(tool.NewRegistry(), 4, logging.NoOpLogger{})

	msgs := node.run(context.Background(), []core.ToolCall{
		{ID: "c1", Name: "nonexistent", Arguments: map[string]any{}},
	})

	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].Content, `tool "nonexistent" is not available`)
	assert.Contains(t, msgs[0].Content, "Error:")
}

func TestToolNode_FailureDoesNotAbortSiblings(t *testing.T) {
	ok := tool.NewFunctionTool("ok", "ok", anySchema(),
		func(ctx context.Context, args map[string]any) (string, error) {
			return "fine", nil
		})
	bad := tool.NewFunctionTool("bad", "bad", anySchema(),
		func(ctx context.Context, args map[string]any) (string, error) {
			return "", errors.New("exploded")
		})
	node := newToolNode(tool.NewRegistry(ok, bad), 4, logging.NoOpLogger{})

	msgs := node.run(context.Background(), []core.ToolCall{
		{ID: "c1", Name: "bad", Arguments: map[string]any{}},
		{ID: "c2", Name: "ok", Arguments: map[string]any{}},
	})

	require.Len(t, msgs, 2)
	assert.Contains(t, msgs[0].Content, "exploded")
	assert.Equal(t, "fine", msgs[1].Content)
}

func TestToolNode_PanicRecovered(t *testing.T) {
	panicky := tool.NewFunctionTool("panicky", "panics", anySchema(),
		func(ctx context.Context, args map[string]any) (string, error) {
			panic("boom")
		})
	node := newToolNode(tool.NewRegistry(panicky), 4, logging.NoOpLogger{})

	msgs := node.run(context.Background(), []core.ToolCall{
		{ID: "c1", Name: "panicky", Arguments: map[string]any{}},
		{ID: "c2", Name: "panicky", Arguments: map[string]any{}},
	})

	require.Len(t, msgs, 2)
	for _, msg := range msgs {
		assert.Contains(t, msg.Content, "panicked")
	}
}

func TestToolNode_ParallelismBounded(t *testing.T) {
	var mu chan struct{}
	mu = make(chan struct{}, 2) // failing send means bound exceeded

	counting := tool.NewFunctionTool("counting", "counts", anySchema(),
		func(ctx context.Context, args map[string]any) (string, error) {
			select {
			case mu <- struct{}{}:
			default:
				return "", fmt.Errorf("parallelism bound exceeded")
			}
			time.Sleep(20 * time.Millisecond)
			<-mu
			return "ok", nil
		})
	node := newToolNode(tool.NewRegistry(counting), 2, logging.NoOpLogger{})

	calls := make([]core.ToolCall, 6)
	for i := range calls {
		calls[i] = core.ToolCall{ID: fmt.Sprintf("c%d", i), Name: "counting", Arguments: map[string]any{}}
	}

	msgs := node.run(context.Background(), calls)
	require.Len(t, msgs, 6)
	for _, msg := range msgs {
		assert.Equal(t, "ok", msg.Content)
	}
}
