package graph

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/hupe1980/agentgraph/core"
	"github.com/hupe1980/agentgraph/logging"
	"github.com/hupe1980/agentgraph/protocol"
	"github.com/hupe1980/agentgraph/tool"
)

// toolNode executes a batch of tool calls against the registry, possibly in
// parallel, and converts the outcomes into tool messages.
//
// Guarantees:
//   - Exactly one result message per incoming call
//   - Result messages ordered like the calls regardless of completion order
//   - Unknown tools and tool failures become result content, never errors;
//     one bad call must not abort its siblings
//   - Panics inside a tool are recovered and reported as failures
type toolNode struct {
	registry    *tool.Registry
	maxParallel int
	logger      logging.Logger
}

func newToolNode(registry *tool.Registry, maxParallel int, logger logging.Logger) *toolNode {
	if maxParallel < 1 {
		maxParallel = 1
	}
	return &toolNode{registry: registry, maxParallel: maxParallel, logger: logger}
}

// run executes the calls and returns the ordered result messages. The calls
// are taken from the session's last message by the engine; the routing
// function has already established that precondition.
func (n *toolNode) run(ctx context.Context, calls []core.ToolCall) []core.Message {
	results := make([]protocol.ToolResult, len(calls))

	if len(calls) == 1 {
		results[0] = n.execute(ctx, calls[0])
		return protocol.Encode(results)
	}

	var wg sync.WaitGroup
	sem := make(chan struct{}, n.maxParallel)
	for i := range calls {
		wg.Add(1)
		sem <- struct{}{}
		go func(idx int, call core.ToolCall) {
			defer wg.Done()
			defer func() { <-sem }()
			results[idx] = n.execute(ctx, call)
		}(i, calls[i])
	}
	wg.Wait()

	return protocol.Encode(results)
}

// execute runs a single call with panic safety.
func (n *toolNode) execute(ctx context.Context, call core.ToolCall) protocol.ToolResult {
	res := protocol.ToolResult{CallID: call.ID, ToolName: call.Name}

	impl, ok := n.registry.Lookup(call.Name)
	if !ok {
		n.logger.Warn("graph.tool.unknown", "tool", call.Name, "call_id", call.ID)
		res.Err = fmt.Errorf("tool %q is not available", call.Name)
		return res
	}

	start := time.Now()
	func() {
		defer func() {
			if r := recover(); r != nil {
				n.logger.Error("graph.tool.panic", "tool", call.Name, "recover", r, "stack", string(debug.Stack()))
				res.Err = fmt.Errorf("tool %q panicked: %v", call.Name, r)
			}
		}()
		res.Content, res.Err = impl.Call(ctx, call.Arguments)
	}()

	n.logger.Info(
		"graph.tool.executed",
		"tool", call.Name,
		"call_id", call.ID,
		"duration_ms", time.Since(start).Milliseconds(),
		"error", res.Err != nil,
	)

	return res
}
