package graph

import "github.com/hupe1980/agentgraph/core"

// Route is the routing decision taken after the router node.
type Route string

const (
	// RouteTools continues the turn into the tool execution node.
	RouteTools Route = "tools"
	// RouteEnd terminates the turn.
	RouteEnd Route = "end"
)

// RouteAfterRouter decides the next node from the most recent log entry and
// nothing else. It is a pure function with no memory across calls so the
// engine can re-evaluate it safely after a checkpoint reload.
func RouteAfterRouter(last core.Message) Route {
	if last.HasToolCalls() {
		return RouteTools
	}
	return RouteEnd
}
