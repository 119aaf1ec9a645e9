// Package core provides the foundational domain types used throughout
// agentgraph. It defines:
//
//   - Messages (the typed, role-tagged entries of a conversation log)
//   - ToolCalls (structured tool invocation requests carried by AI messages)
//   - Sessions (append-only, thread-scoped conversation logs)
//
// The package intentionally keeps implementation concerns (persistence,
// workflow orchestration, concrete agents) out of scope so that higher
// layers can depend on small, stable domain contracts.
package core
