// Package graph implements the workflow engine: a small directed-graph state
// machine that sequences agent invocations and tool executions over a
// checkpointed session.
//
// A turn starts when a human message is appended and walks
//
//	router -> (tool calls?) tools -> summarizer -> done
//	       -> (direct answer)                   -> done
//
// with one Step event emitted per executed node and the session checkpointed
// in atomic units (a tool-call message is persisted together with its tool
// results). Turns on the same thread are serialized; turns on different
// threads run independently.
package graph
