// Package agent provides the workflow's reasoning nodes: the Router, which
// answers directly or requests tool execution via the textual tool-call
// protocol, and the Summarizer, which condenses retrieved content against
// the original question. Both wrap a model.Completer with a templated
// instruction prefix.
package agent
