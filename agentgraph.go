// Package agentgraph provides a high-level façade over the workflow graph
// and its supporting services (router, summarizer, tools, checkpointing and
// logging). Most applications interact with this package by:
//  1. Creating an AgentGraph via New() with a completion backend
//  2. Registering tools the router may dispatch to
//  3. Running turns asynchronously (Turn) or synchronously (TurnSync)
//
// The façade delegates orchestration to graph.Graph while keeping setup and
// usage ergonomics concise. All defaults are safe for local development and
// testing; production deployments typically supply a Redis-backed session
// store and a structured logger.
package agentgraph

import (
	"context"

	"github.com/hupe1980/agentgraph/agent"
	"github.com/hupe1980/agentgraph/core"
	"github.com/hupe1980/agentgraph/graph"
	"github.com/hupe1980/agentgraph/logging"
	"github.com/hupe1980/agentgraph/model"
	"github.com/hupe1980/agentgraph/session"
	"github.com/hupe1980/agentgraph/tool"
)

// Options configures the AgentGraph instance.
type Options struct {
	// GraphConfig tunes the workflow engine (tool parallelism, buffers).
	GraphConfig graph.Config

	// Tools available to the router. Defaults to an empty registry.
	Tools []tool.Tool

	// RouterInstruction overrides the default routing prompt.
	RouterInstruction agent.Instruction

	// SummarizerInstruction overrides the default summarization prompt.
	SummarizerInstruction agent.Instruction

	// Thinking keeps model reasoning preambles enabled.
	Thinking bool

	// Store persists session checkpoints (defaults to in-memory).
	Store session.Store

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// AgentGraph is the high-level façade aggregating the workflow graph and
// its services.
type AgentGraph struct {
	opts  Options
	graph *graph.Graph
}

// New creates a new AgentGraph instance on top of the given completion
// backend. Any unset service is initialized with an in-memory
// implementation.
func New(completer model.Completer, optFns ...func(o *Options)) *AgentGraph {
	opts := Options{
		GraphConfig: graph.DefaultConfig,
		Store:       session.NewInMemoryStore(),
		Logger:      logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	registry := tool.NewRegistry(opts.Tools...)

	router := agent.NewRouter(completer, registry, func(o *agent.RouterOptions) {
		if !opts.RouterInstruction.IsZero() {
			o.Instruction = opts.RouterInstruction
		}
		o.Thinking = opts.Thinking
		o.Logger = opts.Logger
	})

	summarizer := agent.NewSummarizer(completer, func(o *agent.SummarizerOptions) {
		if !opts.SummarizerInstruction.IsZero() {
			o.Instruction = opts.SummarizerInstruction
		}
		o.Thinking = opts.Thinking
		o.Logger = opts.Logger
	})

	g := graph.New(router, summarizer, registry, func(o *graph.Options) {
		o.Config = opts.GraphConfig
		o.Store = opts.Store
		o.Logger = opts.Logger
	})

	return &AgentGraph{opts: opts, graph: g}
}

// Graph exposes the underlying workflow engine.
func (a *AgentGraph) Graph() *graph.Graph { return a.graph }

// Turn starts an asynchronous workflow turn returning step & error channels.
func (a *AgentGraph) Turn(ctx context.Context, threadID, input string) (<-chan graph.Step, <-chan error) {
	return a.graph.Turn(ctx, threadID, input)
}

// TurnSync runs a turn to completion and returns the collected steps.
func (a *AgentGraph) TurnSync(ctx context.Context, threadID, input string) ([]graph.Step, error) {
	return a.graph.TurnSync(ctx, threadID, input)
}

// Session returns the checkpointed conversation for a thread.
func (a *AgentGraph) Session(ctx context.Context, threadID string) (*core.Session, error) {
	return a.graph.Session(ctx, threadID)
}
