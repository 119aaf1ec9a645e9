package agent

import (
	"context"
	"fmt"

	"github.com/hupe1980/agentgraph/core"
	"github.com/hupe1980/agentgraph/internal/util"
	"github.com/hupe1980/agentgraph/logging"
	"github.com/hupe1980/agentgraph/model"
	"github.com/hupe1980/agentgraph/protocol"
	"github.com/hupe1980/agentgraph/tool"
)

// DefaultRouterInstruction is the router's instruction template. The
// {{.tools}} slot receives the JSON-rendered registration records of all
// available tools.
const DefaultRouterInstruction = `You are a research assistant that decides how to answer the user's question.

You have access to the following tools:
{{.tools}}

If the question can be answered reliably from your own knowledge, answer it directly in plain text.

If the question requires fresh or external information, respond with exactly one tool-call block and nothing else:
<tool_call>[{"name": "<tool name>", "arguments": {<arguments object>}}]</tool_call>

The block must contain valid JSON: a single {"name", "arguments"} object or an array of such objects. Do not invent tool names that are not listed above.`

// RouterOptions configures a Router instance.
type RouterOptions struct {
	Name        string
	Instruction Instruction
	Thinking    bool
	Logger      logging.Logger
}

// Router is the agent node that may emit tool calls. Its instruction prefix
// is rendered from the registered tool specs; its raw completion is decoded
// through the tool-call protocol codec.
type Router struct {
	base
	registry *tool.Registry
}

// NewRouter creates a router over the given backend and tool registry.
func NewRouter(completer model.Completer, registry *tool.Registry, optFns ...func(o *RouterOptions)) *Router {
	opts := RouterOptions{
		Name:        "router",
		Instruction: NewInstructionFromText(DefaultRouterInstruction),
		Logger:      logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Router{
		base: base{
			name:        opts.Name,
			completer:   completer,
			instruction: opts.Instruction,
			thinking:    opts.Thinking,
			logger:      opts.Logger,
		},
		registry: registry,
	}
}

// Name implements Agent.
func (r *Router) Name() string { return r.name }

// Run implements Agent. The prompt is the rendered instruction followed by
// the session's human/ai context; the completion is decoded into either a
// direct answer or a tool-call message.
func (r *Router) Run(ctx context.Context, sess *core.Session) (core.Message, error) {
	instruction, err := r.renderInstruction(sess)
	if err != nil {
		return core.Message{}, err
	}

	prompt := append([]core.Message{core.NewSystemMessage(instruction)}, sess.PromptContext()...)

	raw, err := r.completer.Complete(ctx, prompt)
	if err != nil {
		return core.Message{}, fmt.Errorf("router completion failed: %w", err)
	}

	outcome, err := protocol.Decode(raw)
	if err != nil {
		return core.Message{}, err
	}

	if outcome.IsDirectAnswer() {
		r.logger.Debug("agent.router.direct_answer", "agent", r.name, "length", len(outcome.Answer))
		return core.NewAIMessage(outcome.Answer), nil
	}

	r.logger.Debug("agent.router.tool_calls", "agent", r.name, "count", len(outcome.Calls))
	return core.NewToolCallMessage(outcome.Calls), nil
}

// renderInstruction resolves the instruction and substitutes the tool specs.
func (r *Router) renderInstruction(sess *core.Session) (string, error) {
	text, err := r.resolveInstruction(sess)
	if err != nil {
		return "", fmt.Errorf("failed to resolve router instruction: %w", err)
	}

	specs, err := r.registry.SpecsJSON()
	if err != nil {
		return "", err
	}

	rendered, err := util.RenderTemplate(text, map[string]any{"tools": specs})
	if err != nil {
		return "", fmt.Errorf("failed to render router instruction: %w", err)
	}
	return rendered, nil
}
