package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/hupe1980/agentgraph/core"
	"github.com/hupe1980/agentgraph/internal/util"
	"github.com/hupe1980/agentgraph/logging"
	"github.com/hupe1980/agentgraph/model"
	"github.com/hupe1980/agentgraph/protocol"
)

// DefaultSummarizerInstruction is the summarizer's instruction template. The
// {{.question}} slot receives the most recent user question; {{.context}}
// receives the latest retrieved content.
const DefaultSummarizerInstruction = `You are a summarization assistant. Write a concise summary of the retrieved information below, focused strictly on the user's question.

Question:
{{.question}}

Retrieved information:
{{.context}}

Rules:
- Use only information from the retrieved content above.
- Keep the summary between 100 and 250 words.
- If the retrieved content does not contain enough information to answer the question, say so explicitly.`

// SummarizerOptions configures a Summarizer instance.
type SummarizerOptions struct {
	Name        string
	Instruction Instruction
	Thinking    bool
	Logger      logging.Logger
}

// Summarizer condenses the latest retrieved content against the original
// user question. It never emits tool calls: the raw completion becomes the
// AI message verbatim (after reasoning stripping).
//
// The question is recovered with LastOfRole rather than Last so that the
// summary stays anchored to what the user asked even after tool messages
// have been appended.
type Summarizer struct {
	base
}

// NewSummarizer creates a summarizer over the given backend.
func NewSummarizer(completer model.Completer, optFns ...func(o *SummarizerOptions)) *Summarizer {
	opts := SummarizerOptions{
		Name:        "summarizer",
		Instruction: NewInstructionFromText(DefaultSummarizerInstruction),
		Logger:      logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Summarizer{
		base: base{
			name:        opts.Name,
			completer:   completer,
			instruction: opts.Instruction,
			thinking:    opts.Thinking,
			logger:      opts.Logger,
		},
	}
}

// Name implements Agent.
func (s *Summarizer) Name() string { return s.name }

// Run implements Agent.
func (s *Summarizer) Run(ctx context.Context, sess *core.Session) (core.Message, error) {
	question, ok := sess.LastOfRole(core.RoleHuman)
	if !ok {
		return core.Message{}, fmt.Errorf("summarizer requires a user question in the session")
	}
	latest, ok := sess.Last()
	if !ok {
		return core.Message{}, fmt.Errorf("summarizer requires retrieved content in the session")
	}

	text, err := s.resolveInstruction(sess)
	if err != nil {
		return core.Message{}, fmt.Errorf("failed to resolve summarizer instruction: %w", err)
	}

	rendered, err := util.RenderTemplate(text, map[string]any{
		"question": question.Content,
		"context":  latest.Content,
	})
	if err != nil {
		return core.Message{}, fmt.Errorf("failed to render summarizer instruction: %w", err)
	}

	raw, err := s.completer.Complete(ctx, []core.Message{core.NewHumanMessage(rendered)})
	if err != nil {
		return core.Message{}, fmt.Errorf("summarizer completion failed: %w", err)
	}

	summary := strings.TrimSpace(protocol.StripReasoning(raw))
	s.logger.Debug("agent.summarizer.done", "agent", s.name, "length", len(summary))

	return core.NewAIMessage(summary), nil
}
