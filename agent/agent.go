package agent

import (
	"context"

	"github.com/hupe1980/agentgraph/core"
	"github.com/hupe1980/agentgraph/logging"
	"github.com/hupe1980/agentgraph/model"
)

// Agent is a workflow reasoning node: it reads the session log and produces
// exactly one new AI message. Protocol errors from decoding model output are
// returned to the caller, never swallowed; the workflow engine decides how
// to surface them.
type Agent interface {
	// Name returns the node's identifier used in logs and step events.
	Name() string

	// Run executes one reasoning step against the session.
	Run(ctx context.Context, sess *core.Session) (core.Message, error)
}

// noThinkSuffix disables the reasoning preamble on thinking-capable local
// models. Appended to instructions unless thinking mode is enabled.
const noThinkSuffix = "\n\n/no_think"

type base struct {
	name        string
	completer   model.Completer
	instruction Instruction
	thinking    bool
	logger      logging.Logger
}

// resolveInstruction returns the instruction text with the thinking-mode
// suffix applied.
func (b *base) resolveInstruction(sess *core.Session) (string, error) {
	text, err := b.instruction.Resolve(sess)
	if err != nil {
		return "", err
	}
	if !b.thinking {
		text += noThinkSuffix
	}
	return text, nil
}
