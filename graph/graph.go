package graph

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/hupe1980/agentgraph/agent"
	"github.com/hupe1980/agentgraph/core"
	"github.com/hupe1980/agentgraph/logging"
	"github.com/hupe1980/agentgraph/model"
	"github.com/hupe1980/agentgraph/protocol"
	"github.com/hupe1980/agentgraph/session"
	"github.com/hupe1980/agentgraph/tool"
)

// State names the workflow engine's nodes. StateDone is terminal.
type State string

const (
	// StateRouter is the entry node of every turn.
	StateRouter State = "router"
	// StateTools executes the batch of tool calls requested by the router.
	StateTools State = "tools"
	// StateSummarizer condenses tool output against the user question.
	StateSummarizer State = "summarizer"
	// StateDone terminates the turn.
	StateDone State = "done"
)

// Step is the incremental update event emitted once per executed node. It is
// the system's only observable progress signal and is emitted even when the
// node produced no user-visible text (mid-tool-call routing).
type Step struct {
	State    State          `json:"state"`
	Messages []core.Message `json:"new_messages"`
}

// Config defines tuning parameters for the engine's operational behavior.
type Config struct {
	// MaxToolParallel bounds concurrent tool executions within one batch.
	MaxToolParallel int

	// StepBufferSize sets the channel buffer size for step events.
	StepBufferSize int
}

// DefaultConfig provides production-ready default configuration values.
var DefaultConfig = Config{
	MaxToolParallel: 4,
	StepBufferSize:  16,
}

// Options configures a Graph instance using the functional options pattern.
type Options struct {
	// Config contains operational parameters for the engine behavior.
	// Defaults to DefaultConfig if not specified.
	Config Config

	// Store persists session checkpoints. Defaults to the in-memory
	// implementation if not provided.
	Store session.Store

	// Logger provides structured logging. Defaults to NoOp if nil.
	Logger logging.Logger
}

// Graph owns the node graph, the per-thread checkpointing, and the
// step-by-step execution loop.
//
// Concurrency model: one turn executes as a strictly sequential pipeline of
// node steps. Turns for the same thread are serialized via a per-thread
// lock; turns for different threads run on independent goroutines. The
// shared completion backend is expected to handle cross-session fairness
// (see model.FairQueue).
type Graph struct {
	router     agent.Agent
	summarizer agent.Agent
	tools      *toolNode
	store      session.Store
	logger     logging.Logger
	config     Config

	mu      sync.Mutex
	threads map[string]*sync.Mutex
}

// New creates a workflow graph wiring the router, the tool registry and the
// summarizer into the fixed topology
// router -> tools -> summarizer -> done, with a direct router -> done edge
// for tool-free answers.
func New(router, summarizer agent.Agent, registry *tool.Registry, optFns ...func(o *Options)) *Graph {
	opts := Options{
		Config: DefaultConfig,
		Store:  session.NewInMemoryStore(),
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Graph{
		router:     router,
		summarizer: summarizer,
		tools:      newToolNode(registry, opts.Config.MaxToolParallel, opts.Logger),
		store:      opts.Store,
		logger:     opts.Logger,
		config:     opts.Config,
		threads:    make(map[string]*sync.Mutex),
	}
}

// Session returns the checkpointed session for a thread.
func (g *Graph) Session(ctx context.Context, threadID string) (*core.Session, error) {
	return g.store.Load(ctx, threadID)
}

// Forget removes a thread's checkpoint. In-flight turns for the thread are
// unaffected; they re-save on their next step.
func (g *Graph) Forget(ctx context.Context, threadID string) error {
	return g.store.Delete(ctx, threadID)
}

// Turn executes one full workflow turn asynchronously and returns the
// per-turn step stream plus an error channel. The step channel is closed
// when the terminal state is reached; a fatal error is delivered on the
// error channel and also closes the stream. The stream is not restartable;
// the next human message starts a fresh turn on the same persisted session.
func (g *Graph) Turn(ctx context.Context, threadID, input string) (<-chan Step, <-chan error) {
	steps := make(chan Step, g.config.StepBufferSize)
	errs := make(chan error, 1)

	go func() {
		defer close(steps)
		defer close(errs)

		lock := g.threadLock(threadID)
		lock.Lock()
		defer lock.Unlock()

		if err := g.runTurn(model.WithThread(ctx, threadID), threadID, input, steps); err != nil {
			errs <- err
		}
	}()

	return steps, errs
}

// TurnSync executes a turn and collects all steps. It is a convenience
// wrapper for request/response callers that do not need streaming.
func (g *Graph) TurnSync(ctx context.Context, threadID, input string) ([]Step, error) {
	stepCh, errCh := g.Turn(ctx, threadID, input)

	var collected []Step
	for step := range stepCh {
		collected = append(collected, step)
	}
	if err := <-errCh; err != nil {
		return collected, err
	}
	return collected, nil
}

// threadLock returns the serialization lock for a thread, creating it lazily.
func (g *Graph) threadLock(threadID string) *sync.Mutex {
	g.mu.Lock()
	defer g.mu.Unlock()
	lock, ok := g.threads[threadID]
	if !ok {
		lock = &sync.Mutex{}
		g.threads[threadID] = lock
	}
	return lock
}

// runTurn walks the state machine for one turn. Checkpoint discipline: a
// router message carrying tool calls is checkpointed together with its tool
// results as one atomic unit, so a fatal error or cancellation in between
// never leaves a dangling tool-call entry in the persisted log. All other
// steps are checkpointed individually before their step event is emitted.
func (g *Graph) runTurn(ctx context.Context, threadID, input string, steps chan<- Step) error {
	sess, err := g.loadOrCreate(ctx, threadID)
	if err != nil {
		return err
	}

	g.logger.Info("graph.turn.start", "thread_id", threadID, "history", sess.Len())

	sess.Append(core.NewHumanMessage(input))
	if err := g.store.Save(ctx, sess); err != nil {
		return fmt.Errorf("failed to checkpoint session: %w", err)
	}

	state := StateRouter
	for state != StateDone {
		if err := ctx.Err(); err != nil {
			return err
		}

		next, err := g.step(ctx, sess, state, steps)
		if err != nil {
			return err
		}

		g.logger.Debug("graph.transition", "thread_id", threadID, "from", state, "to", next)
		state = next
	}

	g.logger.Info("graph.turn.done", "thread_id", threadID, "messages", sess.Len())
	return nil
}

// step executes one node and returns the next state.
func (g *Graph) step(ctx context.Context, sess *core.Session, state State, steps chan<- Step) (State, error) {
	switch state {
	case StateRouter:
		return g.runRouter(ctx, sess, steps)
	case StateTools:
		return g.runTools(ctx, sess, steps)
	case StateSummarizer:
		return g.runSummarizer(ctx, sess, steps)
	default:
		return StateDone, fmt.Errorf("graph reached unknown state %q", state)
	}
}

func (g *Graph) runRouter(ctx context.Context, sess *core.Session, steps chan<- Step) (State, error) {
	msg, err := g.router.Run(ctx, sess)
	if err != nil {
		var perr *protocol.Error
		if errors.As(err, &perr) {
			// Unparseable model output terminates the turn with a visible
			// error entry so the conversation stays usable.
			return StateDone, g.failTurn(ctx, sess, StateRouter, perr, steps)
		}
		return StateDone, fmt.Errorf("router step failed: %w", err)
	}

	if RouteAfterRouter(msg) == RouteTools {
		// Deferred checkpoint: persisted together with the tool results.
		sess.Append(msg)
		if err := g.emit(ctx, steps, Step{State: StateRouter, Messages: []core.Message{msg}}); err != nil {
			return StateDone, err
		}
		return StateTools, nil
	}

	if err := g.commit(ctx, sess, StateRouter, []core.Message{msg}, steps); err != nil {
		return StateDone, err
	}
	return StateDone, nil
}

func (g *Graph) runTools(ctx context.Context, sess *core.Session, steps chan<- Step) (State, error) {
	last, ok := sess.Last()
	if !ok || !last.HasToolCalls() {
		// Routing guarantees this precondition; reaching here is a bug.
		return StateDone, fmt.Errorf("tools step entered without pending tool calls")
	}

	msgs := g.tools.run(ctx, last.ToolCalls)
	if err := ctx.Err(); err != nil {
		// Cancelled mid-batch: drop the uncheckpointed tool-call pair.
		return StateDone, err
	}

	if err := g.commit(ctx, sess, StateTools, msgs, steps); err != nil {
		return StateDone, err
	}
	return StateSummarizer, nil
}

func (g *Graph) runSummarizer(ctx context.Context, sess *core.Session, steps chan<- Step) (State, error) {
	msg, err := g.summarizer.Run(ctx, sess)
	if err != nil {
		return StateDone, fmt.Errorf("summarizer step failed: %w", err)
	}

	if err := g.commit(ctx, sess, StateSummarizer, []core.Message{msg}, steps); err != nil {
		return StateDone, err
	}
	return StateDone, nil
}

// commit appends the step's messages, checkpoints the session and emits the
// step event, in that order.
func (g *Graph) commit(ctx context.Context, sess *core.Session, state State, msgs []core.Message, steps chan<- Step) error {
	sess.Append(msgs...)
	if err := g.store.Save(ctx, sess); err != nil {
		return fmt.Errorf("failed to checkpoint session: %w", err)
	}
	return g.emit(ctx, steps, Step{State: state, Messages: msgs})
}

// failTurn records a protocol failure as a visible AI message. The malformed
// model output is never appended, so the log stays consistent.
func (g *Graph) failTurn(ctx context.Context, sess *core.Session, state State, perr *protocol.Error, steps chan<- Step) error {
	g.logger.Warn("graph.protocol_error", "thread_id", sess.ThreadID, "code", perr.Code, "error", perr.Message)

	msg := core.NewAIMessage(fmt.Sprintf("I could not process the model's tool request (%s). Please try rephrasing your question.", perr.Code))
	return g.commit(ctx, sess, state, []core.Message{msg}, steps)
}

func (g *Graph) emit(ctx context.Context, steps chan<- Step, step Step) error {
	select {
	case steps <- step:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (g *Graph) loadOrCreate(ctx context.Context, threadID string) (*core.Session, error) {
	sess, err := g.store.Load(ctx, threadID)
	if errors.Is(err, session.ErrNotFound) {
		return core.NewSession(threadID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return sess, nil
}
