package session

import (
	"context"
	"errors"

	"github.com/hupe1980/agentgraph/core"
)

// ErrNotFound is returned by Load when no checkpoint exists for a thread.
var ErrNotFound = errors.New("session not found")

// Store defines the interface for session checkpoint persistence.
type Store interface {
	// Load retrieves the session for a thread. Returns ErrNotFound when
	// the thread has no checkpoint yet.
	Load(ctx context.Context, threadID string) (*core.Session, error)

	// Save persists the session as one atomic snapshot.
	Save(ctx context.Context, sess *core.Session) error

	// Delete removes a thread's checkpoint. Deleting an unknown thread is
	// not an error.
	Delete(ctx context.Context, threadID string) error
}
