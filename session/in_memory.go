package session

import (
	"context"
	"sync"

	"github.com/hupe1980/agentgraph/core"
)

// InMemoryStore is a thread-safe in-memory Store implementation. Sessions
// are cloned on both save and load so callers can never mutate a checkpoint
// in place. Intended for development and tests; data is lost on restart.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*core.Session
}

// NewInMemoryStore creates an empty in-memory session store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		sessions: make(map[string]*core.Session),
	}
}

// Load retrieves a deep copy of the session for a thread.
func (s *InMemoryStore) Load(_ context.Context, threadID string) (*core.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[threadID]
	if !ok {
		return nil, ErrNotFound
	}
	return sess.Clone(), nil
}

// Save stores a deep copy of the session, replacing any prior checkpoint.
func (s *InMemoryStore) Save(_ context.Context, sess *core.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[sess.ThreadID] = sess.Clone()
	return nil
}

// Delete removes the checkpoint for a thread.
func (s *InMemoryStore) Delete(_ context.Context, threadID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, threadID)
	return nil
}
