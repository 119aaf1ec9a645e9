package core

import (
	"sync"
	"time"
)

// Session is the append-only conversation log for one thread. Insertion
// order equals chronological order equals causal order; entries are never
// edited or removed. It is safe for concurrent access.
//
// Contract:
//   - Append updates the Updated timestamp
//   - Messages returns a defensive copy to avoid external mutation
//   - PromptContext filters the log to human/ai entries in original order
//   - Clone performs a deep copy for safe divergence between the working
//     snapshot and the checkpointed state.
type Session struct {
	ThreadID string    `json:"thread_id"`
	Messages []Message `json:"messages"`
	Created  time.Time `json:"created"`
	Updated  time.Time `json:"updated"`
	mu       sync.RWMutex
}

// NewSession creates an empty session for the given thread.
func NewSession(threadID string) *Session {
	now := time.Now().UTC()
	return &Session{ThreadID: threadID, Messages: []Message{}, Created: now, Updated: now}
}

// Append adds messages to the end of the log.
func (s *Session) Append(msgs ...Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Messages = append(s.Messages, msgs...)
	s.Updated = time.Now().UTC()
}

// Len returns the number of messages in the log.
func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.Messages)
}

// Last returns the most recent message. The second return value is false
// for an empty log.
func (s *Session) Last() (Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.Messages) == 0 {
		return Message{}, false
	}
	return s.Messages[len(s.Messages)-1], true
}

// LastOfRole scans from the tail backwards and returns the first message
// with the given role. It is used to recover the most recent user question
// even after intervening tool messages have been appended.
func (s *Session) LastOfRole(role Role) (Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == role {
			return s.Messages[i], true
		}
	}
	return Message{}, false
}

// AllMessages returns a defensive copy of the full log.
func (s *Session) AllMessages() []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	msgs := make([]Message, len(s.Messages))
	copy(msgs, s.Messages)
	return msgs
}

// PromptContext returns the human/ai subsequence of the log in original
// order, suitable for feeding to a text-completion backend. System and tool
// messages are excluded.
func (s *Session) PromptContext() []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	msgs := make([]Message, 0, len(s.Messages))
	for _, m := range s.Messages {
		if m.Role == RoleHuman || m.Role == RoleAI {
			msgs = append(msgs, m)
		}
	}
	return msgs
}

// Clone returns a deep copy of the session safe for independent mutation.
func (s *Session) Clone() *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	clone := &Session{
		ThreadID: s.ThreadID,
		Messages: make([]Message, len(s.Messages)),
		Created:  s.Created,
		Updated:  s.Updated,
	}
	copy(clone.Messages, s.Messages)
	return clone
}
