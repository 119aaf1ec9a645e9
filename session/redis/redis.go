// Package redis provides a Redis-backed session checkpoint store. Each
// thread's session is stored as a single JSON value, so every Save replaces
// the checkpoint atomically.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hupe1980/agentgraph/core"
	"github.com/hupe1980/agentgraph/session"
)

const keyPrefix = "agentgraph:thread:"

// Options configures the Redis store.
type Options struct {
	// TTL expires idle threads. Zero means no expiry.
	TTL time.Duration
}

// Store is a session.Store backed by Redis.
type Store struct {
	client redis.UniversalClient
	opts   Options
}

var _ session.Store = (*Store)(nil)

// New creates a Store connecting to a single Redis instance.
func New(addr, password string, db int, optFns ...func(o *Options)) *Store {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return NewFromClient(client, optFns...)
}

// NewFromClient creates a Store on top of an existing Redis client.
func NewFromClient(client redis.UniversalClient, optFns ...func(o *Options)) *Store {
	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Store{client: client, opts: opts}
}

// Load retrieves and unmarshals the checkpoint for a thread.
func (s *Store) Load(ctx context.Context, threadID string) (*core.Session, error) {
	data, err := s.client.Get(ctx, key(threadID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, session.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session from redis: %w", err)
	}

	sess := &core.Session{}
	if err := json.Unmarshal(data, sess); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return sess, nil
}

// Save marshals the session and replaces the thread's checkpoint.
func (s *Store) Save(ctx context.Context, sess *core.Session) error {
	data, err := json.Marshal(sess.Clone())
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := s.client.Set(ctx, key(sess.ThreadID), data, s.opts.TTL).Err(); err != nil {
		return fmt.Errorf("failed to save session to redis: %w", err)
	}
	return nil
}

// Delete removes the checkpoint for a thread.
func (s *Store) Delete(ctx context.Context, threadID string) error {
	if err := s.client.Del(ctx, key(threadID)).Err(); err != nil {
		return fmt.Errorf("failed to delete session from redis: %w", err)
	}
	return nil
}

// Ping verifies connectivity to the Redis backend.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func key(threadID string) string {
	return keyPrefix + threadID
}
