package checkpoint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore persists the latest checkpoint per thread id in Redis.
// Use it when runs must survive a process restart or be resumable from
// another replica.
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithKeyPrefix overrides the default "eigenflow:checkpoint:" prefix.
func WithKeyPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		s.keyPrefix = prefix
	}
}

// WithTTL expires checkpoints after d. Zero keeps them forever.
func WithTTL(d time.Duration) RedisOption {
	return func(s *RedisStore) {
		s.ttl = d
	}
}

// NewRedisStore creates a store backed by the given client.
func NewRedisStore(client *redis.Client, opts ...RedisOption) *RedisStore {
	s := &RedisStore{
		client:    client,
		keyPrefix: "eigenflow:checkpoint:",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) key(threadID string) string {
	return s.keyPrefix + threadID
}

// Save stores cp as the latest checkpoint for its thread id.
func (s *RedisStore) Save(ctx context.Context, cp *Checkpoint) error {
	data, err := json.Marshal(cp)
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}
	if err := s.client.Set(ctx, s.key(cp.ThreadID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("save checkpoint for thread %s: %w", cp.ThreadID, err)
	}
	return nil
}

// Load returns the latest checkpoint for threadID.
func (s *RedisStore) Load(ctx context.Context, threadID string) (*Checkpoint, error) {
	data, err := s.client.Get(ctx, s.key(threadID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: thread %s", ErrNotFound, threadID)
		}
		return nil, fmt.Errorf("load checkpoint for thread %s: %w", threadID, err)
	}
	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("unmarshal checkpoint for thread %s: %w", threadID, err)
	}
	return &cp, nil
}

// Delete removes the checkpoint for threadID.
func (s *RedisStore) Delete(ctx context.Context, threadID string) error {
	if err := s.client.Del(ctx, s.key(threadID)).Err(); err != nil {
		return fmt.Errorf("delete checkpoint for thread %s: %w", threadID, err)
	}
	return nil
}
