package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/smallnest/ragagent/chat"
	"github.com/smallnest/ragagent/store"
)

// ConversationStore implements store.ConversationStore using one Redis list
// per session. Each list element is a JSON encoded chat.Message.
type ConversationStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// Options configuration for Redis connection
type Options struct {
	Addr     string
	Password string
	DB       int
	Prefix   string        // Key prefix, default "ragagent:"
	TTL      time.Duration // Idle expiration of a session, default 0 (never)
}

// New creates a Redis conversation store with its own client.
func New(opts Options) *ConversationStore {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	return NewWithClient(client, opts.Prefix, opts.TTL)
}

// NewWithClient creates a store over an existing client, e.g. a cluster or
// sentinel client.
func NewWithClient(client redis.UniversalClient, prefix string, ttl time.Duration) *ConversationStore {
	if prefix == "" {
		prefix = "ragagent:"
	}
	return &ConversationStore{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (s *ConversationStore) sessionKey(id string) string {
	return fmt.Sprintf("%ssession:%s", s.prefix, id)
}

// Get returns the session's messages in append order.
func (s *ConversationStore) Get(ctx context.Context, sessionID string) (chat.Conversation, error) {
	if err := store.CheckID("get", sessionID); err != nil {
		return nil, err
	}

	items, err := s.client.LRange(ctx, s.sessionKey(sessionID), 0, -1).Result()
	if err != nil {
		return nil, store.Wrap("get", sessionID, fmt.Errorf("failed to read session list: %w", err))
	}

	conv := make(chat.Conversation, 0, len(items))
	for i, item := range items {
		var msg chat.Message
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			return nil, store.Wrap("get", sessionID, fmt.Errorf("failed to unmarshal message %d: %w", i, err))
		}
		conv = append(conv, msg)
	}
	return conv, nil
}

// Append pushes msgs inside a MULTI/EXEC block so they land together.
func (s *ConversationStore) Append(ctx context.Context, sessionID string, msgs ...chat.Message) error {
	if err := store.CheckID("append", sessionID); err != nil {
		return err
	}
	if len(msgs) == 0 {
		return nil
	}

	values := make([]any, 0, len(msgs))
	for _, msg := range msgs {
		data, err := json.Marshal(msg)
		if err != nil {
			return store.Wrap("append", sessionID, fmt.Errorf("failed to marshal message: %w", err))
		}
		values = append(values, data)
	}

	key := s.sessionKey(sessionID)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, values...)
		if s.ttl > 0 {
			pipe.Expire(ctx, key, s.ttl)
		}
		return nil
	})
	if err != nil {
		return store.Wrap("append", sessionID, fmt.Errorf("failed to append to redis: %w", err))
	}
	return nil
}

// Reset deletes the session list.
func (s *ConversationStore) Reset(ctx context.Context, sessionID string) error {
	if err := store.CheckID("reset", sessionID); err != nil {
		return err
	}
	if err := s.client.Del(ctx, s.sessionKey(sessionID)).Err(); err != nil {
		return store.Wrap("reset", sessionID, fmt.Errorf("failed to delete session: %w", err))
	}
	return nil
}

// Close closes the underlying client.
func (s *ConversationStore) Close() error {
	return s.client.Close()
}
