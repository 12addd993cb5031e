package store

import (
	"context"
	"sync"

	"github.com/smallnest/ragagent/chat"
)

// MemoryStore keeps conversations in process memory.
// Messages are copied on the way in and out so callers never share slices
// with the store.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]chat.Conversation
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]chat.Conversation),
	}
}

// Get returns a copy of the session's conversation.
func (m *MemoryStore) Get(ctx context.Context, sessionID string) (chat.Conversation, error) {
	if err := CheckID("get", sessionID); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, Wrap("get", sessionID, err)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.sessions[sessionID].Clone(), nil
}

// Append adds msgs to the end of the session's conversation.
func (m *MemoryStore) Append(ctx context.Context, sessionID string, msgs ...chat.Message) error {
	if err := CheckID("append", sessionID); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return Wrap("append", sessionID, err)
	}
	if len(msgs) == 0 {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions[sessionID] = append(m.sessions[sessionID], chat.CloneAll(msgs)...)
	return nil
}

// Reset forgets the session.
func (m *MemoryStore) Reset(ctx context.Context, sessionID string) error {
	if err := CheckID("reset", sessionID); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return Wrap("reset", sessionID, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, sessionID)
	return nil
}

// Sessions returns the number of sessions currently held. It is meant for
// tests and diagnostics; the store never evicts sessions on its own.
func (m *MemoryStore) Sessions() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
