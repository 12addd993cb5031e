package file

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sync"

	"github.com/smallnest/ragagent/chat"
	"github.com/smallnest/ragagent/store"
)

// ConversationStore implements store.ConversationStore with one JSON-lines
// file per session under a directory.
type ConversationStore struct {
	dir string
	mu  sync.RWMutex
}

// New creates a file store rooted at dir, creating the directory if missing.
func New(dir string) (*ConversationStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	return &ConversationStore{dir: dir}, nil
}

// Dir returns the directory holding the session files. It is logged at
// startup and is useful when inspecting stored sessions by hand.
func (s *ConversationStore) Dir() string {
	return s.dir
}

func (s *ConversationStore) path(sessionID string) string {
	return filepath.Join(s.dir, url.PathEscape(sessionID)+".jsonl")
}

// Get reads the session file. A missing file is an empty conversation.
func (s *ConversationStore) Get(ctx context.Context, sessionID string) (chat.Conversation, error) {
	if err := store.CheckID("get", sessionID); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, store.Wrap("get", sessionID, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	f, err := os.Open(s.path(sessionID))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return chat.Conversation{}, nil
		}
		return nil, store.Wrap("get", sessionID, fmt.Errorf("failed to open session file: %w", err))
	}
	defer f.Close()

	conv := chat.Conversation{}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for line := 1; scanner.Scan(); line++ {
		if len(bytes.TrimSpace(scanner.Bytes())) == 0 {
			continue
		}
		var msg chat.Message
		if err := json.Unmarshal(scanner.Bytes(), &msg); err != nil {
			return nil, store.Wrap("get", sessionID, fmt.Errorf("failed to unmarshal line %d: %w", line, err))
		}
		conv = append(conv, msg)
	}
	if err := scanner.Err(); err != nil {
		return nil, store.Wrap("get", sessionID, fmt.Errorf("failed to read session file: %w", err))
	}
	return conv, nil
}

// Append writes msgs with a single write. If the write fails the file is
// truncated back to its previous length.
func (s *ConversationStore) Append(ctx context.Context, sessionID string, msgs ...chat.Message) error {
	if err := store.CheckID("append", sessionID); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return store.Wrap("append", sessionID, err)
	}
	if len(msgs) == 0 {
		return nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, msg := range msgs {
		if err := enc.Encode(msg); err != nil {
			return store.Wrap("append", sessionID, fmt.Errorf("failed to marshal message: %w", err))
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path(sessionID), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return store.Wrap("append", sessionID, fmt.Errorf("failed to open session file: %w", err))
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return store.Wrap("append", sessionID, fmt.Errorf("failed to stat session file: %w", err))
	}

	if _, err := f.Write(buf.Bytes()); err != nil {
		_ = f.Truncate(info.Size())
		return store.Wrap("append", sessionID, fmt.Errorf("failed to write session file: %w", err))
	}
	if err := f.Sync(); err != nil {
		return store.Wrap("append", sessionID, fmt.Errorf("failed to sync session file: %w", err))
	}
	return nil
}

// Reset removes the session file.
func (s *ConversationStore) Reset(ctx context.Context, sessionID string) error {
	if err := store.CheckID("reset", sessionID); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return store.Wrap("reset", sessionID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path(sessionID)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return store.Wrap("reset", sessionID, fmt.Errorf("failed to remove session file: %w", err))
	}
	return nil
}
