package agent

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/smallnest/ragagent/chat"
	"github.com/smallnest/ragagent/log"
	"github.com/smallnest/ragagent/model"
	"github.com/smallnest/ragagent/retrieval"
	"github.com/smallnest/ragagent/store"
	"github.com/smallnest/ragagent/tool"
	"github.com/stretchr/testify/require"
)

// stubRetriever returns fixed passages or err and records queries.
type stubRetriever struct {
	mu       sync.Mutex
	passages []retrieval.Passage
	err      error
	queries  []string
}

func (r *stubRetriever) Retrieve(_ context.Context, query string, k int) ([]retrieval.Passage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queries = append(r.queries, query)
	if r.err != nil {
		return nil, &retrieval.Error{Query: query, Err: r.err}
	}
	if len(r.passages) > k {
		return r.passages[:k], nil
	}
	return r.passages, nil
}

func retrieveCall(id, query string) chat.ToolCall {
	return chat.ToolCall{ID: id, Name: tool.RetrieveContextName, Arguments: `{"query":"` + query + `"}`}
}

func newRegistry(t *testing.T, r retrieval.Retriever) *tool.Registry {
	t.Helper()
	h, err := tool.RetrieveContext(r, 4)
	require.NoError(t, err)
	reg, err := tool.NewRegistry(h)
	require.NoError(t, err)
	return reg
}

func newController(t *testing.T, m model.Model, r retrieval.Retriever, opts ...Option) *Controller {
	t.Helper()
	opts = append([]Option{
		WithLogger(&log.NoOpLogger{}),
		WithModelRetry(1, time.Millisecond),
	}, opts...)
	c, err := NewController(m, newRegistry(t, r), opts...)
	require.NoError(t, err)
	return c
}

func newSession(t *testing.T, m model.Model, r retrieval.Retriever, opts ...Option) (*Session, *store.MemoryStore) {
	t.Helper()
	conversations := store.NewMemoryStore()
	return NewSession(newController(t, m, r, opts...), conversations, WithSessionLogger(&log.NoOpLogger{})), conversations
}

// failingStore wraps a MemoryStore and fails the configured operations.
type failingStore struct {
	*store.MemoryStore
	failGet    bool
	failAppend bool
}

var errBackend = errors.New("backend unavailable")

func (f *failingStore) Get(ctx context.Context, id string) (chat.Conversation, error) {
	if f.failGet {
		return nil, store.Wrap("get", id, errBackend)
	}
	return f.MemoryStore.Get(ctx, id)
}

func (f *failingStore) Append(ctx context.Context, id string, msgs ...chat.Message) error {
	if f.failAppend {
		return store.Wrap("append", id, errBackend)
	}
	return f.MemoryStore.Append(ctx, id, msgs...)
}

// requirePaired checks every assistant tool request is followed by its
// results in request order.
func requirePaired(t *testing.T, conv chat.Conversation) {
	t.Helper()
	for i, msg := range conv {
		if msg.Role != chat.RoleAssistant || !msg.HasToolCalls() {
			continue
		}
		require.GreaterOrEqual(t, len(conv), i+1+len(msg.ToolCalls), "tool results missing after message %d", i)
		for j, call := range msg.ToolCalls {
			res := conv[i+1+j]
			require.Equal(t, chat.RoleTool, res.Role)
			require.Equal(t, call.ID, res.ToolCallID)
		}
	}
}

func countRole(conv chat.Conversation, role chat.Role) int {
	n := 0
	for _, m := range conv {
		if m.Role == role {
			n++
		}
	}
	return n
}

// echoModel answers every turn with the last user message and tracks how
// many calls run at once.
type echoModel struct {
	delay     time.Duration
	active    atomic.Int32
	maxActive atomic.Int32
}

func (e *echoModel) Complete(ctx context.Context, messages []chat.Message, _ []chat.ToolSpec) (chat.Message, error) {
	n := e.active.Add(1)
	defer e.active.Add(-1)
	for {
		cur := e.maxActive.Load()
		if n <= cur || e.maxActive.CompareAndSwap(cur, n) {
			break
		}
	}

	if e.delay > 0 {
		select {
		case <-time.After(e.delay):
		case <-ctx.Done():
			return chat.Message{}, ctx.Err()
		}
	}
	return chat.Assistant("echo: " + messages[len(messages)-1].Content), nil
}
