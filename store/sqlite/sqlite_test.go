package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/smallnest/ragagent/chat"
	"github.com/smallnest/ragagent/store"
	"github.com/smallnest/ragagent/store/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *ConversationStore {
	t.Helper()
	s, err := New(Options{Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSqliteConversationStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.ConversationStore {
		return newTestStore(t)
	})
}

func TestSqliteConversationStore_Persists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conversations.db")
	ctx := context.Background()

	s, err := New(Options{Path: path})
	require.NoError(t, err)
	require.NoError(t, s.Append(ctx, "s1", chat.User("hi"), chat.Assistant("hello")))
	require.NoError(t, s.Close())

	reopened, err := New(Options{Path: path})
	require.NoError(t, err)
	defer reopened.Close()

	conv, err := reopened.Get(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, conv, 2)
	assert.Equal(t, "hello", conv[1].Content)

	require.NoError(t, reopened.Append(ctx, "s1", chat.User("again")))
	conv, err = reopened.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, conv, 3)
}

func TestSqliteConversationStore_CustomTable(t *testing.T) {
	s, err := New(Options{Path: ":memory:", TableName: "history"})
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Append(context.Background(), "s1", chat.User("hi")))

	var n int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM history`).Scan(&n))
	assert.Equal(t, 1, n)
}

func TestSqliteConversationStore_Closed(t *testing.T) {
	s, err := New(Options{Path: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = s.Get(context.Background(), "s1")
	assert.Error(t, err)
	assert.True(t, store.IsStoreError(err))
}
