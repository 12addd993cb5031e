package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/smallnest/ragagent/chat"
	"github.com/smallnest/ragagent/store"
	"github.com/smallnest/ragagent/store/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, ttl time.Duration) (*ConversationStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	s := New(Options{Addr: mr.Addr(), TTL: ttl})
	t.Cleanup(func() { _ = s.Close() })
	return s, mr
}

func TestRedisConversationStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.ConversationStore {
		s, _ := newTestStore(t, 0)
		return s
	})
}

func TestRedisConversationStore_KeyLayout(t *testing.T) {
	s, mr := newTestStore(t, 0)
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, "abc", chat.User("hi"), chat.Assistant("hello")))

	items, err := mr.List("ragagent:session:abc")
	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.JSONEq(t, `{"role":"user","content":"hi"}`, items[0])
}

func TestRedisConversationStore_CustomPrefix(t *testing.T) {
	mr := miniredis.RunT(t)
	s := New(Options{Addr: mr.Addr(), Prefix: "test:"})
	defer s.Close()

	require.NoError(t, s.Append(context.Background(), "abc", chat.User("hi")))
	assert.True(t, mr.Exists("test:session:abc"))
}

func TestRedisConversationStore_TTL(t *testing.T) {
	s, mr := newTestStore(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, "abc", chat.User("hi")))
	assert.Equal(t, time.Hour, mr.TTL("ragagent:session:abc"))

	mr.FastForward(2 * time.Hour)

	conv, err := s.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Empty(t, conv)
}

func TestRedisConversationStore_CorruptEntry(t *testing.T) {
	s, mr := newTestStore(t, 0)

	_, err := mr.Push("ragagent:session:abc", "not json")
	require.NoError(t, err)

	_, err = s.Get(context.Background(), "abc")
	assert.Error(t, err)
	assert.True(t, store.IsStoreError(err))
}

func TestRedisConversationStore_Unavailable(t *testing.T) {
	s, mr := newTestStore(t, 0)
	mr.Close()

	err := s.Append(context.Background(), "abc", chat.User("hi"))
	assert.Error(t, err)
	assert.True(t, store.IsStoreError(err))
}
