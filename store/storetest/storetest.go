// Package storetest holds a behavioural suite shared by every
// store.ConversationStore backend.
package storetest

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/smallnest/ragagent/chat"
	"github.com/smallnest/ragagent/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Run exercises a fresh store returned by newStore in each subtest.
func Run(t *testing.T, newStore func(t *testing.T) store.ConversationStore) {
	t.Helper()
	ctx := context.Background()

	t.Run("unknown session is empty", func(t *testing.T) {
		s := newStore(t)
		conv, err := s.Get(ctx, "missing")
		require.NoError(t, err)
		assert.Empty(t, conv)
	})

	t.Run("append preserves order and fields", func(t *testing.T) {
		s := newStore(t)
		msgs := []chat.Message{
			chat.System("be brief"),
			chat.User("what is the refund window?"),
			chat.AssistantCalls("", chat.ToolCall{ID: "c1", Name: "retrieve_context", Arguments: `{"query":"refund window"}`}),
			chat.ToolResult("c1", "[Document 1 - Source: policy.md]\nRefunds within 30 days."),
			chat.Assistant("30 days."),
		}
		require.NoError(t, s.Append(ctx, "s1", msgs[:2]...))
		require.NoError(t, s.Append(ctx, "s1", msgs[2:]...))

		conv, err := s.Get(ctx, "s1")
		require.NoError(t, err)
		require.Len(t, conv, len(msgs))
		for i := range msgs {
			assert.Equal(t, msgs[i], conv[i], "message %d", i)
		}
	})

	t.Run("empty append is a no-op", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Append(ctx, "s1"))
		conv, err := s.Get(ctx, "s1")
		require.NoError(t, err)
		assert.Empty(t, conv)
	})

	t.Run("sessions are isolated", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Append(ctx, "a", chat.User("hello from a")))
		require.NoError(t, s.Append(ctx, "b", chat.User("hello from b")))

		a, err := s.Get(ctx, "a")
		require.NoError(t, err)
		require.Len(t, a, 1)
		assert.Equal(t, "hello from a", a[0].Content)

		require.NoError(t, s.Reset(ctx, "a"))
		a, err = s.Get(ctx, "a")
		require.NoError(t, err)
		assert.Empty(t, a)

		b, err := s.Get(ctx, "b")
		require.NoError(t, err)
		assert.Len(t, b, 1)
	})

	t.Run("reset unknown session", func(t *testing.T) {
		s := newStore(t)
		assert.NoError(t, s.Reset(ctx, "never-seen"))
	})

	t.Run("returned conversation is a copy", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Append(ctx, "s1",
			chat.AssistantCalls("", chat.ToolCall{ID: "c1", Name: "retrieve_context", Arguments: `{}`})))

		conv, err := s.Get(ctx, "s1")
		require.NoError(t, err)
		conv[0].ToolCalls[0].Name = "mutated"
		conv[0].Content = "mutated"

		again, err := s.Get(ctx, "s1")
		require.NoError(t, err)
		assert.Equal(t, "retrieve_context", again[0].ToolCalls[0].Name)
		assert.Empty(t, again[0].Content)
	})

	t.Run("blank session id", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Get(ctx, " ")
		assert.ErrorIs(t, err, store.ErrInvalidSessionID)
		assert.True(t, store.IsStoreError(err))

		err = s.Append(ctx, "", chat.User("x"))
		assert.ErrorIs(t, err, store.ErrInvalidSessionID)

		err = s.Reset(ctx, "")
		assert.ErrorIs(t, err, store.ErrInvalidSessionID)
	})

	t.Run("concurrent appends to distinct sessions", func(t *testing.T) {
		s := newStore(t)
		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				id := fmt.Sprintf("s%d", i)
				for j := 0; j < 5; j++ {
					assert.NoError(t, s.Append(ctx, id, chat.User(fmt.Sprintf("%d", j))))
				}
			}(i)
		}
		wg.Wait()

		for i := 0; i < 8; i++ {
			conv, err := s.Get(ctx, fmt.Sprintf("s%d", i))
			require.NoError(t, err)
			require.Len(t, conv, 5)
			for j := range conv {
				assert.Equal(t, fmt.Sprintf("%d", j), conv[j].Content)
			}
		}
	})
}
