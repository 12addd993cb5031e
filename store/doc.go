// Package store defines the conversation state store and its in-memory
// implementation.
//
// A conversation store keeps the committed message history of every session.
// The turn controller reads a session's history at the start of a turn and
// commits the turn's new messages with a single Append at the end, so a store
// only ever sees complete turns.
//
// # Store Interface
//
//	type ConversationStore interface {
//		Get(ctx context.Context, sessionID string) (chat.Conversation, error)
//		Append(ctx context.Context, sessionID string, msgs ...chat.Message) error
//		Reset(ctx context.Context, sessionID string) error
//	}
//
// Implementations must:
//   - return an empty conversation for an unknown session
//   - store all messages of an Append call or none of them
//   - wrap backend failures in *Error so callers can tell them apart
//   - reject blank session ids with ErrInvalidSessionID
//
// # Backends
//
//   - MemoryStore in this package, for tests and single-process use
//   - store/redis, one Redis list per session
//   - store/postgres, one row per message in PostgreSQL
//   - store/sqlite, the same table layout in a local SQLite file
//   - store/file, one JSON-lines file per session
//
// The storetest package holds a shared suite every backend runs against.
//
// # Errors
//
//	conv, err := conversations.Get(ctx, id)
//	if store.IsStoreError(err) {
//		// backend unavailable or data unreadable
//	}
package store
