package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/smallnest/ragagent/chat"
	"github.com/smallnest/ragagent/store"
)

// DBPool defines the interface for database connection pool
type DBPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Close()
}

// ConversationStore implements store.ConversationStore using PostgreSQL.
// Every message is one row ordered by a per-session sequence number.
type ConversationStore struct {
	pool      DBPool
	tableName string
}

// Options configuration for Postgres connection
type Options struct {
	ConnString string
	TableName  string // Default "conversation_messages"
}

// New connects to Postgres and creates a conversation store.
func New(ctx context.Context, opts Options) (*ConversationStore, error) {
	pool, err := pgxpool.New(ctx, opts.ConnString)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}
	return NewWithPool(pool, opts.TableName), nil
}

// NewWithPool creates a conversation store with an existing pool.
// Useful for testing with mocks
func NewWithPool(pool DBPool, tableName string) *ConversationStore {
	if tableName == "" {
		tableName = "conversation_messages"
	}
	return &ConversationStore{
		pool:      pool,
		tableName: tableName,
	}
}

// InitSchema creates the necessary table if it doesn't exist
func (s *ConversationStore) InitSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			session_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			message JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (session_id, seq)
		)
	`, s.tableName)

	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the connection pool
func (s *ConversationStore) Close() {
	s.pool.Close()
}

// Get returns the session's messages ordered by sequence.
func (s *ConversationStore) Get(ctx context.Context, sessionID string) (chat.Conversation, error) {
	if err := store.CheckID("get", sessionID); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT message FROM %s WHERE session_id = $1 ORDER BY seq ASC`, s.tableName)

	rows, err := s.pool.Query(ctx, query, sessionID)
	if err != nil {
		return nil, store.Wrap("get", sessionID, fmt.Errorf("failed to query messages: %w", err))
	}
	defer rows.Close()

	conv := chat.Conversation{}
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, store.Wrap("get", sessionID, fmt.Errorf("failed to scan message: %w", err))
		}
		var msg chat.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, store.Wrap("get", sessionID, fmt.Errorf("failed to unmarshal message: %w", err))
		}
		conv = append(conv, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, store.Wrap("get", sessionID, fmt.Errorf("failed to iterate messages: %w", err))
	}
	return conv, nil
}

// Append inserts msgs in one transaction, continuing the session's sequence.
func (s *ConversationStore) Append(ctx context.Context, sessionID string, msgs ...chat.Message) (err error) {
	if err := store.CheckID("append", sessionID); err != nil {
		return err
	}
	if len(msgs) == 0 {
		return nil
	}

	payloads := make([][]byte, len(msgs))
	for i, msg := range msgs {
		data, err := json.Marshal(msg)
		if err != nil {
			return store.Wrap("append", sessionID, fmt.Errorf("failed to marshal message: %w", err))
		}
		payloads[i] = data
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return store.Wrap("append", sessionID, fmt.Errorf("failed to begin transaction: %w", err))
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	var next int
	seqQuery := fmt.Sprintf(`SELECT COALESCE(MAX(seq), 0) FROM %s WHERE session_id = $1`, s.tableName)
	if err = tx.QueryRow(ctx, seqQuery, sessionID).Scan(&next); err != nil {
		return store.Wrap("append", sessionID, fmt.Errorf("failed to read sequence: %w", err))
	}

	insert := fmt.Sprintf(`INSERT INTO %s (session_id, seq, message) VALUES ($1, $2, $3)`, s.tableName)
	for _, data := range payloads {
		next++
		if _, err = tx.Exec(ctx, insert, sessionID, next, data); err != nil {
			return store.Wrap("append", sessionID, fmt.Errorf("failed to insert message: %w", err))
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return store.Wrap("append", sessionID, fmt.Errorf("failed to commit transaction: %w", err))
	}
	return nil
}

// Reset deletes every row of the session.
func (s *ConversationStore) Reset(ctx context.Context, sessionID string) error {
	if err := store.CheckID("reset", sessionID); err != nil {
		return err
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE session_id = $1`, s.tableName)
	if _, err := s.pool.Exec(ctx, query, sessionID); err != nil {
		return store.Wrap("reset", sessionID, fmt.Errorf("failed to delete messages: %w", err))
	}
	return nil
}
