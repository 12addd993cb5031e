package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/smallnest/ragagent/chat"
	"github.com/smallnest/ragagent/store"
)

// ConversationStore implements store.ConversationStore using SQLite.
type ConversationStore struct {
	db        *sql.DB
	tableName string
}

// Options configuration for SQLite connection
type Options struct {
	Path      string
	TableName string // Default "conversation_messages"
}

// New opens the database at opts.Path and creates the table if needed.
func New(opts Options) (*ConversationStore, error) {
	db, err := sql.Open("sqlite3", opts.Path)
	if err != nil {
		return nil, fmt.Errorf("unable to open database: %w", err)
	}
	// SQLite allows one writer; a single connection also keeps ":memory:"
	// databases shared across calls.
	db.SetMaxOpenConns(1)

	tableName := opts.TableName
	if tableName == "" {
		tableName = "conversation_messages"
	}

	s := &ConversationStore{
		db:        db,
		tableName: tableName,
	}

	if err := s.InitSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// InitSchema creates the necessary table if it doesn't exist
func (s *ConversationStore) InitSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			session_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			message TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (session_id, seq)
		);
	`, s.tableName)

	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the database connection
func (s *ConversationStore) Close() error {
	return s.db.Close()
}

// Get returns the session's messages ordered by sequence.
func (s *ConversationStore) Get(ctx context.Context, sessionID string) (chat.Conversation, error) {
	if err := store.CheckID("get", sessionID); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT message FROM %s WHERE session_id = ? ORDER BY seq ASC`, s.tableName)
	rows, err := s.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, store.Wrap("get", sessionID, fmt.Errorf("failed to query messages: %w", err))
	}
	defer rows.Close()

	conv := chat.Conversation{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, store.Wrap("get", sessionID, fmt.Errorf("failed to scan message: %w", err))
		}
		var msg chat.Message
		if err := json.Unmarshal([]byte(data), &msg); err != nil {
			return nil, store.Wrap("get", sessionID, fmt.Errorf("failed to unmarshal message: %w", err))
		}
		conv = append(conv, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, store.Wrap("get", sessionID, fmt.Errorf("failed to iterate messages: %w", err))
	}
	return conv, nil
}

// Append inserts msgs in one transaction.
func (s *ConversationStore) Append(ctx context.Context, sessionID string, msgs ...chat.Message) error {
	if err := store.CheckID("append", sessionID); err != nil {
		return err
	}
	if len(msgs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return store.Wrap("append", sessionID, fmt.Errorf("failed to begin transaction: %w", err))
	}
	defer tx.Rollback()

	var next int
	seqQuery := fmt.Sprintf(`SELECT COALESCE(MAX(seq), 0) FROM %s WHERE session_id = ?`, s.tableName)
	if err := tx.QueryRowContext(ctx, seqQuery, sessionID).Scan(&next); err != nil {
		return store.Wrap("append", sessionID, fmt.Errorf("failed to read sequence: %w", err))
	}

	insert := fmt.Sprintf(`INSERT INTO %s (session_id, seq, message) VALUES (?, ?, ?)`, s.tableName)
	for _, msg := range msgs {
		data, err := json.Marshal(msg)
		if err != nil {
			return store.Wrap("append", sessionID, fmt.Errorf("failed to marshal message: %w", err))
		}
		next++
		if _, err := tx.ExecContext(ctx, insert, sessionID, next, string(data)); err != nil {
			return store.Wrap("append", sessionID, fmt.Errorf("failed to insert message: %w", err))
		}
	}

	if err := tx.Commit(); err != nil {
		return store.Wrap("append", sessionID, fmt.Errorf("failed to commit transaction: %w", err))
	}
	return nil
}

// Reset deletes every row of the session.
func (s *ConversationStore) Reset(ctx context.Context, sessionID string) error {
	if err := store.CheckID("reset", sessionID); err != nil {
		return err
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE session_id = ?`, s.tableName)
	if _, err := s.db.ExecContext(ctx, query, sessionID); err != nil {
		return store.Wrap("reset", sessionID, fmt.Errorf("failed to delete messages: %w", err))
	}
	return nil
}
