package agent

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/smallnest/ragagent/chat"
	"github.com/smallnest/ragagent/log"
	"github.com/smallnest/ragagent/store"
)

// NewSessionID returns a fresh random session id.
func NewSessionID() string {
	return uuid.NewString()
}

// Session is the entry point for conversations. It loads a session's
// history, runs one turn through the Controller and commits the turn's
// messages with a single Append. Turns of the same session run one at a
// time; different sessions never wait on each other.
type Session struct {
	controller *Controller
	store      store.ConversationStore
	locks      *lockTable
	logger     log.Logger
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithSessionLogger sets the logger. Defaults to log.GetDefaultLogger().
func WithSessionLogger(logger log.Logger) SessionOption {
	return func(s *Session) {
		s.logger = logger
	}
}

// NewSession creates a session interface over controller and conversations.
func NewSession(controller *Controller, conversations store.ConversationStore, opts ...SessionOption) *Session {
	s := &Session{
		controller: controller,
		store:      conversations,
		locks:      newLockTable(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.GetDefaultLogger()
	}
	return s
}

// Submit runs a turn and returns the answer text.
//
// Failures of the model or the knowledge base still produce an answer. The
// error is non-nil for empty text (ErrEmptyMessage), for store failures and
// for cancellation, both reported as *TurnError.
func (s *Session) Submit(ctx context.Context, sessionID, text string) (string, error) {
	res, err := s.SubmitTurn(ctx, sessionID, text)
	if err != nil {
		return "", err
	}
	return res.Answer, nil
}

// SubmitTurn is Submit returning the full turn result.
func (s *Session) SubmitTurn(ctx context.Context, sessionID, text string) (*TurnResult, error) {
	return s.submit(ctx, sessionID, text, nil)
}

func (s *Session) submit(ctx context.Context, sessionID, text string, onDelta DeltaFunc) (*TurnResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyMessage
	}
	if err := store.CheckID("submit", sessionID); err != nil {
		return nil, &TurnError{Kind: KindSessionStore, Session: sessionID, Err: err}
	}

	release, err := s.locks.acquire(ctx, sessionID)
	if err != nil {
		return nil, &TurnError{Kind: KindCancelled, Session: sessionID, Err: err}
	}
	defer release()

	history, err := s.store.Get(ctx, sessionID)
	if err != nil {
		if ctx.Err() != nil {
			return nil, &TurnError{Kind: KindCancelled, Session: sessionID, Err: ctx.Err()}
		}
		s.logger.Error("failed to load session %s: %v", sessionID, err)
		return nil, &TurnError{Kind: KindSessionStore, Session: sessionID, Err: err}
	}

	res, err := s.controller.Run(ctx, sessionID, history, text, onDelta)
	if err != nil {
		return nil, &TurnError{Kind: KindCancelled, Session: sessionID, Err: err}
	}
	if err := ctx.Err(); err != nil {
		return nil, &TurnError{Kind: KindCancelled, Session: sessionID, Err: err}
	}

	if err := s.store.Append(ctx, sessionID, res.Messages...); err != nil {
		kind := KindSessionStore
		if errors.Is(err, context.Canceled) {
			kind = KindCancelled
		}
		s.logger.Error("failed to commit turn for session %s: %v", sessionID, err)
		return nil, &TurnError{Kind: kind, Session: sessionID, Err: err}
	}

	if res.Outcome != KindNone {
		s.logger.Warn("session %s: turn ended with %s", sessionID, res.Outcome)
	}
	return res, nil
}

// History returns the committed conversation of a session.
func (s *Session) History(ctx context.Context, sessionID string) (chat.Conversation, error) {
	conv, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, &TurnError{Kind: KindSessionStore, Session: sessionID, Err: err}
	}
	return conv, nil
}

// Reset clears a session. It waits for a running turn of the session to
// finish first.
func (s *Session) Reset(ctx context.Context, sessionID string) error {
	if err := store.CheckID("reset", sessionID); err != nil {
		return &TurnError{Kind: KindSessionStore, Session: sessionID, Err: err}
	}

	release, err := s.locks.acquire(ctx, sessionID)
	if err != nil {
		return &TurnError{Kind: KindCancelled, Session: sessionID, Err: err}
	}
	defer release()

	if err := s.store.Reset(ctx, sessionID); err != nil {
		return &TurnError{Kind: KindSessionStore, Session: sessionID, Err: err}
	}
	s.logger.Info("session %s reset", sessionID)
	return nil
}
