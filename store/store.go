package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/smallnest/ragagent/chat"
)

// ErrInvalidSessionID is returned for blank session ids.
var ErrInvalidSessionID = errors.New("invalid session id")

// ConversationStore persists the committed history of each session.
//
// Get on an unknown session returns an empty conversation, not an error.
// Append is atomic per call: either every message is stored or none is.
type ConversationStore interface {
	Get(ctx context.Context, sessionID string) (chat.Conversation, error)
	Append(ctx context.Context, sessionID string, msgs ...chat.Message) error
	Reset(ctx context.Context, sessionID string) error
}

// Error wraps a backend failure with the operation and session it affected.
type Error struct {
	Op        string
	SessionID string
	Err       error
}

func (e *Error) Error() string {
	return fmt.Sprintf("session store %s %q: %v", e.Op, e.SessionID, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Wrap returns err as a *Error for op on sessionID. A nil err stays nil and an
// existing *Error is returned unchanged.
func Wrap(op, sessionID string, err error) error {
	if err == nil {
		return nil
	}
	var se *Error
	if errors.As(err, &se) {
		return err
	}
	return &Error{Op: op, SessionID: sessionID, Err: err}
}

// IsStoreError reports whether err came from a conversation store.
func IsStoreError(err error) bool {
	var se *Error
	return errors.As(err, &se)
}

// CheckID validates a session id, returning a *Error wrapping
// ErrInvalidSessionID when it is blank.
func CheckID(op, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return &Error{Op: op, SessionID: sessionID, Err: ErrInvalidSessionID}
	}
	return nil
}
