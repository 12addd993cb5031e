package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/smallnest/ragagent/model"
	"github.com/smallnest/ragagent/retrieval"
	"github.com/smallnest/ragagent/store"
	"github.com/smallnest/ragagent/tool"
)

// ErrEmptyMessage is returned for user text that is empty or only whitespace.
var ErrEmptyMessage = errors.New("message is empty")

// ErrorKind classifies what went wrong in a turn.
type ErrorKind int

const (
	KindNone ErrorKind = iota
	// KindRetrieval: the knowledge base failed; the model saw the failure text.
	KindRetrieval
	// KindModelProtocol: the model returned something that cannot be acted on.
	KindModelProtocol
	// KindRoundLimit: the model kept requesting tools past the round budget.
	KindRoundLimit
	// KindTimeout: the model did not respond in time, retries included.
	KindTimeout
	// KindSessionStore: the conversation could not be read or committed.
	KindSessionStore
	// KindCancelled: the caller gave up on the turn.
	KindCancelled
	// KindModel: the model call failed for another reason.
	KindModel
)

func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindRetrieval:
		return "retrieval"
	case KindModelProtocol:
		return "model_protocol"
	case KindRoundLimit:
		return "round_limit"
	case KindTimeout:
		return "timeout"
	case KindSessionStore:
		return "session_store"
	case KindCancelled:
		return "cancelled"
	case KindModel:
		return "model"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// MarshalText renders the kind by name.
func (k ErrorKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText parses a kind name produced by MarshalText.
func (k *ErrorKind) UnmarshalText(text []byte) error {
	for kind := KindNone; kind <= KindModel; kind++ {
		if kind.String() == string(text) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown error kind %q", text)
}

// TurnError is returned by Session when a turn fails without an answer.
type TurnError struct {
	Kind    ErrorKind
	Session string
	Err     error
}

func (e *TurnError) Error() string {
	return fmt.Sprintf("turn in session %q failed (%s): %v", e.Session, e.Kind, e.Err)
}

func (e *TurnError) Unwrap() error {
	return e.Err
}

// KindOf classifies err.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindNone
	}

	var te *TurnError
	if errors.As(err, &te) {
		return te.Kind
	}

	var argErr *tool.ArgumentError
	switch {
	case store.IsStoreError(err):
		return KindSessionStore
	case errors.Is(err, context.Canceled):
		return KindCancelled
	case errors.Is(err, model.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case model.IsProtocolError(err), errors.As(err, &argErr), errors.Is(err, tool.ErrUnknownTool):
		return KindModelProtocol
	case retrieval.IsRetrievalError(err):
		return KindRetrieval
	default:
		return KindModel
	}
}

// fallbackAnswer is the user-facing text for a turn that ended with kind.
func fallbackAnswer(kind ErrorKind) string {
	switch kind {
	case KindRoundLimit:
		return RoundLimitMessage
	case KindModelProtocol:
		return ProtocolFailureMessage
	case KindTimeout:
		return TimeoutMessage
	default:
		return ModelFailureMessage
	}
}
