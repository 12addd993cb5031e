package retrieval

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// UnknownSource labels passages whose document carried no source metadata.
const UnknownSource = "Unknown"

// NoContext is the text returned to the model when nothing matched.
const NoContext = "No relevant documents found for this question."

// ErrInvalidK is returned when a retrieval asks for fewer than one passage.
var ErrInvalidK = errors.New("k must be positive")

// Passage is a chunk of reference text returned for a query.
// Score is nil when the backend does not report one.
type Passage struct {
	Text   string   `json:"text"`
	Source string   `json:"source"`
	Score  *float64 `json:"score,omitempty"`
}

// Retriever finds passages relevant to a query.
//
// Retrieve returns at most k passages, best first. An empty corpus or no
// match yields an empty slice and a nil error.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]Passage, error)
}

// RetrieverFunc adapts a function to the Retriever interface.
type RetrieverFunc func(ctx context.Context, query string, k int) ([]Passage, error)

// Retrieve implements Retriever.
func (f RetrieverFunc) Retrieve(ctx context.Context, query string, k int) ([]Passage, error) {
	return f(ctx, query, k)
}

// Error reports a failure of the backing store or embedding service.
type Error struct {
	Query string
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("retrieval failed for %q: %v", e.Query, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsRetrievalError reports whether err is or wraps a *Error.
func IsRetrievalError(err error) bool {
	var re *Error
	return errors.As(err, &re)
}

// Format renders passages as numbered blocks separated by a blank line:
//
//	[Document 1 - Source: policy.md]
//	Refunds are accepted within 30 days.
func Format(passages []Passage) string {
	parts := make([]string, 0, len(passages))
	for i, p := range passages {
		source := p.Source
		if source == "" {
			source = UnknownSource
		}
		parts = append(parts, fmt.Sprintf("[Document %d - Source: %s]\n%s", i+1, source, strings.TrimSpace(p.Text)))
	}
	return strings.Join(parts, "\n\n")
}

// FailureText is the text returned to the model when retrieval failed.
func FailureText(err error) string {
	return "Error retrieving context: " + err.Error()
}

func score(v float64) *float64 {
	return &v
}
