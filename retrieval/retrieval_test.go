package retrieval

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormat(t *testing.T) {
	out := Format([]Passage{
		{Text: "  Refunds within 30 days.\n", Source: "policy.md"},
		{Text: "Shipping takes 5 days."},
	})
	assert.Equal(t,
		"[Document 1 - Source: policy.md]\nRefunds within 30 days.\n\n[Document 2 - Source: Unknown]\nShipping takes 5 days.",
		out)

	assert.Equal(t, "", Format(nil))
}

func TestError(t *testing.T) {
	cause := errors.New("connection refused")
	err := &Error{Query: "refund", Err: cause}

	assert.Equal(t, `retrieval failed for "refund": connection refused`, err.Error())
	assert.ErrorIs(t, err, cause)
	assert.True(t, IsRetrievalError(err))
	assert.False(t, IsRetrievalError(cause))

	assert.Equal(t, `Error retrieving context: retrieval failed for "refund": connection refused`, FailureText(err))
}

func TestRetrieverFunc(t *testing.T) {
	var r Retriever = RetrieverFunc(func(_ context.Context, query string, k int) ([]Passage, error) {
		return []Passage{{Text: query}}, nil
	})
	got, err := r.Retrieve(context.Background(), "q", 1)
	assert.NoError(t, err)
	assert.Equal(t, "q", got[0].Text)
}
