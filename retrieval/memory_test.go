package retrieval

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/vectorstores"
)

// keywordEmbedder maps text onto counts of a fixed vocabulary.
type keywordEmbedder struct {
	vocab []string
	err   error
}

func (e keywordEmbedder) embed(text string) []float32 {
	lower := strings.ToLower(text)
	v := make([]float32, len(e.vocab))
	for i, w := range e.vocab {
		v[i] = float32(strings.Count(lower, w))
	}
	return v
}

func (e keywordEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = e.embed(t)
	}
	return out, nil
}

func (e keywordEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	return e.embed(text), nil
}

var testVocab = []string{"refund", "shipping", "warranty", "days"}

func seededIndex(t *testing.T) *MemoryIndex {
	t.Helper()
	idx := NewMemoryIndex(keywordEmbedder{vocab: testVocab})
	ids, err := idx.AddDocuments(context.Background(), []schema.Document{
		{PageContent: "Refund requests are accepted within 30 days.", Metadata: map[string]any{"source": "refunds.md"}},
		{PageContent: "Shipping takes 5 business days.", Metadata: map[string]any{"source": "shipping.md"}},
		{PageContent: "The warranty covers two years.", Metadata: map[string]any{"source": "warranty.md"}},
	})
	require.NoError(t, err)
	require.Len(t, ids, 3)
	return idx
}

func TestMemoryIndex_Retrieve(t *testing.T) {
	idx := seededIndex(t)
	assert.Equal(t, 3, idx.Len())

	passages, err := idx.Retrieve(context.Background(), "refund policy", 2)
	require.NoError(t, err)
	require.NotEmpty(t, passages)
	assert.LessOrEqual(t, len(passages), 2)
	assert.Equal(t, "refunds.md", passages[0].Source)
	require.NotNil(t, passages[0].Score)
	assert.Greater(t, *passages[0].Score, 0.5)
}

func TestMemoryIndex_RetrieveBounds(t *testing.T) {
	idx := seededIndex(t)

	passages, err := idx.Retrieve(context.Background(), "days", 10)
	require.NoError(t, err)
	assert.Len(t, passages, 3)

	_, err = idx.Retrieve(context.Background(), "days", 0)
	assert.ErrorIs(t, err, ErrInvalidK)
}

func TestMemoryIndex_EmptyCorpus(t *testing.T) {
	idx := NewMemoryIndex(keywordEmbedder{vocab: testVocab, err: errors.New("must not be called")})

	passages, err := idx.Retrieve(context.Background(), "refund", 4)
	require.NoError(t, err)
	assert.Empty(t, passages)
}

func TestMemoryIndex_ScoreThreshold(t *testing.T) {
	idx := seededIndex(t)

	docs, err := idx.SimilaritySearch(context.Background(), "warranty", 3, vectorstores.WithScoreThreshold(0.5))
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "warranty.md", docs[0].Metadata["source"])
}

func TestMemoryIndex_EmbedderFailure(t *testing.T) {
	idx := NewMemoryIndex(keywordEmbedder{vocab: testVocab, err: errors.New("quota exceeded")})

	_, err := idx.AddDocuments(context.Background(), []schema.Document{{PageContent: "x"}})
	assert.ErrorContains(t, err, "quota exceeded")

	idx.entries = append(idx.entries, memoryEntry{id: "1", doc: schema.Document{PageContent: "x"}, vector: []float32{1, 0, 0, 0}})
	_, err = idx.Retrieve(context.Background(), "x", 1)
	assert.True(t, IsRetrievalError(err))
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, cosineSimilarity([]float32{1, 2}, []float32{2, 4}), 1e-9)
	assert.InDelta(t, 0.0, cosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.Equal(t, 0.0, cosineSimilarity([]float32{1}, []float32{1, 2}))
	assert.Equal(t, 0.0, cosineSimilarity([]float32{0, 0}, []float32{1, 2}))
}
