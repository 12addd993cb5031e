package retrieval

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/vectorstores"
)

// VectorStore adapts a langchaingo vectorstores.VectorStore, such as Chroma
// or pgvector, to the Retriever interface.
type VectorStore struct {
	store          vectorstores.VectorStore
	scoreThreshold float32
	sourceKey      string
}

// VectorStoreOption configures a VectorStore.
type VectorStoreOption func(*VectorStore)

// WithScoreThreshold drops passages scoring below threshold.
func WithScoreThreshold(threshold float32) VectorStoreOption {
	return func(v *VectorStore) {
		v.scoreThreshold = threshold
	}
}

// WithSourceKey sets the metadata key holding the document source.
// The default is "source".
func WithSourceKey(key string) VectorStoreOption {
	return func(v *VectorStore) {
		v.sourceKey = key
	}
}

// NewVectorStore wraps store.
func NewVectorStore(store vectorstores.VectorStore, opts ...VectorStoreOption) *VectorStore {
	v := &VectorStore{store: store, sourceKey: "source"}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Retrieve implements Retriever.
func (v *VectorStore) Retrieve(ctx context.Context, query string, k int) ([]Passage, error) {
	if k < 1 {
		return nil, ErrInvalidK
	}

	var opts []vectorstores.Option
	if v.scoreThreshold > 0 {
		opts = append(opts, vectorstores.WithScoreThreshold(v.scoreThreshold))
	}

	docs, err := v.store.SimilaritySearch(ctx, query, k, opts...)
	if err != nil {
		return nil, &Error{Query: query, Err: fmt.Errorf("similarity search: %w", err)}
	}

	if len(docs) > k {
		docs = docs[:k]
	}
	return v.toPassages(docs), nil
}

func (v *VectorStore) toPassages(docs []schema.Document) []Passage {
	passages := make([]Passage, 0, len(docs))
	for _, doc := range docs {
		p := Passage{Text: doc.PageContent, Source: metadataString(doc.Metadata, v.sourceKey)}
		if doc.Score != 0 {
			p.Score = score(float64(doc.Score))
		}
		passages = append(passages, p)
	}
	return passages
}

func metadataString(metadata map[string]any, key string) string {
	if metadata == nil {
		return ""
	}
	switch val := metadata[key].(type) {
	case string:
		return val
	case nil:
		return ""
	default:
		return fmt.Sprint(val)
	}
}
