package retrieval

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/vectorstores"
)

type memoryEntry struct {
	id     string
	doc    schema.Document
	vector []float32
}

// MemoryIndex is an in-process vector index ranking documents by cosine
// similarity. It implements both Retriever and vectorstores.VectorStore, so
// the ingest pipeline can fill it and the agent can search it without an
// external database.
type MemoryIndex struct {
	embedder embeddings.Embedder

	mu      sync.RWMutex
	entries []memoryEntry
}

var _ vectorstores.VectorStore = (*MemoryIndex)(nil)

// NewMemoryIndex creates an empty index using embedder for documents and
// queries.
func NewMemoryIndex(embedder embeddings.Embedder) *MemoryIndex {
	return &MemoryIndex{embedder: embedder}
}

// Len returns the number of indexed documents.
func (m *MemoryIndex) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// AddDocuments embeds and stores docs, returning their generated ids.
func (m *MemoryIndex) AddDocuments(ctx context.Context, docs []schema.Document, _ ...vectorstores.Option) ([]string, error) {
	if len(docs) == 0 {
		return nil, nil
	}

	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.PageContent
	}

	vectors, err := m.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed documents: %w", err)
	}
	if len(vectors) != len(docs) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d documents", len(vectors), len(docs))
	}

	ids := make([]string, len(docs))
	entries := make([]memoryEntry, len(docs))
	for i, doc := range docs {
		ids[i] = uuid.NewString()
		entries[i] = memoryEntry{id: ids[i], doc: doc, vector: vectors[i]}
	}

	m.mu.Lock()
	m.entries = append(m.entries, entries...)
	m.mu.Unlock()

	return ids, nil
}

// SimilaritySearch returns up to numDocuments documents, best first, with
// Score set to the cosine similarity. vectorstores.WithScoreThreshold is
// honoured.
func (m *MemoryIndex) SimilaritySearch(ctx context.Context, query string, numDocuments int, options ...vectorstores.Option) ([]schema.Document, error) {
	opts := vectorstores.Options{}
	for _, opt := range options {
		opt(&opts)
	}

	m.mu.RLock()
	entries := m.entries
	m.mu.RUnlock()

	if len(entries) == 0 || numDocuments < 1 {
		return []schema.Document{}, nil
	}

	queryVector, err := m.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	type scored struct {
		doc   schema.Document
		score float32
	}
	results := make([]scored, 0, len(entries))
	for _, e := range entries {
		s := float32(cosineSimilarity(queryVector, e.vector))
		if opts.ScoreThreshold > 0 && s < opts.ScoreThreshold {
			continue
		}
		results = append(results, scored{doc: e.doc, score: s})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].score > results[j].score
	})
	if len(results) > numDocuments {
		results = results[:numDocuments]
	}

	docs := make([]schema.Document, len(results))
	for i, r := range results {
		doc := r.doc
		doc.Score = r.score
		docs[i] = doc
	}
	return docs, nil
}

// Retrieve implements Retriever.
func (m *MemoryIndex) Retrieve(ctx context.Context, query string, k int) ([]Passage, error) {
	if k < 1 {
		return nil, ErrInvalidK
	}
	docs, err := m.SimilaritySearch(ctx, query, k)
	if err != nil {
		return nil, &Error{Query: query, Err: err}
	}

	passages := make([]Passage, len(docs))
	for i, doc := range docs {
		passages[i] = Passage{
			Text:   doc.PageContent,
			Source: metadataString(doc.Metadata, "source"),
			Score:  score(float64(doc.Score)),
		}
	}
	return passages, nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
