package ingest

import (
	"fmt"
	"maps"

	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/textsplitter"
)

// Default chunking parameters, in characters.
const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

// MetadataChunk is the index of a chunk within its source document.
const MetadataChunk = "chunk"

// Splitter cuts documents into overlapping chunks, preferring paragraph,
// then line, then word boundaries.
type Splitter struct {
	size     int
	overlap  int
	splitter textsplitter.TextSplitter
}

// NewSplitter creates a Splitter. size must exceed overlap and overlap must
// not be negative.
func NewSplitter(size, overlap int) (*Splitter, error) {
	if overlap < 0 {
		return nil, fmt.Errorf("chunk overlap must not be negative, got %d", overlap)
	}
	if size <= overlap {
		return nil, fmt.Errorf("chunk size (%d) must be greater than chunk overlap (%d)", size, overlap)
	}
	return &Splitter{
		size:    size,
		overlap: overlap,
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(size),
			textsplitter.WithChunkOverlap(overlap),
			textsplitter.WithSeparators([]string{"\n\n", "\n", " ", ""}),
		),
	}, nil
}

// Split returns the chunks of docs. Each chunk keeps its document's metadata
// and gains its index under MetadataChunk.
func (s *Splitter) Split(docs []schema.Document) ([]schema.Document, error) {
	var chunks []schema.Document
	for _, doc := range docs {
		parts, err := s.splitter.SplitText(doc.PageContent)
		if err != nil {
			return nil, fmt.Errorf("failed to split document %v: %w", doc.Metadata[MetadataSource], err)
		}
		for i, part := range parts {
			metadata := make(map[string]any, len(doc.Metadata)+1)
			maps.Copy(metadata, doc.Metadata)
			metadata[MetadataChunk] = i
			chunks = append(chunks, schema.Document{PageContent: part, Metadata: metadata})
		}
	}
	return chunks, nil
}
