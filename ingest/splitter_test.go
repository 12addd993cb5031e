package ingest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/schema"
)

func TestNewSplitter_Validation(t *testing.T) {
	_, err := NewSplitter(100, 100)
	assert.Error(t, err)
	_, err = NewSplitter(100, -1)
	assert.Error(t, err)
	_, err = NewSplitter(DefaultChunkSize, DefaultChunkOverlap)
	assert.NoError(t, err)
}

func TestSplitter_Split(t *testing.T) {
	s, err := NewSplitter(50, 10)
	require.NoError(t, err)

	text := strings.Repeat("one two three four five. ", 10)
	chunks, err := s.Split([]schema.Document{{
		PageContent: text,
		Metadata:    map[string]any{MetadataSource: "doc.txt"},
	}})
	require.NoError(t, err)

	require.Greater(t, len(chunks), 1)
	for i, c := range chunks {
		assert.LessOrEqual(t, len(c.PageContent), 50)
		assert.Equal(t, "doc.txt", c.Metadata[MetadataSource])
		assert.Equal(t, i, c.Metadata[MetadataChunk])
	}
}

func TestSplitter_KeepsShortDocuments(t *testing.T) {
	s, err := NewSplitter(50, 10)
	require.NoError(t, err)

	chunks, err := s.Split([]schema.Document{{PageContent: "short", Metadata: map[string]any{}}})
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "short", chunks[0].PageContent)
}
