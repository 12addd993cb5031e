// Package retrieval defines the retrieval port used by the agent's
// retrieve_context tool and its backends.
//
// NewVectorStore adapts any langchaingo vector store (Chroma, pgvector, ...)
// and MemoryIndex keeps an in-process index for tests and small corpora.
// Format renders passages into the text handed back to the model.
package retrieval
