package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/smallnest/ragagent/log"
	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/vectorstores"
)

// ErrNoDocuments is returned when a directory holds no usable documents.
var ErrNoDocuments = errors.New("no documents found")

// DefaultBatchSize is the number of chunks added to the store per call.
const DefaultBatchSize = 64

// Stats summarizes an ingestion run. Chunk sizes are in characters.
type Stats struct {
	Files     int
	Documents int
	Chunks    int
	MinChunk  int
	MaxChunk  int
	AvgChunk  int

	// SmokeHits is the number of passages the smoke query returned.
	SmokeHits int
	Elapsed   time.Duration
}

// Ingester loads a directory, splits it and indexes the chunks.
type Ingester struct {
	loader     *Loader
	splitter   *Splitter
	store      vectorstores.VectorStore
	batchSize  int
	smokeQuery string
	logger     log.Logger
}

// Option configures an Ingester.
type Option func(*Ingester)

// WithLoader replaces the default loader.
func WithLoader(l *Loader) Option {
	return func(in *Ingester) {
		in.loader = l
	}
}

// WithBatchSize sets how many chunks are added per call.
func WithBatchSize(n int) Option {
	return func(in *Ingester) {
		in.batchSize = n
	}
}

// WithSmokeQuery runs query against the store after indexing.
func WithSmokeQuery(query string) Option {
	return func(in *Ingester) {
		in.smokeQuery = query
	}
}

// WithLogger sets the logger.
func WithLogger(logger log.Logger) Option {
	return func(in *Ingester) {
		in.logger = logger
	}
}

// NewIngester creates an Ingester writing to store.
func NewIngester(store vectorstores.VectorStore, splitter *Splitter, opts ...Option) *Ingester {
	in := &Ingester{
		loader:    NewLoader(),
		splitter:  splitter,
		store:     store,
		batchSize: DefaultBatchSize,
	}
	for _, opt := range opts {
		opt(in)
	}
	if in.batchSize < 1 {
		in.batchSize = DefaultBatchSize
	}
	if in.logger == nil {
		in.logger = log.GetDefaultLogger()
	}
	return in
}

// Run ingests dir.
func (in *Ingester) Run(ctx context.Context, dir string) (*Stats, error) {
	start := time.Now()

	docs, files, err := in.loader.Load(ctx, dir)
	if err != nil {
		return nil, err
	}
	in.logger.Info("loaded %d document(s) from %d file(s) in %s", len(docs), files, dir)
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoDocuments, dir)
	}

	chunks, err := in.splitter.Split(docs)
	if err != nil {
		return nil, err
	}
	stats := chunkStats(chunks)
	stats.Files = files
	stats.Documents = len(docs)
	in.logger.Info("split into %d chunk(s): min=%d max=%d avg=%d", stats.Chunks, stats.MinChunk, stats.MaxChunk, stats.AvgChunk)

	for i := 0; i < len(chunks); i += in.batchSize {
		end := min(i+in.batchSize, len(chunks))
		if _, err := in.store.AddDocuments(ctx, chunks[i:end]); err != nil {
			return nil, fmt.Errorf("failed to index chunks %d-%d: %w", i, end-1, err)
		}
		in.logger.Debug("indexed chunks %d-%d of %d", i, end-1, len(chunks))
	}

	if in.smokeQuery != "" {
		hits, err := in.store.SimilaritySearch(ctx, in.smokeQuery, 3)
		if err != nil {
			return nil, fmt.Errorf("smoke query failed: %w", err)
		}
		stats.SmokeHits = len(hits)
		for i, hit := range hits {
			in.logger.Debug("smoke hit %d: source=%v score=%.3f", i+1, hit.Metadata[MetadataSource], hit.Score)
		}
		if len(hits) == 0 {
			in.logger.Warn("smoke query %q returned nothing", in.smokeQuery)
		}
	}

	stats.Elapsed = time.Since(start)
	in.logger.Info("ingestion finished in %s", stats.Elapsed.Round(time.Millisecond))
	return stats, nil
}

func chunkStats(chunks []schema.Document) *Stats {
	stats := &Stats{Chunks: len(chunks)}
	if len(chunks) == 0 {
		return stats
	}
	total := 0
	for i, c := range chunks {
		n := utf8.RuneCountInString(c.PageContent)
		total += n
		if i == 0 || n < stats.MinChunk {
			stats.MinChunk = n
		}
		if n > stats.MaxChunk {
			stats.MaxChunk = n
		}
	}
	stats.AvgChunk = total / len(chunks)
	return stats
}
