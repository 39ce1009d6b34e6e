// Package ingest builds a searchable index from a corpus: load records,
// filter out short ones, split into chunks, embed, and persist.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"corpusqa/internal/chunker"
	"corpusqa/internal/corpus"
	"corpusqa/internal/index"
)

// Embedder encodes texts into vectors. Satisfied by embedding.Embedder.
type Embedder interface {
	Encode(ctx context.Context, texts []string) ([][]float32, error)
}

// Options control how records are filtered and chunked.
type Options struct {
	ChunkSize        int // words per chunk
	Overlap          int // words shared between consecutive chunks
	MinContentLength int // records shorter than this are dropped
}

// BuildResult summarizes a completed pipeline run.
type BuildResult struct {
	RecordsTotal   int
	RecordsKept    int
	RecordsDropped int
	Chunks         int
	Dimension      int
	Duration       time.Duration
}

// Pipeline runs the full ingestion flow. The chunk at position i of the
// returned chunk list is always the text that produced row i of the
// returned index.
type Pipeline struct {
	source   corpus.Source
	embedder Embedder
	store    Store
	opts     Options
	logger   *slog.Logger
}

// New creates a Pipeline. A nil logger falls back to slog.Default().
func New(source corpus.Source, embedder Embedder, store Store, opts Options, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{source: source, embedder: embedder, store: store, opts: opts, logger: logger}
}

// Run executes the pipeline end to end and returns the freshly built
// index alongside its chunk list. Any failure aborts the run before the
// store is touched, so previously persisted artifacts stay intact.
func (p *Pipeline) Run(ctx context.Context) (index.Searcher, []string, *BuildResult, error) {
	start := time.Now()

	records, err := p.source.Load(ctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("loading corpus: %w", err)
	}
	total := len(records)

	kept, dropped := corpus.Filter(records, p.opts.MinContentLength)
	p.logger.Info("corpus loaded",
		"records", total,
		"kept", len(kept),
		"dropped", dropped)

	chunks := chunker.FromRecords(kept, p.opts.ChunkSize, p.opts.Overlap)
	p.logger.Info("corpus chunked",
		"chunks", len(chunks),
		"chunk_size", p.opts.ChunkSize,
		"overlap", p.opts.Overlap)

	vectors, err := p.embedder.Encode(ctx, chunks)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("embedding chunks: %w", err)
	}
	dim := 0
	if len(vectors) > 0 {
		dim = len(vectors[0])
	}
	p.logger.Info("chunks embedded", "vectors", len(vectors), "dimension", dim)

	searcher, err := p.store.Rebuild(ctx, vectors, chunks)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("persisting index: %w", err)
	}

	result := &BuildResult{
		RecordsTotal:   total,
		RecordsKept:    len(kept),
		RecordsDropped: dropped,
		Chunks:         len(chunks),
		Dimension:      dim,
		Duration:       time.Since(start),
	}
	p.logger.Info("index built",
		"chunks", result.Chunks,
		"dimension", result.Dimension,
		"duration", result.Duration.Round(time.Millisecond))
	return searcher, chunks, result, nil
}
