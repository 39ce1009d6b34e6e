// Package query serves retrieval and question answering over an
// immutable index/chunk snapshot.
package query

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"corpusqa/internal/index"
	"corpusqa/internal/ingest"
)

// Defaults for Options fields left at their zero value.
const (
	DefaultMinQueryLength  = 2
	DefaultTopK            = 8
	DefaultMaxTopK         = 64
	DefaultPreviewLength   = 240
	DefaultNoContextAnswer = "No relevant context found."
)

// Embedder encodes the query text. Satisfied by embedding.Embedder.
type Embedder interface {
	Encode(ctx context.Context, texts []string) ([][]float32, error)
}

// Generator produces a grounded answer from retrieved chunks. Satisfied
// by generator.Generator.
type Generator interface {
	Answer(ctx context.Context, query string, contexts []string, formatJSON bool) (string, error)
}

// RebuildFunc runs a full ingestion and returns the fresh index with its
// chunk list. Wired to ingest.Pipeline.Run by the server binary.
type RebuildFunc func(ctx context.Context) (index.Searcher, []string, *ingest.BuildResult, error)

// Options bound request validation and response shaping.
type Options struct {
	MinQueryLength  int
	DefaultTopK     int
	MaxTopK         int
	PreviewLength   int
	NoContextAnswer string
}

func (o Options) withDefaults() Options {
	if o.MinQueryLength <= 0 {
		o.MinQueryLength = DefaultMinQueryLength
	}
	if o.DefaultTopK <= 0 {
		o.DefaultTopK = DefaultTopK
	}
	if o.MaxTopK <= 0 {
		o.MaxTopK = DefaultMaxTopK
	}
	if o.PreviewLength <= 0 {
		o.PreviewLength = DefaultPreviewLength
	}
	if o.NoContextAnswer == "" {
		o.NoContextAnswer = DefaultNoContextAnswer
	}
	return o
}

// Snapshot pairs an index with the chunk texts its rows point into.
// Snapshots are immutable: a rebuild installs a new one instead of
// mutating the old, so in-flight queries keep a consistent view.
type Snapshot struct {
	Index   index.Searcher
	Chunks  []string
	BuiltAt time.Time
}

// LoadSnapshot reads a persisted index/chunk pair and verifies they
// belong together before either is served.
func LoadSnapshot(indexPath, chunksPath string) (*Snapshot, error) {
	flat, err := index.Load(indexPath)
	if err != nil {
		return nil, fmt.Errorf("loading index: %w", err)
	}
	chunks, err := ingest.LoadChunks(chunksPath)
	if err != nil {
		return nil, fmt.Errorf("loading chunks: %w", err)
	}
	if flat.Len() != len(chunks) {
		return nil, fmt.Errorf("index has %d rows but chunk file has %d entries: the pair is inconsistent",
			flat.Len(), len(chunks))
	}
	return &Snapshot{Index: flat, Chunks: chunks, BuiltAt: time.Now()}, nil
}

// ScoredChunk is one retrieval hit: the chunk text and its distance to
// the query. Lower distances mean closer matches.
type ScoredChunk struct {
	Rank     int
	Row      int
	Distance float32
	Text     string
}

// SourceRef describes one chunk that grounded an answer.
type SourceRef struct {
	Rank    int     `json:"rank"`
	Score   float32 `json:"score"`
	Preview string  `json:"preview"`
}

// Answer is the result of a full retrieval-plus-generation query.
type Answer struct {
	Answer  string      `json:"answer"`
	Sources []SourceRef `json:"sources"`
}

// Health reports whether the service can answer queries and what it has
// loaded.
type Health struct {
	OK           bool
	IndexLoaded  bool
	ChunksLoaded bool
	ChunkCount   int
	BuiltAt      time.Time
}

// Service answers queries over the currently installed snapshot.
type Service struct {
	embedder  Embedder
	generator Generator
	rebuild   RebuildFunc
	opts      Options
	logger    *slog.Logger

	snap      atomic.Pointer[Snapshot]
	reindexMu sync.Mutex
}

// NewService creates a Service with no snapshot installed. A nil logger
// falls back to slog.Default().
func NewService(embedder Embedder, generator Generator, rebuild RebuildFunc, opts Options, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		embedder:  embedder,
		generator: generator,
		rebuild:   rebuild,
		opts:      opts.withDefaults(),
		logger:    logger,
	}
}

// Install makes snap the snapshot served by all subsequent queries.
func (s *Service) Install(snap *Snapshot) {
	s.snap.Store(snap)
}

// Retrieve embeds the query and returns the topK nearest chunks, closest
// first. topK == 0 selects the configured default.
func (s *Service) Retrieve(ctx context.Context, query string, topK int) ([]ScoredChunk, error) {
	query, topK, err := s.validate(query, topK)
	if err != nil {
		return nil, err
	}
	snap := s.snap.Load()
	if snap == nil {
		return nil, ErrIndexUnavailable
	}

	vectors, err := s.embedder.Encode(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("%w: embedding query: %w", ErrRetrieval, err)
	}
	hits, err := snap.Index.Search(ctx, vectors[0], topK)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRetrieval, err)
	}

	scored := make([]ScoredChunk, len(hits))
	for i, hit := range hits {
		if hit.Row < 0 || hit.Row >= len(snap.Chunks) {
			return nil, fmt.Errorf("%w: row %d, %d chunks", ErrChunkOutOfRange, hit.Row, len(snap.Chunks))
		}
		scored[i] = ScoredChunk{
			Rank:     i + 1,
			Row:      hit.Row,
			Distance: hit.Distance,
			Text:     snap.Chunks[hit.Row],
		}
	}
	return scored, nil
}

// Ask runs the full pipeline: retrieve context, then generate a grounded
// answer. When nothing is retrieved the generator is skipped and the
// configured no-context answer is returned with no sources.
func (s *Service) Ask(ctx context.Context, query string, topK int, formatJSON bool) (*Answer, error) {
	chunks, err := s.Retrieve(ctx, query, topK)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return &Answer{Answer: s.opts.NoContextAnswer, Sources: []SourceRef{}}, nil
	}

	contexts := make([]string, len(chunks))
	sources := make([]SourceRef, len(chunks))
	for i, c := range chunks {
		contexts[i] = c.Text
		sources[i] = SourceRef{
			Rank:    c.Rank,
			Score:   c.Distance,
			Preview: preview(c.Text, s.opts.PreviewLength),
		}
	}

	answer, err := s.generator.Answer(ctx, query, contexts, formatJSON)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGeneration, err)
	}
	return &Answer{Answer: answer, Sources: sources}, nil
}

// Reindex runs a full rebuild and atomically swaps in the new snapshot.
// The old snapshot keeps serving queries until the rebuild succeeds; a
// failed rebuild changes nothing.
func (s *Service) Reindex(ctx context.Context) (*ingest.BuildResult, error) {
	if !s.reindexMu.TryLock() {
		return nil, ErrReindexInProgress
	}
	defer s.reindexMu.Unlock()

	searcher, chunks, result, err := s.rebuild(ctx)
	if err != nil {
		return nil, err
	}
	s.Install(&Snapshot{Index: searcher, Chunks: chunks, BuiltAt: time.Now()})
	s.logger.Info("snapshot swapped",
		"chunks", result.Chunks,
		"dimension", result.Dimension,
		"duration", result.Duration.Round(time.Millisecond))
	return result, nil
}

// Health reports readiness. OK only when a complete snapshot is
// installed.
func (s *Service) Health() Health {
	snap := s.snap.Load()
	if snap == nil {
		return Health{}
	}
	return Health{
		OK:           true,
		IndexLoaded:  true,
		ChunksLoaded: true,
		ChunkCount:   len(snap.Chunks),
		BuiltAt:      snap.BuiltAt,
	}
}

func (s *Service) validate(query string, topK int) (string, int, error) {
	query = strings.TrimSpace(query)
	if len([]rune(query)) < s.opts.MinQueryLength {
		return "", 0, fmt.Errorf("%w: query must be at least %d characters", ErrInvalidRequest, s.opts.MinQueryLength)
	}
	if topK == 0 {
		topK = s.opts.DefaultTopK
	}
	if topK < 1 || topK > s.opts.MaxTopK {
		return "", 0, fmt.Errorf("%w: top_k must be between 1 and %d", ErrInvalidRequest, s.opts.MaxTopK)
	}
	return query, topK, nil
}

// preview truncates text to max runes, marking the cut with an ellipsis.
func preview(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max]) + "…"
}
