package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"corpusqa/internal/corpus"
	"corpusqa/internal/index"
)

type staticSource struct {
	records []corpus.Record
	err     error
}

func (s *staticSource) Load(_ context.Context) ([]corpus.Record, error) {
	return s.records, s.err
}

// wordCountEmbedder maps each text to a deterministic 2-dim vector so
// tests can reason about distances without a live API.
type wordCountEmbedder struct {
	err error
}

func (e *wordCountEmbedder) Encode(_ context.Context, texts []string) ([][]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		var sum float32
		for _, b := range []byte(text) {
			sum += float32(b)
		}
		vectors[i] = []float32{float32(len(strings.Fields(text))), sum}
	}
	return vectors, nil
}

func flatStore(t *testing.T) *FlatStore {
	t.Helper()
	dir := t.TempDir()
	return &FlatStore{
		IndexPath:  filepath.Join(dir, "index.bin"),
		ChunksPath: filepath.Join(dir, "chunks.json"),
	}
}

func record(id string, words int) corpus.Record {
	return corpus.Record{ID: id, Content: strings.Repeat("word ", words)}
}

func TestPipeline_Run(t *testing.T) {
	source := &staticSource{records: []corpus.Record{
		record("a", 100),
		record("b", 120),
		{ID: "short", Content: "too short"},
	}}
	store := flatStore(t)
	p := New(source, &wordCountEmbedder{}, store, Options{
		ChunkSize:        50,
		Overlap:          10,
		MinContentLength: 50,
	}, nil)

	searcher, chunks, result, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, result.RecordsTotal)
	assert.Equal(t, 2, result.RecordsKept)
	assert.Equal(t, 1, result.RecordsDropped)
	assert.Equal(t, len(chunks), result.Chunks)
	assert.Equal(t, 2, result.Dimension)
	assert.Equal(t, len(chunks), searcher.Len())

	// Persisted pair must match what Run returned.
	loaded, err := index.Load(store.IndexPath)
	require.NoError(t, err)
	assert.Equal(t, searcher.Len(), loaded.Len())

	persisted, err := LoadChunks(store.ChunksPath)
	require.NoError(t, err)
	assert.Equal(t, chunks, persisted)
}

func TestPipeline_ChunkPositionsMatchIndexRows(t *testing.T) {
	// Numbered words make every chunk's text, and so its vector, unique.
	words := make([]string, 200)
	for i := range words {
		words[i] = fmt.Sprintf("w%d", i)
	}
	source := &staticSource{records: []corpus.Record{
		{ID: "a", Content: strings.Join(words, " ")},
	}}
	store := flatStore(t)
	p := New(source, &wordCountEmbedder{}, store, Options{
		ChunkSize:        50,
		Overlap:          0,
		MinContentLength: 1,
	}, nil)

	searcher, chunks, _, err := p.Run(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	// Searching with a chunk's own vector must return that chunk's row
	// at distance zero.
	embedder := &wordCountEmbedder{}
	for i, chunk := range chunks {
		vecs, err := embedder.Encode(context.Background(), []string{chunk})
		require.NoError(t, err)
		hits, err := searcher.Search(context.Background(), vecs[0], 1)
		require.NoError(t, err)
		require.Len(t, hits, 1)
		assert.Equal(t, i, hits[0].Row)
		assert.Zero(t, hits[0].Distance)
	}
}

func TestPipeline_EmptyCorpus(t *testing.T) {
	store := flatStore(t)
	p := New(&staticSource{}, &wordCountEmbedder{}, store, Options{
		ChunkSize:        50,
		MinContentLength: 1,
	}, nil)

	searcher, chunks, result, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, searcher.Len())
	assert.Empty(t, chunks)
	assert.Zero(t, result.Chunks)

	persisted, err := LoadChunks(store.ChunksPath)
	require.NoError(t, err)
	assert.Empty(t, persisted)
}

func TestPipeline_EmbedFailureLeavesStoreUntouched(t *testing.T) {
	store := flatStore(t)

	// Seed a valid pair.
	good := New(&staticSource{records: []corpus.Record{record("a", 100)}},
		&wordCountEmbedder{}, store, Options{ChunkSize: 50, MinContentLength: 1}, nil)
	_, chunks, _, err := good.Run(context.Background())
	require.NoError(t, err)

	bad := New(&staticSource{records: []corpus.Record{record("b", 100)}},
		&wordCountEmbedder{err: errors.New("quota exceeded")},
		store, Options{ChunkSize: 50, MinContentLength: 1}, nil)
	_, _, _, err = bad.Run(context.Background())
	require.Error(t, err)

	persisted, err := LoadChunks(store.ChunksPath)
	require.NoError(t, err)
	assert.Equal(t, chunks, persisted)
}

func TestPipeline_SourceFailure(t *testing.T) {
	p := New(&staticSource{err: fmt.Errorf("connection refused")},
		&wordCountEmbedder{}, flatStore(t), Options{ChunkSize: 50}, nil)
	_, _, _, err := p.Run(context.Background())
	assert.ErrorContains(t, err, "loading corpus")
}

func TestFlatStore_CountMismatch(t *testing.T) {
	store := flatStore(t)
	_, err := store.Rebuild(context.Background(),
		[][]float32{{1, 2}}, []string{"a", "b"})
	assert.ErrorContains(t, err, "does not match")

	_, statErr := os.Stat(store.IndexPath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestFlatStore_NoTempFilesLeftBehind(t *testing.T) {
	store := flatStore(t)
	_, err := store.Rebuild(context.Background(),
		[][]float32{{1, 2}, {3, 4}}, []string{"a", "b"})
	require.NoError(t, err)

	entries, err := os.ReadDir(filepath.Dir(store.IndexPath))
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".tmp")
	}
}
