package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"corpusqa/internal/index"
)

// Store persists a rebuilt index together with its chunk texts. Rebuild
// must either complete fully or leave any previously persisted state
// untouched: a failed rebuild never corrupts what a running service has
// loaded.
type Store interface {
	Rebuild(ctx context.Context, vectors [][]float32, chunks []string) (index.Searcher, error)
}

// FlatStore persists a flat index and its chunk list as a file pair.
// Both files are staged to temporary names first and renamed into place
// back to back. A crash between the two renames can leave a new index
// beside old chunks; the count check in the snapshot loader refuses such
// a pair, so it is never served.
type FlatStore struct {
	IndexPath  string
	ChunksPath string
}

func (s *FlatStore) Rebuild(ctx context.Context, vectors [][]float32, chunks []string) (index.Searcher, error) {
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("vector count %d does not match chunk count %d", len(vectors), len(chunks))
	}
	flat, err := index.Build(vectors)
	if err != nil {
		return nil, fmt.Errorf("building index: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.IndexPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating index dir: %w", err)
	}

	indexTmp := s.IndexPath + ".tmp"
	chunksTmp := s.ChunksPath + ".tmp"

	if err := stageIndex(flat, indexTmp); err != nil {
		return nil, err
	}
	if err := stageChunks(chunks, chunksTmp); err != nil {
		os.Remove(indexTmp)
		return nil, err
	}
	if err := os.Rename(indexTmp, s.IndexPath); err != nil {
		os.Remove(indexTmp)
		os.Remove(chunksTmp)
		return nil, fmt.Errorf("installing index file: %w", err)
	}
	if err := os.Rename(chunksTmp, s.ChunksPath); err != nil {
		os.Remove(chunksTmp)
		return nil, fmt.Errorf("installing chunks file: %w", err)
	}
	return flat, nil
}

func stageIndex(flat *index.Flat, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating temp index file: %w", err)
	}
	if err := flat.WriteTo(f); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("writing index: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return fmt.Errorf("closing temp index file: %w", err)
	}
	return nil
}

func stageChunks(chunks []string, path string) error {
	data, err := json.Marshal(chunks)
	if err != nil {
		return fmt.Errorf("encoding chunks: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing temp chunks file: %w", err)
	}
	return nil
}

// LoadChunks reads a chunk list previously written by a FlatStore rebuild.
func LoadChunks(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading chunks file: %w", err)
	}
	var chunks []string
	if err := json.Unmarshal(data, &chunks); err != nil {
		return nil, fmt.Errorf("decoding chunks file %s: %w", path, err)
	}
	return chunks, nil
}

// QdrantStore rebuilds a Qdrant collection and persists the chunk texts
// locally. The chunk file is written only after the collection rebuild
// succeeds.
type QdrantStore struct {
	Qdrant     *index.Qdrant
	ChunksPath string
}

func (s *QdrantStore) Rebuild(ctx context.Context, vectors [][]float32, chunks []string) (index.Searcher, error) {
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("vector count %d does not match chunk count %d", len(vectors), len(chunks))
	}
	if err := s.Qdrant.Rebuild(ctx, vectors); err != nil {
		return nil, fmt.Errorf("rebuilding collection: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.ChunksPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating chunks dir: %w", err)
	}
	tmp := s.ChunksPath + ".tmp"
	if err := stageChunks(chunks, tmp); err != nil {
		return nil, err
	}
	if err := os.Rename(tmp, s.ChunksPath); err != nil {
		os.Remove(tmp)
		return nil, fmt.Errorf("installing chunks file: %w", err)
	}
	return s.Qdrant, nil
}
