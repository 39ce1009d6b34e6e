package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "file", cfg.Corpus.Source)
	assert.Equal(t, 800, cfg.Chunking.ChunkSize)
	assert.Equal(t, 160, cfg.Chunking.Overlap)
	assert.Equal(t, 200, cfg.Chunking.MinContentLength)
	assert.Equal(t, "text-embedding-3-small", cfg.Embedding.Model)
	assert.Equal(t, 500, cfg.Embedding.BatchSize)
	assert.Equal(t, "gpt-4o", cfg.Generation.Model)
	assert.Equal(t, 30*time.Second, cfg.GenerationTimeout())
	assert.Equal(t, 8, cfg.Query.DefaultTopK)
	assert.Equal(t, 64, cfg.Query.MaxTopK)
	assert.Equal(t, "flat", cfg.Index.Backend)
	assert.Equal(t, filepath.Join("data", "index.bin"), cfg.IndexPath())
	assert.Equal(t, filepath.Join("data", "chunks.json"), cfg.ChunksPath())
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9000
chunking:
  chunk_size: 400
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 400, cfg.Chunking.ChunkSize)
	assert.Equal(t, 160, cfg.Chunking.Overlap)
	assert.Equal(t, "text-embedding-3-small", cfg.Embedding.Model)
}

func TestLoad_QdrantBackend(t *testing.T) {
	path := writeConfig(t, `
index:
  backend: qdrant
  qdrant:
    collection: contracts
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Index.Qdrant.Host)
	assert.Equal(t, 6334, cfg.Index.Qdrant.Port)
	assert.Equal(t, "contracts", cfg.Index.Qdrant.Collection)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"unknown source", "corpus:\n  source: s3\n", "unknown corpus source"},
		{"github without repo", "corpus:\n  source: github\n  github:\n    owner: acme\n", "requires"},
		{"unknown backend", "index:\n  backend: pinecone\n", "unknown index backend"},
		{"qdrant without section", "index:\n  backend: qdrant\n", "requires"},
		{"negative overlap", "chunking:\n  overlap: -1\n", "overlap"},
		{"bad yaml", "chunking: [\n", "parsing"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
