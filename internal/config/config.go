// Package config loads the service configuration from YAML with
// sensible defaults, so an empty or missing file yields a working
// local setup.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// ServerConfig configures the HTTP serving surface.
type ServerConfig struct {
	Port        int      `yaml:"port"`
	CORSOrigins []string `yaml:"cors_origins"`
}

// CorpusConfig selects where records are loaded from.
type CorpusConfig struct {
	Source string        `yaml:"source"` // "file" or "github"
	Path   string        `yaml:"path"`
	GitHub *GitHubConfig `yaml:"github,omitempty"`
}

// GitHubConfig identifies a repository subtree of markdown documents.
type GitHubConfig struct {
	Owner    string `yaml:"owner"`
	Repo     string `yaml:"repo"`
	BasePath string `yaml:"base_path"`
}

// ChunkingConfig controls record filtering and word windowing.
type ChunkingConfig struct {
	ChunkSize        int `yaml:"chunk_size"`
	Overlap          int `yaml:"overlap"`
	MinContentLength int `yaml:"min_content_length"`
}

// EmbeddingConfig configures the embedding model.
type EmbeddingConfig struct {
	Model     string `yaml:"model"`
	BatchSize int    `yaml:"batch_size"`
}

// GenerationConfig configures answer generation.
type GenerationConfig struct {
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// QueryConfig bounds request validation and response shaping.
type QueryConfig struct {
	MinQueryLength int `yaml:"min_query_length"`
	DefaultTopK    int `yaml:"default_top_k"`
	MaxTopK        int `yaml:"max_top_k"`
	PreviewLength  int `yaml:"preview_length"`
}

// IndexConfig selects and configures the index backend.
type IndexConfig struct {
	Backend string        `yaml:"backend"` // "flat" or "qdrant"
	Dir     string        `yaml:"dir"`
	Qdrant  *QdrantConfig `yaml:"qdrant,omitempty"`
}

// QdrantConfig contains connection details for a Qdrant backend.
type QdrantConfig struct {
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	Collection string `yaml:"collection"`
}

// Config is the root configuration structure.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Corpus     CorpusConfig     `yaml:"corpus"`
	Chunking   ChunkingConfig   `yaml:"chunking"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Generation GenerationConfig `yaml:"generation"`
	Query      QueryConfig      `yaml:"query"`
	Index      IndexConfig      `yaml:"index"`
}

// IndexPath is the flat index file inside the configured index dir.
func (c *Config) IndexPath() string {
	return filepath.Join(c.Index.Dir, "index.bin")
}

// ChunksPath is the chunk list file inside the configured index dir.
func (c *Config) ChunksPath() string {
	return filepath.Join(c.Index.Dir, "chunks.json")
}

// GenerationTimeout returns the generation timeout as a duration.
func (c *Config) GenerationTimeout() time.Duration {
	return time.Duration(c.Generation.TimeoutSecs) * time.Second
}

// Load reads the config from path. A missing file returns defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := defaultConfig()
			return cfg, nil
		}
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return &cfg, nil
}

func defaultConfig() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Corpus.Source == "" {
		cfg.Corpus.Source = "file"
	}
	if cfg.Corpus.Path == "" {
		cfg.Corpus.Path = "corpus.jsonl"
	}
	if cfg.Chunking.ChunkSize == 0 {
		cfg.Chunking.ChunkSize = 800
	}
	if cfg.Chunking.Overlap == 0 {
		cfg.Chunking.Overlap = 160
	}
	if cfg.Chunking.MinContentLength == 0 {
		cfg.Chunking.MinContentLength = 200
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = "text-embedding-3-small"
	}
	if cfg.Embedding.BatchSize == 0 {
		cfg.Embedding.BatchSize = 500
	}
	if cfg.Generation.Model == "" {
		cfg.Generation.Model = "gpt-4o"
	}
	if cfg.Generation.TimeoutSecs == 0 {
		cfg.Generation.TimeoutSecs = 30
	}
	if cfg.Query.MinQueryLength == 0 {
		cfg.Query.MinQueryLength = 2
	}
	if cfg.Query.DefaultTopK == 0 {
		cfg.Query.DefaultTopK = 8
	}
	if cfg.Query.MaxTopK == 0 {
		cfg.Query.MaxTopK = 64
	}
	if cfg.Query.PreviewLength == 0 {
		cfg.Query.PreviewLength = 240
	}
	if cfg.Index.Backend == "" {
		cfg.Index.Backend = "flat"
	}
	if cfg.Index.Dir == "" {
		cfg.Index.Dir = "data"
	}
	if cfg.Index.Backend == "qdrant" && cfg.Index.Qdrant != nil {
		if cfg.Index.Qdrant.Host == "" {
			cfg.Index.Qdrant.Host = "localhost"
		}
		if cfg.Index.Qdrant.Port == 0 {
			cfg.Index.Qdrant.Port = 6334
		}
		if cfg.Index.Qdrant.Collection == "" {
			cfg.Index.Qdrant.Collection = "corpus"
		}
	}
}

func validate(cfg *Config) error {
	switch cfg.Corpus.Source {
	case "file":
	case "github":
		if cfg.Corpus.GitHub == nil || cfg.Corpus.GitHub.Owner == "" || cfg.Corpus.GitHub.Repo == "" {
			return fmt.Errorf("github source requires corpus.github.owner and corpus.github.repo")
		}
	default:
		return fmt.Errorf("unknown corpus source %q", cfg.Corpus.Source)
	}
	switch cfg.Index.Backend {
	case "flat":
	case "qdrant":
		if cfg.Index.Qdrant == nil {
			return fmt.Errorf("qdrant backend requires an index.qdrant section")
		}
	default:
		return fmt.Errorf("unknown index backend %q", cfg.Index.Backend)
	}
	if cfg.Chunking.ChunkSize < 1 {
		return fmt.Errorf("chunking.chunk_size must be positive")
	}
	if cfg.Chunking.Overlap < 0 {
		return fmt.Errorf("chunking.overlap must not be negative")
	}
	return nil
}
