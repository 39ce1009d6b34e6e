// Package main provides the ingestion CLI: build the index from a corpus.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"corpusqa/internal/config"
	"corpusqa/internal/corpus"
	"corpusqa/internal/embedding"
	"corpusqa/internal/index"
	"corpusqa/internal/ingest"
)

var (
	configPath string
	corpusPath string
)

var rootCmd = &cobra.Command{
	Use:   "corpusqa-ingest",
	Short: "Corpus indexing tool",
	Long:  "CLI tool for building the vector index and chunk store from a document corpus",
}

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the index from the configured corpus",
	Long: `Loads the corpus, splits it into overlapping word windows, embeds every
chunk, and persists the index together with the chunk texts.

The index and chunk files are replaced atomically: a running server keeps
serving the old pair until the new one is complete.

Environment variables:
  OPENAI_API_KEY OpenAI API key for embeddings (required)
  GITHUB_TOKEN   GitHub token for higher rate limits (github source only)`,
	RunE: runBuild,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "config file path")
	buildCmd.Flags().StringVar(&corpusPath, "corpus", "", "override the configured corpus file")
	rootCmd.AddCommand(buildCmd)
}

func main() {
	// Load .env file if present (local development), ignore if missing (production)
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runBuild(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	start := time.Now()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if corpusPath != "" {
		cfg.Corpus.Source = "file"
		cfg.Corpus.Path = corpusPath
	}

	fmt.Println("Starting ingestion...")
	fmt.Println()

	source, err := buildSource(cfg)
	if err != nil {
		return err
	}

	embeddingClient, err := embedding.NewClient()
	if err != nil {
		return fmt.Errorf("failed to create embedding client: %w", err)
	}
	embedder := embedding.NewEmbedder(embeddingClient, cfg.Embedding.Model, cfg.Embedding.BatchSize)

	store, cleanup, err := buildStore(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	pipeline := ingest.New(source, embedder, store, ingest.Options{
		ChunkSize:        cfg.Chunking.ChunkSize,
		Overlap:          cfg.Chunking.Overlap,
		MinContentLength: cfg.Chunking.MinContentLength,
	}, slog.Default())

	_, _, result, err := pipeline.Run(ctx)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	fmt.Println()
	fmt.Println("Ingestion complete!")
	fmt.Printf("  Records: %d/%d (%d dropped as too short)\n", result.RecordsKept, result.RecordsTotal, result.RecordsDropped)
	fmt.Printf("  Chunks: %d\n", result.Chunks)
	fmt.Printf("  Dimension: %d\n", result.Dimension)
	fmt.Printf("  Duration: %s\n", result.Duration.Round(time.Second))
	fmt.Println()
	fmt.Printf("Total time: %s\n", time.Since(start).Round(time.Second))

	return nil
}

func buildSource(cfg *config.Config) (corpus.Source, error) {
	switch cfg.Corpus.Source {
	case "github":
		fmt.Printf("Corpus: github.com/%s/%s/%s\n", cfg.Corpus.GitHub.Owner, cfg.Corpus.GitHub.Repo, cfg.Corpus.GitHub.BasePath)
		return corpus.NewGitHubSource(cfg.Corpus.GitHub.Owner, cfg.Corpus.GitHub.Repo, cfg.Corpus.GitHub.BasePath)
	default:
		fmt.Printf("Corpus: %s\n", cfg.Corpus.Path)
		return corpus.FileSource{Path: cfg.Corpus.Path}, nil
	}
}

func buildStore(cfg *config.Config) (ingest.Store, func(), error) {
	if cfg.Index.Backend == "qdrant" {
		fmt.Printf("Connecting to Qdrant at %s:%d...\n", cfg.Index.Qdrant.Host, cfg.Index.Qdrant.Port)
		q, err := index.NewQdrant(cfg.Index.Qdrant.Host, cfg.Index.Qdrant.Port, cfg.Index.Qdrant.Collection)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to Qdrant: %w", err)
		}
		fmt.Println("Qdrant healthy")
		return &ingest.QdrantStore{Qdrant: q, ChunksPath: cfg.ChunksPath()}, func() { q.Close() }, nil
	}
	return &ingest.FlatStore{
		IndexPath:  cfg.IndexPath(),
		ChunksPath: cfg.ChunksPath(),
	}, func() {}, nil
}
