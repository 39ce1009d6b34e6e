// Package main provides the question answering server entry point.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"corpusqa/internal/config"
	"corpusqa/internal/corpus"
	"corpusqa/internal/embedding"
	"corpusqa/internal/generator"
	"corpusqa/internal/index"
	"corpusqa/internal/ingest"
	mcpserver "corpusqa/internal/mcp"
	"corpusqa/internal/query"
	"corpusqa/internal/server"
)

func main() {
	// Load .env file if present (local development), ignore if missing (production)
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	// Create context that cancels on SIGTERM/SIGINT
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	cfg, err := config.Load(getEnv("CONFIG_PATH", "config.yaml"))
	if err != nil {
		return err
	}

	embeddingClient, err := embedding.NewClient()
	if err != nil {
		return fmt.Errorf("failed to create embedding client: %w", err)
	}
	embedder := embedding.NewEmbedder(embeddingClient, cfg.Embedding.Model, cfg.Embedding.BatchSize)
	// The generator shares the embedding client's OpenAI connection.
	gen := generator.New(embeddingClient.Client(), cfg.Generation.Model, cfg.GenerationTimeout())

	source, err := buildSource(cfg)
	if err != nil {
		return err
	}
	store, qdrantIdx, err := buildStore(cfg)
	if err != nil {
		return err
	}
	if qdrantIdx != nil {
		defer qdrantIdx.Close()
	}

	pipeline := ingest.New(source, embedder, store, ingest.Options{
		ChunkSize:        cfg.Chunking.ChunkSize,
		Overlap:          cfg.Chunking.Overlap,
		MinContentLength: cfg.Chunking.MinContentLength,
	}, logger)

	service := query.NewService(embedder, gen, pipeline.Run, query.Options{
		MinQueryLength: cfg.Query.MinQueryLength,
		DefaultTopK:    cfg.Query.DefaultTopK,
		MaxTopK:        cfg.Query.MaxTopK,
		PreviewLength:  cfg.Query.PreviewLength,
	}, logger)

	// Load whatever was persisted by an earlier ingestion. Failure is not
	// fatal: the server starts unready and reports 503 until a reindex.
	if snap, err := loadSnapshot(ctx, cfg, qdrantIdx); err != nil {
		logger.Warn("starting without an index", "error", err)
	} else {
		service.Install(snap)
		logger.Info("index loaded", "chunks", len(snap.Chunks))
	}

	handler := server.NewHandler(service, cfg.IndexPath(), cfg.ChunksPath(), logger)
	mcpSrv := mcpserver.NewServer(service)
	router := server.NewRouter(handler, cfg.Server.CORSOrigins, mcpserver.NewHTTPHandler(mcpSrv, nil))

	addr := fmt.Sprintf("0.0.0.0:%d", cfg.Server.Port)
	srv := &http.Server{Addr: addr, Handler: router}

	// Stdio mode runs MCP over stdin/stdout for local clients while the
	// HTTP surface keeps serving health checks in the background.
	if getEnv("MCP_STDIO", "false") == "true" {
		go func() {
			logger.Info("http server listening", "addr", addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server error", "error", err)
			}
		}()
		logger.Info("mcp server listening on stdio")
		return mcpSrv.Run(ctx)
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", addr, "mcp", "/mcp")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	return srv.Shutdown(shutdownCtx)
}

func buildSource(cfg *config.Config) (corpus.Source, error) {
	if cfg.Corpus.Source == "github" {
		return corpus.NewGitHubSource(cfg.Corpus.GitHub.Owner, cfg.Corpus.GitHub.Repo, cfg.Corpus.GitHub.BasePath)
	}
	return corpus.FileSource{Path: cfg.Corpus.Path}, nil
}

func buildStore(cfg *config.Config) (ingest.Store, *index.Qdrant, error) {
	if cfg.Index.Backend == "qdrant" {
		q, err := index.NewQdrant(cfg.Index.Qdrant.Host, cfg.Index.Qdrant.Port, cfg.Index.Qdrant.Collection)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to Qdrant: %w", err)
		}
		return &ingest.QdrantStore{Qdrant: q, ChunksPath: cfg.ChunksPath()}, q, nil
	}
	return &ingest.FlatStore{
		IndexPath:  cfg.IndexPath(),
		ChunksPath: cfg.ChunksPath(),
	}, nil, nil
}

// loadSnapshot restores the persisted index/chunk pair for the
// configured backend.
func loadSnapshot(ctx context.Context, cfg *config.Config, qdrantIdx *index.Qdrant) (*query.Snapshot, error) {
	if qdrantIdx == nil {
		return query.LoadSnapshot(cfg.IndexPath(), cfg.ChunksPath())
	}
	if err := qdrantIdx.Open(ctx); err != nil {
		return nil, fmt.Errorf("opening collection: %w", err)
	}
	chunks, err := ingest.LoadChunks(cfg.ChunksPath())
	if err != nil {
		return nil, fmt.Errorf("loading chunks: %w", err)
	}
	if qdrantIdx.Len() != len(chunks) {
		return nil, fmt.Errorf("collection has %d points but chunk file has %d entries: the pair is inconsistent",
			qdrantIdx.Len(), len(chunks))
	}
	return &query.Snapshot{Index: qdrantIdx, Chunks: chunks, BuiltAt: time.Now()}, nil
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
