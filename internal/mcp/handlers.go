package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"corpusqa/internal/query"
)

// makeSearchHandler creates the search_corpus tool handler. It returns
// raw retrieval hits with full chunk texts so the calling model can read
// the evidence itself.
func makeSearchHandler(service *query.Service) func(
	context.Context, *mcp.CallToolRequest, SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input SearchInput) (
		*mcp.CallToolResult, SearchOutput, error,
	) {
		chunks, err := service.Retrieve(ctx, input.Query, input.TopK)
		if err != nil {
			return nil, SearchOutput{}, toolError(err)
		}

		results := make([]SearchResult, len(chunks))
		for i, c := range chunks {
			results[i] = SearchResult{
				Rank:     c.Rank,
				Distance: c.Distance,
				Text:     c.Text,
			}
		}
		if len(results) == 0 {
			return nil, SearchOutput{
				Results: []SearchResult{},
				Message: "No matching chunks found. The index may be empty.",
			}, nil
		}
		return nil, SearchOutput{Results: results}, nil
	}
}

// makeAskHandler creates the ask tool handler: full retrieval plus
// grounded generation.
func makeAskHandler(service *query.Service) func(
	context.Context, *mcp.CallToolRequest, AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input AskInput) (
		*mcp.CallToolResult, AskOutput, error,
	) {
		answer, err := service.Ask(ctx, input.Query, input.TopK, input.FormatJSON)
		if err != nil {
			return nil, AskOutput{}, toolError(err)
		}

		sources := make([]Source, len(answer.Sources))
		for i, s := range answer.Sources {
			sources[i] = Source{Rank: s.Rank, Score: s.Score, Preview: s.Preview}
		}
		return nil, AskOutput{Answer: answer.Answer, Sources: sources}, nil
	}
}

// makeStatusHandler creates the index_status tool handler.
func makeStatusHandler(service *query.Service) func(
	context.Context, *mcp.CallToolRequest, StatusInput,
) (*mcp.CallToolResult, StatusOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input StatusInput) (
		*mcp.CallToolResult, StatusOutput, error,
	) {
		health := service.Health()
		out := StatusOutput{
			Loaded:     health.OK,
			ChunkCount: health.ChunkCount,
		}
		if !health.BuiltAt.IsZero() {
			builtAt := health.BuiltAt
			out.BuiltAt = &builtAt
		}
		return nil, out, nil
	}
}

// toolError rewrites service errors into messages a calling model can
// act on.
func toolError(err error) error {
	switch {
	case errors.Is(err, query.ErrIndexUnavailable):
		return fmt.Errorf("index not loaded: run ingestion before querying")
	case errors.Is(err, query.ErrInvalidRequest):
		return err
	default:
		return fmt.Errorf("query failed: %w", err)
	}
}
