package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"corpusqa/internal/query"
)

// Server wraps the MCP server with its query service dependency.
type Server struct {
	server  *mcp.Server
	service *query.Service
}

// NewServer creates a configured MCP server with tools registered.
func NewServer(service *query.Service) *Server {
	impl := &mcp.Implementation{
		Name:    "corpusqa-server",
		Version: "v0.1.0",
	}

	server := mcp.NewServer(impl, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_corpus",
		Description: "Search the corpus semantically. Returns the closest chunks with their distances; lower distance means closer.",
	}, makeSearchHandler(service))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question from the corpus. Retrieves the closest chunks and generates an answer grounded only in them.",
	}, makeAskHandler(service))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "index_status",
		Description: "Report whether an index is loaded, how many chunks it holds, and when it was built.",
	}, makeStatusHandler(service))

	return &Server{server: server, service: service}
}

// Run starts the server with stdio transport (blocks until client disconnects).
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// MCPServer returns the underlying MCP server instance.
// Used by transport handlers that need to wrap the server.
func (s *Server) MCPServer() *mcp.Server {
	return s.server
}
