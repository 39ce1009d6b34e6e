// Package mcp exposes corpus retrieval and question answering as MCP tools.
package mcp

import "time"

// SearchInput defines the input parameters for the search_corpus tool.
type SearchInput struct {
	// Query is the semantic search query.
	Query string `json:"query" jsonschema:"required,description=The semantic search query"`
	// TopK is the number of chunks to return.
	TopK int `json:"top_k,omitempty" jsonschema:"minimum=1,maximum=64,default=8,description=Number of chunks to return"`
}

// SearchOutput contains the search results.
type SearchOutput struct {
	// Results is the list of matching chunks, closest first.
	Results []SearchResult `json:"results"`
	// Message provides informational context (e.g., "No matching chunks found").
	Message string `json:"message,omitempty"`
}

// SearchResult is a single chunk match.
type SearchResult struct {
	// Rank is the 1-based position in the result list.
	Rank int `json:"rank"`
	// Distance is the squared L2 distance to the query; lower is closer.
	Distance float32 `json:"distance"`
	// Text is the full chunk text.
	Text string `json:"text"`
}

// AskInput defines the input parameters for the ask tool.
type AskInput struct {
	// Query is the question to answer.
	Query string `json:"query" jsonschema:"required,description=The question to answer from the corpus"`
	// TopK is the number of chunks to ground the answer on.
	TopK int `json:"top_k,omitempty" jsonschema:"minimum=1,maximum=64,default=8,description=Number of chunks to ground the answer on"`
	// FormatJSON asks the model for a structured JSON answer.
	FormatJSON bool `json:"format_json,omitempty" jsonschema:"description=Request a structured JSON answer"`
}

// AskOutput contains the generated answer and its grounding.
type AskOutput struct {
	// Answer is the generated answer text.
	Answer string `json:"answer"`
	// Sources lists the chunks the answer was grounded on.
	Sources []Source `json:"sources"`
}

// Source describes one chunk that grounded an answer.
type Source struct {
	Rank    int     `json:"rank"`
	Score   float32 `json:"score"`
	Preview string  `json:"preview"`
}

// StatusInput defines the input for the index_status tool. It takes no
// parameters.
type StatusInput struct{}

// StatusOutput describes what the service currently has loaded.
type StatusOutput struct {
	// Loaded reports whether an index/chunk snapshot is installed.
	Loaded bool `json:"loaded"`
	// ChunkCount is the number of indexed chunks.
	ChunkCount int `json:"chunk_count"`
	// BuiltAt is when the current snapshot was built, if known.
	BuiltAt *time.Time `json:"built_at,omitempty"`
}
