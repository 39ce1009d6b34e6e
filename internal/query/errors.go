package query

import "errors"

var (
	// ErrIndexUnavailable means no index/chunk snapshot has been installed
	// yet. Queries cannot be served until ingestion or a successful load.
	ErrIndexUnavailable = errors.New("index not loaded")

	// ErrInvalidRequest marks client-side validation failures: a query
	// that is too short or a top_k outside the allowed range.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrReindexInProgress is returned when a rebuild is requested while
	// another one is still running. Only one rebuild runs at a time.
	ErrReindexInProgress = errors.New("reindex already in progress")

	// ErrChunkOutOfRange means the index returned a row with no matching
	// chunk text. The persisted pair is inconsistent.
	ErrChunkOutOfRange = errors.New("index row has no matching chunk")

	// ErrRetrieval wraps failures while embedding the query or searching
	// the index.
	ErrRetrieval = errors.New("retrieval failed")

	// ErrGeneration wraps failures while generating the answer.
	ErrGeneration = errors.New("generation failed")
)
