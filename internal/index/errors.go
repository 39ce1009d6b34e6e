package index

import "errors"

var (
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	ErrCorruptIndex      = errors.New("index file corrupt or unreadable")
	ErrQdrantUnreachable = errors.New("qdrant server unreachable")
)
