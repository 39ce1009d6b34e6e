// Package corpus loads source documents for indexing.
//
// Records come either from a local JSON/JSONL file or from a GitHub
// repository of markdown documents. Filtering of too-short records happens
// once, in Filter, regardless of source.
package corpus

import (
	"context"
	"strings"
)

// Record is a single source document.
type Record struct {
	ID       string            `json:"id,omitempty"`
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// IsMarkdown reports whether the record's content should be treated as
// markdown during chunking.
func (r Record) IsMarkdown() bool {
	return r.Metadata["format"] == "markdown"
}

// Source yields the raw records of a corpus. Implementations do not filter;
// the ingestion pipeline applies Filter so drop counts are reported in one
// place.
type Source interface {
	Load(ctx context.Context) ([]Record, error)
}

// Filter drops records whose trimmed content is shorter than minLength
// characters, preserving order. Returns the survivors and the drop count.
func Filter(records []Record, minLength int) ([]Record, int) {
	kept := make([]Record, 0, len(records))
	for _, r := range records {
		if len([]rune(strings.TrimSpace(r.Content))) < minLength {
			continue
		}
		kept = append(kept, r)
	}
	return kept, len(records) - len(kept)
}
