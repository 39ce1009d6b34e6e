// Package chunker splits document text into overlapping word windows.
//
// Windows are rejoined with single spaces, so original whitespace and
// layout are not preserved. That is a deliberate, lossy transformation:
// good enough for embedding and retrieval, not for exact-quote extraction.
package chunker

import (
	"strings"

	"corpusqa/internal/corpus"
)

// Split breaks text into windows of up to size whitespace-delimited tokens,
// advancing the window start by max(1, size-overlap) tokens. The step clamp
// guarantees forward progress even when overlap >= size. The final window
// may be shorter than size. Output is a pure function of the inputs.
func Split(text string, size, overlap int) []string {
	if size <= 0 {
		return nil
	}
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	step := size - overlap
	if step < 1 {
		step = 1
	}
	var chunks []string
	for start := 0; start < len(words); start += step {
		end := min(start+size, len(words))
		chunks = append(chunks, strings.Join(words[start:end], " "))
	}
	return chunks
}

// FromRecords chunks every record's content and concatenates the results
// into one flat sequence, preserving record order. A chunk's position in
// the returned slice is its identity: it must match the row of its vector
// in the index built from the same sequence. Markdown records are split
// per heading section first.
func FromRecords(records []corpus.Record, size, overlap int) []string {
	var all []string
	for _, r := range records {
		if r.IsMarkdown() {
			all = append(all, SplitMarkdown([]byte(r.Content), size, overlap)...)
		} else {
			all = append(all, Split(r.Content, size, overlap)...)
		}
	}
	return all
}
