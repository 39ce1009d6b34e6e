package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"corpusqa/internal/corpus"
)

func TestSplit_WindowAndOverlap(t *testing.T) {
	// size=4 overlap=2 means step=2.
	got := Split("a b c d e f", 4, 2)
	assert.Equal(t, []string{"a b c d", "c d e f", "e f"}, got)
}

func TestSplit_Table(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		size    int
		overlap int
		want    []string
	}{
		{
			name: "empty text",
			text: "", size: 4, overlap: 1,
			want: nil,
		},
		{
			name: "whitespace only",
			text: " \n\t ", size: 4, overlap: 1,
			want: nil,
		},
		{
			name: "single short window",
			text: "hello world", size: 10, overlap: 2,
			want: []string{"hello world"},
		},
		{
			name: "no overlap",
			text: "a b c d", size: 2, overlap: 0,
			want: []string{"a b", "c d"},
		},
		{
			name: "overlap equals size still terminates",
			text: "a b c", size: 2, overlap: 2,
			want: []string{"a b", "b c", "c"},
		},
		{
			name: "overlap exceeds size still terminates",
			text: "a b c", size: 2, overlap: 5,
			want: []string{"a b", "b c", "c"},
		},
		{
			name: "collapses internal whitespace",
			text: "a\n\nb\t c", size: 3, overlap: 0,
			want: []string{"a b c"},
		},
		{
			name: "non-positive size",
			text: "a b c", size: 0, overlap: 0,
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Split(tt.text, tt.size, tt.overlap))
		})
	}
}

func TestSplit_WindowsNeverExceedSize(t *testing.T) {
	text := strings.Repeat("word ", 137)
	for _, size := range []int{1, 3, 8, 50, 200} {
		for _, overlap := range []int{0, 1, size / 2, size, size + 3} {
			for _, chunk := range Split(text, size, overlap) {
				require.LessOrEqual(t, len(strings.Fields(chunk)), size,
					"size=%d overlap=%d", size, overlap)
			}
		}
	}
}

func TestSplit_Deterministic(t *testing.T) {
	text := "the quick brown fox jumps over the lazy dog"
	first := Split(text, 3, 1)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Split(text, 3, 1))
	}
}

func TestFromRecords_PreservesOrder(t *testing.T) {
	records := []corpus.Record{
		{ID: "r1", Content: "a b c d"},
		{ID: "r2", Content: "e f g h"},
	}
	got := FromRecords(records, 2, 0)
	assert.Equal(t, []string{"a b", "c d", "e f", "g h"}, got)
}

func TestFromRecords_SkipsEmptyRecords(t *testing.T) {
	records := []corpus.Record{
		{ID: "r1", Content: "   "},
		{ID: "r2", Content: "one two"},
	}
	got := FromRecords(records, 5, 0)
	assert.Equal(t, []string{"one two"}, got)
}

func TestFromRecords_MarkdownGoesThroughSections(t *testing.T) {
	records := []corpus.Record{
		{
			ID:       "doc.md",
			Content:  "# Title\n\nSection body text here.\n",
			Metadata: map[string]string{"format": "markdown"},
		},
	}
	got := FromRecords(records, 100, 0)
	require.Len(t, got, 1)
	assert.Contains(t, got[0], "# Title")
	assert.Contains(t, got[0], "Section body text here.")
}
