package corpus

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCorpus(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "corpus.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadFile_JSONArray(t *testing.T) {
	path := writeCorpus(t, `[
		{"id": "a", "content": "first document", "metadata": {"lang": "en"}},
		{"id": "b", "content": "second document"}
	]`)

	records, err := ReadFile(path)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "a", records[0].ID)
	assert.Equal(t, "first document", records[0].Content)
	assert.Equal(t, "en", records[0].Metadata["lang"])
	assert.Equal(t, "second document", records[1].Content)
}

func TestReadFile_JSONL(t *testing.T) {
	path := writeCorpus(t, `{"id": "a", "content": "line one"}

{"id": "b", "content": "line two"}
`)

	records, err := ReadFile(path)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "line one", records[0].Content)
	assert.Equal(t, "line two", records[1].Content)
}

func TestReadFile_AssignsMissingIDs(t *testing.T) {
	path := writeCorpus(t, `[{"content": "anonymous document"}]`)

	records, err := ReadFile(path)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.NotEmpty(t, records[0].ID)
}

func TestReadFile_BadJSON(t *testing.T) {
	path := writeCorpus(t, `{"content": "broken`)
	_, err := ReadFile(path)
	assert.Error(t, err)
}

func TestReadFile_Missing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestFilter_DropsShortRecords(t *testing.T) {
	long := strings.Repeat("long enough content. ", 20)
	records := []Record{
		{ID: "keep-1", Content: long},
		{ID: "drop", Content: "too short"},
		{ID: "keep-2", Content: long},
	}

	kept, dropped := Filter(records, 200)
	assert.Equal(t, 1, dropped)
	require.Len(t, kept, 2)
	assert.Equal(t, "keep-1", kept[0].ID)
	assert.Equal(t, "keep-2", kept[1].ID)
}

func TestFilter_MeasuresCharactersNotBytes(t *testing.T) {
	// 10 characters, 20 bytes: a byte-based filter would keep this
	// against a threshold of 15.
	records := []Record{{ID: "accented", Content: strings.Repeat("é", 10)}}

	kept, dropped := Filter(records, 15)
	assert.Empty(t, kept)
	assert.Equal(t, 1, dropped)

	kept, _ = Filter(records, 10)
	assert.Len(t, kept, 1)
}

func TestFilter_TrimsBeforeMeasuring(t *testing.T) {
	records := []Record{{Content: "   \n\t  "}}
	kept, dropped := Filter(records, 1)
	assert.Empty(t, kept)
	assert.Equal(t, 1, dropped)
}

func TestIsMarkdown(t *testing.T) {
	assert.True(t, Record{Metadata: map[string]string{"format": "markdown"}}.IsMarkdown())
	assert.False(t, Record{Metadata: map[string]string{"format": "text"}}.IsMarkdown())
	assert.False(t, Record{}.IsMarkdown())
}
