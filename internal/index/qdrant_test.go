//go:build integration

package index

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Requires a local Qdrant at localhost:6334; skips otherwise.
func setupQdrant(t *testing.T) *Qdrant {
	q, err := NewQdrant("localhost", 6334, "test-corpusqa-"+uuid.New().String())
	if err != nil {
		t.Skipf("Qdrant not available: %v", err)
	}
	t.Cleanup(func() { q.Close() })
	return q
}

func TestQdrant_RebuildAndSearch(t *testing.T) {
	q := setupQdrant(t)
	ctx := context.Background()

	vectors := [][]float32{
		{10, 0},
		{1, 0},
		{0, 0},
	}
	require.NoError(t, q.Rebuild(ctx, vectors))
	assert.Equal(t, 3, q.Len())
	assert.Equal(t, 2, q.Dimension())

	hits, err := q.Search(ctx, []float32{0, 0}, 3)
	require.NoError(t, err)
	require.Len(t, hits, 3)
	assert.Equal(t, 2, hits[0].Row)
	assert.Equal(t, 1, hits[1].Row)
	assert.Equal(t, 0, hits[2].Row)
}

func TestQdrant_DimensionMismatch(t *testing.T) {
	q := setupQdrant(t)
	ctx := context.Background()

	require.NoError(t, q.Rebuild(ctx, [][]float32{{1, 0, 0}}))
	_, err := q.Search(ctx, []float32{1, 0}, 1)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestQdrant_OpenExisting(t *testing.T) {
	q := setupQdrant(t)
	ctx := context.Background()
	require.NoError(t, q.Rebuild(ctx, [][]float32{{1, 0}, {0, 1}}))

	reopened, err := NewQdrant("localhost", 6334, q.collection)
	require.NoError(t, err)
	defer reopened.Close()
	require.NoError(t, reopened.Open(ctx))
	assert.Equal(t, 2, reopened.Len())
	assert.Equal(t, 2, reopened.Dimension())
}
